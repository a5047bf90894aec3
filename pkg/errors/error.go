package errors

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pt3002/CN-Project/pkg/log"
)

// prefixfromDepth will create the indent prefix for a certain depth
// of string, e.g. 2 will yield "  " * 2 -> "    "
func prefixFromDepth(depth int) string {
	var p []byte
	for i := 0; i < depth; i++ {
		p = append(p, "  "...)
	}
	return string(p)
}

// PrintError will attempt to traverse the nested error and
// recursively print out any nested ProbeErrors found
// If a multierror.Error is found, we will recurisvely print out
// each error found
func PrintError(err error, depth int) {
	var (
		merr *multierror.Error
		perr *ProbeError
		rerr *ReportError
	)

	if errors.As(err, &rerr) {
		rerr.LogError(depth)
	} else if errors.As(err, &perr) {
		perr.LogError(depth)
	} else if errors.As(err, &merr) {
		for _, v := range merr.Errors {
			PrintError(v, depth+1)
		}
	} else {
		log.Debug().Err(err).Msg(prefixFromDepth(depth) + "error")
	}
}

// ProbeError encapsulates the context of a failed request to a target
type ProbeError struct {
	URL     string // URL is the target that was being requested when the error occurred
	Worker  int    // Worker is the index of the worker that sent the request
	Err     error  // Err includes the error. If this is a wrapped error, then Error() will not print out this field
	Context string // Context is an arbitrary context field explaining what was happening
}

// Error will return the string representation of the error. If the error
// is wrapped, we omit printing the wrapped error, allowing the user to determine
// how to display the wrapped error.
func (p *ProbeError) Error() string {
	if err := errors.Unwrap(p.Err); err != nil {
		return fmt.Sprintf("probeError [%s worker=%d]: %s", p.URL, p.Worker, p.Context)
	}
	return fmt.Sprintf("probeError [%s worker=%d]: %s: %v", p.URL, p.Worker, p.Context, p.Err)
}

// Unwrap returns the underlying error so errors.Is works through a ProbeError
func (p *ProbeError) Unwrap() error {
	return p.Err
}

// LogError will log to Debug() the context surrounding the error.
// the depth argument modifies the indentation depth of the pretty printed error
func (p *ProbeError) LogError(depth int) {
	var (
		merr *multierror.Error
		perr *ProbeError
	)
	base := log.Debug().
		Str("url", p.URL).
		Int("worker", p.Worker).
		Str("context", p.Context)

	if errors.As(p.Err, &merr) {
		base.Msg(prefixFromDepth(depth))
		PrintError(merr, depth+1)
	} else if errors.As(p.Err, &perr) {
		base.Msg(prefixFromDepth(depth))
		perr.LogError(depth + 1)
	} else {
		base.Err(p.Err).Msg(prefixFromDepth(depth))
	}
}

// ReportError is returned when the records of a run could not be written out
type ReportError struct {
	File   string
	Format string
	Err    error
}

func (r *ReportError) Error() string {
	return fmt.Sprintf("reportError [%s format=%s]: %v", r.File, r.Format, r.Err)
}

func (r *ReportError) Unwrap() error {
	return r.Err
}

// LogError logs the file and format, then every attempt nested in Err one level deeper
func (r *ReportError) LogError(depth int) {
	var merr *multierror.Error
	base := log.Debug().
		Str("file", r.File).
		Str("format", r.Format)

	if errors.As(r.Err, &merr) {
		base.Msg(prefixFromDepth(depth) + "failed to write report")
		for _, v := range merr.Errors {
			PrintError(v, depth+1)
		}
		return
	}
	base.Err(r.Err).Msg(prefixFromDepth(depth) + "failed to write report")
}
