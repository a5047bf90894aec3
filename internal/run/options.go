package run

import (
	"fmt"
	"strings"
	"time"

	"github.com/pt3002/CN-Project/internal/report"
	"github.com/pt3002/CN-Project/pkg/http"
	"github.com/pt3002/CN-Project/pkg/loadtest"
)

const (
	DefaultUserAgent     = "loadtest/1.0"
	DefaultTimeout       = 0 * time.Second
	DefaultMaxRedirects  = 0
	DefaultConfirmAbove  = 100000
	DefaultProgressStyle = ProgressSimple
)

const (
	ProgressSimple = "simple"
	ProgressMulti  = "multi"
)

type RunOptions struct {
	Calls           int
	Concurrent      int
	Timeout         time.Duration
	MaxRedirects    int
	Headers         []http.Header
	UserAgent       string
	Insecure        bool
	RetainFailedURL bool
	// Templates renders {{n}}, {{i}} and {{uuid}} tags in urls for every call
	Templates bool

	ProgressBar   bool
	ProgressStyle string
	PrintRecords  bool

	// ConfirmAbove is the number of requests above which the user is asked to confirm the run. 0 disables it
	ConfirmAbove int
	AssumeYes    bool

	OutputFile   string
	OutputFormat report.Format
	Reports      []report.GroupBy

	HistoryDB   string
	MetricsAddr string
}

func NewDefaultRunOptions() *RunOptions {
	return &RunOptions{
		Calls:         loadtest.DefaultCalls,
		Concurrent:    loadtest.DefaultConcurrent,
		Timeout:       DefaultTimeout,
		MaxRedirects:  DefaultMaxRedirects,
		UserAgent:     DefaultUserAgent,
		ProgressStyle: DefaultProgressStyle,
		ConfirmAbove:  DefaultConfirmAbove,
		OutputFormat:  report.CSV,
	}
}

// LoadtestOptions converts the run options into engine options
func (s RunOptions) LoadtestOptions() []loadtest.ConfigOption {
	return []loadtest.ConfigOption{
		loadtest.Calls(s.Calls),
		loadtest.Concurrent(s.Concurrent),
		loadtest.MaxTimeout(s.Timeout),
		loadtest.MaxRedirects(s.MaxRedirects),
		loadtest.HTTPExtraHeaders(s.Headers),
		loadtest.UserAgent(s.UserAgent),
		loadtest.InsecureSkipVerify(s.Insecure),
		loadtest.RetainFailedURL(s.RetainFailedURL),
		loadtest.URLTemplates(s.Templates),
	}
}

func (s RunOptions) String() string {
	p := map[string]interface{}{
		"Calls":           s.Calls,
		"Concurrent":      s.Concurrent,
		"Timeout":         s.Timeout,
		"MaxRedirects":    s.MaxRedirects,
		"Headers":         s.Headers,
		"UserAgent":       s.UserAgent,
		"Insecure":        s.Insecure,
		"RetainFailedURL": s.RetainFailedURL,
		"Templates":       s.Templates,
		"ProgressBar":     s.ProgressBar,
		"ProgressStyle":   s.ProgressStyle,
		"PrintRecords":    s.PrintRecords,
		"ConfirmAbove":    s.ConfirmAbove,
		"OutputFile":      s.OutputFile,
		"OutputFormat":    s.OutputFormat,
		"Reports":         s.Reports,
		"HistoryDB":       s.HistoryDB,
		"MetricsAddr":     s.MetricsAddr,
	}
	ret := make([]string, 0)
	for k, v := range p {
		ret = append(ret, fmt.Sprintf("%s: %v", k, v))
	}
	return strings.Join(ret, "\n")
}

// Validate will ensure the options are sane after all the flags have been applied
func (s RunOptions) Validate() error {
	if s.Calls <= 0 {
		return fmt.Errorf("calls is too low (%d)", s.Calls)
	}
	if s.Concurrent <= 0 {
		return fmt.Errorf("concurrent is too low (%d)", s.Concurrent)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative (%s)", s.Timeout)
	}
	if s.MaxRedirects < 0 {
		return fmt.Errorf("max redirects cannot be negative (%d)", s.MaxRedirects)
	}
	switch s.ProgressStyle {
	case ProgressSimple, ProgressMulti:
	default:
		return fmt.Errorf("unknown progress style %q. supported 'simple', 'multi'", s.ProgressStyle)
	}
	return nil
}

type RunOption func(*RunOptions) error

func Calls(n int) RunOption {
	return func(o *RunOptions) error {
		o.Calls = n
		return nil
	}
}

func Concurrent(n int) RunOption {
	return func(o *RunOptions) error {
		o.Concurrent = n
		return nil
	}
}

func Timeout(n time.Duration) RunOption {
	return func(o *RunOptions) error {
		o.Timeout = n
		return nil
	}
}

func MaxRedirects(n int) RunOption {
	return func(o *RunOptions) error {
		o.MaxRedirects = n
		return nil
	}
}

// AddHeaders parses headers in the "Key: Value" form
func AddHeaders(in []string) RunOption {
	return func(o *RunOptions) error {
		for _, v := range in {
			h, err := http.ParseHeader(v)
			if err != nil {
				return err
			}
			o.Headers = append(o.Headers, h)
		}
		return nil
	}
}

func UserAgent(n string) RunOption {
	return func(o *RunOptions) error {
		o.UserAgent = n
		return nil
	}
}

func Insecure(v bool) RunOption {
	return func(o *RunOptions) error {
		o.Insecure = v
		return nil
	}
}

func RetainFailedURL(v bool) RunOption {
	return func(o *RunOptions) error {
		o.RetainFailedURL = v
		return nil
	}
}

func Templates(v bool) RunOption {
	return func(o *RunOptions) error {
		o.Templates = v
		return nil
	}
}

func ProgressBarEnabled(v bool) RunOption {
	return func(o *RunOptions) error {
		o.ProgressBar = v
		return nil
	}
}

func ProgressStyle(style string) RunOption {
	return func(o *RunOptions) error {
		o.ProgressStyle = strings.ToLower(strings.TrimSpace(style))
		return nil
	}
}

func PrintRecords(v bool) RunOption {
	return func(o *RunOptions) error {
		o.PrintRecords = v
		return nil
	}
}

func ConfirmAbove(n int) RunOption {
	return func(o *RunOptions) error {
		o.ConfirmAbove = n
		return nil
	}
}

func AssumeYes(v bool) RunOption {
	return func(o *RunOptions) error {
		o.AssumeYes = v
		return nil
	}
}

// Output sets where records are written. An empty format is guessed from the file extension
func Output(file string, format string) RunOption {
	return func(o *RunOptions) error {
		o.OutputFile = file
		if format == "" {
			o.OutputFormat = report.FormatFromFilename(file)
			return nil
		}
		f, err := report.ParseFormat(format)
		if err != nil {
			return err
		}
		o.OutputFormat = f
		return nil
	}
}

// Reports sets which group-by reports are printed after the run
func Reports(in []string) RunOption {
	return func(o *RunOptions) error {
		o.Reports = o.Reports[:0]
		for _, v := range in {
			if strings.TrimSpace(v) == "" {
				continue
			}
			g, err := report.ParseGroupBy(v)
			if err != nil {
				return err
			}
			o.Reports = append(o.Reports, g)
		}
		return nil
	}
}

func HistoryDB(path string) RunOption {
	return func(o *RunOptions) error {
		o.HistoryDB = path
		return nil
	}
}

func MetricsAddr(addr string) RunOption {
	return func(o *RunOptions) error {
		o.MetricsAddr = addr
		return nil
	}
}
