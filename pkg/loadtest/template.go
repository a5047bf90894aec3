package loadtest

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/valyala/fasttemplate"
)

// URL templates render a distinct url for every call to a target, e.g. to defeat caching. Tags use
// {{ }} delimiters
//
//	{{n}}     the call number for the url, starting at 1
//	{{i}}     the index of the url in the run, starting at 0
//	{{uuid}}  a random uuid
const (
	TemplateStartTag = "{{"
	TemplateEndTag   = "}}"
)

type ErrUnknownTag struct {
	URL string
	Tag string
}

func (e *ErrUnknownTag) Error() string {
	return fmt.Sprintf("unknown template tag %q in %s. supported 'n', 'i', 'uuid'", e.Tag, e.URL)
}

// target is a url with the template that renders its work units. tmpl is nil when the url is requested
// verbatim
type target struct {
	index int
	url   string
	tmpl  *fasttemplate.Template
}

// compileTargets prepares urls for dispatch. Templates are only compiled when enabled, and are rendered
// once so a bad tag fails the run before any request is sent
func compileTargets(urls []string, templates bool) ([]target, error) {
	ret := make([]target, 0, len(urls))
	for i, u := range urls {
		t := target{index: i, url: u}
		if templates && strings.Contains(u, TemplateStartTag) {
			tmpl, err := fasttemplate.NewTemplate(u, TemplateStartTag, TemplateEndTag)
			if err != nil {
				return nil, fmt.Errorf("failed to compile url template %s: %w", u, err)
			}
			t.tmpl = tmpl
			if _, err := t.unit(1); err != nil {
				return nil, err
			}
		}
		ret = append(ret, t)
	}
	return ret, nil
}

// unit renders the url requested by call n
func (t target) unit(n int) (string, error) {
	if t.tmpl == nil {
		return t.url, nil
	}
	return t.tmpl.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
		switch strings.TrimSpace(tag) {
		case "n":
			return io.WriteString(w, strconv.Itoa(n))
		case "i":
			return io.WriteString(w, strconv.Itoa(t.index))
		case "uuid":
			return io.WriteString(w, uuid.New().String())
		}
		return 0, &ErrUnknownTag{URL: t.url, Tag: tag}
	})
}
