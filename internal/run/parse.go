package run

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/pt3002/CN-Project/pkg/loadtest"
	"github.com/pt3002/CN-Project/pkg/log"
)

type ErrInvalidProtocol struct {
	Protocol string
	URL      string
}

func (e *ErrInvalidProtocol) Error() string {
	return fmt.Sprintf("Invalid protocol found: %s (%s)", e.Protocol, e.URL)
}

var ErrMissingHost = errors.New("url has no host")

// ParseInput will attempt to extract all urls from a given input
// We will attempt to find a file matching your provided <input>, and otherwise
// treat it as a comma separated list of urls.
// "-" reads the urls from stdin
func ParseInput(in string) ([]string, error) {
	if in == "-" {
		return ParseReader(os.Stdin)
	}

	ret, err := ParseFile(in)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("file", in).Msg("file not found. treating as url list")
		return ParseList(in)
	}
	return ret, err
}

// ParseList parses a comma separated list of urls. Empty entries are skipped
func ParseList(in string) ([]string, error) {
	ret := make([]string, 0)
	for _, v := range strings.Split(in, ",") {
		if strings.TrimSpace(v) == "" {
			continue
		}
		u, err := ParseURL(v)
		if err != nil {
			return nil, err
		}
		ret = append(ret, u)
	}
	return ret, nil
}

// ParseFile will perform a ParseURL on all lines in a file
func ParseFile(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file)
}

// ParseReader parses one url per line. Blank lines and lines starting with # are skipped
func ParseReader(r io.Reader) ([]string, error) {
	ret := make([]string, 0)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		u, err := ParseURL(line)
		if err != nil {
			return nil, fmt.Errorf("failed to parse url: %w", err)
		}
		ret = append(ret, u)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return ret, nil
}

// ParseURL will normalise the input into an absolute url
// The only supported protocols are http, https
// If protocol is missing, then we will assume from the port, using https for 443 and 8443
// Urls containing template tags are returned unescaped
func ParseURL(in string) (string, error) {
	in = strings.TrimSpace(in)
	guessProto := false
	if !strings.Contains(in, "://") {
		in = "http://" + in
		guessProto = true
	}

	parsed, err := url.Parse(in)
	if err != nil {
		return "", err
	}
	if parsed.Hostname() == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingHost, in)
	}

	switch parsed.Scheme {
	case "http", "https":
	default:
		return "", &ErrInvalidProtocol{Protocol: parsed.Scheme, URL: in}
	}

	if guessProto {
		switch parsed.Port() {
		case "443", "8443":
			parsed.Scheme = "https"
		}
	}
	// String() would escape the delimiters of a url template
	if strings.Contains(in, loadtest.TemplateStartTag) {
		return parsed.Scheme + in[strings.Index(in, "://"):], nil
	}
	return parsed.String(), nil
}
