package loadtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pt3002/CN-Project/pkg/http"
	"github.com/valyala/fasthttp"
)

const (
	DefaultCalls      = 100
	DefaultConcurrent = 25
)

// ProgressBar receives the progress of a run. Queued is called by the dispatcher for every unit accepted by
// the queue and Incr by the workers for every completed request
type ProgressBar interface {
	Incr(n int64)
	AddTotal(n int64)
	Queued(n int64)
}

type NullProgressBar struct {
	total  int64
	hits   int64
	queued int64
}

func (n *NullProgressBar) Incr(v int64) {
	atomic.AddInt64(&n.hits, v)
}

func (n *NullProgressBar) AddTotal(v int64) {
	atomic.AddInt64(&n.total, v)
}

func (n *NullProgressBar) Queued(v int64) {
	atomic.AddInt64(&n.queued, v)
}

var _ ProgressBar = &NullProgressBar{}

type Config struct {
	Calls      int         `toml:"calls" json:"calls" mapstructure:"calls"`
	Concurrent int         `toml:"concurrent" json:"concurrent" mapstructure:"concurrent"`
	HTTP       http.Config `toml:"http" json:"http" mapstructure:"http"`
	// RetainFailedURL keeps the requested URL on failed records instead of ErrorURL
	RetainFailedURL bool `toml:"retain_failed_url" json:"retain_failed_url" mapstructure:"retain_failed_url"`
	// URLTemplates renders {{n}}, {{i}} and {{uuid}} tags in urls for every call
	URLTemplates bool `toml:"url_templates" json:"url_templates" mapstructure:"url_templates"`
	ProgressBar     ProgressBar
	// Prober replaces the HTTP prober when set
	Prober Prober
}

func NewDefaultConfig() *Config {
	return &Config{
		Calls:       DefaultCalls,
		Concurrent:  DefaultConcurrent,
		ProgressBar: &NullProgressBar{},
	}
}

type ErrBadConfig struct {
	fields []string
}

func (e *ErrBadConfig) Error() string {
	return fmt.Sprintf("config has invalid values in: %v", strings.Join(e.fields, ", "))
}

func (c *Config) Validate() error {
	badFields := make([]string, 0)
	if c.Calls < 1 {
		badFields = append(badFields, "Calls")
	}
	if c.Concurrent < 1 {
		badFields = append(badFields, "Concurrent")
	}
	if c.HTTP.Timeout < 0 {
		badFields = append(badFields, "HTTP.Timeout")
	}
	if c.HTTP.MaxRedirects < 0 {
		badFields = append(badFields, "HTTP.MaxRedirects")
	}
	if len(badFields) != 0 {
		return &ErrBadConfig{fields: badFields}
	}

	if c.ProgressBar == nil {
		c.ProgressBar = &NullProgressBar{}
	}
	return nil
}

type ConfigOption func(*Config)

// Calls sets how many times each URL is requested
func Calls(n int) ConfigOption {
	return func(c *Config) {
		c.Calls = n
	}
}

// Concurrent sets the number of workers, which is also the capacity of the work queue
func Concurrent(n int) ConfigOption {
	return func(c *Config) {
		c.Concurrent = n
	}
}

func MaxTimeout(n time.Duration) ConfigOption {
	return func(c *Config) {
		c.HTTP.Timeout = n
	}
}

func MaxRedirects(n int) ConfigOption {
	return func(c *Config) {
		c.HTTP.MaxRedirects = n
	}
}

func HTTPExtraHeaders(h []http.Header) ConfigOption {
	return func(o *Config) {
		o.HTTP.ExtraHeaders = append(o.HTTP.ExtraHeaders, h...)
	}
}

func UserAgent(ua string) ConfigOption {
	return func(o *Config) {
		o.HTTP.UserAgent = ua
	}
}

func InsecureSkipVerify(v bool) ConfigOption {
	return func(o *Config) {
		o.HTTP.InsecureSkipVerify = v
	}
}

// HTTPDial overrides how the HTTP prober connects to targets
func HTTPDial(d fasthttp.DialFunc) ConfigOption {
	return func(o *Config) {
		o.HTTP.Dial = d
	}
}

func RetainFailedURL(v bool) ConfigOption {
	return func(o *Config) {
		o.RetainFailedURL = v
	}
}

// URLTemplates enables rendering url template tags for every call
func URLTemplates(v bool) ConfigOption {
	return func(o *Config) {
		o.URLTemplates = v
	}
}

func AddProgressBar(p ProgressBar) ConfigOption {
	return func(o *Config) {
		o.ProgressBar = p
	}
}

func WithProber(p Prober) ConfigOption {
	return func(o *Config) {
		o.Prober = p
	}
}
