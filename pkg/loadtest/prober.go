package loadtest

import (
	"context"
	"time"

	"github.com/pt3002/CN-Project/pkg/errors"
	"github.com/pt3002/CN-Project/pkg/http"
)

// Prober performs a single request and describes the outcome as a Record. Implementations must not
// panic, must return promptly once ctx ends, and must convert every failure into a Record with Status
// set to StatusFailed. worker is the index of the calling worker
type Prober interface {
	Probe(ctx context.Context, worker int, url string) Record
}

// ProberFunc adapts a function to the Prober interface
type ProberFunc func(ctx context.Context, worker int, url string) Record

func (f ProberFunc) Probe(ctx context.Context, worker int, url string) Record {
	return f(ctx, worker, url)
}

// HTTPProber issues GET requests with a shared client
type HTTPProber struct {
	client          *http.Client
	retainFailedURL bool
}

// NewHTTPProber creates a prober with its own client built from config
func NewHTTPProber(config *http.Config, retainFailedURL bool) *HTTPProber {
	return &HTTPProber{
		client:          http.NewClient(config),
		retainFailedURL: retainFailedURL,
	}
}

func (p *HTTPProber) Probe(ctx context.Context, worker int, url string) Record {
	resp, err := http.Get(ctx, p.client, url)
	if err != nil {
		(&errors.ProbeError{URL: url, Worker: worker, Err: err, Context: "GET"}).LogError(0)
		ret := Record{
			URL:       ErrorURL,
			Status:    StatusFailed,
			Timestamp: time.Now(),
			Latency:   resp.Latency,
		}
		if p.retainFailedURL {
			ret.URL = url
		}
		return ret
	}

	return Record{
		URL:       url,
		Status:    resp.StatusCode,
		Length:    resp.ContentLength,
		Timestamp: time.Now(),
		Latency:   resp.Latency,
	}
}

// Close releases the idle connections of the prober
func (p *HTTPProber) Close() error {
	return p.client.Close()
}

var _ Prober = &HTTPProber{}
