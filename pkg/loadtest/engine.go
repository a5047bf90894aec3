package loadtest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pt3002/CN-Project/pkg/log"
	"github.com/segmentio/ksuid"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoURLs is returned when a run is started without any non-empty URL
	ErrNoURLs = errors.New("no urls to request")
	// ErrInterrupted is returned when the run context ends before every request completed.
	// No records are returned with it
	ErrInterrupted = errors.New("run interrupted")
)

// Engine runs load tests with a fixed configuration. Run and RunCallback may be called concurrently, each
// call creates its own queue and worker pool
type Engine struct {
	config *Config
}

// NewEngine will create an engine with the default configuration modified by opts
func NewEngine(opts ...ConfigOption) *Engine {
	e := &Engine{
		config: NewDefaultConfig(),
	}
	for _, o := range opts {
		o(e.config)
	}
	return e
}

// Config returns the config for the engine. Modifying this config while a run is in progress
// is not safe
func (e *Engine) Config() *Config {
	return e.config
}

// Run requests every url Calls times and returns once all requests have completed
func (e *Engine) Run(ctx context.Context, urls []string) (*Run, error) {
	return e.RunCallback(ctx, urls)
}

// RunCallback is Run with callbacks invoked for every record as it is produced. Callbacks are called
// concurrently from the workers
func (e *Engine) RunCallback(ctx context.Context, urls []string, cb ...func(Record)) (*Run, error) {
	config := e.config
	if err := config.Validate(); err != nil {
		return nil, err
	}

	normalized := normalizeURLs(urls)
	if len(normalized) == 0 {
		return nil, ErrNoURLs
	}
	targets, err := compileTargets(normalized, config.URLTemplates)
	if err != nil {
		return nil, err
	}

	prober := config.Prober
	if prober == nil {
		httpConfig := config.HTTP
		if httpConfig.MaxIdleConnsPerHost == 0 {
			httpConfig.MaxIdleConnsPerHost = config.Concurrent
		}
		hp := NewHTTPProber(&httpConfig, config.RetainFailedURL)
		defer hp.Close()
		prober = hp
	}

	total := len(normalized) * config.Calls
	run := &Run{
		ID:         ksuid.New(),
		URLs:       normalized,
		Calls:      config.Calls,
		Concurrent: config.Concurrent,
		sink:       NewSink(total),
	}
	config.ProgressBar.AddTotal(int64(total))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		g     errgroup.Group
		queue = NewQueue(config.Concurrent)
		p     = &pool{
			queue:     queue,
			sink:      run.sink,
			prober:    prober,
			progress:  config.ProgressBar,
			callbacks: cb,
		}
	)

	log.Debug().
		Str("id", run.ID.String()).
		Strs("urls", normalized).
		Int("calls", config.Calls).
		Int("concurrent", config.Concurrent).
		Msg("starting run")

	run.Start = time.Now()
	p.start(ctx, &g, config.Concurrent)
	derr := dispatch(ctx, queue, targets, config.Calls, config.ProgressBar)
	if derr != nil {
		cancel()
	}
	g.Wait()
	run.Elapsed = time.Since(run.Start)

	if derr != nil {
		return nil, derr
	}
	// workers may have stopped early if the context ended after dispatch finished
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInterrupted, err)
	}

	summary := run.Summary()
	log.Info().Str("id", run.ID.String()).Object("summary", summary).Msg(summary.String())
	return run, nil
}

// normalizeURLs trims each url and drops empty entries
func normalizeURLs(urls []string) []string {
	ret := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		ret = append(ret, u)
	}
	return ret
}

// Run is a completed load test
type Run struct {
	ID         ksuid.KSUID
	URLs       []string
	Calls      int
	Concurrent int
	Start      time.Time
	Elapsed    time.Duration

	sink *Sink
}

// Records returns a copy of the records in the order they were produced
func (r *Run) Records() []Record {
	return r.sink.Records()
}

func (r *Run) Len() int {
	return r.sink.Len()
}

func (r *Run) Summary() Summary {
	return Summarize(r.sink.Records(), r.Elapsed)
}
