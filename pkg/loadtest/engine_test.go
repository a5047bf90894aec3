package loadtest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"io/ioutil"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pt3002/CN-Project/pkg/http"
	"github.com/pt3002/CN-Project/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

var errHostDown = errors.New("host down")

type countingProgressBar struct {
	total  int64
	hits   int64
	queued int64
}

func (c *countingProgressBar) Incr(n int64)     { atomic.AddInt64(&c.hits, n) }
func (c *countingProgressBar) AddTotal(n int64) { atomic.AddInt64(&c.total, n) }
func (c *countingProgressBar) Queued(n int64)   { atomic.AddInt64(&c.queued, n) }

// memoryServer answers every request with a 42 byte body
func memoryServer() *fasthttputil.InmemoryListener {
	ln := fasthttputil.NewInmemoryListener()
	s := &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			ctx.SetBody(make([]byte, 42))
		},
	}
	go s.Serve(ln)
	return ln
}

// streamingServer answers every request with a chunked body, so no Content-Length header is sent
func streamingServer() *fasthttputil.InmemoryListener {
	ln := fasthttputil.NewInmemoryListener()
	s := &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
				w.WriteString("streamed body")
				w.Flush()
			})
		},
	}
	go s.Serve(ln)
	return ln
}

// hungServer accepts connections and never answers
func hungServer() *fasthttputil.InmemoryListener {
	ln := fasthttputil.NewInmemoryListener()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go io.Copy(ioutil.Discard, conn)
		}
	}()
	return ln
}

// routedDial sends ok.test to ln and fails every other host
func routedDial(ln *fasthttputil.InmemoryListener) fasthttp.DialFunc {
	return func(addr string) (net.Conn, error) {
		if strings.HasPrefix(addr, "ok.test") {
			return ln.Dial()
		}
		return nil, errHostDown
	}
}

func TestEngineHealthyTarget(t *testing.T) {
	ln := memoryServer()
	defer ln.Close()

	pb := &countingProgressBar{}
	e := NewEngine(Calls(10), Concurrent(3), HTTPDial(routedDial(ln)), AddProgressBar(pb))
	run, err := e.Run(context.Background(), []string{"http://ok.test"})
	require.Nil(t, err)

	records := run.Records()
	require.Len(t, records, 10)
	for _, r := range records {
		assert.Equal(t, "http://ok.test", r.URL, spew.Sdump(r))
		assert.Equal(t, 200, r.Status)
		assert.Equal(t, 42, r.Length)
		assert.False(t, r.Timestamp.IsZero())
	}

	s := run.Summary()
	assert.Equal(t, 10, s.Total)
	assert.Equal(t, 0, s.Failed)
	assert.True(t, s.Throughput > 0)

	assert.Equal(t, int64(10), atomic.LoadInt64(&pb.total))
	assert.Equal(t, int64(10), atomic.LoadInt64(&pb.hits))
	assert.Equal(t, int64(10), atomic.LoadInt64(&pb.queued))
}

func TestEngineUnreachableTarget(t *testing.T) {
	ln := memoryServer()
	defer ln.Close()

	e := NewEngine(Calls(5), Concurrent(2), HTTPDial(routedDial(ln)), MaxTimeout(time.Second))
	run, err := e.Run(context.Background(), []string{"http://down.test"})
	require.Nil(t, err)

	records := run.Records()
	require.Len(t, records, 5)
	for _, r := range records {
		assert.Equal(t, ErrorURL, r.URL, spew.Sdump(r))
		assert.Equal(t, StatusFailed, r.Status)
		assert.Equal(t, 0, r.Length)
	}
	assert.Equal(t, 5, run.Summary().Failed)
}

func TestEngineRetainFailedURL(t *testing.T) {
	ln := memoryServer()
	defer ln.Close()

	e := NewEngine(Calls(2), Concurrent(1), HTTPDial(routedDial(ln)), RetainFailedURL(true))
	run, err := e.Run(context.Background(), []string{"http://down.test"})
	require.Nil(t, err)

	for _, r := range run.Records() {
		assert.Equal(t, "http://down.test", r.URL)
		assert.True(t, r.Failed())
	}
}

func TestEngineFailureIsolation(t *testing.T) {
	ln := memoryServer()
	defer ln.Close()

	e := NewEngine(Calls(7), Concurrent(4), HTTPDial(routedDial(ln)))
	run, err := e.Run(context.Background(), []string{"http://ok.test/a", "http://down.test/b"})
	require.Nil(t, err)
	require.Equal(t, 14, run.Len())

	byStatus := map[int]int{}
	for _, r := range run.Records() {
		byStatus[r.Status]++
		if r.Failed() {
			assert.Equal(t, ErrorURL, r.URL)
		} else {
			assert.Equal(t, "http://ok.test/a", r.URL)
		}
	}
	assert.Equal(t, map[int]int{200: 7, StatusFailed: 7}, byStatus)
}

func TestEngineCompleteness(t *testing.T) {
	tests := []struct {
		name       string
		urls       []string
		calls      int
		concurrent int
	}{
		{"single url single worker", []string{"a"}, 5, 1},
		{"more workers than units", []string{"a"}, 2, 16},
		{"many urls", []string{"a", "b", "c", "d"}, 25, 5},
		{"whitespace trimmed", []string{" a ", "", "\tb\n"}, 3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			seen := map[string]int{}
			prober := ProberFunc(func(ctx context.Context, worker int, url string) Record {
				mu.Lock()
				seen[url]++
				mu.Unlock()
				return Record{URL: url, Status: 200}
			})

			e := NewEngine(Calls(tt.calls), Concurrent(tt.concurrent), WithProber(prober))
			run, err := e.Run(context.Background(), tt.urls)
			require.Nil(t, err)

			want := len(run.URLs) * tt.calls
			assert.Equal(t, want, run.Len())
			for _, u := range run.URLs {
				assert.Equal(t, tt.calls, seen[u], u)
				assert.Equal(t, strings.TrimSpace(u), u)
			}
		})
	}
}

func TestEngineCallbacks(t *testing.T) {
	var n int64
	e := NewEngine(Calls(30), Concurrent(5), WithProber(ProberFunc(func(ctx context.Context, worker int, url string) Record {
		return Record{URL: url, Status: 204}
	})))
	run, err := e.RunCallback(context.Background(), []string{"x"}, func(r Record) {
		atomic.AddInt64(&n, 1)
	})
	require.Nil(t, err)
	assert.Equal(t, int64(30), atomic.LoadInt64(&n))
	assert.Equal(t, 30, run.Len())
}

func TestEngineWorkerOrdering(t *testing.T) {
	ln := memoryServer()
	defer ln.Close()

	concurrent := 4
	e := NewEngine(Calls(50), Concurrent(concurrent), HTTPDial(routedDial(ln)))
	run, err := e.Run(context.Background(), []string{"http://ok.test"})
	require.Nil(t, err)

	perWorker := map[int][]time.Time{}
	for _, r := range run.Records() {
		require.True(t, r.Worker >= 0 && r.Worker < concurrent, "worker %d", r.Worker)
		perWorker[r.Worker] = append(perWorker[r.Worker], r.Timestamp)
	}
	for w, ts := range perWorker {
		assert.True(t, sort.SliceIsSorted(ts, func(i, j int) bool { return ts[i].Before(ts[j]) }), "worker %d", w)
	}
}

func TestEngineBackpressure(t *testing.T) {
	var (
		concurrent = 3
		release    = make(chan struct{})
		pb         = &countingProgressBar{}
		done       = make(chan *Run)
	)
	prober := ProberFunc(func(ctx context.Context, worker int, url string) Record {
		<-release
		return Record{URL: url, Status: 200}
	})

	e := NewEngine(Calls(20), Concurrent(concurrent), WithProber(prober), AddProgressBar(pb))
	go func() {
		run, err := e.Run(context.Background(), []string{"http://slow.test"})
		assert.Nil(t, err)
		done <- run
	}()

	// every worker holds one unit and the queue holds another concurrent units
	limit := int64(2 * concurrent)
	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&pb.queued) == limit
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, limit, atomic.LoadInt64(&pb.queued))
	assert.Equal(t, int64(0), atomic.LoadInt64(&pb.hits))

	close(release)
	run := <-done
	require.NotNil(t, run)
	assert.Equal(t, 20, run.Len())
	assert.Equal(t, int64(20), atomic.LoadInt64(&pb.queued))
}

func TestEngineInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var started int64
	prober := ProberFunc(func(ctx context.Context, worker int, url string) Record {
		if atomic.AddInt64(&started, 1) == 2 {
			cancel()
		}
		return Record{URL: url, Status: 200}
	})

	e := NewEngine(Calls(1000), Concurrent(2), WithProber(prober))
	run, err := e.Run(ctx, []string{"http://ok.test"})
	assert.Nil(t, run)
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.True(t, atomic.LoadInt64(&started) < 1000)
}

func TestEngineErrors(t *testing.T) {
	tests := []struct {
		name    string
		opts    []ConfigOption
		urls    []string
		wantErr error
		badCfg  bool
	}{
		{"no urls", nil, nil, ErrNoURLs, false},
		{"only blank urls", nil, []string{" ", ""}, ErrNoURLs, false},
		{"zero calls", []ConfigOption{Calls(0)}, []string{"a"}, nil, true},
		{"zero concurrent", []ConfigOption{Concurrent(0)}, []string{"a"}, nil, true},
		{"negative timeout", []ConfigOption{MaxTimeout(-time.Second)}, []string{"a"}, nil, true},
		{"negative redirects", []ConfigOption{MaxRedirects(-1)}, []string{"a"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run, err := NewEngine(tt.opts...).Run(context.Background(), tt.urls)
			assert.Nil(t, run)
			require.NotNil(t, err)
			if tt.badCfg {
				var bad *ErrBadConfig
				assert.True(t, errors.As(err, &bad), err.Error())
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfigValidateFields(t *testing.T) {
	c := &Config{}
	err := c.Validate()
	require.NotNil(t, err)
	assert.Equal(t, "config has invalid values in: Calls, Concurrent", err.Error())

	c = NewDefaultConfig()
	c.ProgressBar = nil
	assert.Nil(t, c.Validate())
	assert.NotNil(t, c.ProgressBar)
	assert.Equal(t, DefaultCalls, c.Calls)
	assert.Equal(t, DefaultConcurrent, c.Concurrent)
}

func TestEngineMissingContentLength(t *testing.T) {
	ln := streamingServer()
	defer ln.Close()

	e := NewEngine(Calls(3), Concurrent(2), HTTPDial(routedDial(ln)))
	run, err := e.Run(context.Background(), []string{"http://ok.test/stream"})
	require.Nil(t, err)

	records := run.Records()
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, 200, r.Status, spew.Sdump(r))
		assert.Equal(t, 0, r.Length, spew.Sdump(r))
	}
}

func TestEngineInterruptedWhileRequestsHang(t *testing.T) {
	ln := hungServer()
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	type result struct {
		run *Run
		err error
	}
	done := make(chan result, 1)
	e := NewEngine(Calls(10), Concurrent(2), HTTPDial(routedDial(ln)))
	go func() {
		run, err := e.Run(ctx, []string{"http://ok.test/hang"})
		done <- result{run, err}
	}()

	select {
	case res := <-done:
		assert.Nil(t, res.run)
		assert.ErrorIs(t, res.err, ErrInterrupted)
	case <-time.After(3 * time.Second):
		t.Fatal("run still blocked after the context was cancelled")
	}
}

func TestEngineWorkerIndexReachesProber(t *testing.T) {
	prober := ProberFunc(func(ctx context.Context, worker int, url string) Record {
		return Record{URL: strconv.Itoa(worker), Status: 200}
	})

	e := NewEngine(Calls(40), Concurrent(4), WithProber(prober))
	run, err := e.Run(context.Background(), []string{"x"})
	require.Nil(t, err)
	for _, r := range run.Records() {
		assert.Equal(t, strconv.Itoa(r.Worker), r.URL)
	}
}

func TestHTTPProberLogsWorker(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)
	require.Nil(t, log.SetLevelString("debug"))

	p := NewHTTPProber(&http.Config{Dial: routedDial(nil)}, false)
	r := p.Probe(context.Background(), 3, "http://down.test/")
	assert.True(t, r.Failed())
	assert.Contains(t, buf.String(), `"worker":3`)
	assert.Contains(t, buf.String(), `"url":"http://down.test/"`)
}

func TestEngineURLTemplates(t *testing.T) {
	tests := []struct {
		name      string
		templates bool
		urls      []string
		calls     int
		want      map[string]int
	}{
		{
			"disabled", false, []string{"http://a.test/{{n}}"}, 2,
			map[string]int{"http://a.test/{{n}}": 2},
		},
		{
			"call number and index", true, []string{"http://a.test/item/{{n}}?u={{i}}", "http://b.test/{{i}}"}, 3,
			map[string]int{
				"http://a.test/item/1?u=0": 1,
				"http://a.test/item/2?u=0": 1,
				"http://a.test/item/3?u=0": 1,
				"http://b.test/1":          3,
			},
		},
		{
			"no tags", true, []string{"http://a.test/"}, 2,
			map[string]int{"http://a.test/": 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			seen := map[string]int{}
			prober := ProberFunc(func(ctx context.Context, worker int, url string) Record {
				mu.Lock()
				seen[url]++
				mu.Unlock()
				return Record{URL: url, Status: 200}
			})

			e := NewEngine(Calls(tt.calls), Concurrent(2), WithProber(prober), URLTemplates(tt.templates))
			run, err := e.Run(context.Background(), tt.urls)
			require.Nil(t, err)
			assert.Equal(t, tt.want, seen)
			assert.Equal(t, tt.urls, run.URLs)
		})
	}
}

func TestEngineURLTemplateErrors(t *testing.T) {
	var requested int64
	prober := ProberFunc(func(ctx context.Context, worker int, url string) Record {
		atomic.AddInt64(&requested, 1)
		return Record{URL: url, Status: 200}
	})
	e := NewEngine(Calls(2), Concurrent(1), WithProber(prober), URLTemplates(true))

	_, err := e.Run(context.Background(), []string{"http://a.test/", "http://a.test/{{nope}}"})
	var unknown *ErrUnknownTag
	require.True(t, errors.As(err, &unknown), "%v", err)
	assert.Equal(t, "nope", unknown.Tag)

	_, err = e.Run(context.Background(), []string{"http://a.test/{{n"})
	assert.NotNil(t, err)
	assert.Equal(t, int64(0), atomic.LoadInt64(&requested))
}
