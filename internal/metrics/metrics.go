package metrics

import (
	"context"
	"net"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pt3002/CN-Project/pkg/loadtest"
	"github.com/pt3002/CN-Project/pkg/log"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Collector exposes the records of a run as prometheus metrics
type Collector struct {
	Requests *prometheus.CounterVec
	Latency  prometheus.Histogram
	Bytes    prometheus.Counter
}

func NewCollector() *Collector {
	return &Collector{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "loadtest_requests_total", Help: "Completed requests by status code"},
			[]string{"status"},
		),
		Latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "loadtest_request_duration_seconds",
			Help:    "Request latency",
			Buckets: prometheus.DefBuckets,
		}),
		Bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loadtest_response_bytes_total",
			Help: "Sum of response Content-Length",
		}),
	}
}

func (c *Collector) Register(r prometheus.Registerer) error {
	for _, m := range []prometheus.Collector{c.Requests, c.Latency, c.Bytes} {
		if err := r.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// Observe records r. It is safe to use as a run callback
func (c *Collector) Observe(r loadtest.Record) {
	status := loadtest.ErrorURL
	if !r.Failed() {
		status = strconv.Itoa(r.Status)
	}
	c.Requests.WithLabelValues(status).Inc()
	c.Latency.Observe(r.Latency.Seconds())
	c.Bytes.Add(float64(r.Length))
}

// Handler serves g on /metrics
func Handler(g prometheus.Gatherer) fasthttp.RequestHandler {
	r := router.New()
	r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
	return r.Handler
}

// Serve serves the metrics handler on ln until ctx ends
func Serve(ctx context.Context, ln net.Listener, g prometheus.Gatherer) error {
	s := &fasthttp.Server{
		Handler: Handler(g),
		Name:    "loadtest",
	}
	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			log.Debug().Err(err).Msg("failed to shutdown metrics server")
		}
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")
	return s.Serve(ln)
}

// ListenAndServe listens on addr and serves metrics in the background until ctx ends
func ListenAndServe(ctx context.Context, addr string, g prometheus.Gatherer) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		if err := Serve(ctx, ln, g); err != nil {
			log.Error().Err(err).Msg("metrics server exited")
		}
	}()
	return nil
}
