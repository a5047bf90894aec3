package loadtest

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// pool is the set of workers servicing a single run
type pool struct {
	queue     *Queue
	sink      *Sink
	prober    Prober
	progress  ProgressBar
	callbacks []func(Record)
}

// start launches n workers on g. Each worker exits once the queue is closed and drained or ctx ends,
// so g.Wait returns only after every popped unit has been appended to the sink
func (p *pool) start(ctx context.Context, g *errgroup.Group, n int) {
	for i := 0; i < n; i++ {
		worker := i
		g.Go(func() error {
			p.work(ctx, worker)
			return nil
		})
	}
}

func (p *pool) work(ctx context.Context, worker int) {
	for {
		url, ok := p.queue.Pop(ctx)
		if !ok {
			return
		}

		r := p.prober.Probe(ctx, worker, url)
		r.Worker = worker
		if r.Timestamp.IsZero() {
			r.Timestamp = time.Now()
		}

		p.sink.Append(r)
		p.progress.Incr(1)
		for _, cb := range p.callbacks {
			cb(r)
		}
	}
}
