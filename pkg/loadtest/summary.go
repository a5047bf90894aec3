package loadtest

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// Summary holds the aggregate metrics of a run
type Summary struct {
	Total      int
	Failed     int
	Elapsed    time.Duration
	Throughput float64 // completed records per second
}

// Summarize computes the summary of records collected over elapsed
func Summarize(records []Record, elapsed time.Duration) Summary {
	s := Summary{
		Total:   len(records),
		Elapsed: elapsed,
	}
	for _, r := range records {
		if r.Failed() {
			s.Failed++
		}
	}
	if secs := elapsed.Seconds(); secs > 0 {
		s.Throughput = float64(s.Total) / secs
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("completed %d calls in %.2f seconds (%.2f calls/sec)", s.Total, s.Elapsed.Seconds(), s.Throughput)
}

func (s Summary) MarshalZerologObject(e *zerolog.Event) {
	e.Int("total", s.Total).
		Int("failed", s.Failed).
		Dur("elapsed", s.Elapsed).
		Float64("throughput", s.Throughput)
}

// Retry calls fn until it succeeds, up to attempts times, sleeping delay between attempts. If every attempt
// fails the returned error is a *multierror.Error holding each failure
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var merr *multierror.Error
	for i := 0; i < attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		merr = multierror.Append(merr, fmt.Errorf("attempt %d: %w", i+1, err))
		if i == attempts-1 {
			break
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return multierror.Append(merr, ctx.Err())
		case <-t.C:
		}
	}
	return merr.ErrorOrNil()
}
