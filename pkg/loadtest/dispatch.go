package loadtest

import (
	"context"
	"fmt"

	"github.com/pt3002/CN-Project/pkg/log"
)

// dispatch pushes a unit for every target onto q calls times, in target order, then closes q. The queue is
// closed even when dispatch is interrupted so workers are never left waiting
func dispatch(ctx context.Context, q *Queue, targets []target, calls int, progress ProgressBar) error {
	defer q.Close()
	for _, t := range targets {
		log.Info().Msgf("running test of %d calls (%d concurrently) to %s ...", calls, q.Cap(), t.url)
		for i := 1; i <= calls; i++ {
			unit, err := t.unit(i)
			if err != nil {
				return err
			}
			if err := q.Push(ctx, unit); err != nil {
				return fmt.Errorf("%w: %v", ErrInterrupted, err)
			}
			progress.Queued(1)
		}
	}
	return nil
}
