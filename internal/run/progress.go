package run

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/pt3002/CN-Project/pkg/loadtest"
	"github.com/schollz/progressbar/v3"
	"github.com/vbauerster/mpb/v6"
	"github.com/vbauerster/mpb/v6/decor"
)

// ProgressBar renders the progress of a run on stderr. The simple style shows completed requests. The multi
// style also shows how far ahead of the workers the dispatcher is
type ProgressBar struct {
	Pb       *mpb.Progress
	Queue    *mpb.Bar
	Done     *mpb.Bar
	Requests *progressbar.ProgressBar

	// total is what the engine announced through AddTotal. The bars are created with the expected total
	// so they only change when the two disagree
	total int64
}

func NewProgress(max int64) *ProgressBar {
	requestb := progressbar.NewOptions64(max,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowIts(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetVisibility(true),
		progressbar.OptionSpinnerType(14),
	)
	return &ProgressBar{
		Requests: requestb,
	}
}

func NewMultiProgress(max int64) *ProgressBar {
	pb := mpb.New(
		mpb.WithOutput(os.Stderr),
		mpb.WithRefreshRate(65*time.Millisecond),
	)
	bar := func(name string) *mpb.Bar {
		return pb.AddBar(max,
			mpb.PrependDecorators(
				decor.Name(name, decor.WC{W: 8, C: decor.DidentRight}),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)
	}
	return &ProgressBar{
		Pb:    pb,
		Queue: bar("queued"),
		Done:  bar("done"),
	}
}

func (b *ProgressBar) Incr(n int64) {
	if b.Requests != nil {
		b.Requests.Add64(n)
	}
	if b.Done != nil {
		b.Done.IncrInt64(n)
	}
}

func (b *ProgressBar) Queued(n int64) {
	if b.Queue != nil {
		b.Queue.IncrInt64(n)
	}
}

func (b *ProgressBar) AddTotal(n int64) {
	total := atomic.AddInt64(&b.total, n)
	if b.Requests != nil && total != b.Requests.GetMax64() {
		b.Requests.ChangeMax64(total)
	}
	if b.Pb != nil {
		b.Queue.SetTotal(total, false)
		b.Done.SetTotal(total, false)
	}
}

// Finish completes the bars after a successful run
func (b *ProgressBar) Finish() {
	if b.Requests != nil {
		b.Requests.Finish()
	}
	if b.Pb != nil {
		total := atomic.LoadInt64(&b.total)
		b.Queue.SetTotal(total, true)
		b.Done.SetTotal(total, true)
		b.Pb.Wait()
	}
}

// Abort stops the bars where they are, used when a run is interrupted
func (b *ProgressBar) Abort() {
	if b.Requests != nil {
		b.Requests.Clear()
	}
	if b.Pb != nil {
		b.Queue.Abort(false)
		b.Done.Abort(false)
		b.Pb.Wait()
	}
}

var _ loadtest.ProgressBar = &ProgressBar{}
