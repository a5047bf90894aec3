package run

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/pt3002/CN-Project/internal/store"
	"github.com/pt3002/CN-Project/pkg/log"
)

// History prints the most recent limit runs stored in the database at path
func History(ctx context.Context, path string, limit int) error {
	m, err := store.NewManager(path)
	if err != nil {
		return err
	}
	defer m.Close()

	runs, err := m.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	switch log.GetLogFormat() {
	case log.JSON:
		for _, r := range runs {
			log.Info().
				Str("id", r.ID).
				Time("started", r.StartedAt).
				Dur("elapsed", r.Elapsed).
				Strs("urls", r.URLs).
				Int("calls", r.Calls).
				Int("concurrent", r.Concurrent).
				Int("total", r.Total).
				Int("failed", r.Failed).
				Float64("throughput", r.Throughput).
				Msg("")
		}
	default:
		RenderRuns(Stdout, runs)
	}
	return nil
}

// RenderRuns writes runs as a table
func RenderRuns(w io.Writer, runs []store.RunRow) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"id", "started", "urls", "calls", "concurrent", "total", "failed", "calls/sec"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	for _, r := range runs {
		table.Append([]string{
			r.ID,
			humanize.Time(r.StartedAt),
			strings.Join(r.URLs, ","),
			fmt.Sprint(r.Calls),
			fmt.Sprint(r.Concurrent),
			humanize.Comma(int64(r.Total)),
			humanize.Comma(int64(r.Failed)),
			fmt.Sprintf("%.2f", r.Throughput),
		})
	}
	table.Render()
}
