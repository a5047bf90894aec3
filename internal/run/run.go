package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/manifoldco/promptui"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pt3002/CN-Project/internal/metrics"
	"github.com/pt3002/CN-Project/internal/report"
	"github.com/pt3002/CN-Project/internal/store"
	errors2 "github.com/pt3002/CN-Project/pkg/errors"
	"github.com/pt3002/CN-Project/pkg/loadtest"
	"github.com/pt3002/CN-Project/pkg/log"
)

// ErrDeclined is returned when the user declines the confirmation prompt
var ErrDeclined = errors.New("run declined")

// Confirm asks the user whether to continue. It is a variable so it can be replaced when there is no terminal
var Confirm = func(label string) bool {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdout:    os.Stderr,
	}
	v, err := prompt.Run()
	return err == nil && strings.ToLower(v) == "y"
}

// Stdout is where tables are rendered
var Stdout io.Writer = os.Stdout

// LoadTest will load test the urls found in input. input is either a file of urls, one per line, a comma
// separated list of urls or "-" for stdin
func LoadTest(ctx context.Context, input string, opts ...RunOption) error {
	urls, err := ParseInput(input)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return loadtest.ErrNoURLs
	}

	s := NewDefaultRunOptions()
	for _, o := range opts {
		if err := o(s); err != nil {
			return fmt.Errorf("failed to apply option: %w", err)
		}
	}
	if err := s.Validate(); err != nil {
		return err
	}
	log.Debug().Msgf("Options loaded: \n%s", s)

	total := len(urls) * s.Calls
	printSettings(s, urls)

	if s.ConfirmAbove > 0 && total > s.ConfirmAbove && !s.AssumeYes {
		if !Confirm(fmt.Sprintf("Send %s requests", humanize.Comma(int64(total)))) {
			return ErrDeclined
		}
	}

	ltopts := s.LoadtestOptions()
	var callbacks []func(loadtest.Record)
	if s.PrintRecords {
		callbacks = append(callbacks, loadtest.LogRecord)
	}

	if s.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		collector := metrics.NewCollector()
		if err := collector.Register(reg); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		if err := metrics.ListenAndServe(ctx, s.MetricsAddr, reg); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		callbacks = append(callbacks, collector.Observe)
	}

	var pb *ProgressBar
	if s.ProgressBar {
		if s.ProgressStyle == ProgressMulti {
			pb = NewMultiProgress(int64(total))
		} else {
			pb = NewProgress(int64(total))
		}
		ltopts = append(ltopts, loadtest.AddProgressBar(pb))
	}

	e := loadtest.NewEngine(ltopts...)
	run, err := e.RunCallback(ctx, urls, callbacks...)
	if err != nil {
		if pb != nil {
			pb.Abort()
		}
		return fmt.Errorf("failed to run load test: %w", err)
	}
	if pb != nil {
		pb.Finish()
	}

	records := run.Records()
	printSummary(run.Summary(), records)

	for _, by := range s.Reports {
		groups, err := report.Groups(by, records)
		if err != nil {
			return err
		}
		report.PrintGroups(Stdout, by, groups)
	}

	if s.OutputFile != "" {
		if err := report.SaveFile(ctx, s.OutputFile, s.OutputFormat, records); err != nil {
			errors2.PrintError(err, 0)
			return err
		}
	}

	if s.HistoryDB != "" {
		m, err := store.NewManager(s.HistoryDB)
		if err != nil {
			return err
		}
		defer m.Close()
		if err := m.SaveRun(ctx, run); err != nil {
			return err
		}
		log.Info().Str("id", run.ID.String()).Str("db", s.HistoryDB).Msg("saved run to history")
	}
	return nil
}

func printSettings(s *RunOptions, urls []string) {
	fields := map[string]interface{}{
		"calls":             s.Calls,
		"concurrent":        s.Concurrent,
		"total-requests":    len(urls) * s.Calls,
		"max-timeout":       s.Timeout,
		"max-redirects":     s.MaxRedirects,
		"user-agent":        s.UserAgent,
		"insecure":          s.Insecure,
		"retain-failed-url": s.RetainFailedURL,
		"template":          s.Templates,
	}
	if len(urls) == 1 {
		fields["target"] = urls[0]
	} else {
		fields["targets"] = len(urls)
	}
	if len(s.Headers) > 0 {
		ret := make([]string, 0)
		for _, v := range s.Headers {
			ret = append(ret, fmt.Sprintf("%s:%s", v.Key, v.Value))
		}
		fields["headers"] = ret
	}
	if s.OutputFile != "" {
		fields["output"] = fmt.Sprintf("%s (%s)", s.OutputFile, s.OutputFormat)
	}
	if s.HistoryDB != "" {
		fields["history-db"] = s.HistoryDB
	}
	if s.MetricsAddr != "" {
		fields["metrics-addr"] = s.MetricsAddr
	}

	switch log.GetLogFormat() {
	case log.JSON:
		log.Info().Fields(fields).Msg("load test options")
	default:
		table := tablewriter.NewWriter(Stdout)
		table.SetHeader([]string{"setting", "value"})
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetAutoWrapText(false)
		table.SetAutoFormatHeaders(true)

		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, v := range keys {
			table.Append([]string{v, fmt.Sprintf("%v", fields[v])})
		}
		fmt.Fprintln(Stdout)
		table.Render()
		fmt.Fprintln(Stdout)
	}
}

func printSummary(s loadtest.Summary, records []loadtest.Record) {
	if log.GetLogFormat() == log.JSON {
		// the engine already logged the summary object
		return
	}

	var bytes uint64
	for _, r := range records {
		bytes += uint64(r.Length)
	}

	table := tablewriter.NewWriter(Stdout)
	table.SetHeader([]string{"total", "failed", "elapsed", "calls/sec", "bytes"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.Append([]string{
		humanize.Comma(int64(s.Total)),
		humanize.Comma(int64(s.Failed)),
		fmt.Sprintf("%.2fs", s.Elapsed.Seconds()),
		fmt.Sprintf("%.2f", s.Throughput),
		humanize.Bytes(bytes),
	})
	table.Render()
}
