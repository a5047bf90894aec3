package cmd

import (
	"errors"
	"os"

	"github.com/pt3002/CN-Project/internal/report"
	"github.com/pt3002/CN-Project/internal/run"
	"github.com/pt3002/CN-Project/internal/store"
	"github.com/pt3002/CN-Project/pkg/context"
	"github.com/pt3002/CN-Project/pkg/loadtest"
	"github.com/pt3002/CN-Project/pkg/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	headers = []string{}
	reports = []string{}
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run INPUT [--calls 100] [--concurrent 25]",
	Short: "load test one or multiple urls",
	Long: `this will request every url --calls times using --concurrent workers.
We will attempt to find a file matching your provided <input> containing one url per line,
and otherwise treat it as a comma separated list of urls. Use - to read urls from stdin.
If protocol is missing, then we will assume http, or https for ports 443 and 8443.

Interrupting a run aborts it. No results are written and the exit code is 1.

usage:
loadtest run http://localhost:8080/
loadtest run a.com,b.com/health --calls 1000 --concurrent 50
loadtest run urls.txt --report rate,code --output-file results.jtl
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := []run.RunOption{
			run.Calls(viper.GetInt("calls")),
			run.Concurrent(viper.GetInt("concurrent")),
			run.Timeout(viper.GetDuration("timeout")),
			run.MaxRedirects(viper.GetInt("max-redirects")),
			run.AddHeaders(headers),
			run.UserAgent(viper.GetString("user-agent")),
			run.Insecure(viper.GetBool("insecure")),
			run.RetainFailedURL(viper.GetBool("retain-failed-url")),
			run.Templates(viper.GetBool("template")),
			run.ProgressBarEnabled(viper.GetBool("progress")),
			run.ProgressStyle(viper.GetString("progress-style")),
			run.PrintRecords(viper.GetBool("print-records")),
			run.ConfirmAbove(viper.GetInt("confirm-above")),
			run.AssumeYes(viper.GetBool("yes")),
			run.Output(viper.GetString("output-file"), viper.GetString("output-format")),
			run.Reports(reports),
			run.HistoryDB(viper.GetString("db")),
			run.MetricsAddr(viper.GetString("metrics-addr")),
		}

		err := run.LoadTest(context.Context(), args[0], opts...)
		switch {
		case err == nil:
		case errors.Is(err, loadtest.ErrInterrupted):
			log.Error().Msg("load test interrupted. no results were kept")
			log.Close()
			os.Exit(context.ExitInterrupted)
		case errors.Is(err, run.ErrDeclined):
			log.Info().Msg("load test cancelled")
		default:
			log.Fatal().Err(err).Msg("failed to run load test")
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntP("calls", "n", loadtest.DefaultCalls, "number of calls to each url")
	runCmd.Flags().IntP("concurrent", "c", loadtest.DefaultConcurrent, "number of concurrent workers")
	runCmd.Flags().DurationP("timeout", "t", run.DefaultTimeout, "timeout to use on all requests. 0 waits forever")
	runCmd.Flags().Int("max-redirects", run.DefaultMaxRedirects, "maximum number of redirects to follow")
	runCmd.Flags().StringSliceVarP(&headers, "header", "H", headers, "headers to add to requests")
	runCmd.Flags().String("user-agent", run.DefaultUserAgent, "user agent to use for requests. empty sends no user agent")
	runCmd.Flags().BoolP("insecure", "k", false, "skip tls certificate verification")
	runCmd.Flags().Bool("retain-failed-url", false, "keep the requested url on failed records instead of 'error'")
	runCmd.Flags().Bool("template", false, "render {{n}} (call number), {{i}} (url index) and {{uuid}} tags in urls for every call")

	runCmd.Flags().Bool("progress", true, "a progress bar while running. by default enabled only on Stderr")
	runCmd.Flags().String("progress-style", run.DefaultProgressStyle, "progress bar style. can be simple,multi")
	runCmd.Flags().Bool("print-records", false, "print every record as it completes")
	runCmd.Flags().Int("confirm-above", run.DefaultConfirmAbove, "ask for confirmation when a run sends more requests than this. 0 disables")
	runCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	runCmd.Flags().String("output-file", "", "write every record to this file, e.g. "+report.DefaultFile)
	runCmd.Flags().Lookup("output-file").NoOptDefVal = report.DefaultFile
	runCmd.Flags().String("output-format", "", "format of the output file. can be csv,json,xml. guessed from the file extension when empty")
	runCmd.Flags().StringSliceVar(&reports, "report", []string{"rate", "code"}, "group-by reports to print after the run. can be rate,code")
	runCmd.Flags().String("db", "", "store the run in this sqlite history database, e.g. "+store.DefaultPath)
	runCmd.Flags().Lookup("db").NoOptDefVal = store.DefaultPath
	runCmd.Flags().String("metrics-addr", "", "serve prometheus metrics on this address during the run, e.g. localhost:9090")

	for _, name := range []string{
		"calls", "concurrent", "timeout", "max-redirects", "user-agent", "insecure", "retain-failed-url", "template",
		"progress", "progress-style", "print-records", "confirm-above", "yes",
		"output-file", "output-format", "db", "metrics-addr",
	} {
		viper.BindPFlag(name, runCmd.Flags().Lookup(name))
	}
}
