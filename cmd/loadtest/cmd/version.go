package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/pt3002/CN-Project/internal/run"
	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/pt3002/CN-Project/cmd/loadtest/cmd.Version=..." on release builds
var (
	Version = "v0.0.0"
	Commit  = "dev"
	Date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the loadtest build and the user agent it sends",
	Long: `print the loadtest release, the commit and date it was built from, the go toolchain used,
and the User-Agent header sent with every request unless --user-agent overrides it`,
	Run: func(cmd *cobra.Command, args []string) {
		writeVersion(cmd.OutOrStdout())
	},
}

func writeVersion(w io.Writer) {
	fmt.Fprintf(w, "loadtest %s (%s)\n", Version, Commit)
	fmt.Fprintf(w, "built %s with %s for %s/%s\n", Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "default user agent: %s\n", run.DefaultUserAgent)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
