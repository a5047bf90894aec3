package cmd

import (
	"github.com/pt3002/CN-Project/internal/run"
	"github.com/pt3002/CN-Project/internal/store"
	"github.com/pt3002/CN-Project/pkg/context"
	"github.com/pt3002/CN-Project/pkg/log"
	"github.com/spf13/cobra"
)

var (
	historyDB    = store.DefaultPath
	historyLimit = 20
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [--db loadtest.db]",
	Short: "list previous runs stored with --db",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := run.History(context.Context(), historyDB, historyLimit); err != nil {
			log.Fatal().Err(err).Msg("failed to list history")
		}
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyDB, "db", historyDB, "sqlite history database")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", historyLimit, "number of runs to show. 0 shows all")
}
