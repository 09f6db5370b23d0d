package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greinacker/tvbackup/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent backup runs",
	Long: `List recent backup runs from the local run ledger, newest first.

A run with a non-zero error count wrote its file but lost one or more trades
along the way.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.HistoryDB == "" {
		return fmt.Errorf("run ledger disabled (history_db is empty)")
	}

	ledger, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer ledger.Close()

	runs, err := ledger.Recent(historyLimit)
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No backup runs recorded yet.")
		return nil
	}

	fmt.Printf("%-26s  %-20s  %8s %6s %7s %7s %7s  %s\n",
		"RUN", "STARTED", "JOURNALS", "NOTES", "TRADES", "SKIPPED", "ERRORS", "OUTPUT")
	for _, r := range runs {
		fmt.Printf("%-26s  %-20s  %8d %6d %7d %7d %7d  %s\n",
			r.RunID, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Journals, r.Notes, r.Trades, r.Skipped, r.Errors, r.Output)
	}
	return nil
}
