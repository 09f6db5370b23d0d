package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/greinacker/tvbackup/archive"
	"github.com/greinacker/tvbackup/backup"
	"github.com/greinacker/tvbackup/config"
	"github.com/greinacker/tvbackup/credstore"
	"github.com/greinacker/tvbackup/history"
	"github.com/greinacker/tvbackup/tradervue"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export journal entries, notes and trades to a local file",
	Long: `Export the full account to a single JSON document.

Every run is a full re-fetch; there is no incremental mode. Trades whose
detail cannot be fetched are logged and skipped rather than aborting the run,
and any such loss turns the exit status non-zero even though the file was
written.

Examples:
  tvbackup backup
  tvbackup backup -f journal-2024.json --zip
  tvbackup backup --xz`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

var (
	backupFile string
	backupZip  bool
	backupXZ   bool
)

func init() {
	rootCmd.AddCommand(backupCmd)

	backupCmd.Flags().StringVarP(&backupFile, "file", "f", "tv-backup.json", "output file")
	backupCmd.Flags().BoolVarP(&backupZip, "zip", "z", false, "compress the output into <file>.zip")
	backupCmd.Flags().BoolVar(&backupXZ, "xz", false, "compress the output into <file>.xz")
	backupCmd.MarkFlagsMutuallyExclusive("zip", "xz")
}

func runBackup(cmd *cobra.Command, args []string) error {
	log, counter, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Credentials are the sole gate before any network access.
	creds, ok := credstore.Get(flagUsername, log)
	if !ok {
		return fmt.Errorf("credentials unavailable for %s", flagUsername)
	}

	client := tradervue.NewClient(creds.Username, creds.Password, tradervue.Config{
		BaseURL:    cfg.BaseURL,
		UserAgent:  cfg.UserAgent,
		TargetUser: cfg.TargetUser,
		Timeout:    cfg.HTTPTimeout(),
		DebugHTTP:  flagDebugHTTP,
	}, log)

	started := time.Now()
	log.Info("starting backup", zap.String("username", creds.Username))

	doc, report, err := backup.New(client, log).Run(cmd.Context())
	if err != nil {
		return err
	}

	if err := archive.WriteJSON(doc, backupFile); err != nil {
		return err
	}

	output := backupFile
	switch {
	case backupZip:
		output, err = archive.Zip(backupFile)
	case backupXZ:
		output, err = archive.XZ(backupFile)
	}
	if err != nil {
		return err
	}

	finished := time.Now()
	log.Info("backup written",
		zap.String("file", output),
		zap.Int("journals", report.Journals),
		zap.Int("notes", report.Notes),
		zap.Int("trades", report.Trades),
		zap.Int("skipped", len(report.SkippedTrades)),
		zap.Duration("elapsed", finished.Sub(started).Round(time.Millisecond)))

	recordRun(cfg, log, history.Run{
		RunID:      history.NewRunID(),
		StartedAt:  started,
		FinishedAt: finished,
		Username:   creds.Username,
		Output:     output,
		Journals:   report.Journals,
		Notes:      report.Notes,
		Trades:     report.Trades,
		Skipped:    len(report.SkippedTrades),
		Errors:     int(counter.Count()),
	})

	// The counter, not the write, decides the exit status: a written but
	// incomplete backup is still a failed run.
	if n := counter.Count(); n > 0 {
		return fmt.Errorf("backup completed with %d error(s)", n)
	}
	return nil
}

// recordRun appends the run to the history ledger. Ledger trouble must never
// change the run's outcome, so failures only warn.
func recordRun(cfg *config.Config, log *zap.Logger, run history.Run) {
	if cfg.HistoryDB == "" {
		return
	}

	ledger, err := history.Open(cfg.HistoryDB)
	if err != nil {
		log.Warn("unable to open run ledger", zap.String("path", cfg.HistoryDB), zap.Error(err))
		return
	}
	defer ledger.Close()

	if err := ledger.Record(run); err != nil {
		log.Warn("unable to record run", zap.Error(err))
	}
}
