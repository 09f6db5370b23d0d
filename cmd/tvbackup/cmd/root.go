package cmd

import (
	"os/user"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/greinacker/tvbackup/config"
	"github.com/greinacker/tvbackup/logging"
)

var rootCmd = &cobra.Command{
	Use:   "tvbackup",
	Short: "Back up your Tradervue journal, notes and trades to a local archive",
	Long: `tvbackup exports a Tradervue account into a single local JSON document:
every journal entry, every note, and every trade enriched with its executions
and comments.

The password is stored in the operating system keychain, never on disk:

  tvbackup set-password
  tvbackup backup --zip

A backup that skipped trades still writes its file but exits non-zero, so
cron jobs and scripts can tell a clean run from a degraded one.`,
	SilenceUsage: true,
}

var (
	flagUsername  string
	flagConfig    string
	flagDebug     bool
	flagDebugHTTP bool
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagUsername, "username", "u", defaultUsername(), "Tradervue username")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.tvbackup.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagDebugHTTP, "debug-http", false, "log full HTTP requests and responses (implies --debug)")
}

// defaultUsername falls back to the OS account name, matching what most
// Tradervue users register with.
func defaultUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return ""
}

func newLogger() (*zap.Logger, *logging.ErrorCounter, error) {
	return logging.New(flagDebug || flagDebugHTTP)
}

func loadConfig() (*config.Config, error) {
	return config.Load(flagConfig)
}
