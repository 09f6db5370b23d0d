package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greinacker/tvbackup/archive"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <archive.zip>",
	Short: "Extract a zipped backup archive",
	Long: `Extract the JSON document from a backup archive produced with --zip.

Example:
  tvbackup restore tv-backup.json.zip -d ./restored`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

var restoreDir string

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().StringVarP(&restoreDir, "dir", "d", ".", "directory to extract into")
}

func runRestore(cmd *cobra.Command, args []string) error {
	if err := archive.Restore(args[0], restoreDir); err != nil {
		return err
	}

	fmt.Printf("Restored %s to %s\n", args[0], restoreDir)
	return nil
}
