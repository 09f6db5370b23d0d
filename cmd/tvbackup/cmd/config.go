package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greinacker/tvbackup/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate the settings file",
	Long: `Manage the optional tvbackup settings file.

Subcommands:
  init     - Generate a settings file with defaults
  validate - Validate an existing settings file

Examples:
  tvbackup config init
  tvbackup config validate -f ~/.tvbackup.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a settings file with defaults",
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a settings file",
	RunE:  runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", config.DefaultPath(), "output file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", config.DefaultPath(), "path to settings file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return err
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("✓ Configuration valid: %s\n", configValidatePath)
	fmt.Printf("  Server:  %s\n", cfg.BaseURL)
	fmt.Printf("  Timeout: %s\n", cfg.HTTPTimeout())
	if cfg.TargetUser != "" {
		fmt.Printf("  Target user: %s\n", cfg.TargetUser)
	}
	if cfg.HistoryDB != "" {
		fmt.Printf("  Run ledger: %s\n", cfg.HistoryDB)
	}
	return nil
}
