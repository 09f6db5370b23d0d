package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/greinacker/tvbackup/credstore"
)

var setPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Store the Tradervue password in the system keychain",
	Long: `Prompt for the Tradervue password and store it in the operating system
keychain under the account's username. The password is never echoed and never
written to any tvbackup file.`,
	Args: cobra.NoArgs,
	RunE: runSetPassword,
}

var deletePasswordCmd = &cobra.Command{
	Use:   "delete-password",
	Short: "Remove the stored Tradervue password",
	Args:  cobra.NoArgs,
	RunE:  runDeletePassword,
}

func init() {
	rootCmd.AddCommand(setPasswordCmd)
	rootCmd.AddCommand(deletePasswordCmd)
}

func runSetPassword(cmd *cobra.Command, args []string) error {
	log, _, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	secret, err := promptPassword(flagUsername)
	if err != nil {
		return err
	}
	if secret == "" {
		return fmt.Errorf("empty password not stored")
	}

	if err := credstore.Set(flagUsername, secret); err != nil {
		log.Error("unable to store password", zap.String("username", flagUsername), zap.Error(err))
		return err
	}

	log.Info("password stored", zap.String("username", flagUsername))
	return nil
}

func runDeletePassword(cmd *cobra.Command, args []string) error {
	log, _, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if err := credstore.Delete(flagUsername); err != nil {
		log.Error("unable to delete password", zap.String("username", flagUsername), zap.Error(err))
		return err
	}

	log.Info("password deleted", zap.String("username", flagUsername))
	return nil
}

// promptPassword reads the secret without echo when stdin is a terminal, and
// falls back to reading a line otherwise so the command stays scriptable.
func promptPassword(username string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprintf(os.Stderr, "Tradervue password for %s: ", username)
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(secret), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
