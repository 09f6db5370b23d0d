// Package credstore adapts the platform keyring for Tradervue credentials.
// One secret is stored per username under a fixed service namespace; the
// secret lives in the OS keychain, never in this tool's own files.
package credstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
	"go.uber.org/zap"
)

// Service is the keyring namespace all tvbackup secrets live under.
const Service = "tradervue"

// Credentials pairs a username with its stored secret. It is held in memory
// for the duration of a run only.
type Credentials struct {
	Username string
	Password string
}

// Set stores the secret for username, replacing any previous value.
func Set(username, secret string) error {
	if err := keyring.Set(Service, username, secret); err != nil {
		return fmt.Errorf("credential store rejected write for %s: %w", username, err)
	}
	return nil
}

// Delete removes the stored secret for username. Deleting a secret that was
// never stored is an error.
func Delete(username string) error {
	if err := keyring.Delete(Service, username); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no stored password for %s", username)
		}
		return fmt.Errorf("credential store rejected delete for %s: %w", username, err)
	}
	return nil
}

// Get looks up the stored secret for username. A missing or unreadable secret
// logs a single ERROR and reports false; callers must not attempt network
// access in that case.
func Get(username string, log *zap.Logger) (Credentials, bool) {
	secret, err := keyring.Get(Service, username)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			log.Error("no stored password; run 'tvbackup set-password' first",
				zap.String("username", username),
				zap.String("service", Service))
		} else {
			log.Error("credential store lookup failed",
				zap.String("username", username),
				zap.Error(err))
		}
		return Credentials{}, false
	}

	return Credentials{Username: username, Password: secret}, true
}
