package dashboard

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/storage"
)

const authKey = "dashboard_authenticated"

var ErrWrongPassword = errors.New("dashboard: wrong password")

// Gate keeps the dashboard behind a password. The check is a plain string
// comparison against the configured value and the result is remembered in
// the state store, so the gate stays open across restarts until logout.
// It keeps casual visitors out; it is not a security boundary.
type Gate struct {
	password string
	store    storage.Store
	logger   *logrus.Logger
}

func NewGate(password string, store storage.Store, logger *logrus.Logger) *Gate {
	return &Gate{password: password, store: store, logger: logger}
}

// Authenticated reports whether a previous login is still in effect.
func (g *Gate) Authenticated() bool {
	value, found, err := g.store.Get(authKey)
	if err != nil {
		g.logger.WithError(err).Warn("Failed to read auth flag")
		return false
	}
	return found && value == "true"
}

// Login compares the password and persists the auth flag on success.
func (g *Gate) Login(password string) error {
	if password != g.password {
		return ErrWrongPassword
	}
	if err := g.store.Set(authKey, "true"); err != nil {
		return fmt.Errorf("failed to persist auth flag: %w", err)
	}
	g.logger.Info("Dashboard unlocked")
	return nil
}

// Logout clears the auth flag.
func (g *Gate) Logout() error {
	if err := g.store.Delete(authKey); err != nil {
		return fmt.Errorf("failed to clear auth flag: %w", err)
	}
	g.logger.Info("Dashboard locked")
	return nil
}
