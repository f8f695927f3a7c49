package chat

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/storage"
	"github.com/omg04j/100BM-chatbot-IronLady-02/pkg/utils"
)

const sessionKey = "session_id"

// SessionManager owns the durable opaque session id. The id identifies the
// user across restarts; one is generated and persisted on first use.
type SessionManager struct {
	store  storage.Store
	logger *logrus.Logger
}

func NewSessionManager(store storage.Store, logger *logrus.Logger) *SessionManager {
	return &SessionManager{store: store, logger: logger}
}

// Current returns the persisted session id, generating one if none exists.
func (m *SessionManager) Current() (string, error) {
	value, found, err := m.store.Get(sessionKey)
	if err != nil {
		return "", fmt.Errorf("failed to load session id: %w", err)
	}
	if found && utils.ValidateSessionID(value) {
		return value, nil
	}

	id := utils.NewSessionID()
	if err := m.store.Set(sessionKey, id); err != nil {
		return "", fmt.Errorf("failed to persist session id: %w", err)
	}
	m.logger.WithField("session_id", id).Info("Generated new session id")
	return id, nil
}

// Reset discards the current id and issues a fresh one.
func (m *SessionManager) Reset() (string, error) {
	id := utils.NewSessionID()
	if err := m.store.Set(sessionKey, id); err != nil {
		return "", fmt.Errorf("failed to persist session id: %w", err)
	}
	m.logger.WithField("session_id", id).Info("Session id reset")
	return id, nil
}
