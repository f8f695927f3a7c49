package main

import (
	"log"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/assistant"
	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/chat"
	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/config"
	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/storage"
	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/tui"
	"github.com/omg04j/100BM-chatbot-IronLady-02/pkg/utils"
)

func main() {
	// Optional; the terminal stays clean either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Log to a file so frames don't corrupt the terminal.
	utils.InitFileLogger(filepath.Join(cfg.Storage.Dir, "chat.log"))
	logger := utils.GetLogger()

	if err := cfg.ValidateAPI(); err != nil {
		logger.WithError(err).Fatal("API configuration validation failed")
	}

	store, err := storage.NewFileStore(cfg.Storage.Dir)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open state store")
	}

	sessions := chat.NewSessionManager(store, logger)
	sessionID, err := sessions.Current()
	if err != nil {
		logger.WithError(err).Fatal("Failed to resolve session id")
	}

	client := assistant.NewClient(cfg.API.BaseURL, time.Duration(cfg.API.TimeoutSeconds)*time.Second, logger)
	conversation := chat.NewConversation()

	model := tui.NewChat(tui.ChatDeps{
		SessionID:    sessionID,
		Client:       client,
		Conversation: conversation,
		Assembler:    chat.NewAssembler(client, conversation, logger),
		Feedback:     chat.NewFeedbackTracker(client, logger),
		Sessions:     sessions,
		Logger:       logger,
	})

	logger.WithField("session_id", sessionID).Info("Chat client starting")

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		logger.WithError(err).Fatal("Chat client crashed")
	}
}
