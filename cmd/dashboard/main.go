package main

import (
	"log"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/assistant"
	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/config"
	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/dashboard"
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
	utils.InitFileLogger(filepath.Join(cfg.Storage.Dir, "dashboard.log"))
	logger := utils.GetLogger()

	if err := cfg.ValidateAPI(); err != nil {
		logger.WithError(err).Fatal("API configuration validation failed")
	}
	if err := cfg.ValidateDashboard(); err != nil {
		logger.WithError(err).Fatal("Dashboard configuration validation failed")
	}

	store, err := storage.NewFileStore(cfg.Storage.Dir)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open state store")
	}

	client := assistant.NewClient(cfg.API.BaseURL, time.Duration(cfg.API.TimeoutSeconds)*time.Second, logger)

	model := tui.NewDashboard(tui.DashboardDeps{
		Gate:         dashboard.NewGate(cfg.Dashboard.Password, store, logger),
		Fetcher:      dashboard.NewFetcher(client, cfg.Dashboard.RecentLimit, logger),
		Logger:       logger,
		ExportDir:    ".",
		RefreshEvery: time.Duration(cfg.Dashboard.RefreshSeconds) * time.Second,
	})

	logger.Info("Dashboard starting")

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		logger.WithError(err).Fatal("Dashboard crashed")
	}
}
