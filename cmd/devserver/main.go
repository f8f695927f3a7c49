package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/config"
	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/devstub"
	"github.com/omg04j/100BM-chatbot-IronLady-02/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	utils.InitLogger()
	logger := utils.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	server := devstub.NewServer(logger)
	if err := server.Run(":" + cfg.DevServer.Port); err != nil {
		logger.WithError(err).Fatal("Dev stub stopped")
	}
}
