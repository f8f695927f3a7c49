package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	API struct {
		BaseURL        string
		TimeoutSeconds int
	}
	Dashboard struct {
		Password       string
		RecentLimit    int
		RefreshSeconds int
	}
	Storage struct {
		Dir string
	}
	DevServer struct {
		Port string
	}
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	var config Config

	// Set defaults
	viper.SetDefault("api.base_url", "http://localhost:8000")
	viper.SetDefault("api.timeout_seconds", 600)
	viper.SetDefault("dashboard.password", "ironlady123")
	viper.SetDefault("dashboard.recent_limit", 100)
	viper.SetDefault("dashboard.refresh_seconds", 60)
	viper.SetDefault("storage.dir", "")
	viper.SetDefault("devserver.port", "8000")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	config.API.BaseURL = viper.GetString("api.base_url")
	config.API.TimeoutSeconds = viper.GetInt("api.timeout_seconds")
	config.Dashboard.Password = viper.GetString("dashboard.password")
	config.Dashboard.RecentLimit = viper.GetInt("dashboard.recent_limit")
	config.Dashboard.RefreshSeconds = viper.GetInt("dashboard.refresh_seconds")
	config.Storage.Dir = viper.GetString("storage.dir")
	config.DevServer.Port = viper.GetString("devserver.port")

	// Deployment-level env overrides
	if url := os.Getenv("API_BASE_URL"); url != "" {
		config.API.BaseURL = url
	}
	if password := os.Getenv("DASHBOARD_PASSWORD"); password != "" {
		config.Dashboard.Password = password
	}

	if config.Storage.Dir == "" {
		config.Storage.Dir = defaultStorageDir()
	}

	return &config, nil
}

func (c *Config) ValidateAPI() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) ValidateDashboard() error {
	if c.Dashboard.Password == "" {
		return fmt.Errorf("dashboard.password is required")
	}
	if c.Dashboard.RecentLimit <= 0 {
		return fmt.Errorf("dashboard.recent_limit must be positive")
	}
	return nil
}

func defaultStorageDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".100bm-assistant"
	}
	return filepath.Join(base, "100bm-assistant")
}
