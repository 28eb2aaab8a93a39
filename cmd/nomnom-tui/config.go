package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nomnomhq/nomnom/internal/journal"
	"github.com/nomnomhq/nomnom/internal/logging"
	"github.com/nomnomhq/nomnom/internal/model"
	"github.com/nomnomhq/nomnom/internal/session"
)

// cliConfig holds only client-relevant configuration.
type cliConfig struct {
	APIBaseURL        string        `mapstructure:"api-base-url"`
	MapsAPIKey        string        `mapstructure:"maps-api-key"`
	RequestTimeout    time.Duration `mapstructure:"request-timeout"`
	PrefetchThreshold int           `mapstructure:"prefetch-threshold"`
	SessionPath       string        `mapstructure:"session-path"`
	JournalPath       string        `mapstructure:"journal-path"`
	LogPath           string        `mapstructure:"log-path"`
	Verbose           bool          `mapstructure:"verbose"`
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	sessionPath, err := session.DefaultPath()
	if err != nil {
		return cfg, err
	}
	journalPath, err := journal.DefaultPath()
	if err != nil {
		return cfg, err
	}
	logPath, err := logging.DefaultLogPath()
	if err != nil {
		return cfg, err
	}

	v := viper.New()
	v.SetEnvPrefix("NOMNOM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("api-base-url", model.DefaultAPIBaseURL)
	v.SetDefault("maps-api-key", "")
	v.SetDefault("request-timeout", model.DefaultRequestTimeout)
	v.SetDefault("prefetch-threshold", model.DefaultPrefetchThreshold)
	v.SetDefault("session-path", sessionPath)
	v.SetDefault("journal-path", journalPath)
	v.SetDefault("log-path", logPath)
	v.SetDefault("verbose", false)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "nomnom", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	if cfg.APIBaseURL == "" {
		return cfg, errors.New("api-base-url must not be empty")
	}
	if cfg.PrefetchThreshold < 0 {
		return cfg, fmt.Errorf("invalid prefetch-threshold: %d", cfg.PrefetchThreshold)
	}

	return cfg, nil
}
