package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Sync      SyncConfig       `yaml:"sync"`
	Providers []ProviderConfig `yaml:"providers"`
	Storage   StorageConfig    `yaml:"storage"`
	Logging   LoggingConfig    `yaml:"logging"`
	Notify    NotifyConfig     `yaml:"notify"`
	Reconcile ReconcileConfig  `yaml:"reconcile"`
}

type SyncConfig struct {
	Entity                string `yaml:"entity"` // match, team or player
	UseCompetitionContext bool   `yaml:"use_competition_context"`
	Verbose               bool   `yaml:"verbose"`
	GroupColumn           string `yaml:"group_column"` // optional: split input into independent groups
	Workers               int    `yaml:"workers"`      // parallel groups; defaults to 1
}

type ProviderConfig struct {
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
	Format string `yaml:"format"` // csv or json; guessed from the extension when empty
}

type StorageConfig struct {
	Backend  string         `yaml:"backend"` // postgres or sqlite
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

type NotifyConfig struct {
	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   int64  `yaml:"telegram_chat_id"`
}

type ReconcileConfig struct {
	// NameColumn seeds minted identifiers; defaults to the entity's
	// name column (team_name, player_name).
	NameColumn string `yaml:"name_column"`

	// Partition column used when minting durable identifiers, e.g.
	// competition_id for teams.
	PartitionColumn string `yaml:"partition_column"`
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Sync.Workers <= 0 {
		config.Sync.Workers = 1
	}

	return &config, nil
}
