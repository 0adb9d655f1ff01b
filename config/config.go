package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Words    WordsConfig    `mapstructure:"words"`
}

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	CORSOrigins string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type SessionConfig struct {
	// RoundSeconds is the leaderboard session countdown duration.
	RoundSeconds int `mapstructure:"round_seconds"`
}

type SnapshotConfig struct {
	// Backend selects where the global score snapshot is persisted:
	// "database" (default) or "file".
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
}

type WordsConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load reads config.yaml from path (optional) and applies environment
// overrides, e.g. SERVER_ADDRESS or DATABASE_URL.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("server.address", ":3000")
	v.SetDefault("server.cors_origins", "http://localhost:3000")
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "taaltoren")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("session.round_seconds", 60)
	v.SetDefault("snapshot.backend", "database")
	v.SetDefault("snapshot.dir", "./data")
	v.SetDefault("words.dir", "./words")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A config file is optional; env vars and defaults are enough.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
