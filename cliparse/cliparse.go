package cliparse

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	TokenSecret  string
	TokenTTL     time.Duration
	ChatLimit    int
	VideoHost    string
	LogLevel     string
	LogFormat    string
}

// BindFlags registers every config flag on fs
func BindFlags(fs *pflag.FlagSet) {
	// Network config (can be CLI args or env)
	fs.IntP("port", "p", 3318, "Server port")
	fs.StringP("database-url", "d", "", "Database URL (default: sqlite file in the XDG data dir)")
	fs.StringP("database-type", "t", DatabaseSQLite, "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.String("token-secret", "", "Session token signing secret (prefer env)")
	fs.Duration("token-ttl", 24*time.Hour, "Session token lifetime")

	fs.Int("chat-limit", 500, "Maximum number of chat messages returned per request")
	fs.String("video-host", "vk.com", "Host serving the embeddable video player")
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	fs.String("log-format", "text", "Log format (text or json)")
}

// ParseFlags parses args and resolves the full server config
func ParseFlags(args []string) (Config, error) {
	fs := pflag.NewFlagSet("watchroom", pflag.ContinueOnError)
	BindFlags(fs)

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg, err := Load(fs)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.ValidateServer(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load resolves config from flags that were set, then environment
// variables (including a .env file in the working directory), then the
// flag defaults.
func Load(fs *pflag.FlagSet) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	// database-url -> DATABASE_URL
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg := Config{
		Port:         v.GetInt("port"),
		DatabaseURL:  v.GetString("database-url"),
		DatabaseType: strings.ToLower(v.GetString("database-type")),
		TokenSecret:  v.GetString("token-secret"),
		TokenTTL:     v.GetDuration("token-ttl"),
		ChatLimit:    v.GetInt("chat-limit"),
		VideoHost:    v.GetString("video-host"),
		LogLevel:     v.GetString("log-level"),
		LogFormat:    v.GetString("log-format"),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, errors.New("invalid PORT")
	}

	switch cfg.DatabaseType {
	case DatabaseSQLite:
		if cfg.DatabaseURL == "" {
			path, err := defaultSQLitePath()
			if err != nil {
				return Config{}, err
			}
			cfg.DatabaseURL = path
		}
	case DatabasePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
	default:
		return Config{}, fmt.Errorf("unsupported DATABASE_TYPE %q", cfg.DatabaseType)
	}

	if cfg.ChatLimit <= 0 {
		return Config{}, errors.New("CHAT_LIMIT must be positive")
	}

	return cfg, nil
}

// ValidateServer checks the settings only the HTTP server needs
func (c Config) ValidateServer() error {
	// Secrets - MUST be provided
	if c.TokenSecret == "" {
		return errors.New("TOKEN_SECRET required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	return nil
}

func defaultSQLitePath() (string, error) {
	dir := filepath.Join(xdg.DataHome, "watchroom")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}
	return filepath.Join(dir, "watchroom.sqlite"), nil
}
