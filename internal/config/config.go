package config

import (
	"errors"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/nazrinhakim/notemap/internal/crypto"
)

const (
	defaultStorePath     = "notemap.db"
	defaultBusyTimeoutMS = 5000
	defaultLogLevel      = "info"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Storage    StorageConfig    `toml:"storage"`
	Credential CredentialConfig `toml:"credential"`
	Logging    LoggingConfig    `toml:"logging"`
}

type StorageConfig struct {
	// Path is the database file; the session record lives next to it
	// unless SessionPath overrides it.
	Path          string `toml:"path"`
	SessionPath   string `toml:"session_path"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
}

type CredentialConfig struct {
	// Scheme selects the password digest. Changing it invalidates every
	// stored credential hash.
	Scheme string `toml:"scheme"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

func Default() Config {
	return Config{
		Storage: StorageConfig{
			Path:          defaultStorePath,
			BusyTimeoutMS: defaultBusyTimeoutMS,
		},
		Credential: CredentialConfig{
			Scheme: crypto.SchemeSHA256,
		},
		Logging: LoggingConfig{
			Level: defaultLogLevel,
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path yields
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: parse: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("%w: storage.path is required", ErrInvalidConfig)
	}
	if c.Storage.BusyTimeoutMS <= 0 {
		return fmt.Errorf("%w: storage.busy_timeout_ms must be positive", ErrInvalidConfig)
	}
	if _, err := crypto.ForScheme(c.Credential.Scheme); err != nil {
		return fmt.Errorf("%w: credential.scheme: %v", ErrInvalidConfig, err)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level %q", ErrInvalidConfig, c.Logging.Level)
	}
	return nil
}

// SessionFile resolves where the current-identity record lives.
func (c Config) SessionFile() string {
	if c.Storage.SessionPath != "" {
		return c.Storage.SessionPath
	}
	return c.Storage.Path + ".session"
}
