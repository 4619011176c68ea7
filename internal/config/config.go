package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers understood by draft.Open
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds service and client settings
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Autosave AutosaveConfig `yaml:"autosave" json:"autosave"`
	Client   ClientConfig   `yaml:"client" json:"client"`

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
	// LegacyCurrentSlot lets requests without an identity read and write the shared "current" draft
	LegacyCurrentSlot bool `yaml:"legacy_current_slot" json:"legacy_current_slot"`
}

// StorageConfig selects and configures the draft store
type StorageConfig struct {
	Driver         string `yaml:"driver" json:"driver"`
	DSN            string `yaml:"dsn" json:"dsn"`
	FilePath       string `yaml:"file_path" json:"file_path"`
	EncryptionKey  string `yaml:"encryption_key" json:"encryption_key"`
	EncryptionSalt string `yaml:"encryption_salt" json:"encryption_salt"`
}

// AutosaveConfig holds coordinator timings in milliseconds
type AutosaveConfig struct {
	DebounceMS     int `yaml:"debounce_ms" json:"debounce_ms"`
	SavedDisplayMS int `yaml:"saved_display_ms" json:"saved_display_ms"`
}

// Debounce returns the quiet period before a save
func (a AutosaveConfig) Debounce() time.Duration {
	return time.Duration(a.DebounceMS) * time.Millisecond
}

// SavedDisplay returns how long "saved" stays visible
func (a AutosaveConfig) SavedDisplay() time.Duration {
	return time.Duration(a.SavedDisplayMS) * time.Millisecond
}

// ClientConfig is used by the CLI and the terminal wizard
type ClientConfig struct {
	ServerURL string `yaml:"server_url" json:"server_url"`
	OwnerID   string `yaml:"owner_id" json:"owner_id"`
}

// Dir returns ~/.projectdraft
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".projectdraft"), nil
}

// DefaultPath returns ~/.projectdraft/config.yaml
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	dir, _ := Dir()
	logPath := ""
	draftPath := "drafts.json"
	if dir != "" {
		logPath = filepath.Join(dir, "logs", "projectdraft.log")
		draftPath = filepath.Join(dir, "drafts.json")
	}

	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Storage: StorageConfig{
			Driver:   DriverFile,
			FilePath: draftPath,
		},
		Autosave: AutosaveConfig{
			DebounceMS:     1000,
			SavedDisplayMS: 2000,
		},
		Client: ClientConfig{
			ServerURL: "http://localhost:8080",
		},
		LogLevel:   "INFO",
		LogFile:    logPath,
		LogConsole: false,
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// Load loads config from ~/.projectdraft/config.yaml
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads a yaml config, then applies .env and environment overrides.
// A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	c.Server.Addr = getEnv("PROJECTDRAFT_ADDR", c.Server.Addr)
	c.Server.LegacyCurrentSlot = getEnvBool("PROJECTDRAFT_LEGACY_CURRENT_SLOT", c.Server.LegacyCurrentSlot)

	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.Storage.Driver = DriverPostgres
		c.Storage.DSN = url
	}
	c.Storage.Driver = getEnv("PROJECTDRAFT_STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.DSN = getEnv("PROJECTDRAFT_STORAGE_DSN", c.Storage.DSN)
	c.Storage.FilePath = getEnv("PROJECTDRAFT_STORAGE_FILE", c.Storage.FilePath)
	c.Storage.EncryptionKey = getEnv("PROJECTDRAFT_ENCRYPTION_KEY", c.Storage.EncryptionKey)
	c.Storage.EncryptionSalt = getEnv("PROJECTDRAFT_ENCRYPTION_SALT", c.Storage.EncryptionSalt)

	c.Autosave.DebounceMS = getEnvInt("PROJECTDRAFT_DEBOUNCE_MS", c.Autosave.DebounceMS)
	c.Autosave.SavedDisplayMS = getEnvInt("PROJECTDRAFT_SAVED_DISPLAY_MS", c.Autosave.SavedDisplayMS)

	c.Client.ServerURL = getEnv("PROJECTDRAFT_SERVER_URL", c.Client.ServerURL)
	c.Client.OwnerID = getEnv("PROJECTDRAFT_OWNER_ID", c.Client.OwnerID)

	c.LogLevel = getEnv("PROJECTDRAFT_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("PROJECTDRAFT_LOG_FILE", c.LogFile)
	c.LogConsole = getEnvBool("PROJECTDRAFT_LOG_CONSOLE", c.LogConsole)
}

// Validate rejects settings no component can run with
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverFile, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == DriverFile && c.Storage.FilePath == "" {
		return fmt.Errorf("storage.file_path is required for the file driver")
	}
	if (c.Storage.Driver == DriverSQLite || c.Storage.Driver == DriverPostgres) && c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required for the %s driver", c.Storage.Driver)
	}
	if c.Autosave.DebounceMS < 0 || c.Autosave.SavedDisplayMS < 0 {
		return fmt.Errorf("autosave timings must not be negative")
	}
	return nil
}

// Save writes the config to path, or to ~/.projectdraft/config.yaml when path is empty
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
