package storage

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
	BackendMemory = "memory"
)

// Config holds application configuration.
type Config struct {
	User       string `json:"user"`
	Backend    string `json:"backend"`
	DataDir    string `json:"dataDir"`
	WorldFile  string `json:"worldFile,omitempty"` // defaults to <dataDir>/world.yaml
	ListenAddr string `json:"listenAddr"`
	LogLevel   string `json:"logLevel"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	dataDir := ""
	if dir, err := DefaultDataDir(); err == nil {
		dataDir = dir
	}

	return Config{
		User:       "player",
		Backend:    BackendSQLite,
		DataDir:    dataDir,
		ListenAddr: "127.0.0.1:30080",
		LogLevel:   "info",
	}
}

// LoadConfig reads config from the JSON file.
// Creates the file with defaults if it doesn't exist.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			config := DefaultConfig()
			// Non-fatal: return defaults even if save fails
			_ = SaveConfig(path, &config)
			return &config, nil
		}
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	// Apply defaults for missing fields
	defaults := DefaultConfig()
	if config.User == "" {
		config.User = defaults.User
	}
	if config.Backend == "" {
		config.Backend = defaults.Backend
	}
	if config.DataDir == "" {
		config.DataDir = defaults.DataDir
	}
	if config.ListenAddr == "" {
		config.ListenAddr = defaults.ListenAddr
	}
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}

	return &config, nil
}

// SaveConfig writes config to the JSON file.
// Creates the directory if it doesn't exist.
func SaveConfig(path string, config *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides config fields from ANCHORS_* variables. Variables found in
// the given .env files are loaded first; already-set variables win.
func (c *Config) ApplyEnv(envFiles ...string) {
	for _, f := range envFiles {
		// Missing .env files are normal
		_ = godotenv.Load(f)
	}

	overrides := map[string]*string{
		"ANCHORS_USER":      &c.User,
		"ANCHORS_BACKEND":   &c.Backend,
		"ANCHORS_DATA_DIR":  &c.DataDir,
		"ANCHORS_WORLD":     &c.WorldFile,
		"ANCHORS_ADDR":      &c.ListenAddr,
		"ANCHORS_LOG_LEVEL": &c.LogLevel,
	}
	for name, field := range overrides {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}
}

// WorldPath returns WorldFile, or world.yaml inside DataDir when unset.
// It is derived on use so a DataDir override also moves the world file.
func (c *Config) WorldPath() string {
	if c.WorldFile != "" {
		return c.WorldFile
	}
	return filepath.Join(c.DataDir, "world.yaml")
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// DefaultDataDir returns ~/.config/anchors.
func DefaultDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "anchors"), nil
}

// DefaultConfigFilePath returns the default config path: ~/.config/anchors/config.json
func DefaultConfigFilePath() (string, error) {
	dir, err := DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}
