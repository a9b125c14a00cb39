package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all takenote configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Settings SettingsConfig `yaml:"settings"`
}

type ServerConfig struct {
	Bind        string   `yaml:"bind"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	UIDir       string   `yaml:"ui_dir"` // static editor build, empty disables the UI
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"` // debug, info, warn, error
	Pretty bool   `yaml:"pretty"`
}

type SettingsConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37780,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
		Settings: SettingsConfig{
			CacheSize: 128,
		},
	}
}

// DefaultPath returns ~/.takenote/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".takenote", "config.yaml"), nil
}

// Load builds the configuration from defaults, then the YAML file at path,
// then a .env file in the working directory, then TAKENOTE_* environment
// variables. A missing file at path is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := getenv("TAKENOTE_DB"); v != "" {
		c.Database.Path = v
	}
	if v := getenv("TAKENOTE_BIND"); v != "" {
		c.Server.Bind = v
	}
	if v := getenv("TAKENOTE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("TAKENOTE_PORT: invalid port %q", v)
		}
		c.Server.Port = port
	}
	if v := getenv("TAKENOTE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("TAKENOTE_CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.CORSOrigins = append(c.Server.CORSOrigins, o)
			}
		}
	}
	if v := getenv("TAKENOTE_UI_DIR"); v != "" {
		c.Server.UIDir = v
	}
	return nil
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
