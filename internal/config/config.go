package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Import    ImportConfig    `yaml:"import"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// TransportConfig selects how the MCP surface is served: "http" serves the
// REST API and MCP over streamable HTTP, "stdio" serves MCP on stdin/stdout.
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

// AuthConfig enables a static bearer token on the HTTP surface.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

type ImportConfig struct {
	URLTimeout        time.Duration `yaml:"url_timeout"`
	MaxBytes          int64         `yaml:"max_bytes"`
	MaxRows           int           `yaml:"max_rows"`
	AllowPrivateHosts bool          `yaml:"allow_private_hosts"`
	// SQLiteDir holds the sqlite files that database imports may open.
	SQLiteDir string `yaml:"sqlite_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8050,
		},
		DB: DBConfig{
			Path: "easybi.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Import: ImportConfig{
			URLTimeout: 30 * time.Second,
			MaxBytes:   50 << 20,
			MaxRows:    100000,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	return LoadFrom(os.Getenv("EASYBI_CONFIG_PATH"))
}

// LoadFrom reads the YAML file at path, if any, then applies environment overrides.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("EASYBI_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("EASYBI_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid EASYBI_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("EASYBI_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("EASYBI_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("EASYBI_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if mode := os.Getenv("EASYBI_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if token := os.Getenv("EASYBI_AUTH_TOKEN"); token != "" {
		cfg.Auth.Enabled = true
		cfg.Auth.Token = token
	}
	if allow := os.Getenv("EASYBI_IMPORT_ALLOW_PRIVATE"); allow != "" {
		v, err := strconv.ParseBool(allow)
		if err != nil {
			return Config{}, fmt.Errorf("invalid EASYBI_IMPORT_ALLOW_PRIVATE: %w", err)
		}
		cfg.Import.AllowPrivateHosts = v
	}
	if dir := os.Getenv("EASYBI_IMPORT_SQLITE_DIR"); dir != "" {
		cfg.Import.SQLiteDir = dir
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail at startup.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Auth.Enabled && c.Auth.Token == "" {
		return fmt.Errorf("auth enabled without a token")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
