package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFileNames are searched in order in every directory
var ConfigFileNames = []string{"campushire.json", "campushire.yaml", "campushire.yml"}

// ConfigFileName is the name used when creating a new config
const ConfigFileName = "campushire.json"

// Token store backends
const (
	BackendKeyring = "keyring"
	BackendFile    = "file"
	BackendRedis   = "redis"
)

// Server represents a campushire API server
type Server struct {
	URL   string `json:"url" yaml:"url"`
	Alias string `json:"alias" yaml:"alias"`
}

// TokenStore selects where the bearer credential is persisted
type TokenStore struct {
	Backend   string `json:"backend,omitempty" yaml:"backend,omitempty"`     // keyring (default), file, redis
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`           // file backend, defaults to ~/.config/campushire/credentials.json
	RedisAddr string `json:"redisAddr,omitempty" yaml:"redisAddr,omitempty"` // redis backend, host:port
	RedisDB   int    `json:"redisDb,omitempty" yaml:"redisDb,omitempty"`
}

// Config represents the CLI configuration file
type Config struct {
	Servers    []Server   `json:"servers" yaml:"servers"`
	TokenStore TokenStore `json:"tokenStore,omitzero" yaml:"tokenStore,omitempty"`
}

// Validate checks the token store settings
func (c *Config) Validate() error {
	switch c.TokenStore.Backend {
	case "", BackendKeyring, BackendFile:
	case BackendRedis:
		if c.TokenStore.RedisAddr == "" {
			return fmt.Errorf("tokenStore.redisAddr is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid tokenStore.backend '%s', must be one of: keyring, file, redis", c.TokenStore.Backend)
	}
	return nil
}

// FindConfigFile searches for a campushire config in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	// Search upwards until we find a config or reach root
	dir := currentDir
	for {
		for _, name := range ConfigFileNames {
			configPath := filepath.Join(dir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetServerByAlias returns a server by its alias
func (c *Config) GetServerByAlias(alias string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].Alias == alias {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with alias '%s' not found", alias)
}

// GetServerByURL returns a server by its API URL, ignoring a trailing slash
func (c *Config) GetServerByURL(url string) (*Server, error) {
	url = strings.TrimRight(url, "/")
	for i := range c.Servers {
		if strings.TrimRight(c.Servers[i].URL, "/") == url {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with URL '%s' not found", url)
}
