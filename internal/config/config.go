package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const appDirName = ".go-dreyevr-parser"

// Config is the in-memory representation of ~/.go-dreyevr-parser/config.yaml.
type Config struct {
	CacheDir  string `yaml:"cache_dir"`
	LogFile   string `yaml:"log_file,omitempty"`
	LogFormat string `yaml:"log_format,omitempty"`
	// Workers is the number of parallel parse workers; 0 means one per CPU.
	Workers int  `yaml:"workers"`
	Debug   bool `yaml:"debug,omitempty"`
}

// AppDir returns the absolute path to ~/.go-dreyevr-parser/.
func AppDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, appDirName), nil
}

// ConfigPath returns the absolute path to ~/.go-dreyevr-parser/config.yaml.
func ConfigPath() (string, error) {
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() (*Config, error) {
	dir, err := AppDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		CacheDir:  filepath.Join(dir, "cache"),
		LogFile:   filepath.Join(dir, "logs", "app.log"),
		LogFormat: "text",
		Workers:   1,
	}, nil
}

// Load reads path (or the default location when path is empty) over the
// defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	if path == "" {
		if path, err = ConfigPath(); err != nil {
			return nil, err
		}
	} else if path, err = ExpandPath(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// normalize expands ~ in paths and checks value ranges.
func (c *Config) normalize() error {
	var err error
	if c.CacheDir, err = ExpandPath(c.CacheDir); err != nil {
		return err
	}
	if c.LogFile, err = ExpandPath(c.LogFile); err != nil {
		return err
	}

	switch c.LogFormat {
	case "":
		c.LogFormat = "text"
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.CacheDir == "" {
		return errors.New("cache_dir must not be empty")
	}
	return nil
}

// Save marshals cfg and writes it to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot serialize config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
