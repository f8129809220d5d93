// Package config loads the application configuration from a YAML file with
// environment expansion. A .env file beside the binary is honored, then
// ${VAR} references in the YAML are expanded from the environment before
// parsing. Missing file means all defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Storage            StorageConfig `yaml:"storage"`
	DefaultTranslation string        `yaml:"default_translation"`
	Cache              CacheConfig   `yaml:"cache"`
	LogLevel           string        `yaml:"log_level"`
	LogFormat          string        `yaml:"log_format"`
}

type StorageConfig struct {
	// DataDir holds the provisioned translation databases and the overlay.
	DataDir string `yaml:"data_dir"`
	// AssetDir holds the packaged (possibly xz-compressed) corpus assets.
	AssetDir string `yaml:"asset_dir"`
	// OverlayFile names the personal-state database inside DataDir.
	OverlayFile string `yaml:"overlay_file"`
}

type CacheConfig struct {
	// ChapterCacheSize bounds the per-store chapter LRU.
	ChapterCacheSize int `yaml:"chapter_cache_size"`
}

// OverlayPath returns the full path of the overlay database.
func (s StorageConfig) OverlayPath() string {
	return filepath.Join(s.DataDir, s.OverlayFile)
}

// Load reads the configuration at path. A missing file is not an error;
// defaults apply.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = defaultDataDir()
	}
	if c.Storage.AssetDir == "" {
		c.Storage.AssetDir = "assets"
	}
	if c.Storage.OverlayFile == "" {
		c.Storage.OverlayFile = "overlay.db"
	}
	if c.DefaultTranslation == "" {
		c.DefaultTranslation = "cuv"
	}
	if c.Cache.ChapterCacheSize == 0 {
		c.Cache.ChapterCacheSize = 100
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".local", "share", "scripture")
}
