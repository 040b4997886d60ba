// Package config loads the REPL's optional YAML configuration: the data
// root directory, the buffer pool's page cache capacity, and a debug
// logging toggle, per §6 "Configuration ... loads from an optional YAML
// file".
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/ovidtal/reldb/internal/bufferpool"
)

type Config struct {
	DataRoot string `mapstructure:"data_root"`

	Index struct {
		PageCacheCapacity int `mapstructure:"page_cache_capacity"`
	} `mapstructure:"index"`

	Log struct {
		Debug bool `mapstructure:"debug"`
	} `mapstructure:"log"`
}

func defaults() *Config {
	cfg := &Config{DataRoot: "./data"}
	cfg.Index.PageCacheCapacity = bufferpool.DefaultCapacity
	return cfg
}

// Load reads path as YAML and overlays it onto the defaults. A missing path
// is not an error: the REPL runs against the default data root with no
// config file present.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	if cfg.Index.PageCacheCapacity <= 0 {
		cfg.Index.PageCacheCapacity = bufferpool.DefaultCapacity
	}
	return cfg, nil
}
