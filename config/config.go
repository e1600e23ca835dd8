package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Bandcamp serves reduced or blocked markup to clients that do not look like
// a desktop browser, so every page request carries this user agent unless
// the config overrides it.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const defaultSearchLimit = 10

type Config struct {
	LogLevel  int    `yaml:"log_level"`
	UserAgent string `yaml:"user_agent"`

	Search SearchConfig `yaml:"search"`
	YtDlp  YtDlpConfig  `yaml:"ytdlp"`
	Probe  ProbeConfig  `yaml:"probe"`
}

type SearchConfig struct {
	// DefaultLimit caps search fan-out when the caller does not pass one.
	DefaultLimit int `yaml:"default_limit"`
}

type YtDlpConfig struct {
	// Binary is the yt-dlp executable name or path.
	Binary string `yaml:"binary"`
}

type ProbeConfig struct {
	// Binary is the media inspection executable name or path.
	Binary string `yaml:"binary"`
}

// Default returns a config with all defaults applied, used when no config
// file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config *Config

	// Unmarshal the YAML data into the struct
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}

	config.applyDefaults()

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}

	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = defaultSearchLimit
	}

	if c.YtDlp.Binary == "" {
		c.YtDlp.Binary = "yt-dlp"
	}

	if c.Probe.Binary == "" {
		c.Probe.Binary = "ffprobe"
	}
}
