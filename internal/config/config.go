package config

import (
	"os"
	"time"

	"capivara-server/internal/util"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config provides configuration for the capivara server
type Config struct {
	loaded bool

	// Listen is the bind address for the HTTP server
	Listen string `yaml:"listen" envconfig:"listen"`

	Log struct {
		Level             string `yaml:"level" envconfig:"level"`
		DisableAccessLogs bool   `yaml:"disableAccessLogs" envconfig:"disable_access_logs"`
	}

	// Game holds round pacing, in milliseconds
	Game struct {
		RevealDelayMS  int `yaml:"revealDelayMs" envconfig:"reveal_delay_ms"`
		GraceMS        int `yaml:"graceMs" envconfig:"grace_ms"`
		AutoBidDelayMS int `yaml:"autoBidDelayMs" envconfig:"auto_bid_delay_ms"`
		BotThinkMinMS  int `yaml:"botThinkMinMs" envconfig:"bot_think_min_ms"`
		BotThinkMaxMS  int `yaml:"botThinkMaxMs" envconfig:"bot_think_max_ms"`
	}

	// Tables overrides the built-in table roster when non-empty
	Tables []Table `yaml:"tables"`
}

// Table describes one table in the roster
type Table struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Seats int    `yaml:"seats"`
	Solo  bool   `yaml:"solo"`
}

// RevealDelay returns the reveal window as a duration
func (c Config) RevealDelay() time.Duration {
	return time.Duration(c.Game.RevealDelayMS) * time.Millisecond
}

// GracePeriod returns the disconnect grace window as a duration
func (c Config) GracePeriod() time.Duration {
	return time.Duration(c.Game.GraceMS) * time.Millisecond
}

// AutoBidDelay returns the absent-seat fallback delay as a duration
func (c Config) AutoBidDelay() time.Duration {
	return time.Duration(c.Game.AutoBidDelayMS) * time.Millisecond
}

// BotThinkMin returns the lower bound on bot thinking time
func (c Config) BotThinkMin() time.Duration {
	return time.Duration(c.Game.BotThinkMinMS) * time.Millisecond
}

// BotThinkMax returns the upper bound on bot thinking time
func (c Config) BotThinkMax() time.Duration {
	return time.Duration(c.Game.BotThinkMaxMS) * time.Millisecond
}

var config Config

// Instance returns a singleton instance
// If the config hasn't been loaded, it will be loaded
func Instance() Config {
	if !config.loaded {
		if err := Load(); err != nil {
			panic(err)
		}
	}

	return config
}

// Load will load the configuration. A missing config file is not an error;
// the defaults plus the environment are enough to run.
func Load() error {
	config = defaults()

	configFile := util.Getenv("CAPIVARA_CONFIG_FILE", "config.yaml")
	file, err := os.Open(configFile)
	if err == nil {
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(&config); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := envconfig.Process("capivara", &config); err != nil {
		return err
	}

	config.loaded = true
	return nil
}

func defaults() Config {
	var c Config
	c.Listen = ":5080"
	c.Log.Level = "info"
	c.Game.RevealDelayMS = 4000
	c.Game.GraceMS = 45000
	c.Game.AutoBidDelayMS = 10000
	c.Game.BotThinkMinMS = 900
	c.Game.BotThinkMaxMS = 2600
	return c
}
