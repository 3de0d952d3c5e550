package config

import (
	"os"
	"path/filepath"

	"code.cubepool.io/cube/api"
	"code.cubepool.io/cube/broker"
	"code.cubepool.io/cube/feeds"
	"code.cubepool.io/cube/logging"
	"code.cubepool.io/cube/metrics"
	"code.cubepool.io/cube/pool"
	"code.cubepool.io/cube/pricing"

	"github.com/BurntSushi/toml"
)

const configFileName = "config.toml"

// Config ties together all other application configuration types.
type Config struct {
	API     api.Config     `group:"API" namespace:"api"`
	Broker  broker.Config  `group:"Broker" namespace:"broker"`
	Feeds   feeds.Config   `group:"Feeds" namespace:"feeds"`
	Logging logging.Config `group:"Logging" namespace:"logging"`
	Metrics metrics.Config `group:"Metrics" namespace:"metrics"`
	Pool    pool.Config    `group:"Pool" namespace:"pool"`
	Pricing pricing.Config `group:"Pricing" namespace:"pricing"`
}

// NewDefaultConfig returns a set of default configs for all packages, as
// specified at the per package config level.
func NewDefaultConfig() Config {
	return Config{
		API:     api.NewDefaultConfig(),
		Broker:  broker.NewDefaultConfig(),
		Feeds:   feeds.NewDefaultConfig(),
		Logging: logging.NewDefaultConfig(),
		Metrics: metrics.NewDefaultConfig(),
		Pool:    pool.NewDefaultConfig(),
		Pricing: pricing.NewDefaultConfig(),
	}
}

// Read loads the configuration from rootPath/config.toml on top of the
// defaults.
func Read(rootPath string) (*Config, error) {
	path := filepath.Join(rootPath, configFileName)
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := NewDefaultConfig()
	if _, err := toml.Decode(string(buf), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Write serializes the configuration to rootPath/config.toml.
func Write(rootPath string, cfg Config) error {
	f, err := os.Create(filepath.Join(rootPath, configFileName))
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// Empty is used by commands which require no global flags.
type Empty struct{}

// RootPathFlag is embedded by commands that operate on a configuration
// directory.
type RootPathFlag struct {
	RootPath string `short:"r" long:"root-path" description:"Path of the root directory in which the configuration will be located"`
}

func NewRootPathFlag() RootPathFlag {
	return RootPathFlag{RootPath: DefaultRoot()}
}

// DefaultRoot returns $HOME/.cubepool, the default configuration directory.
func DefaultRoot() string {
	return os.ExpandEnv("$HOME/.cubepool")
}
