package api

import (
	"code.cubepool.io/cube/config/encoding"
	"code.cubepool.io/cube/logging"
)

const namedLogger = "api"

// Config represents the configuration of the api package.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
	IP    string            `long:"ip"`
	Port  int               `long:"port"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Level: encoding.LogLevel{Level: logging.InfoLevel},
		IP:    "0.0.0.0",
		Port:  3003,
	}
}
