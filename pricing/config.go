package pricing

import (
	"code.cubepool.io/cube/config/encoding"
	"code.cubepool.io/cube/logging"
)

const namedLogger = "pricing"

// DefaultPower is the leverage exponent used when none is configured.
const DefaultPower = 3

// Config represents the configuration of the pricing engine.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
	Power uint64            `long:"power" description:"leverage exponent applied to the spot price"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Level: encoding.LogLevel{Level: logging.InfoLevel},
		Power: DefaultPower,
	}
}
