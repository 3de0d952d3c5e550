package pool

import (
	"time"

	"code.cubepool.io/cube/config/encoding"
	"code.cubepool.io/cube/logging"
)

const namedLogger = "pool"

// Config represents the configuration of the pool engine.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
	// Governance is the party controlling the pool at startup.
	Governance string `long:"governance" description:"initial governance party"`
	// UpdateInterval is how often the daemon reprices all cube tokens.
	UpdateInterval encoding.Duration `long:"update-interval" description:"interval between automatic price updates"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Level:          encoding.LogLevel{Level: logging.InfoLevel},
		Governance:     "governance",
		UpdateInterval: encoding.Duration{Duration: 30 * time.Second},
	}
}
