package feeds

import (
	"code.cubepool.io/cube/config/encoding"
	"code.cubepool.io/cube/logging"
)

const namedLogger = "feeds"

// Config represents the configuration of the feeds registry
type Config struct {
	// logging level
	Level encoding.LogLevel
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level: encoding.LogLevel{Level: logging.InfoLevel},
	}
}
