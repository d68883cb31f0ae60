// Package logging configures the hclog loggers used by the ring binaries.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	// LevelEnv names the environment variable holding the default log level.
	LevelEnv = "RING_LOG_LEVEL"

	// JSONEnv names the environment variable which, when set to "1", switches output to JSON.
	JSONEnv = "RING_JSON_LOG"
)

// New creates a new hclog logger with standard settings. An empty level falls back to Level().
func New(name, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	if level == "" {
		level = Level()
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: os.Getenv(JSONEnv) == "1",
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z",
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// Level returns the configured log level from the environment, defaulting to "warn".
func Level() string {
	if level := os.Getenv(LevelEnv); level != "" {
		return level
	}
	return "warn"
}
