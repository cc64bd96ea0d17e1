// Package obslog builds the process-wide structured logger. It exists
// because the teacher's plain log.Printf calls have no level knob, and the
// configured log_level option needs one.
package obslog

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// New builds a leveled logger writing to stderr. levelName is one of
// debug|info|warning|error; anything else falls back to info.
func New(levelName string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02T15:04:05.000Z07:00",
	})
	logger.SetLevel(parseLevel(levelName))
	return logger
}

func parseLevel(name string) log.Level {
	switch strings.ToLower(name) {
	case "debug":
		return log.DebugLevel
	case "warning", "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
