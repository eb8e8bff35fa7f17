package fx

import (
	"os"

	"github.com/charmbracelet/log"
)

// logger is shared by every component. fx never fails loudly; degraded
// paths (missing backend, missing atlas) are reported here instead.
var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "fx",
	Level:  log.WarnLevel,
})

// SetLogger replaces the package logger. Passing nil restores the default.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.NewWithOptions(os.Stderr, log.Options{Prefix: "fx", Level: log.WarnLevel})
	}
	logger = l
}

// Logger returns the package logger.
func Logger() *log.Logger {
	return logger
}

// SetDebug toggles debug-level logging: per-sample monitor decisions,
// budget truncation, light creation.
func SetDebug(enabled bool) {
	if enabled {
		logger.SetLevel(log.DebugLevel)
		return
	}
	logger.SetLevel(log.WarnLevel)
}
