// Package logging wires up the engine's structured logger: TT size
// banners and the occasional internal-invariant diagnostic flow through
// here rather than the bare "log" package.
package logging

import (
	"os"

	logging "github.com/op/go-logging"
)

var format = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{level:.4s} %{module}: %{message}`,
)

func init() {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, format)
	logging.SetBackend(formatted)
}

// New returns a module-scoped logger, e.g. logging.New("engine").
func New(module string) *logging.Logger {
	return logging.MustGetLogger(module)
}

// SetLevel adjusts verbosity for a module ("DEBUG", "INFO", "WARNING",
// "ERROR", "CRITICAL" — case-insensitive).
func SetLevel(level, module string) {
	lvl, err := logging.LogLevel(level)
	if err != nil {
		lvl = logging.INFO
	}
	logging.SetLevel(lvl, module)
}
