/*
PURPOSE:
  Provides the structured logger for an1-bench.
  Wraps slog with a tint handler for readable CLI output.

REQUIREMENTS:
  User-specified:
  - "Sane" CLI output. Not spammy.

  Implementation-discovered:
  - Needs Info/Warn/Error levels; --debug lowers the threshold.

ARCHITECTURE INTEGRATION:
  - Used everywhere.

ERROR HANDLING:
  - N/A

IMPLEMENTATION RULES:
  - Use `log/slog` with github.com/lmittmann/tint.
  - Log to stderr; stdout is reserved for command output (derive, probe).

USAGE:
  output.Logger.Info("message", "key", "value")

RELATED FILES:
  - internal/cli/root.go

MAINTENANCE:
  - Keep the handler swappable for tests via SetLogger.
*/

package output

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

var Logger *slog.Logger

func init() {
	Logger = slog.New(tint.NewHandler(os.Stderr, nil))
}

// Init reconfigures the logger with the given level.
func Init(level slog.Level) {
	Logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}))
}

// SetLogger allows overriding the default logger (e.g. for testing)
func SetLogger(l *slog.Logger) {
	Logger = l
}
