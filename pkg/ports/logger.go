package ports

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LevelDebug is used by stages and adapters for per-frame and per-process details.
	LevelDebug LogLevel = iota
	// LevelInfo is used by the orchestrator for stage transitions.
	LevelInfo
	// LevelWarn reports degraded output, such as dropped audio or the fallback encoder.
	LevelWarn
	// LevelError reports failures that abort the conversion.
	LevelError
	// LevelQuiet suppresses all log output.
	LevelQuiet
)

var levelNames = map[LogLevel]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelQuiet: "quiet",
}

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}

// ParseLogLevel parses a level name. Unknown names map to LevelInfo.
func ParseLogLevel(s string) LogLevel {
	for level, name := range levelNames {
		if name == s {
			return level
		}
	}
	return LevelInfo
}

// Logger abstracts logging with translatable message keys.
// The msg parameter is an English format string that doubles as the
// translation key; args are applied after translation.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that prefixes messages with the component name.
	WithComponent(component string) Logger
}
