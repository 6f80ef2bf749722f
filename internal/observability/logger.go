// Package observability holds the logging and metrics seams patch runs
// report through. Both default to silent no-ops; a host that wants patch
// diagnostics installs its own sinks via SetLogger and SetMetrics before
// the first phase runs.
package observability

// Logger receives one entry per patch outcome: Info for applied patches,
// Error for failed ones, Debug for skips.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one key/value attribute attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// String builds a string-valued field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Err builds an error-valued field; nil errors render as empty strings.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: ""}
	}
	return Field{Key: "error", Value: err.Error()}
}

var defaultLogger Logger = noopLogger{}

// SetLogger installs the process-wide logger; nil restores the silent default.
func SetLogger(logger Logger) {
	if logger == nil {
		defaultLogger = noopLogger{}
		return
	}
	defaultLogger = logger
}

// Log returns the currently installed logger.
func Log() Logger {
	return defaultLogger
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...Field) {}
func (noopLogger) Info(string, ...Field)  {}
func (noopLogger) Error(string, ...Field) {}
