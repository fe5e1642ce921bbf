package model

// LogLevel is the severity carried in the first field of a record.
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
	LevelFatal LogLevel = "FATAL"
)

// Levels lists every accepted level in ascending severity.
var Levels = []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal}

// ParseLevel returns the level named by s. Matching is exact; "info" is not INFO.
func ParseLevel(s string) (LogLevel, bool) {
	for _, l := range Levels {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// LogRecord is the validated structure decoded from one datagram.
type LogRecord struct {
	Level     LogLevel `json:"level"`
	Message   string   `json:"message"`
	RequestID string   `json:"request_id"`
}
