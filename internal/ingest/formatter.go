package ingest

import (
	"strings"
	"time"
)

// TimestampLayout renders second-resolution timestamps in the process local zone.
const TimestampLayout = "2006-01-02 15:04:05"

// Format renders one persisted line without the trailing newline:
//
//	[2025-02-25 10:00:00] [INFO] [10.0.0.7] [LoggingService] message [req-001]
//
// Brackets and pipes inside message are written as-is.
func Format(level, clientIP, message, requestID, serviceName string, now time.Time) string {
	var b strings.Builder
	b.Grow(len(TimestampLayout) + len(level) + len(clientIP) + len(serviceName) + len(message) + len(requestID) + 16)
	b.WriteByte('[')
	b.WriteString(now.Local().Format(TimestampLayout))
	b.WriteString("] [")
	b.WriteString(level)
	b.WriteString("] [")
	b.WriteString(clientIP)
	b.WriteString("] [")
	b.WriteString(serviceName)
	b.WriteString("] ")
	b.WriteString(message)
	b.WriteString(" [")
	b.WriteString(requestID)
	b.WriteByte(']')
	return b.String()
}
