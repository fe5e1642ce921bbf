package ingest

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/akave-ai/udplog/internal/model"
)

// FieldSeparator splits the three wire fields. There is no escaping, so a message
// containing '|' is rejected as malformed.
const FieldSeparator = "|"

var (
	ErrDecode          = errors.New("payload is not valid UTF-8")
	ErrEmptyMessage    = errors.New("empty message")
	ErrMalformedFormat = errors.New("malformed format")
	ErrInvalidLevel    = errors.New("invalid log level")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrQueueFull       = errors.New("ingest queue full")
	ErrWrite           = errors.New("write failed")
	ErrTooLarge        = errors.New("record exceeds maximum size")
)

// Parse decodes a LEVEL|MESSAGE|REQUEST_ID payload.
// The whole payload is trimmed of surrounding whitespace first; the message is trimmed again
// on its own. The level and request id are taken verbatim.
func Parse(payload []byte) (model.LogRecord, error) {
	if !utf8.Valid(payload) {
		return model.LogRecord{}, ErrDecode
	}
	text := strings.TrimSpace(string(payload))
	if text == "" {
		return model.LogRecord{}, ErrEmptyMessage
	}

	parts := strings.Split(text, FieldSeparator)
	if len(parts) != 3 {
		return model.LogRecord{}, fmt.Errorf("%w: expected 3 fields, got %d", ErrMalformedFormat, len(parts))
	}

	level, ok := model.ParseLevel(parts[0])
	if !ok {
		return model.LogRecord{}, fmt.Errorf("%w: %q", ErrInvalidLevel, parts[0])
	}

	msg := strings.TrimSpace(parts[1])
	if msg == "" {
		return model.LogRecord{}, ErrEmptyMessage
	}

	return model.LogRecord{Level: level, Message: msg, RequestID: parts[2]}, nil
}

// Reason maps a rejection error to a short label used in diagnostics and metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDecode):
		return "decode_error"
	case errors.Is(err, ErrEmptyMessage):
		return "empty_message"
	case errors.Is(err, ErrMalformedFormat):
		return "malformed_format"
	case errors.Is(err, ErrInvalidLevel):
		return "invalid_level"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrQueueFull):
		return "queue_full"
	case errors.Is(err, ErrWrite):
		return "write_error"
	case errors.Is(err, ErrTooLarge):
		return "too_large"
	default:
		return "unknown"
	}
}
