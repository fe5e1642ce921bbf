package ingest

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akave-ai/udplog/internal/model"
)

func TestParse_ValidLevels(t *testing.T) {
	for _, level := range model.Levels {
		rec, err := Parse([]byte(string(level) + "|Service started|req-001"))
		require.NoError(t, err, level)
		assert.Equal(t, level, rec.Level)
		assert.Equal(t, "Service started", rec.Message)
		assert.Equal(t, "req-001", rec.RequestID)
	}
}

func TestParse_TrimsPayloadAndMessage(t *testing.T) {
	rec, err := Parse([]byte("  WARN|  disk almost full \t|req 7\r\n"))
	require.NoError(t, err)
	assert.Equal(t, model.LevelWarn, rec.Level)
	assert.Equal(t, "disk almost full", rec.Message)
	assert.Equal(t, "req 7", rec.RequestID)
}

func TestParse_RequestIDVerbatim(t *testing.T) {
	rec, err := Parse([]byte("INFO|msg| spaced id "))
	require.NoError(t, err)
	assert.Equal(t, " spaced id", rec.RequestID)

	rec, err = Parse([]byte("INFO|msg|"))
	require.NoError(t, err)
	assert.Equal(t, "", rec.RequestID)
}

func TestParse_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		payload []byte
		want    error
		reason  string
	}{
		{"invalid utf8", []byte{'I', 'N', 'F', 'O', '|', 0xff, 0xfe, '|', 'r'}, ErrDecode, "decode_error"},
		{"whitespace only", []byte(" \t\n"), ErrEmptyMessage, "empty_message"},
		{"empty message field", []byte("INFO|   |req-1"), ErrEmptyMessage, "empty_message"},
		{"two fields", []byte("INFO|no request id"), ErrMalformedFormat, "malformed_format"},
		{"four fields", []byte("ERROR|bad|format|req-003"), ErrMalformedFormat, "malformed_format"},
		{"five fields", []byte("ERROR|bad|format|extra|req-003"), ErrMalformedFormat, "malformed_format"},
		{"no separator", []byte("hello"), ErrMalformedFormat, "malformed_format"},
		{"unknown level", []byte("BOGUS|test|req-002"), ErrInvalidLevel, "invalid_level"},
		{"lowercase level", []byte("info|test|req-002"), ErrInvalidLevel, "invalid_level"},
		{"padded level", []byte("INFO |test|req-002"), ErrInvalidLevel, "invalid_level"},
		{"dict literal", []byte(`{"level": "INFO", "message": "x"}`), ErrMalformedFormat, "malformed_format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.payload)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			assert.Equal(t, tc.reason, Reason(err))
		})
	}
}

func TestReason(t *testing.T) {
	assert.Equal(t, "", Reason(nil))
	assert.Equal(t, "rate_limited", Reason(ErrRateLimited))
	assert.Equal(t, "queue_full", Reason(ErrQueueFull))
	assert.Equal(t, "write_error", Reason(errors.Join(ErrWrite, errors.New("disk full"))))
	assert.Equal(t, "too_large", Reason(fmt.Errorf("%w: more than 32 bytes", ErrTooLarge)))
	assert.Equal(t, "unknown", Reason(errors.New("other")))
}
