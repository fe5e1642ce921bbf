// Package client sends wire-format records to a udplog server and keeps a local copy of
// every record it delivered.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/akave-ai/udplog/internal/address"
	"github.com/akave-ai/udplog/internal/ingest"
	"github.com/akave-ai/udplog/internal/model"
	"github.com/akave-ai/udplog/internal/storage"
)

const (
	MaxRetries      = 3
	DefaultLocalLog = "client_logs.txt"
	retryDelay      = 100 * time.Millisecond
)

var (
	ErrInvalidLevel = errors.New("invalid log level")
	ErrInvalidField = errors.New("invalid record field")
)

type Config struct {
	ServerIP   string
	ServerPort int
	// LocalLog receives a copy of each delivered record. Empty uses DefaultLocalLog.
	LocalLog string
}

type Client struct {
	addr   string
	local  *storage.FileSink
	logger zerolog.Logger

	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// New validates the server address and prepares the local log.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if !address.ValidIP(cfg.ServerIP) {
		return nil, fmt.Errorf("invalid server IP %q", cfg.ServerIP)
	}
	if !address.ValidPort(cfg.ServerPort) {
		return nil, fmt.Errorf("invalid server port %d (%d..%d)", cfg.ServerPort, address.MinPort, address.MaxPort)
	}
	path := cfg.LocalLog
	if path == "" {
		path = DefaultLocalLog
	}
	if err := storage.EnsureFile(path); err != nil {
		return nil, err
	}
	var d net.Dialer
	return &Client{
		addr:   net.JoinHostPort(cfg.ServerIP, strconv.Itoa(cfg.ServerPort)),
		local:  storage.NewFileSink(path, false),
		logger: logger.With().Str("component", "client").Logger(),
		dial:   d.DialContext,
	}, nil
}

// Addr is the server address records are sent to.
func (c *Client) Addr() string { return c.addr }

// Entry builds the wire form LEVEL|MESSAGE|REQUEST_ID.
func Entry(level, message, requestID string) string {
	return strings.Join([]string{level, message, requestID}, ingest.FieldSeparator)
}

// Send delivers one record, trying up to MaxRetries times. Delivery means the datagram left
// this host; the server never replies.
func (c *Client) Send(ctx context.Context, level, message, requestID string) error {
	if !ValidLevel(level) {
		return fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}
	if err := validFields(message, requestID); err != nil {
		return err
	}
	entry := Entry(level, message, requestID)

	var err error
	for attempt := 1; attempt <= MaxRetries; attempt++ {
		if err = c.sendOnce(ctx, entry); err == nil {
			break
		}
		c.logger.Warn().Err(err).Int("attempt", attempt).Msg("send failed")
		if attempt == MaxRetries {
			return fmt.Errorf("send %q after %d attempts: %w", entry, MaxRetries, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	if err := c.local.Append(entry); err != nil {
		c.logger.Error().Err(err).Str("path", c.local.Path()).Msg("local log write failed")
	}
	c.logger.Info().Str("entry", entry).Msg("sent")
	return nil
}

func (c *Client) sendOnce(ctx context.Context, entry string) error {
	conn, err := c.dial(ctx, "udp4", c.addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Write([]byte(entry))
	return err
}

// validFields rejects what the server would drop: a separator in the message or request ID,
// or a message that is empty once trimmed.
func validFields(message, requestID string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("%w: empty message", ErrInvalidField)
	}
	if strings.Contains(message, ingest.FieldSeparator) {
		return fmt.Errorf("%w: message contains %q", ErrInvalidField, ingest.FieldSeparator)
	}
	if strings.Contains(requestID, ingest.FieldSeparator) {
		return fmt.Errorf("%w: request ID contains %q", ErrInvalidField, ingest.FieldSeparator)
	}
	return nil
}

// NewRequestID returns the first eight characters of a random UUID.
func NewRequestID() string {
	return uuid.NewString()[:8]
}

// ValidLevel reports whether s is one of the five accepted levels.
func ValidLevel(s string) bool {
	_, ok := model.ParseLevel(s)
	return ok
}
