package client

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) (*net.UDPConn, int) {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, conn.LocalAddr().(*net.UDPAddr).Port
}

func read(t *testing.T, conn *net.UDPConn) string {
	t.Helper()
	buf := make([]byte, 1024)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func newClient(t *testing.T, port int) (*Client, string) {
	t.Helper()
	local := filepath.Join(t.TempDir(), "client_logs.txt")
	c, err := New(Config{ServerIP: "127.0.0.1", ServerPort: port, LocalLog: local}, zerolog.Nop())
	require.NoError(t, err)
	return c, local
}

func TestNew_RejectsBadAddress(t *testing.T) {
	_, err := New(Config{ServerIP: "localhost", ServerPort: 5000}, zerolog.Nop())
	assert.Error(t, err)
	_, err = New(Config{ServerIP: "127.0.0.1", ServerPort: 80}, zerolog.Nop())
	assert.Error(t, err)
}

func TestSend_DeliversAndLogsLocally(t *testing.T) {
	conn, port := listen(t)
	c, local := newClient(t, port)

	require.NoError(t, c.Send(context.Background(), "INFO", "Service started", "req-001"))
	assert.Equal(t, "INFO|Service started|req-001", read(t, conn))

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "INFO|Service started|req-001\n", string(data))
}

func TestSend_InvalidLevel(t *testing.T) {
	_, port := listen(t)
	c, _ := newClient(t, port)

	err := c.Send(context.Background(), "TRACE", "x", "id")
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestSend_RejectsFieldsTheServerWouldDrop(t *testing.T) {
	conn, port := listen(t)
	c, local := newClient(t, port)

	for _, tc := range []struct{ message, requestID string }{
		{"disk | full", "id"},
		{"ok", "req|1"},
		{"   ", "id"},
	} {
		err := c.Send(context.Background(), "ERROR", tc.message, tc.requestID)
		assert.ErrorIs(t, err, ErrInvalidField, "%q %q", tc.message, tc.requestID)
	}

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Empty(t, data)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = conn.ReadFromUDP(make([]byte, 64))
	assert.Error(t, err, "nothing should have been sent")
}

func TestSend_RetriesThenFails(t *testing.T) {
	_, port := listen(t)
	c, local := newClient(t, port)
	attempts := 0
	c.dial = func(context.Context, string, string) (net.Conn, error) {
		attempts++
		return nil, errors.New("network unreachable")
	}

	err := c.Send(context.Background(), "ERROR", "lost", "id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network unreachable")
	assert.Equal(t, MaxRetries, attempts)

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestSend_RecoversOnRetry(t *testing.T) {
	conn, port := listen(t)
	c, _ := newClient(t, port)
	var d net.Dialer
	attempts := 0
	c.dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("transient")
		}
		return d.DialContext(ctx, network, addr)
	}

	require.NoError(t, c.Send(context.Background(), "WARN", "second try", "id"))
	assert.Equal(t, 2, attempts)
	assert.Equal(t, "WARN|second try|id", read(t, conn))
}

func TestNewRequestID(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()
	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)
}

func TestValidLevel(t *testing.T) {
	for _, l := range []string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"} {
		assert.True(t, ValidLevel(l), l)
	}
	assert.False(t, ValidLevel("info"))
	assert.False(t, ValidLevel(""))
}

func TestRunAuto_SendsScript(t *testing.T) {
	conn, port := listen(t)
	c, local := newClient(t, port)
	var out bytes.Buffer

	require.NoError(t, RunAuto(context.Background(), c, AutoPlan{Burst: 3}, &out))

	var got []string
	for i := 0; i < 8; i++ {
		got = append(got, read(t, conn))
	}
	assert.True(t, strings.HasPrefix(got[0], "DEBUG|Test1|"))
	assert.True(t, strings.HasPrefix(got[4], "FATAL|Test5|"))
	assert.True(t, strings.HasPrefix(got[7], "WARN|Rate limit test|"))
	assert.Contains(t, out.String(), "Testing rate limit...")

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 8)
}

func TestRunManual(t *testing.T) {
	conn, port := listen(t)
	c, _ := newClient(t, port)
	in := strings.NewReader("trace\ninfo\nhello there\nexit\n")
	var out bytes.Buffer

	require.NoError(t, RunManual(context.Background(), c, in, &out))

	assert.True(t, strings.HasPrefix(read(t, conn), "INFO|hello there|"))
	assert.Contains(t, out.String(), "Invalid log level. Try again.")
	assert.Contains(t, out.String(), "Successfully sent log: INFO|hello there|")
}
