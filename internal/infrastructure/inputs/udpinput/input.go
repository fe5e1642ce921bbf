package udpinput

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/akave-ai/udplog/internal/infrastructure/inputs"
)

// DefaultMaxDatagramSize is the largest UDP payload over IPv4.
const DefaultMaxDatagramSize = 65507

// Input reads datagrams from one UDP socket and hands a copy of each to an InputBuffer.
// A single goroutine owns the socket; it never blocks on the buffer.
type Input struct {
	addr    string
	maxSize int
	buffer  inputs.InputBuffer

	mu   sync.Mutex
	conn *net.UDPConn
	quit chan struct{}
	done chan struct{}

	received     atomic.Int64
	receiveErrs  atomic.Int64
	lastActivity atomic.Int64
}

// NewInput creates a UDP input bound to bindIP:port once started.
func NewInput(bindIP string, port, maxDatagramSize int, buffer inputs.InputBuffer) *Input {
	if maxDatagramSize <= 0 {
		maxDatagramSize = DefaultMaxDatagramSize
	}
	return &Input{
		addr:    net.JoinHostPort(bindIP, strconv.Itoa(port)),
		maxSize: maxDatagramSize,
		buffer:  buffer,
	}
}

// Start binds the socket and launches the receive loop. A bind failure is returned.
func (i *Input) Start() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.conn != nil {
		return fmt.Errorf("udp input %s already started", i.addr)
	}

	udpAddr, err := net.ResolveUDPAddr("udp4", i.addr)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", i.addr, err)
	}
	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", i.addr, err)
	}
	i.conn = conn
	i.quit = make(chan struct{})
	i.done = make(chan struct{})

	go i.receiveLoop(conn, i.quit, i.done)
	log.Info().Str("input", "udp").Str("addr", conn.LocalAddr().String()).Msg("listening")
	return nil
}

// Stop closes the socket and waits for the receive loop to exit.
func (i *Input) Stop() error {
	i.mu.Lock()
	conn, quit, done := i.conn, i.quit, i.done
	i.conn = nil
	i.mu.Unlock()
	if conn == nil {
		return nil
	}
	close(quit)
	err := conn.Close()
	<-done
	return err
}

// LocalAddr returns the bound address, or nil before Start.
func (i *Input) LocalAddr() net.Addr {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.conn == nil {
		return nil
	}
	return i.conn.LocalAddr()
}

// Received returns the number of datagrams read from the socket.
func (i *Input) Received() int64 { return i.received.Load() }

// ReceiveErrors returns the number of failed socket reads.
func (i *Input) ReceiveErrors() int64 { return i.receiveErrs.Load() }

// LastActivity returns when the last datagram arrived, zero if none has.
func (i *Input) LastActivity() time.Time {
	ns := i.lastActivity.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

type packetReader interface {
	ReadFromUDPAddrPort(b []byte) (int, netip.AddrPort, error)
}

const (
	minErrorBackoff = 5 * time.Millisecond
	maxErrorBackoff = time.Second
)

// receiveLoop reads until the socket is closed. The buffer is one byte larger than maxSize so
// an oversized datagram is detected instead of silently truncated. Consecutive read errors
// back off exponentially up to maxErrorBackoff.
func (i *Input) receiveLoop(conn packetReader, quit <-chan struct{}, done chan struct{}) {
	defer close(done)
	buf := make([]byte, i.maxSize+1)
	var backoff time.Duration
	for {
		n, src, err := conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// Transient socket errors (e.g. ICMP port unreachable surfacing as ECONNREFUSED)
			// must not stop the service.
			i.receiveErrs.Add(1)
			if r, ok := i.buffer.(inputs.ErrorReporter); ok {
				r.ReportError("udp", err)
			}
			backoff = nextBackoff(backoff)
			log.Error().Err(err).Str("input", "udp").Dur("retry_in", backoff).Msg("network error")
			select {
			case <-quit:
				return
			case <-time.After(backoff):
			}
			continue
		}
		backoff = 0
		now := time.Now()
		i.received.Add(1)
		i.lastActivity.Store(now.UnixNano())

		truncated := n > i.maxSize
		if truncated {
			n = i.maxSize
		}
		// buf is reused by the next read.
		payload := make([]byte, n)
		copy(payload, buf[:n])
		i.buffer.Insert(inputs.Message{
			Input:      "udp",
			Payload:    payload,
			Source:     netip.AddrPortFrom(src.Addr().Unmap(), src.Port()),
			ReceivedAt: now,
			Truncated:  truncated,
		})
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d <= 0 {
		return minErrorBackoff
	}
	d *= 2
	if d > maxErrorBackoff {
		return maxErrorBackoff
	}
	return d
}
