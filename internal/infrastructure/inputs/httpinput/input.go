package httpinput

import (
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/akave-ai/udplog/internal/infrastructure/inputs"
)

// maxBodySize matches the largest record a UDP input can carry.
const maxBodySize = 65507

// Input is an HTTP ingest endpoint that writes each request body to an InputBuffer.
// It is mounted on an existing router; it never listens on its own.
type Input struct {
	path   string
	buffer inputs.InputBuffer
}

// NewInput creates an HTTP input serving basePath/description.
func NewInput(basePath, description string, buffer inputs.InputBuffer) *Input {
	basePath = "/" + strings.Trim(strings.TrimSpace(basePath), "/")
	desc := strings.Trim(strings.TrimSpace(description), "/")
	return &Input{
		path:   strings.TrimSuffix(basePath, "/") + "/" + desc,
		buffer: buffer,
	}
}

func (i *Input) Path() string { return i.path }

func (i *Input) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			w.Header().Set("Allow", "POST, PUT")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
		if err != nil {
			http.Error(w, "read error", http.StatusBadRequest)
			return
		}
		src := remoteAddrPort(r.RemoteAddr)
		if len(body) > maxBodySize {
			i.buffer.Insert(inputs.Message{Input: "http", Payload: body[:maxBodySize], Source: src, ReceivedAt: time.Now(), Truncated: true})
			http.Error(w, "record too large", http.StatusRequestEntityTooLarge)
			return
		}
		log.Debug().Str("input", "http").Str("client", src.Addr().String()).Int("bytes", len(body)).Msg("received")
		i.buffer.Insert(inputs.Message{Input: "http", Payload: body, Source: src, ReceivedAt: time.Now()})
		w.WriteHeader(http.StatusAccepted)
	})
}

func (i *Input) Start() error { return nil }

func (i *Input) Stop() error { return nil }

func remoteAddrPort(remote string) netip.AddrPort {
	if ap, err := netip.ParseAddrPort(remote); err == nil {
		return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
	}
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = remote
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return netip.AddrPortFrom(addr.Unmap(), 0)
	}
	return netip.AddrPort{}
}
