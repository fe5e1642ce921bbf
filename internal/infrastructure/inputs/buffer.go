package inputs

import (
	"net/netip"
	"time"
)

// Message is one raw record as received by an input, before any parsing.
type Message struct {
	Input      string // input type that received it, e.g. "udp"
	Payload    []byte
	Source     netip.AddrPort
	ReceivedAt time.Time
	// Truncated is set when the record was longer than the input accepts. Payload then holds
	// only the accepted prefix.
	Truncated  bool
}

// ClientIP returns the sender address used as the client identity.
func (m Message) ClientIP() string {
	if !m.Source.IsValid() {
		return "unknown"
	}
	return m.Source.Addr().Unmap().String()
}

// InputBuffer receives raw messages from inputs. Insert must not block the caller.
type InputBuffer interface {
	Insert(Message)
}

// ErrorReporter is optionally implemented by an InputBuffer that wants to count socket errors.
type ErrorReporter interface {
	ReportError(input string, err error)
}
