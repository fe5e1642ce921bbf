package inputs

import (
	"net"
	"net/http"
)

// MessageInput is the minimal interface implemented by all input types.
// Start must return only after the input is ready to receive (or failed to bind).
type MessageInput interface {
	Start() error
	Stop() error
}

// HTTPEndpointInput is implemented by inputs that expose an HTTP endpoint.
// They provide a path and handler that can be mounted on any HTTP router.
type HTTPEndpointInput interface {
	MessageInput
	Path() string
	Handler() http.Handler
}

// PacketInput is implemented by inputs that own a datagram socket.
type PacketInput interface {
	MessageInput
	LocalAddr() net.Addr
}
