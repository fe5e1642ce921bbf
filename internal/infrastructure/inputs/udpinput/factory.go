package udpinput

import (
	"fmt"

	"github.com/akave-ai/udplog/internal/infrastructure/inputs"
)

func init() {
	inputs.GlobalRegistry.Register(&Factory{})
}

// Factory creates UDP socket inputs. Registers as "udp".
type Factory struct{}

func (f *Factory) Name() string {
	return "udp"
}

func (f *Factory) ConfigSpec() inputs.InputTypeInfo {
	return inputs.InputTypeInfo{
		Type:        "udp",
		Description: "UDP socket input. Each datagram carries one LEVEL|MESSAGE|REQUEST_ID record; the sender IP is the client identity. Nothing is ever sent back.",
		Fields: []inputs.ConfigField{
			{Name: "bind_ip", Type: "string", Required: true, Description: "IPv4 address to bind", Example: "0.0.0.0"},
			{Name: "port", Type: "number", Required: true, Description: "UDP port to bind (0 picks a free port)", Example: "5000"},
			{Name: "max_datagram_size", Type: "number", Required: false, Description: "Receive buffer size in bytes; longer datagrams are truncated by the kernel", Example: "65507"},
		},
	}
}

func (f *Factory) ValidateConfig(cfg inputs.Config) error {
	if cfg.String("bind_ip") == "" {
		return fmt.Errorf("missing 'bind_ip'")
	}
	port, err := cfg.Int("port", -1)
	if err != nil {
		return err
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("port %d out of range", port)
	}
	size, err := cfg.Int("max_datagram_size", DefaultMaxDatagramSize)
	if err != nil {
		return err
	}
	if size <= 0 || size > DefaultMaxDatagramSize {
		return fmt.Errorf("max_datagram_size %d out of range (1..%d)", size, DefaultMaxDatagramSize)
	}
	return nil
}

func (f *Factory) Create(cfg inputs.Config, buffer inputs.InputBuffer) (inputs.MessageInput, error) {
	if err := f.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	port, _ := cfg.Int("port", 0)
	size, _ := cfg.Int("max_datagram_size", DefaultMaxDatagramSize)
	return NewInput(cfg.String("bind_ip"), port, size, buffer), nil
}
