package httpinput

import (
	"fmt"

	"github.com/akave-ai/udplog/internal/infrastructure/inputs"
)

func init() {
	inputs.GlobalRegistry.Register(&Factory{})
}

// Factory creates HTTP ingest inputs. Registers as "http".
type Factory struct{}

func (f *Factory) Name() string {
	return "http"
}

func (f *Factory) ConfigSpec() inputs.InputTypeInfo {
	return inputs.InputTypeInfo{
		Type:        "http",
		Description: "HTTP ingest endpoint mounted on the admin server. Each POST body is one LEVEL|MESSAGE|REQUEST_ID record; the remote IP is the client identity.",
		Fields: []inputs.ConfigField{
			{Name: "description", Type: "string", Required: true, Description: "Path segment for the endpoint (e.g. 'raw' → /ingest/raw)", Example: "raw"},
			{Name: "base_path", Type: "string", Required: false, Description: "Base path prefix", Example: "/ingest"},
		},
	}
}

func (f *Factory) ValidateConfig(cfg inputs.Config) error {
	if cfg.String("description") == "" {
		return fmt.Errorf("missing 'description' for http input")
	}
	return nil
}

func (f *Factory) Create(cfg inputs.Config, buffer inputs.InputBuffer) (inputs.MessageInput, error) {
	if err := f.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	basePath := cfg.String("base_path")
	if basePath == "" {
		basePath = "/ingest"
	}
	return NewInput(basePath, cfg.String("description"), buffer), nil
}
