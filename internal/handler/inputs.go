package handler

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/akave-ai/udplog/internal/infrastructure/inputs"
	"github.com/akave-ai/udplog/internal/model"
	"github.com/akave-ai/udplog/internal/response"
)

// InputHandler owns the running inputs and serves /inputs and /inputs/types.
// Inputs come from configuration at startup; the API is read-only.
type InputHandler struct {
	Registry      *inputs.Registry
	Buffer        inputs.InputBuffer
	MountIngest   func(path string, h http.Handler)
	UnmountIngest func(path string)

	mu        sync.Mutex
	instances map[uuid.UUID]*InstanceRecord
	order     []uuid.UUID
}

// InstanceRecord holds an input definition and its runtime.
type InstanceRecord struct {
	Input model.Input
	Run   inputs.MessageInput
	mount string
}

type inputInstanceResponse struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Title         string          `json:"title"`
	Configuration json.RawMessage `json:"configuration"`
	CreatedAt     string          `json:"created_at"`
	State         string          `json:"state"`
	Address       string          `json:"address,omitempty"`
	Received      *int64          `json:"received,omitempty"`
	ReceiveErrors *int64          `json:"receive_errors,omitempty"`
	LastActivity  string          `json:"last_activity,omitempty"`
}

// counted is implemented by socket inputs that keep their own counters.
type counted interface {
	Received() int64
	ReceiveErrors() int64
	LastActivity() time.Time
}

// NewInputHandler returns a handler creating inputs from registry that feed buffer.
func NewInputHandler(registry *inputs.Registry, buffer inputs.InputBuffer) *InputHandler {
	return &InputHandler{
		Registry:  registry,
		Buffer:    buffer,
		instances: make(map[uuid.UUID]*InstanceRecord),
	}
}

// CreateInput builds an input from spec without starting it.
func (h *InputHandler) CreateInput(spec inputs.InputSpec) (model.Input, error) {
	cfg := spec.ConfigWithDescription()
	run, err := h.Registry.Create(spec.Type, cfg, h.Buffer)
	if err != nil {
		return model.Input{}, fmt.Errorf("create %s input: %w", spec.Type, err)
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return model.Input{}, fmt.Errorf("encode %s input config: %w", spec.Type, err)
	}
	title := spec.Title
	if title == "" {
		title = spec.Type + "-" + uuid.New().String()[:8]
	}
	in := model.Input{
		ID:            uuid.New(),
		Type:          spec.Type,
		Title:         title,
		Configuration: cfgJSON,
		CreatedAt:     time.Now().UTC(),
		State:         model.InputStateStopped,
	}

	h.mu.Lock()
	h.instances[in.ID] = &InstanceRecord{Input: in, Run: run}
	h.order = append(h.order, in.ID)
	h.mu.Unlock()
	return in, nil
}

// StartAll starts inputs in creation order. The first failure stops the ones already started
// and is returned.
func (h *InputHandler) StartAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, id := range h.order {
		rec := h.instances[id]
		if err := rec.Run.Start(); err != nil {
			rec.Input.State = model.InputStateFailed
			for _, started := range h.order[:i] {
				h.stopLocked(h.instances[started])
			}
			return fmt.Errorf("start %s input %q: %w", rec.Input.Type, rec.Input.Title, err)
		}
		rec.Input.State = model.InputStateRunning
		if ep, ok := rec.Run.(inputs.HTTPEndpointInput); ok && h.MountIngest != nil {
			rec.mount = strings.TrimPrefix(ep.Path(), "/ingest")
			h.MountIngest(rec.mount, ep.Handler())
		}
	}
	return nil
}

// StopAll stops every running input.
func (h *InputHandler) StopAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range h.order {
		h.stopLocked(h.instances[id])
	}
}

func (h *InputHandler) stopLocked(rec *InstanceRecord) {
	if rec.Input.State != model.InputStateRunning {
		return
	}
	if rec.mount != "" && h.UnmountIngest != nil {
		h.UnmountIngest(rec.mount)
		rec.mount = ""
	}
	_ = rec.Run.Stop()
	rec.Input.State = model.InputStateStopped
}

// PacketAddr returns the bound address of the first running socket input.
func (h *InputHandler) PacketAddr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range h.order {
		if p, ok := h.instances[id].Run.(inputs.PacketInput); ok {
			if addr := p.LocalAddr(); addr != nil {
				return addr
			}
		}
	}
	return nil
}

// Running returns how many inputs are currently running.
func (h *InputHandler) Running() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, rec := range h.instances {
		if rec.Input.State == model.InputStateRunning {
			n++
		}
	}
	return n
}

// ListTypes returns registered input type names (GET /inputs/types).
func (h *InputHandler) ListTypes(c echo.Context) error {
	return response.OK(c, map[string]any{"types": h.Registry.ListRegistered()}, "")
}

// GetAllTypesInfo returns config spec for every registered input type (GET /inputs/info).
func (h *InputHandler) GetAllTypesInfo(c echo.Context) error {
	return response.OK(c, map[string]any{"types": h.Registry.AllTypesInfo()}, "")
}

// GetTypeInfo returns config spec for one input type (GET /inputs/types/:type).
func (h *InputHandler) GetTypeInfo(c echo.Context) error {
	typeName := c.Param("type")
	if typeName == "" {
		return response.BadRequest(c, "missing type", "missing type in path")
	}
	info, ok := h.Registry.GetTypeInfo(typeName)
	if !ok {
		return response.NotFound(c, "unknown input type", "unknown input type: "+typeName)
	}
	return response.OK(c, info, "")
}

// ListInputs returns the configured inputs and their state (GET /inputs).
func (h *InputHandler) ListInputs(c echo.Context) error {
	h.mu.Lock()
	out := make([]inputInstanceResponse, 0, len(h.order))
	for _, id := range h.order {
		rec := h.instances[id]
		resp := inputInstanceResponse{
			ID:            rec.Input.ID.String(),
			Type:          rec.Input.Type,
			Title:         rec.Input.Title,
			Configuration: rec.Input.Configuration,
			CreatedAt:     rec.Input.CreatedAt.Format(time.RFC3339),
			State:         string(rec.Input.State),
		}
		switch run := rec.Run.(type) {
		case inputs.PacketInput:
			if addr := run.LocalAddr(); addr != nil {
				resp.Address = addr.String()
			}
		case inputs.HTTPEndpointInput:
			resp.Address = run.Path()
		}
		if cnt, ok := rec.Run.(counted); ok {
			received, errs := cnt.Received(), cnt.ReceiveErrors()
			resp.Received, resp.ReceiveErrors = &received, &errs
			if last := cnt.LastActivity(); !last.IsZero() {
				resp.LastActivity = last.UTC().Format(time.RFC3339)
			}
		}
		out = append(out, resp)
	}
	h.mu.Unlock()
	return response.OK(c, map[string]any{"inputs": out}, "")
}
