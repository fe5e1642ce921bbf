package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type InputState string

const (
	InputStateRunning InputState = "RUNNING"
	InputStateStopped InputState = "STOPPED"
	InputStateFailed  InputState = "FAILED"
)

// Input describes a configured ingestion input (udp socket, http endpoint) and its state.
type Input struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	Title         string          `json:"title"`
	Configuration json.RawMessage `json:"configuration"`
	CreatedAt     time.Time       `json:"created_at"`
	State         InputState      `json:"state"`
}
