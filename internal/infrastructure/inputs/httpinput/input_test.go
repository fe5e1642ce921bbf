package httpinput

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/akave-ai/udplog/internal/infrastructure/inputs"
)

type memBuffer struct {
	mu   sync.Mutex
	msgs []inputs.Message
}

func (b *memBuffer) Insert(m inputs.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make([]byte, len(m.Payload))
	copy(cp, m.Payload)
	m.Payload = cp
	b.msgs = append(b.msgs, m)
}

func (b *memBuffer) Last() (inputs.Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.msgs) == 0 {
		return inputs.Message{}, false
	}
	return b.msgs[len(b.msgs)-1], true
}

func TestHTTPInput_InsertsBodyIntoBuffer(t *testing.T) {
	reg := inputs.NewRegistry()
	reg.Register(&Factory{})

	buf := &memBuffer{}
	mux := http.NewServeMux()
	specs := []inputs.InputSpec{
		{Type: "http", Description: "raw-http", Config: inputs.Config{"base_path": "/ingest"}},
	}
	if err := reg.MountHTTPEndpoints(mux, specs, buf); err != nil {
		t.Fatalf("mount endpoints: %v", err)
	}

	srv := httptest.NewServer(mux)
	defer srv.Close()

	body := []byte("INFO|hello over http|req-http")
	resp, err := http.Post(srv.URL+"/ingest/raw-http", "text/plain", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected %d, got %d", http.StatusAccepted, resp.StatusCode)
	}
	got, ok := buf.Last()
	if !ok {
		t.Fatal("nothing inserted")
	}
	if !bytes.Equal(got.Payload, body) {
		t.Fatalf("expected inserted %q, got %q", string(body), string(got.Payload))
	}
	if got.ClientIP() != "127.0.0.1" {
		t.Fatalf("expected client 127.0.0.1, got %q", got.ClientIP())
	}
}

func TestHTTPInput_RejectsGet(t *testing.T) {
	in := NewInput("/ingest", "raw", &memBuffer{})
	rec := httptest.NewRecorder()
	in.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ingest/raw", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHTTPInput_RejectsOversizedBody(t *testing.T) {
	buf := &memBuffer{}
	in := NewInput("/ingest", "raw", buf)
	rec := httptest.NewRecorder()
	in.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/raw", bytes.NewReader(make([]byte, maxBodySize+1))))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	m, ok := buf.Last()
	if !ok {
		t.Fatal("oversized body should reach the buffer flagged as truncated")
	}
	if !m.Truncated || len(m.Payload) != maxBodySize {
		t.Fatalf("truncated=%v len=%d", m.Truncated, len(m.Payload))
	}
}

func TestFactory_RequiresDescription(t *testing.T) {
	if _, err := (&Factory{}).Create(inputs.Config{}, &memBuffer{}); err == nil {
		t.Fatal("expected error without description")
	}
}

func TestNewInput_Path(t *testing.T) {
	cases := map[[2]string]string{
		{"/ingest", "raw"}:    "/ingest/raw",
		{"ingest/", "/raw/"}:  "/ingest/raw",
		{"", "raw"}:           "/raw",
		{" /api/v1 ", " x "}: "/api/v1/x",
	}
	for in, want := range cases {
		if got := NewInput(in[0], in[1], nil).Path(); got != want {
			t.Fatalf("NewInput(%q, %q).Path() = %q, want %q", in[0], in[1], got, want)
		}
	}
}
