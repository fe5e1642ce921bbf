package server

import (
	"net/http"
	"strings"
	"sync"
)

// IngestDispatcher routes /ingest/<path> to mounted http inputs.
// Handlers are registered by path segment (e.g. "raw" or "/raw").
type IngestDispatcher struct {
	mu       sync.RWMutex
	handlers map[string]http.Handler
}

// NewIngestDispatcher returns a new IngestDispatcher.
func NewIngestDispatcher() *IngestDispatcher {
	return &IngestDispatcher{
		handlers: make(map[string]http.Handler),
	}
}

func normalizePath(path string) string {
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return "/"
	}
	if path[0] != '/' {
		path = "/" + path
	}
	return path
}

// Mount registers a handler for the given path (e.g. "/raw" or "raw").
func (d *IngestDispatcher) Mount(path string, h http.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[normalizePath(path)] = h
}

// Unmount removes the handler for path.
func (d *IngestDispatcher) Unmount(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.handlers, normalizePath(path))
}

// ServeHTTP strips the /ingest prefix and dispatches to the registered handler.
func (d *IngestDispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := normalizePath(strings.TrimPrefix(r.URL.Path, "/ingest"))
	d.mu.RLock()
	h, ok := d.handlers[path]
	d.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.ServeHTTP(w, r)
}
