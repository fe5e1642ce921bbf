// Package ratelimit admits records per client identity using a sliding time window.
package ratelimit

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

const (
	DefaultLimit      = 5
	DefaultWindow     = time.Second
	DefaultMaxClients = 65536
	DefaultIdleTTL    = time.Minute
)

// Config controls the window and the bound on tracked clients.
type Config struct {
	Limit      int
	Window     time.Duration
	MaxClients int
	// IdleTTL evicts a client that has not sent anything for this long.
	// Values below Window are raised to Window.
	IdleTTL time.Duration
}

// DefaultConfig returns 5 records per second with a 64k client table.
func DefaultConfig() Config {
	return Config{
		Limit:      DefaultLimit,
		Window:     DefaultWindow,
		MaxClients: DefaultMaxClients,
		IdleTTL:    DefaultIdleTTL,
	}
}

// Limiter keeps, per client, the accept timestamps that fall inside the trailing window.
// A single mutex makes prune, check and append atomic for every client.
// Idle clients are evicted lazily by Admit using the caller's clock; no goroutine is started.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	idleTTL time.Duration
	clients *simplelru.LRU[string, clientState]
}

type clientState struct {
	stamps []time.Time
	seen   time.Time
}

// New builds a Limiter. Zero fields in cfg take the defaults.
func New(cfg Config) *Limiter {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = DefaultMaxClients
	}
	if cfg.IdleTTL < cfg.Window {
		cfg.IdleTTL = cfg.Window
	}
	// NewLRU only fails on a non-positive size, excluded above.
	clients, _ := simplelru.NewLRU[string, clientState](cfg.MaxClients, nil)
	return &Limiter{
		limit:   cfg.Limit,
		window:  cfg.Window,
		idleTTL: cfg.IdleTTL,
		clients: clients,
	}
}

// Admit reports whether client may write a record at now. On admit, now is recorded;
// on reject nothing is recorded.
func (l *Limiter) Admit(client string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.evictIdle(now)

	st, _ := l.clients.Get(client)
	cutoff := now.Add(-l.window)
	kept := st.stamps[:0]
	for _, ts := range st.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.limit {
		l.clients.Add(client, clientState{stamps: kept, seen: now})
		return false
	}
	l.clients.Add(client, clientState{stamps: append(kept, now), seen: now})
	return true
}

// evictIdle drops least recently seen clients idle for at least idleTTL.
// Recency order matches seen order, so the scan stops at the first live client.
func (l *Limiter) evictIdle(now time.Time) {
	cutoff := now.Add(-l.idleTTL)
	for {
		_, st, ok := l.clients.GetOldest()
		if !ok || st.seen.After(cutoff) {
			return
		}
		l.clients.RemoveOldest()
	}
}

// Len returns the number of clients currently tracked. Idle clients count until the next Admit.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.clients.Len()
}

// Limit returns the configured records-per-window.
func (l *Limiter) Limit() int { return l.limit }

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration { return l.window }
