package server

import "sync"

const defaultRecentCapacity = 100

// RecentLogsStore keeps the last persisted lines for GET /logs/recent.
type RecentLogsStore struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

func newRecentLogsStore(capacity int) *RecentLogsStore {
	if capacity <= 0 {
		capacity = defaultRecentCapacity
	}
	return &RecentLogsStore{lines: make([]string, capacity)}
}

// Add records a line, overwriting the oldest once full.
func (s *RecentLogsStore) Add(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[s.next] = line
	s.next = (s.next + 1) % len(s.lines)
	if s.next == 0 {
		s.full = true
	}
}

// GetRecent returns the stored lines, oldest first.
func (s *RecentLogsStore) GetRecent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.full {
		return append([]string(nil), s.lines[:s.next]...)
	}
	out := make([]string, 0, len(s.lines))
	out = append(out, s.lines[s.next:]...)
	return append(out, s.lines[:s.next]...)
}
