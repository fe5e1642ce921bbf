package server

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecentLogsStore(t *testing.T) {
	s := newRecentLogsStore(3)
	assert.Empty(t, s.GetRecent())

	s.Add("a")
	s.Add("b")
	assert.Equal(t, []string{"a", "b"}, s.GetRecent())

	s.Add("c")
	assert.Equal(t, []string{"a", "b", "c"}, s.GetRecent())

	for i := 0; i < 4; i++ {
		s.Add(fmt.Sprint(i))
	}
	assert.Equal(t, []string{"1", "2", "3"}, s.GetRecent())
}

func TestIngestDispatcher(t *testing.T) {
	d := NewIngestDispatcher()
	d.Mount("raw", nil)
	d.mu.RLock()
	_, ok := d.handlers["/raw"]
	d.mu.RUnlock()
	assert.True(t, ok)

	d.Unmount("/raw/")
	d.mu.RLock()
	_, ok = d.handlers["/raw"]
	d.mu.RUnlock()
	assert.False(t, ok)
}
