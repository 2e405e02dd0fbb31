package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrAlreadySeated is returned when a handle is already connected.
var ErrAlreadySeated = errors.New("player already connected")

// Player is one connected, authenticated participant.
type Player struct {
	Handle   string
	SeatedAt time.Time
	Outbox   *Outbox
}

// Manager tracks every seated player. All methods are safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	players map[string]*Player
	buffer  int
	now     func() time.Time
}

// NewManager creates an empty Manager whose outboxes hold bufferSize blocks.
func NewManager(bufferSize int) *Manager {
	return &Manager{
		players: make(map[string]*Player),
		buffer:  bufferSize,
		now:     time.Now,
	}
}

// Seat registers handle and allocates its outbox.
//
// Precondition: handle must be non-empty.
// Postcondition: Returns the Player, or ErrAlreadySeated.
func (m *Manager) Seat(handle string) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.players[handle]; exists {
		return nil, fmt.Errorf("seating %q: %w", handle, ErrAlreadySeated)
	}
	p := &Player{
		Handle:   handle,
		SeatedAt: m.now(),
		Outbox:   NewOutbox(handle, m.buffer),
	}
	m.players[handle] = p
	return p, nil
}

// Leave removes handle and closes its outbox.
//
// Postcondition: Returns an error if handle was not seated.
func (m *Manager) Leave(handle string) error {
	m.mu.Lock()
	p, exists := m.players[handle]
	delete(m.players, handle)
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("player %q not found", handle)
	}
	p.Outbox.Close()
	return nil
}

// Get returns the seated player with handle.
func (m *Manager) Get(handle string) (*Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[handle]
	return p, ok
}

// Players returns every seated player ordered by seating time.
func (m *Manager) Players() []*Player {
	m.mu.RLock()
	out := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, p)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].SeatedAt.Equal(out[j].SeatedAt) {
			return out[i].Handle < out[j].Handle
		}
		return out[i].SeatedAt.Before(out[j].SeatedAt)
	})
	return out
}

// Count returns the number of seated players.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}

// Send pushes a block to one player.
func (m *Manager) Send(handle string, lines []string) error {
	p, ok := m.Get(handle)
	if !ok {
		return fmt.Errorf("player %q not found", handle)
	}
	return p.Outbox.Push(lines)
}

// Broadcast pushes a block to every seated player.
//
// Postcondition: Returns the handles whose outbox rejected the block.
func (m *Manager) Broadcast(lines []string) []string {
	m.mu.RLock()
	targets := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		targets = append(targets, p)
	}
	m.mu.RUnlock()

	var failed []string
	for _, p := range targets {
		if err := p.Outbox.Push(lines); err != nil {
			failed = append(failed, p.Handle)
		}
	}
	sort.Strings(failed)
	return failed
}
