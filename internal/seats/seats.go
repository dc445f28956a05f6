package seats

import (
	"errors"
	"slices"
	"sync"

	"github.com/DoyleJ11/val-draft-backend/internal/engine"
)

var (
	ErrFull          = errors.New("both player seats are taken")
	ErrAlreadyJoined = errors.New("client already holds a seat")
)

type Seat struct {
	Player   engine.Player
	Name     string
	ClientID string
}

// Manager hands out the two player seats to connected clients, P1 first.
type Manager struct {
	mu    sync.Mutex
	seats map[engine.Player]Seat
}

func NewManager() *Manager {
	return &Manager{seats: make(map[engine.Player]Seat, 2)}
}

func (m *Manager) Add(name, clientID string) (Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.seats {
		if s.ClientID == clientID {
			return Seat{}, ErrAlreadyJoined
		}
	}
	for _, p := range []engine.Player{engine.PlayerOne, engine.PlayerTwo} {
		if _, taken := m.seats[p]; !taken {
			s := Seat{Player: p, Name: name, ClientID: clientID}
			m.seats[p] = s
			return s, nil
		}
	}
	return Seat{}, ErrFull
}

// Remove frees the seat held by clientID, if any.
func (m *Manager) Remove(clientID string) (Seat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for p, s := range m.seats {
		if s.ClientID == clientID {
			delete(m.seats, p)
			return s, true
		}
	}
	return Seat{}, false
}

func (m *Manager) ByClient(clientID string) (Seat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.seats {
		if s.ClientID == clientID {
			return s, true
		}
	}
	return Seat{}, false
}

func (m *Manager) ByPlayer(p engine.Player) (Seat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.seats[p]
	return s, ok
}

// List returns the occupied seats, P1 before P2.
func (m *Manager) List() []Seat {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Seat, 0, len(m.seats))
	for _, s := range m.seats {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b Seat) int {
		switch {
		case a.Player < b.Player:
			return -1
		case a.Player > b.Player:
			return 1
		}
		return 0
	})
	return out
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seats)
}
