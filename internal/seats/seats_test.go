package seats

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/val-draft-backend/internal/engine"
)

func TestManager_AssignsP1ThenP2(t *testing.T) {
	m := NewManager()

	a, err := m.Add("Alice", "c1")
	require.NoError(t, err)
	assert.Equal(t, engine.PlayerOne, a.Player)

	b, err := m.Add("Bob", "c2")
	require.NoError(t, err)
	assert.Equal(t, engine.PlayerTwo, b.Player)

	_, err = m.Add("Carol", "c3")
	assert.ErrorIs(t, err, ErrFull)
	assert.Equal(t, 2, m.Count())
}

func TestManager_RejectsDuplicateClient(t *testing.T) {
	m := NewManager()
	_, err := m.Add("Alice", "c1")
	require.NoError(t, err)

	_, err = m.Add("Alice again", "c1")
	assert.ErrorIs(t, err, ErrAlreadyJoined)
}

func TestManager_RemoveFreesSeat(t *testing.T) {
	m := NewManager()
	_, _ = m.Add("Alice", "c1")
	_, _ = m.Add("Bob", "c2")

	s, ok := m.Remove("c1")
	require.True(t, ok)
	assert.Equal(t, engine.PlayerOne, s.Player)

	_, ok = m.Remove("c1")
	assert.False(t, ok)

	c, err := m.Add("Carol", "c3")
	require.NoError(t, err)
	assert.Equal(t, engine.PlayerOne, c.Player, "the freed seat is reused")
}

func TestManager_Lookups(t *testing.T) {
	m := NewManager()
	_, _ = m.Add("Alice", "c1")
	_, _ = m.Add("Bob", "c2")

	s, ok := m.ByClient("c2")
	require.True(t, ok)
	assert.Equal(t, "Bob", s.Name)

	s, ok = m.ByPlayer(engine.PlayerOne)
	require.True(t, ok)
	assert.Equal(t, "c1", s.ClientID)

	_, ok = m.ByClient("nobody")
	assert.False(t, ok)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, engine.PlayerOne, list[0].Player)
	assert.Equal(t, engine.PlayerTwo, list[1].Player)
}

func TestManager_ConcurrentAdd(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	var mu sync.Mutex
	joined := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := m.Add("p", fmt.Sprintf("c%d", i)); err == nil {
				mu.Lock()
				joined++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 2, joined)
	assert.Equal(t, 2, m.Count())
}
