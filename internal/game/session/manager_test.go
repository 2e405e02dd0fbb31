package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestOutbox_Push(t *testing.T) {
	o := NewOutbox("ann", 4)
	require.NoError(t, o.Push([]string{"hello"}))
	assert.Equal(t, []string{"hello"}, <-o.Messages())
	assert.Equal(t, "ann", o.Handle())
}

func TestOutbox_PushClosed(t *testing.T) {
	o := NewOutbox("ann", 4)
	o.Close()
	assert.True(t, o.IsClosed())
	assert.Error(t, o.Push([]string{"late"}))
}

func TestOutbox_PushFull(t *testing.T) {
	o := NewOutbox("ann", 1)
	require.NoError(t, o.Push([]string{"first"}))
	err := o.Push([]string{"overflow"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "buffer full")
}

func TestOutbox_CloseIdempotent(t *testing.T) {
	o := NewOutbox("ann", 0)
	o.Close()
	o.Close()
	_, open := <-o.Messages()
	assert.False(t, open)
}

func TestManager_SeatAndLeave(t *testing.T) {
	m := NewManager(8)
	p, err := m.Seat("ann")
	require.NoError(t, err)
	assert.Equal(t, "ann", p.Handle)
	assert.Equal(t, 1, m.Count())

	_, err = m.Seat("ann")
	assert.ErrorIs(t, err, ErrAlreadySeated)

	require.NoError(t, m.Leave("ann"))
	assert.True(t, p.Outbox.IsClosed())
	assert.Equal(t, 0, m.Count())
	assert.Error(t, m.Leave("ann"))
}

func TestManager_PlayersOrderedBySeating(t *testing.T) {
	m := NewManager(8)
	clock := time.Unix(0, 0)
	m.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	for _, h := range []string{"cat", "ann", "bob"} {
		_, err := m.Seat(h)
		require.NoError(t, err)
	}

	var got []string
	for _, p := range m.Players() {
		got = append(got, p.Handle)
	}
	assert.Equal(t, []string{"cat", "ann", "bob"}, got)
}

func TestManager_Send(t *testing.T) {
	m := NewManager(8)
	p, err := m.Seat("ann")
	require.NoError(t, err)

	require.NoError(t, m.Send("ann", []string{"psst"}))
	assert.Equal(t, []string{"psst"}, <-p.Outbox.Messages())
	assert.Error(t, m.Send("nobody", []string{"psst"}))
}

func TestManager_BroadcastReportsFullOutboxes(t *testing.T) {
	m := NewManager(1)
	ann, _ := m.Seat("ann")
	_, _ = m.Seat("bob")

	// drain ann so only bob overflows
	assert.Empty(t, m.Broadcast([]string{"one"}))
	<-ann.Outbox.Messages()
	assert.Equal(t, []string{"bob"}, m.Broadcast([]string{"two"}))
	assert.Equal(t, []string{"two"}, <-ann.Outbox.Messages())
}

func TestManager_ConcurrentSeating(t *testing.T) {
	m := NewManager(8)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Seat(fmt.Sprintf("p%d", i))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, m.Count())
	assert.Len(t, m.Players(), 50)
}

// Property: after any sequence of seat/leave operations the count matches the
// set of handles that are still seated.
func TestPropertyManagerCountMatchesSeated(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := NewManager(4)
		seated := map[string]bool{}
		ops := rapid.IntRange(1, 40).Draw(rt, "ops")
		for range ops {
			h := rapid.SampledFrom([]string{"ann", "bob", "cat", "dan"}).Draw(rt, "handle")
			if rapid.Bool().Draw(rt, "seat") {
				_, err := m.Seat(h)
				if (err == nil) == seated[h] {
					rt.Fatalf("seat %s: err=%v seated=%v", h, err, seated[h])
				}
				seated[h] = true
			} else {
				err := m.Leave(h)
				if (err == nil) != seated[h] {
					rt.Fatalf("leave %s: err=%v seated=%v", h, err, seated[h])
				}
				delete(seated, h)
			}
		}
		if m.Count() != len(seated) {
			rt.Fatalf("count %d, want %d", m.Count(), len(seated))
		}
	})
}
