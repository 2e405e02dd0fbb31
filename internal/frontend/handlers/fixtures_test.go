package handlers

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/coinclash/internal/config"
	"github.com/cory-johannsen/coinclash/internal/frontend/telnet"
	"github.com/cory-johannsen/coinclash/internal/game/clash"
	"github.com/cory-johannsen/coinclash/internal/game/dice"
	"github.com/cory-johannsen/coinclash/internal/game/lobby"
	"github.com/cory-johannsen/coinclash/internal/game/roll"
	"github.com/cory-johannsen/coinclash/internal/game/session"
	"github.com/cory-johannsen/coinclash/internal/game/skill"
	"github.com/cory-johannsen/coinclash/internal/storage/postgres"
	"github.com/cory-johannsen/coinclash/internal/testutil"
)

// mockPlayerStore implements PlayerStore for testing.
type mockPlayerStore struct {
	mu        sync.Mutex
	players   map[string]postgres.Player
	passwords map[string]string
}

func newMockPlayerStore() *mockPlayerStore {
	return &mockPlayerStore{
		players:   make(map[string]postgres.Player),
		passwords: make(map[string]string),
	}
}

func (m *mockPlayerStore) add(handle, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[handle] = postgres.Player{ID: int64(len(m.players) + 1), Handle: handle, CreatedAt: time.Now()}
	m.passwords[handle] = password
}

func (m *mockPlayerStore) Register(_ context.Context, handle, password string) (postgres.Player, error) {
	m.mu.Lock()
	_, exists := m.players[handle]
	m.mu.Unlock()
	if exists {
		return postgres.Player{}, postgres.ErrPlayerExists
	}
	m.add(handle, password)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.players[handle], nil
}

func (m *mockPlayerStore) Authenticate(_ context.Context, handle, password string) (postgres.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, exists := m.players[handle]
	if !exists {
		return postgres.Player{}, postgres.ErrPlayerNotFound
	}
	if m.passwords[handle] != password {
		return postgres.Player{}, postgres.ErrInvalidCredentials
	}
	return p, nil
}

// mockSkillStore implements SkillStore in memory with the repository's id
// and uniqueness rules.
type mockSkillStore struct {
	mu     sync.Mutex
	skills map[string][]skill.Record
}

func newMockSkillStore() *mockSkillStore {
	return &mockSkillStore{skills: make(map[string][]skill.Record)}
}

func (m *mockSkillStore) Save(_ context.Context, rec skill.Record) (skill.Record, error) {
	if err := rec.Validate(); err != nil {
		return skill.Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var next int64 = 1
	for _, r := range m.skills[rec.UserID] {
		if r.Name == rec.Name {
			return skill.Record{}, fmt.Errorf("saving %q: %w", rec.Name, postgres.ErrSkillNameTaken)
		}
		next = max(next, r.ID+1)
	}
	rec.ID = next
	m.skills[rec.UserID] = append(m.skills[rec.UserID], rec)
	return rec, nil
}

func (m *mockSkillStore) find(userID string, match func(skill.Record) bool) (int, skill.Record, error) {
	for i, r := range m.skills[userID] {
		if match(r) {
			return i, r, nil
		}
	}
	return -1, skill.Record{}, skill.ErrNotFound
}

func (m *mockSkillStore) GetByID(_ context.Context, userID string, id int64) (skill.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, r, err := m.find(userID, func(r skill.Record) bool { return r.ID == id })
	return r, err
}

func (m *mockSkillStore) GetByName(_ context.Context, userID, name string) (skill.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, r, err := m.find(userID, func(r skill.Record) bool { return r.Name == name })
	return r, err
}

func (m *mockSkillStore) ListByUser(_ context.Context, userID string) ([]skill.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]skill.Record(nil), m.skills[userID]...), nil
}

func (m *mockSkillStore) delete(userID string, match func(skill.Record) bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, r, err := m.find(userID, match)
	if err != nil {
		return "", err
	}
	m.skills[userID] = append(m.skills[userID][:i], m.skills[userID][i+1:]...)
	return r.Name, nil
}

func (m *mockSkillStore) DeleteByID(_ context.Context, userID string, id int64) (string, error) {
	return m.delete(userID, func(r skill.Record) bool { return r.ID == id })
}

func (m *mockSkillStore) DeleteByName(_ context.Context, userID, name string) (string, error) {
	return m.delete(userID, func(r skill.Record) bool { return r.Name == name })
}

type tableFixture struct {
	players *mockPlayerStore
	skills  *mockSkillStore
	table   *Table
	addr    string
}

// newTableFixture wires a table over in-memory stores and starts an acceptor
// on a random port. window bounds every challenge.
func newTableFixture(t *testing.T, window time.Duration) *tableFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	src := dice.NewSeededSource(7)
	presets := []*skill.Preset{
		{ID: "lucky_strike", Name: "LuckyStrike", Kind: "coin", BasePower: 4, CoinPower: 3, Coins: 3, Unbreakable: 1},
		{ID: "steady_hand", Name: "SteadyHand", Kind: "dice", BasePower: 5, DicePower: 6},
	}
	f := &tableFixture{players: newMockPlayerStore(), skills: newMockSkillStore()}
	f.table = NewTable(
		f.skills,
		presets,
		src,
		clash.NewEngine(src, logger, 0),
		roll.NewEngine(src, logger, 0),
		lobby.New(window, logger),
		session.NewManager(32),
		logger,
	)
	t.Cleanup(f.table.Close)
	f.addr = testServer(t, NewAuthHandler(f.players, f.table, logger))
	return f
}

// testServer starts a Telnet acceptor with the given handler on a random port
// and returns the listening address. The acceptor is stopped on test cleanup.
func testServer(t *testing.T, handler telnet.SessionHandler) string {
	t.Helper()
	cfg := config.TelnetConfig{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	acc := telnet.NewAcceptor(cfg, handler, zaptest.NewLogger(t))
	go func() { _ = acc.ListenAndServe() }()

	deadline := time.After(2 * time.Second)
	for !acc.IsRunning() || acc.Addr() == "" {
		select {
		case <-deadline:
			t.Fatal("acceptor did not start in time")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Cleanup(acc.Stop)
	return acc.Addr()
}

// connect dials the fixture and reads through the welcome banner.
func (f *tableFixture) connect(t *testing.T) *testutil.TelnetClient {
	t.Helper()
	c := testutil.NewTelnetClient(t, f.addr)
	c.ReadUntil("to disconnect.", 3*time.Second)
	return c
}

// seat registers handle, logs in, and waits for the table prompt.
func (f *tableFixture) seat(t *testing.T, handle string) *testutil.TelnetClient {
	t.Helper()
	f.players.add(handle, "secret123")
	c := f.connect(t)
	c.Send("login " + handle + " secret123")
	c.Expect(3*time.Second, "Welcome to the table, "+handle, "["+handle+"]> ")
	return c
}

var joinHint = regexp.MustCompile(`join ([0-9a-f]{8}) `)

// challengeID extracts the short id from a challenge announcement.
func challengeID(t *testing.T, announcement string) string {
	t.Helper()
	m := joinHint.FindStringSubmatch(announcement)
	if m == nil {
		t.Fatalf("no challenge id in %q", announcement)
	}
	return m[1]
}
