// Package lobby holds open challenges until a second player joins or the
// join window lapses, and hands the result to the duel engines over a channel.
package lobby

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/coinclash/internal/game/duel"
)

// DefaultWindow is how long a challenge waits for a second player.
const DefaultWindow = 30 * time.Second

var (
	// ErrChallengeNotFound is returned when no open challenge matches a reference.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrAmbiguousChallenge is returned when a short reference matches several challenges.
	ErrAmbiguousChallenge = errors.New("challenge reference is ambiguous")
	// ErrSelfChallenge is returned when the owner tries to join their own challenge.
	ErrSelfChallenge = errors.New("cannot join your own challenge")
	// ErrChallengeClosed is returned when a challenge was already joined, failed, or expired.
	ErrChallengeClosed = errors.New("challenge already closed")
)

// Challenge is one open invitation to duel.
type Challenge struct {
	ID        uuid.UUID
	Owner     duel.Contestant
	CreatedAt time.Time

	join  chan duel.Join
	once  sync.Once
	timer *windowTimer
}

// ShortID returns the first eight hex characters of the ID.
func (c *Challenge) ShortID() string {
	return c.ID.String()[:8]
}

// Joined returns the channel that yields exactly one duel.Join.
func (c *Challenge) Joined() <-chan duel.Join {
	return c.join
}

// deliver sends j if nothing has been delivered yet.
func (c *Challenge) deliver(j duel.Join) bool {
	delivered := false
	c.once.Do(func() {
		c.join <- j
		delivered = true
	})
	return delivered
}

// Lobby tracks open challenges. All methods are safe for concurrent use.
type Lobby struct {
	mu     sync.Mutex
	open   map[uuid.UUID]*Challenge
	window time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Lobby.
//
// Precondition: logger must be non-nil. window <= 0 selects DefaultWindow.
func New(window time.Duration, logger *zap.Logger) *Lobby {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Lobby{
		open:   make(map[uuid.UUID]*Challenge),
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// Window returns the configured join window.
func (l *Lobby) Window() time.Duration {
	return l.window
}

// Open registers a challenge for owner and starts its join window.
//
// Postcondition: The returned challenge yields a timed-out duel.Join after
// the window unless Join or Fail closes it first.
func (l *Lobby) Open(owner duel.Contestant) *Challenge {
	c := &Challenge{
		ID:        uuid.New(),
		Owner:     owner,
		CreatedAt: l.now(),
		join:      make(chan duel.Join, 1),
	}

	l.mu.Lock()
	l.open[c.ID] = c
	c.timer = newWindowTimer(l.window, func() { l.expire(c) })
	l.mu.Unlock()

	l.logger.Info("challenge opened",
		zap.String("challenge_id", c.ID.String()),
		zap.String("owner", owner.UserID),
		zap.Stringer("kind", owner.Record.Kind),
		zap.Duration("window", l.window),
	)
	return c
}

// Lookup finds an open challenge by full ID or unique ID prefix.
//
// Postcondition: Returns the challenge, ErrChallengeNotFound, or ErrAmbiguousChallenge.
func (l *Lobby) Lookup(ref string) (*Challenge, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return nil, ErrChallengeNotFound
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if id, err := uuid.Parse(ref); err == nil {
		if c, ok := l.open[id]; ok {
			return c, nil
		}
		return nil, ErrChallengeNotFound
	}

	var match *Challenge
	for id, c := range l.open {
		if strings.HasPrefix(id.String(), ref) {
			if match != nil {
				return nil, ErrAmbiguousChallenge
			}
			match = c
		}
	}
	if match == nil {
		return nil, ErrChallengeNotFound
	}
	return match, nil
}

// Join delivers challenger to the challenge identified by ref.
//
// Postcondition: On success the challenge is closed and its channel yields
// the challenger. Returns ErrSelfChallenge, a *skill.ValidationError when the
// challenger's skill kind differs from the owner's, or a lookup error, each
// leaving the challenge open.
func (l *Lobby) Join(ref string, challenger duel.Contestant) (*Challenge, error) {
	c, err := l.Lookup(ref)
	if err != nil {
		return nil, err
	}
	if challenger.UserID == c.Owner.UserID {
		return nil, ErrSelfChallenge
	}
	if err := challenger.RequireKind(c.Owner.Record.Kind); err != nil {
		return nil, err
	}
	if !l.close(c, duel.Join{Challenger: &challenger}) {
		return nil, ErrChallengeClosed
	}
	l.logger.Info("challenge joined",
		zap.String("challenge_id", c.ID.String()),
		zap.String("owner", c.Owner.UserID),
		zap.String("challenger", challenger.UserID),
	)
	return c, nil
}

// Fail closes the challenge identified by ref with cause, for example when
// the would-be challenger named a skill that does not exist.
//
// Precondition: cause must be non-nil.
func (l *Lobby) Fail(ref, userID string, cause error) error {
	c, err := l.Lookup(ref)
	if err != nil {
		return err
	}
	if userID == c.Owner.UserID {
		return ErrSelfChallenge
	}
	if !l.close(c, duel.Join{Err: cause}) {
		return ErrChallengeClosed
	}
	l.logger.Info("challenge failed",
		zap.String("challenge_id", c.ID.String()),
		zap.String("challenger", userID),
		zap.Error(cause),
	)
	return nil
}

// Pending returns open challenges, oldest first.
func (l *Lobby) Pending() []*Challenge {
	l.mu.Lock()
	out := make([]*Challenge, 0, len(l.open))
	for _, c := range l.open {
		out = append(out, c)
	}
	l.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Close expires every open challenge. Used at shutdown.
func (l *Lobby) Close() {
	for _, c := range l.Pending() {
		l.close(c, duel.Join{})
	}
}

func (l *Lobby) expire(c *Challenge) {
	if l.close(c, duel.Join{}) {
		l.logger.Info("challenge expired",
			zap.String("challenge_id", c.ID.String()),
			zap.String("owner", c.Owner.UserID),
		)
	}
}

// close removes c from the open set and delivers j exactly once.
func (l *Lobby) close(c *Challenge, j duel.Join) bool {
	l.mu.Lock()
	_, open := l.open[c.ID]
	delete(l.open, c.ID)
	l.mu.Unlock()
	if !open {
		return false
	}
	c.timer.Stop()
	return c.deliver(j)
}
