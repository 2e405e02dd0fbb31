package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// Player is a registered table participant. Handle doubles as the user
// identity that scopes saved skills.
type Player struct {
	ID           int64
	Handle       string
	PasswordHash string
	CreatedAt    time.Time
}

var (
	// ErrPlayerNotFound is returned when a player lookup yields no results.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrPlayerExists is returned when registering a handle that is taken.
	ErrPlayerExists = errors.New("player already exists")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// PlayerRepository provides player persistence operations.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a PlayerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Register inserts a new player with a bcrypt-hashed password.
//
// Precondition: handle and password must be non-empty.
// Postcondition: Returns the created Player, or ErrPlayerExists if the handle is taken.
func (r *PlayerRepository) Register(ctx context.Context, handle, password string) (Player, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return Player{}, fmt.Errorf("hashing password: %w", err)
	}

	var p Player
	err = r.db.QueryRow(ctx,
		`INSERT INTO players (handle, password_hash)
		 VALUES ($1, $2)
		 RETURNING id, handle, password_hash, created_at`,
		handle, hash,
	).Scan(&p.ID, &p.Handle, &p.PasswordHash, &p.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return Player{}, ErrPlayerExists
		}
		return Player{}, fmt.Errorf("inserting player: %w", err)
	}
	return p, nil
}

// Authenticate verifies credentials and returns the matching player.
//
// Postcondition: Returns the Player, ErrPlayerNotFound, or ErrInvalidCredentials.
func (r *PlayerRepository) Authenticate(ctx context.Context, handle, password string) (Player, error) {
	p, err := r.GetByHandle(ctx, handle)
	if err != nil {
		return Player{}, err
	}
	if !CheckPassword(password, p.PasswordHash) {
		return Player{}, ErrInvalidCredentials
	}
	return p, nil
}

// GetByHandle retrieves a player by handle.
//
// Postcondition: Returns the Player or ErrPlayerNotFound.
func (r *PlayerRepository) GetByHandle(ctx context.Context, handle string) (Player, error) {
	var p Player
	err := r.db.QueryRow(ctx,
		`SELECT id, handle, password_hash, created_at
		 FROM players WHERE handle = $1`,
		handle,
	).Scan(&p.ID, &p.Handle, &p.PasswordHash, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Player{}, ErrPlayerNotFound
		}
		return Player{}, fmt.Errorf("querying player: %w", err)
	}
	return p, nil
}

// HashPassword creates a bcrypt hash of the given password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// isDuplicateKeyError checks for SQLSTATE 23505 (unique_violation).
func isDuplicateKeyError(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
