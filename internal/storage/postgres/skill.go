package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/coinclash/internal/game/skill"
)

// ErrSkillNameTaken is returned when a user saves a second skill with the same name.
var ErrSkillNameTaken = errors.New("skill name already in use")

const skillColumns = `user_id, user_skill_id, skill_name, kind, base_power, coin_power, coins, unbreakable, dice_power`

// SkillRepository persists skill records scoped per user.
type SkillRepository struct {
	db *pgxpool.Pool
}

// NewSkillRepository creates a SkillRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSkillRepository(db *pgxpool.Pool) *SkillRepository {
	return &SkillRepository{db: db}
}

// Save validates rec and stores it under the next free per-user id
// (highest existing id + 1, starting at 1).
//
// Precondition: rec.UserID must be non-empty.
// Postcondition: Returns the stored record with ID set, a *skill.ValidationError,
// or ErrSkillNameTaken.
func (r *SkillRepository) Save(ctx context.Context, rec skill.Record) (skill.Record, error) {
	if err := rec.Validate(); err != nil {
		return skill.Record{}, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return skill.Record{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serialize id assignment per user.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, rec.UserID); err != nil {
		return skill.Record{}, fmt.Errorf("locking user skills: %w", err)
	}

	var next int64
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(user_skill_id), 0) + 1 FROM skills WHERE user_id = $1`,
		rec.UserID,
	).Scan(&next); err != nil {
		return skill.Record{}, fmt.Errorf("allocating skill id: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO skills (`+skillColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.UserID, next, rec.Name, rec.Kind.String(),
		rec.BasePower, rec.CoinPower, rec.TotalCoins, rec.UnbreakableCoins, rec.DicePower,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return skill.Record{}, ErrSkillNameTaken
		}
		return skill.Record{}, fmt.Errorf("inserting skill: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return skill.Record{}, fmt.Errorf("committing skill: %w", err)
	}

	rec.ID = next
	return rec, nil
}

// GetByID returns the user's skill with the given per-user id.
//
// Postcondition: Returns the record or skill.ErrNotFound.
func (r *SkillRepository) GetByID(ctx context.Context, userID string, id int64) (skill.Record, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE user_id = $1 AND user_skill_id = $2`,
		userID, id,
	)
	return scanSkill(row)
}

// GetByName returns the user's skill with the given name.
//
// Postcondition: Returns the record or skill.ErrNotFound.
func (r *SkillRepository) GetByName(ctx context.Context, userID, name string) (skill.Record, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE user_id = $1 AND skill_name = $2`,
		userID, name,
	)
	return scanSkill(row)
}

// ListByUser returns all of a user's skills ordered by id.
func (r *SkillRepository) ListByUser(ctx context.Context, userID string) ([]skill.Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE user_id = $1 ORDER BY user_skill_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing skills: %w", err)
	}
	defer rows.Close()

	var out []skill.Record
	for rows.Next() {
		rec, err := scanSkill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating skills: %w", err)
	}
	return out, nil
}

// DeleteByID removes the user's skill with the given id.
//
// Postcondition: Returns the deleted skill's name or skill.ErrNotFound.
func (r *SkillRepository) DeleteByID(ctx context.Context, userID string, id int64) (string, error) {
	return r.deleteReturning(ctx,
		`DELETE FROM skills WHERE user_id = $1 AND user_skill_id = $2 RETURNING skill_name`,
		userID, id,
	)
}

// DeleteByName removes the user's skill with the given name.
//
// Postcondition: Returns the deleted skill's name or skill.ErrNotFound.
func (r *SkillRepository) DeleteByName(ctx context.Context, userID, name string) (string, error) {
	return r.deleteReturning(ctx,
		`DELETE FROM skills WHERE user_id = $1 AND skill_name = $2 RETURNING skill_name`,
		userID, name,
	)
}

func (r *SkillRepository) deleteReturning(ctx context.Context, query string, args ...any) (string, error) {
	var name string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", skill.ErrNotFound
		}
		return "", fmt.Errorf("deleting skill: %w", err)
	}
	return name, nil
}

func scanSkill(row pgx.Row) (skill.Record, error) {
	var (
		rec  skill.Record
		kind string
	)
	err := row.Scan(&rec.UserID, &rec.ID, &rec.Name, &kind,
		&rec.BasePower, &rec.CoinPower, &rec.TotalCoins, &rec.UnbreakableCoins, &rec.DicePower)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return skill.Record{}, skill.ErrNotFound
		}
		return skill.Record{}, fmt.Errorf("scanning skill: %w", err)
	}
	if rec.Kind, err = skill.ParseKind(kind); err != nil {
		return skill.Record{}, err
	}
	return rec, nil
}
