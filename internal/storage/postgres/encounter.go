package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// ErrEncounterExists is returned when a session ID has already been recorded.
var ErrEncounterExists = errors.New("encounter already recorded")

// ErrEncounterNotFound is returned when an encounter lookup yields no results.
var ErrEncounterNotFound = errors.New("encounter not found")

// Encounter is one persisted encounter row.
type Encounter struct {
	ID         string
	PlayerID   string
	Outcome    string
	Beats      int
	Experience int
	Heat       float64
	Survivors  []string
	StartedAt  time.Time
	FinishedAt time.Time
}

// PlayerRecord aggregates a player's encounter history.
type PlayerRecord struct {
	Victories  int
	Defeats    int
	Flights    int
	Experience int
	MaxHeat    float64
}

// EncounterRepository stores finished encounters. It implements combat.Recorder.
type EncounterRepository struct {
	db *pgxpool.Pool
}

// NewEncounterRepository creates an EncounterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEncounterRepository(db *pgxpool.Pool) *EncounterRepository {
	return &EncounterRepository{db: db}
}

// FromResult converts a combat result into a row.
func FromResult(res combat.Result) Encounter {
	survivors := res.Survivors
	if survivors == nil {
		survivors = []string{}
	}
	return Encounter{
		ID:         res.SessionID,
		PlayerID:   res.PlayerID,
		Outcome:    res.Outcome.String(),
		Beats:      res.Beats,
		Experience: res.Experience,
		Heat:       res.Heat,
		Survivors:  survivors,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
}

// Record inserts the result of a finished encounter.
//
// Precondition: res.SessionID must be a UUID.
// Postcondition: Returns nil once the row is stored, or ErrEncounterExists
// if the session was already recorded.
func (r *EncounterRepository) Record(ctx context.Context, res combat.Result) error {
	e := FromResult(res)
	_, err := r.db.Exec(ctx,
		`INSERT INTO encounters
		   (id, player_id, outcome, beats, experience, heat, survivors, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.PlayerID, e.Outcome, e.Beats, e.Experience, e.Heat, e.Survivors, e.StartedAt, e.FinishedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrEncounterExists
		}
		return fmt.Errorf("inserting encounter: %w", err)
	}
	return nil
}

// Get retrieves one encounter by session ID.
//
// Postcondition: Returns the Encounter or ErrEncounterNotFound.
func (r *EncounterRepository) Get(ctx context.Context, id string) (Encounter, error) {
	var e Encounter
	err := r.db.QueryRow(ctx,
		`SELECT id, player_id, outcome, beats, experience, heat, survivors, started_at, finished_at
		 FROM encounters WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.PlayerID, &e.Outcome, &e.Beats, &e.Experience, &e.Heat, &e.Survivors, &e.StartedAt, &e.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Encounter{}, ErrEncounterNotFound
		}
		return Encounter{}, fmt.Errorf("querying encounter: %w", err)
	}
	return e, nil
}

// ListRecent returns up to limit encounters for playerID, newest first.
//
// Precondition: limit >= 1.
func (r *EncounterRepository) ListRecent(ctx context.Context, playerID string, limit int) ([]Encounter, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, player_id, outcome, beats, experience, heat, survivors, started_at, finished_at
		 FROM encounters WHERE player_id = $1
		 ORDER BY finished_at DESC
		 LIMIT $2`,
		playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing encounters: %w", err)
	}
	defer rows.Close()

	var out []Encounter
	for rows.Next() {
		var e Encounter
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.Outcome, &e.Beats, &e.Experience, &e.Heat, &e.Survivors, &e.StartedAt, &e.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning encounter: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating encounters: %w", err)
	}
	return out, nil
}

// PlayerRecord aggregates every recorded encounter for playerID.
func (r *EncounterRepository) PlayerRecord(ctx context.Context, playerID string) (PlayerRecord, error) {
	var rec PlayerRecord
	err := r.db.QueryRow(ctx,
		`SELECT
		   COUNT(*) FILTER (WHERE outcome = 'victory'),
		   COUNT(*) FILTER (WHERE outcome = 'defeat'),
		   COUNT(*) FILTER (WHERE outcome = 'flee'),
		   COALESCE(SUM(experience), 0),
		   COALESCE(MAX(heat), 0)
		 FROM encounters WHERE player_id = $1`,
		playerID,
	).Scan(&rec.Victories, &rec.Defeats, &rec.Flights, &rec.Experience, &rec.MaxHeat)
	if err != nil {
		return PlayerRecord{}, fmt.Errorf("aggregating encounters: %w", err)
	}
	return rec, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
