package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
	"github.com/cory-johannsen/skirmish/internal/testutil"
)

const migrationsDir = "../../../migrations"

func makeResult(player string, outcome combat.Outcome, exp int, finished time.Time) combat.Result {
	return combat.Result{
		SessionID:  uuid.NewString(),
		PlayerID:   player,
		Outcome:    outcome,
		Beats:      6,
		Experience: exp,
		Heat:       1.75,
		Survivors:  []string{"Mara"},
		StartedAt:  finished.Add(-time.Minute),
		FinishedAt: finished,
	}
}

func TestFromResult(t *testing.T) {
	res := makeResult("mara", combat.OutcomeFlee, 0, time.Now())
	res.Survivors = nil
	e := postgres.FromResult(res)
	assert.Equal(t, "flee", e.Outcome)
	assert.Equal(t, res.SessionID, e.ID)
	assert.NotNil(t, e.Survivors)
	assert.Empty(t, e.Survivors)
}

func TestEncounterRepository_RecordAndGet(t *testing.T) {
	repo := postgres.NewEncounterRepository(testutil.NewPool(t, migrationsDir))
	ctx := context.Background()
	res := makeResult("mara", combat.OutcomeVictory, 25, time.Now().UTC().Truncate(time.Millisecond))

	require.NoError(t, repo.Record(ctx, res))
	assert.ErrorIs(t, repo.Record(ctx, res), postgres.ErrEncounterExists)

	got, err := repo.Get(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "victory", got.Outcome)
	assert.Equal(t, 25, got.Experience)
	assert.Equal(t, 1.75, got.Heat)
	assert.Equal(t, []string{"Mara"}, got.Survivors)
	assert.True(t, res.FinishedAt.Equal(got.FinishedAt))

	_, err = repo.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, postgres.ErrEncounterNotFound)
}

func TestEncounterRepository_ListRecentAndRecord(t *testing.T) {
	repo := postgres.NewEncounterRepository(testutil.NewPool(t, migrationsDir))
	ctx := context.Background()
	base := time.Now().UTC()

	outcomes := []combat.Outcome{combat.OutcomeVictory, combat.OutcomeDefeat, combat.OutcomeVictory, combat.OutcomeFlee}
	for i, o := range outcomes {
		require.NoError(t, repo.Record(ctx, makeResult("mara", o, 10*i, base.Add(time.Duration(i)*time.Second))))
	}
	require.NoError(t, repo.Record(ctx, makeResult("other", combat.OutcomeVictory, 99, base)))

	recent, err := repo.ListRecent(ctx, "mara", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "flee", recent[0].Outcome)
	assert.Equal(t, "victory", recent[1].Outcome)

	rec, err := repo.PlayerRecord(ctx, "mara")
	require.NoError(t, err)
	assert.Equal(t, postgres.PlayerRecord{Victories: 2, Defeats: 1, Flights: 1, Experience: 60, MaxHeat: 1.75}, rec)

	empty, err := repo.PlayerRecord(ctx, fmt.Sprintf("nobody-%d", base.UnixNano()))
	require.NoError(t, err)
	assert.Equal(t, postgres.PlayerRecord{}, empty)
}
