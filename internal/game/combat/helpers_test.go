package combat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/move"
)

// scripted is a PlayerStrategy that replays queued choices and then waits.
type scripted struct {
	choices    []combat.Choice
	targets    []int
	rejects    []error
	prompts    int
	targetOpts [][]combat.TargetOption
	err        error
}

func (s *scripted) ChooseMove(ctx context.Context, snap combat.Snapshot) (combat.Choice, error) {
	s.prompts++
	if s.err != nil {
		return combat.Choice{}, s.err
	}
	if len(s.choices) == 0 {
		return combat.Choice{Action: combat.ActionWait}, nil
	}
	c := s.choices[0]
	s.choices = s.choices[1:]
	return c, nil
}

func (s *scripted) ChooseTarget(ctx context.Context, snap combat.Snapshot, opts []combat.TargetOption) (int, error) {
	s.targetOpts = append(s.targetOpts, opts)
	if len(s.targets) == 0 {
		return 0, nil
	}
	i := s.targets[0]
	s.targets = s.targets[1:]
	return i, nil
}

func (s *scripted) Reject(err error) { s.rejects = append(s.rejects, err) }

func cast(i int) combat.Choice { return combat.Choice{Action: combat.ActionCast, Move: i} }

func mult(v float64) *float64 { return &v }

// recordingWorld counts deaths and experience awards.
type recordingWorld struct {
	combat.NopWorld
	deaths []string
	awards []int
	bonus  combat.Attributes
	armor  int
}

func (w *recordingWorld) Death(c *combat.Combatant) { w.deaths = append(w.deaths, c.ID()) }
func (w *recordingWorld) AwardExperience(_ *combat.Combatant, exp int) {
	w.awards = append(w.awards, exp)
}
func (w *recordingWorld) StatBonuses(*combat.Combatant) combat.Attributes { return w.bonus }
func (w *recordingWorld) Protection(*combat.Combatant) int                { return w.armor }

// recordingPresenter keeps every narration line.
type recordingPresenter struct {
	lines   []string
	renders int
}

func (p *recordingPresenter) Render(combat.Snapshot) { p.renders++ }
func (p *recordingPresenter) Narrate(msg string)     { p.lines = append(p.lines, msg) }

type fixture struct {
	session   *combat.Session
	player    *combat.Combatant
	strategy  *scripted
	world     *recordingWorld
	presenter *recordingPresenter
}

func newPlayer() *combat.Combatant {
	return combat.NewCombatant("p1", "Mara", combat.KindPlayer, 30, 10, combat.Attributes{Speed: 10}, zap.NewNop())
}

func newEnemy(id, name string) *combat.Combatant {
	return combat.NewCombatant(id, name, combat.KindNPC, 20, 5, combat.Attributes{Speed: 10}, zap.NewNop())
}

func strikeDef() *move.Def {
	return &move.Def{
		ID: "strike", Name: "Strike", FatigueCost: 1, Targeted: true, MaxRange: 10,
		CastBeats: 1, ResolveBeats: 1, CooldownBeats: 2,
		Effects: []move.EffectSpec{{Kind: move.EffectDamage, Amount: "5"}},
	}
}

func zapDef() *move.Def {
	return &move.Def{
		ID: "zap", Name: "Zap", FatigueCost: 2, Targeted: true, Instant: true,
		CastBeats: 1, ResolveBeats: 1, CooldownBeats: 3,
		Effects: []move.EffectSpec{{Kind: move.EffectDamage, Amount: "4", Element: "shock"}},
	}
}

func testConfig() config.CombatConfig {
	return config.CombatConfig{
		DefaultProximity: 10,
		MaxNPCDelay:      0,
		StatusBoundary:   config.BoundaryPrune,
		MoveReset:        config.MoveReset,
	}
}

// newFixture builds and starts a session. mutate may adjust deps before construction.
func newFixture(t *testing.T, player *combat.Combatant, enemies []*combat.Combatant, mutate ...func(*combat.Deps)) *fixture {
	t.Helper()
	f := &fixture{
		player:    player,
		strategy:  &scripted{},
		world:     &recordingWorld{},
		presenter: &recordingPresenter{},
	}
	deps := combat.Deps{
		Config:    testConfig(),
		Roller:    dice.NewLoggedRoller(dice.NewSeededSource(1), zap.NewNop()),
		Strategy:  f.strategy,
		World:     f.world,
		Presenter: f.presenter,
		Logger:    zap.NewNop(),
	}
	for _, fn := range mutate {
		fn(&deps)
	}
	s, err := combat.NewSession(player, nil, enemies, deps)
	require.NoError(t, err)
	s.Start()
	f.session = s
	return f
}

func (f *fixture) step(t *testing.T) combat.Outcome {
	t.Helper()
	o, err := f.session.Step(context.Background())
	require.NoError(t, err)
	return o
}
