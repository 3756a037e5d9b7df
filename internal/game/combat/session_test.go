package combat_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/move"
	"github.com/cory-johannsen/skirmish/internal/game/status"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

func TestNewSession_Validation(t *testing.T) {
	roller := dice.NewLoggedRoller(dice.NewSeededSource(1), zap.NewNop())
	deps := combat.Deps{Roller: roller, Strategy: &scripted{}}

	_, err := combat.NewSession(newEnemy("e1", "Goblin"), nil, nil, deps)
	assert.Error(t, err, "npc cannot lead")

	_, err = combat.NewSession(newPlayer(), nil, nil, combat.Deps{Strategy: &scripted{}})
	assert.Error(t, err, "roller required")

	_, err = combat.NewSession(newPlayer(), nil, []*combat.Combatant{newEnemy("e1", "A"), newEnemy("e1", "B")}, deps)
	assert.Error(t, err, "duplicate ids")

	_, err = combat.NewSession(newPlayer(), []*combat.Combatant{newPlayer()}, nil, deps)
	assert.Error(t, err, "second player")

	s, err := combat.NewSession(newPlayer(), []*combat.Combatant{newEnemy("a1", "Squire")}, []*combat.Combatant{newEnemy("e1", "Goblin")}, deps)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Beat())
	assert.Equal(t, 1.0, s.Heat())
	require.Len(t, s.Allies(), 2)
	assert.Same(t, s.Player(), s.Allies()[0])
	assert.Equal(t, combat.SideAlly, s.Allies()[1].Side)
	assert.Equal(t, combat.SideEnemy, s.Enemies()[0].Side)
	assert.NotEmpty(t, s.ID())
}

func TestSession_Start_SeedsProximityAndEntersCombat(t *testing.T) {
	e1, e2 := newEnemy("e1", "Goblin"), newEnemy("e2", "Orc")
	f := newFixture(t, newPlayer(), []*combat.Combatant{e1, e2})
	assert.Equal(t, 2, f.session.Proximity().Len())
	for _, c := range []*combat.Combatant{f.player, e1, e2} {
		assert.True(t, c.InCombat())
	}
	d, ok := f.session.Proximity().Distance("e1", "p1")
	require.True(t, ok)
	assert.GreaterOrEqual(t, d, 7.5)
	assert.LessOrEqual(t, d, 12.5)
	_, ok = f.session.Proximity().Distance("e1", "e2")
	assert.False(t, ok)
}

func TestSession_Victory(t *testing.T) {
	enemy := newEnemy("e1", "Goblin")
	enemy.Exp = 25
	player := newPlayer()
	player.Fatigue = 3
	f := newFixture(t, player, []*combat.Combatant{enemy})

	enemy.HP = 0
	assert.Equal(t, combat.OutcomeNone, f.step(t))
	assert.Empty(t, f.session.Enemies())
	assert.Equal(t, []string{"e1"}, f.world.deaths)
	assert.False(t, enemy.InCombat())
	assert.Equal(t, 0, f.session.Proximity().Len())

	assert.Equal(t, combat.OutcomeVictory, f.step(t))
	assert.Equal(t, player.MaxFatigue, player.Fatigue)
	assert.Equal(t, []int{25}, f.world.awards)
	assert.False(t, player.InCombat())

	assert.Equal(t, combat.OutcomeVictory, f.step(t))
	assert.Equal(t, []int{25}, f.world.awards, "experience is awarded exactly once")
	res := f.session.Result()
	assert.Equal(t, 25, res.Experience)
	assert.Equal(t, []string{"Mara"}, res.Survivors)
}

func TestSession_Defeat_NoFurtherSideEffects(t *testing.T) {
	player := newPlayer()
	strike := player.Learn(strikeDef())
	enemy := newEnemy("e1", "Goblin")
	enemyStrike := enemy.Learn(strikeDef())
	f := newFixture(t, player, []*combat.Combatant{enemy}, func(d *combat.Deps) {
		d.Config.MoveReset = config.MoveCarry
	})

	require.NoError(t, player.Cast(strike, "e1"))
	strike.Advance()
	strike.Advance()
	player.Release(strike)
	require.NoError(t, enemy.Cast(enemyStrike, "p1"))
	enemyStrike.Advance()
	enemyStrike.Advance()
	enemy.Release(enemyStrike)
	require.Equal(t, move.StageCooldown, strike.Stage())
	enemyHP := enemy.HP

	player.HP = 0
	assert.Equal(t, combat.OutcomeDefeat, f.step(t))
	assert.Equal(t, 0, f.strategy.prompts)
	assert.Equal(t, move.StageCooldown, strike.Stage())
	assert.Equal(t, 2, strike.BeatsLeft())
	assert.Equal(t, 2, enemyStrike.BeatsLeft())
	assert.Equal(t, enemyHP, enemy.HP)
	assert.Equal(t, []string{"p1"}, f.world.deaths)
	assert.Equal(t, 0, f.session.Beat())

	assert.Equal(t, combat.OutcomeDefeat, f.step(t))
	assert.Equal(t, 2, strike.BeatsLeft())
}

func TestSession_Rejection_InsufficientFatigue(t *testing.T) {
	player := newPlayer()
	heavy := player.Learn(&move.Def{ID: "heavy", Name: "Heavy Blow", FatigueCost: 5})
	player.Fatigue = 2
	f := newFixture(t, player, []*combat.Combatant{newEnemy("e1", "Goblin")})
	f.strategy.choices = []combat.Choice{cast(0), {Action: combat.ActionWait}}

	f.step(t)
	require.Len(t, f.strategy.rejects, 1)
	assert.True(t, errors.Is(f.strategy.rejects[0], combat.ErrInsufficientFatigue))
	assert.Equal(t, 2, player.Fatigue)
	assert.Nil(t, player.Current())
	assert.Equal(t, move.StageReady, heavy.Stage())
	assert.Equal(t, 2, f.strategy.prompts)
}

func TestSession_Rejection_Kinds(t *testing.T) {
	player := newPlayer()
	strike := player.Learn(strikeDef())
	f := newFixture(t, player, []*combat.Combatant{newEnemy("e1", "Goblin")})
	f.session.Proximity().Set("p1", "e1", 15)

	f.strategy.choices = []combat.Choice{cast(7), cast(0), {Action: combat.ActionWait}}
	f.step(t)
	require.Len(t, f.strategy.rejects, 2)
	assert.True(t, errors.Is(f.strategy.rejects[0], combat.ErrInputRejected))
	assert.True(t, errors.Is(f.strategy.rejects[1], combat.ErrTargetUnresolved))
	assert.Equal(t, 10, player.Fatigue)
	assert.Equal(t, move.StageReady, strike.Stage())

	f.session.Proximity().Set("p1", "e1", 3)
	require.NoError(t, player.Cast(strike, "e1"))
	strike.Advance()
	strike.Advance()
	player.Release(strike)
	f.strategy.choices = []combat.Choice{cast(0), {Action: combat.ActionWait}}
	f.step(t)
	require.Len(t, f.strategy.rejects, 3)
	assert.True(t, errors.Is(f.strategy.rejects[2], combat.ErrMoveNotReady))
}

func TestSession_TargetingOrder(t *testing.T) {
	player := newPlayer()
	player.Learn(strikeDef())
	e1, e2, e3 := newEnemy("e1", "Goblin"), newEnemy("e2", "Archer"), newEnemy("e3", "Rat")
	f := newFixture(t, player, []*combat.Combatant{e1, e2, e3})
	prox := f.session.Proximity()
	prox.Set("p1", "e1", 5)
	prox.Set("p1", "e2", 15)
	prox.Set("p1", "e3", 2)

	cands := f.session.Candidates(player, strikeDef())
	require.Len(t, cands, 2)
	assert.Equal(t, []float64{2, 5}, []float64{cands[0].Distance, cands[1].Distance})

	f.strategy.choices = []combat.Choice{cast(0)}
	f.strategy.targets = []int{1}
	f.step(t)
	require.Len(t, f.strategy.targetOpts, 1)
	opts := f.strategy.targetOpts[0]
	require.Len(t, opts, 2)
	assert.Equal(t, "e3", opts[0].ID)
	assert.Equal(t, "Goblin", opts[1].Name)
	assert.Equal(t, "e1", player.Current().Target())
	assert.Equal(t, 15, e1.HP, "strike resolves on the global clock in the same beat")
}

func TestSession_SingleCandidateAutoSelects(t *testing.T) {
	player := newPlayer()
	player.Learn(strikeDef())
	e1, e2 := newEnemy("e1", "Goblin"), newEnemy("e2", "Archer")
	f := newFixture(t, player, []*combat.Combatant{e1, e2})
	f.session.Proximity().Set("p1", "e1", 20)
	f.session.Proximity().Set("p1", "e2", 4)

	f.strategy.choices = []combat.Choice{cast(0)}
	f.step(t)
	assert.Empty(t, f.strategy.targetOpts)
	assert.Equal(t, "e2", player.Current().Target())
}

func TestSession_InstantMoveReachesCooldownInSameBeat(t *testing.T) {
	player := newPlayer()
	z := player.Learn(zapDef())
	enemy := newEnemy("e1", "Goblin")
	f := newFixture(t, player, []*combat.Combatant{enemy})
	f.strategy.choices = []combat.Choice{cast(0)}

	f.step(t)
	assert.Equal(t, move.StageCooldown, z.Stage())
	assert.Equal(t, 2, z.BeatsLeft(), "cooldown also ticked on the global clock")
	assert.Nil(t, player.Current())
	assert.Equal(t, 16, enemy.HP)
	assert.Equal(t, 8, player.Fatigue)
	assert.Equal(t, 1, f.strategy.prompts)
}

func TestSession_LongInstantMoveStillResolvesInItsBeat(t *testing.T) {
	player := newPlayer()
	def := zapDef()
	def.ID, def.Name, def.CastBeats = "surge", "Surge", 20
	surge := player.Learn(def)
	enemy := newEnemy("e1", "Goblin")
	f := newFixture(t, player, []*combat.Combatant{enemy})
	f.strategy.choices = []combat.Choice{cast(0)}

	f.step(t)
	assert.Equal(t, move.StageCooldown, surge.Stage())
	assert.Nil(t, player.Current())
	assert.Equal(t, 16, enemy.HP)
}

func TestSession_BusyPlayerIsNotPrompted(t *testing.T) {
	player := newPlayer()
	slow := player.Learn(&move.Def{ID: "charge", Name: "Charge", CastBeats: 3, ResolveBeats: 1, CooldownBeats: 1,
		Effects: []move.EffectSpec{{Kind: move.EffectHeal, Amount: "2", Self: true}}})
	f := newFixture(t, player, []*combat.Combatant{newEnemy("e1", "Goblin")})
	f.strategy.choices = []combat.Choice{cast(0)}

	f.step(t)
	f.step(t)
	assert.Equal(t, 1, f.strategy.prompts)
	assert.Equal(t, move.StageCasting, slow.Stage())
	assert.Equal(t, "p1", slow.Target())
	assert.GreaterOrEqual(t, f.presenter.renders, 1)
}

func TestSession_NPCAttacksOnSharedClock(t *testing.T) {
	player := newPlayer()
	enemy := newEnemy("e1", "Goblin")
	enemy.Learn(strikeDef())
	f := newFixture(t, player, []*combat.Combatant{enemy})
	f.session.Proximity().Set("p1", "e1", 3)

	f.step(t)
	require.NotNil(t, enemy.Current())
	assert.Equal(t, "p1", enemy.Current().Target())
	assert.Equal(t, 4, enemy.Fatigue)
	assert.Equal(t, 30, player.HP)

	f.step(t)
	assert.Equal(t, 25, player.HP)
}

func TestSession_NPCIdlesWithoutFatigue(t *testing.T) {
	enemy := newEnemy("e1", "Goblin")
	enemy.Learn(strikeDef())
	enemy.Fatigue = 0
	f := newFixture(t, newPlayer(), []*combat.Combatant{enemy})

	f.step(t)
	assert.Nil(t, enemy.Current())
	assert.Contains(t, f.presenter.lines, "Goblin hesitates.")
}

func TestSession_NPCDelayCountsDown(t *testing.T) {
	enemy := newEnemy("e1", "Goblin")
	enemy.Learn(strikeDef())
	f := newFixture(t, newPlayer(), []*combat.Combatant{enemy})
	f.session.Proximity().Set("p1", "e1", 3)
	enemy.Delay = 2

	f.step(t)
	f.step(t)
	assert.Nil(t, enemy.Current())
	assert.Equal(t, 0, enemy.Delay)
	f.step(t)
	assert.NotNil(t, enemy.Current())
}

func TestSession_Flee(t *testing.T) {
	f := newFixture(t, newPlayer(), []*combat.Combatant{newEnemy("e1", "Goblin")})
	f.strategy.choices = []combat.Choice{{Action: combat.ActionFlee}}
	assert.Equal(t, combat.OutcomeFlee, f.step(t))
	assert.Equal(t, combat.OutcomeFlee, f.session.Outcome())
	assert.Empty(t, f.world.awards)
}

func TestSession_EventEndsEncounter(t *testing.T) {
	f := newFixture(t, newPlayer(), []*combat.Combatant{newEnemy("e1", "Goblin")})
	checks := 0
	f.session.AddEvent(combat.Event{Name: "reinforcements", Check: func(s *combat.Session) (combat.Outcome, bool) {
		checks++
		if s.Beat() >= 2 {
			return combat.OutcomeFlee, false
		}
		return combat.OutcomeNone, true
	}})
	f.session.AddEvent(combat.Event{Name: "once", Check: func(*combat.Session) (combat.Outcome, bool) {
		return combat.OutcomeNone, false
	}})

	assert.Equal(t, combat.OutcomeNone, f.step(t))
	assert.Equal(t, combat.OutcomeNone, f.step(t))
	assert.Equal(t, combat.OutcomeFlee, f.step(t))
	assert.Equal(t, 3, checks)
	assert.Equal(t, 2, f.strategy.prompts, "the terminating beat never prompts")
}

func phoenixRegistry(t *testing.T) *status.Registry {
	t.Helper()
	reg := status.NewRegistry()
	require.NoError(t, reg.Register(&status.Def{ID: "phoenix", Name: "Phoenix Down", Kind: status.KindRevive, Beats: 5, Combat: true, Magnitude: 3}))
	require.NoError(t, reg.Register(&status.Def{ID: "burn", Name: "Burning", Kind: status.KindDamageOverTime, Beats: 5, Combat: true, Magnitude: 1, Element: "fire", LuaOnTick: "burn_tick"}))
	require.NoError(t, reg.Register(&status.Def{ID: "curse", Name: "Cursed", Beats: 5, Steps: 5, Combat: true, World: true, Persistent: true}))
	require.NoError(t, reg.Register(&status.Def{ID: "might", Name: "Might", Kind: status.KindStatModifier, Stat: combat.StatStrength, Beats: 5, Combat: true, Magnitude: 2}))
	return reg
}

func TestSession_ReviveStatusPreventsRemoval(t *testing.T) {
	enemy := newEnemy("e1", "Goblin")
	f := newFixture(t, newPlayer(), []*combat.Combatant{enemy}, func(d *combat.Deps) {
		d.Statuses = phoenixRegistry(t)
	})
	require.NoError(t, f.session.ApplyStatus("e1", "phoenix", ""))
	enemy.HP = 0

	f.step(t)
	require.Len(t, f.session.Enemies(), 1)
	assert.Equal(t, 3, enemy.HP)
	assert.False(t, enemy.Statuses.Has("phoenix"))
	assert.Empty(t, f.world.deaths)
}

func TestSession_BoundaryPolicy(t *testing.T) {
	for _, tc := range []struct {
		policy    string
		keepsBurn bool
	}{
		{config.BoundaryPrune, false},
		{config.BoundaryFreeze, true},
	} {
		t.Run(tc.policy, func(t *testing.T) {
			player := newPlayer()
			enemy := newEnemy("e1", "Goblin")
			f := newFixture(t, player, []*combat.Combatant{enemy}, func(d *combat.Deps) {
				d.Statuses = phoenixRegistry(t)
				d.Config.StatusBoundary = tc.policy
			})
			require.NoError(t, f.session.ApplyStatus("p1", "burn", "e1"))
			require.NoError(t, f.session.ApplyStatus("p1", "curse", "e1"))
			enemy.HP = 0

			f.step(t)
			assert.Equal(t, combat.OutcomeVictory, f.step(t))
			assert.True(t, player.Statuses.Has("curse"))
			assert.Equal(t, tc.keepsBurn, player.Statuses.Has("burn"))
			assert.Equal(t, 29, player.HP)
		})
	}
}

func TestSession_MoveResetPolicy(t *testing.T) {
	for _, tc := range []struct {
		policy string
		want   move.Stage
	}{
		{config.MoveReset, move.StageReady},
		{config.MoveCarry, move.StageCooldown},
	} {
		t.Run(tc.policy, func(t *testing.T) {
			player := newPlayer()
			z := player.Learn(zapDef())
			enemy := newEnemy("e1", "Goblin")
			enemy.HP = 4
			f := newFixture(t, player, []*combat.Combatant{enemy}, func(d *combat.Deps) {
				d.Config.MoveReset = tc.policy
			})
			f.strategy.choices = []combat.Choice{cast(0)}
			f.step(t)
			require.Equal(t, combat.OutcomeVictory, f.step(t))
			assert.Equal(t, tc.want, z.Stage())
		})
	}
}

func TestSession_StatRefresh(t *testing.T) {
	player := newPlayer()
	player.BaseStats.Strength = 12
	f := newFixture(t, player, []*combat.Combatant{newEnemy("e1", "Goblin")}, func(d *combat.Deps) {
		d.Statuses = phoenixRegistry(t)
	})
	f.world.bonus = combat.Attributes{Strength: 1}
	require.NoError(t, f.session.ApplyStatus("p1", "might", ""))

	f.step(t)
	assert.Equal(t, 15, player.Stats.Strength)
}

func TestSession_ApplyStatus_Errors(t *testing.T) {
	f := newFixture(t, newPlayer(), []*combat.Combatant{newEnemy("e1", "Goblin")})
	assert.Error(t, f.session.ApplyStatus("p1", "burn", ""), "no registry")

	g := newFixture(t, newPlayer(), []*combat.Combatant{newEnemy("e1", "Goblin")}, func(d *combat.Deps) {
		d.Statuses = phoenixRegistry(t)
	})
	assert.Error(t, g.session.ApplyStatus("ghost", "burn", ""))
	assert.Error(t, g.session.ApplyStatus("p1", "frostbite", ""))
}

func TestSession_HeatScalesDamage(t *testing.T) {
	player := newPlayer()
	player.Learn(&move.Def{ID: "rage", Name: "Rage", Targeted: true, Instant: true,
		Effects: []move.EffectSpec{
			{Kind: move.EffectHeat, Multiplier: mult(2)},
			{Kind: move.EffectDamage, Amount: "5"},
		}})
	enemy := newEnemy("e1", "Goblin")
	f := newFixture(t, player, []*combat.Combatant{enemy})
	f.strategy.choices = []combat.Choice{cast(0)}

	f.step(t)
	assert.Equal(t, 2.0, f.session.Heat())
	assert.Equal(t, 10, enemy.HP)
}

func TestSession_ZeroHeatMultiplierDropsToFloor(t *testing.T) {
	player := newPlayer()
	player.Learn(&move.Def{ID: "chill", Name: "Chill", Targeted: true, Instant: true,
		Effects: []move.EffectSpec{
			{Kind: move.EffectHeat, Multiplier: mult(0)},
			{Kind: move.EffectDamage, Amount: "10"},
		}})
	enemy := newEnemy("e1", "Goblin")
	f := newFixture(t, player, []*combat.Combatant{enemy})
	f.strategy.choices = []combat.Choice{cast(0)}

	f.step(t)
	assert.Equal(t, 0.5, f.session.Heat())
	assert.Equal(t, 15, enemy.HP)
}

func TestSession_ElementResistance(t *testing.T) {
	player := newPlayer()
	player.Learn(zapDef())
	enemy := newEnemy("e1", "Goblin")
	enemy.Resistance[combat.ElementShock] = 0.5
	f := newFixture(t, player, []*combat.Combatant{enemy})
	f.strategy.choices = []combat.Choice{cast(0)}

	f.step(t)
	assert.Equal(t, 18, enemy.HP)
}

func TestSession_ProtectionAppliesAfterHeat(t *testing.T) {
	player := newPlayer()
	player.Learn(&move.Def{ID: "rage", Name: "Rage", Targeted: true, Instant: true,
		Effects: []move.EffectSpec{
			{Kind: move.EffectHeat, Multiplier: mult(2)},
			{Kind: move.EffectDamage, Amount: "5"},
		}})
	enemy := newEnemy("e1", "Goblin")
	f := newFixture(t, player, []*combat.Combatant{enemy})
	f.world.armor = 3
	f.strategy.choices = []combat.Choice{cast(0)}

	f.step(t)
	assert.Equal(t, 3, enemy.Protection)
	assert.Equal(t, 13, enemy.HP)
}

func TestSession_DistanceEffect(t *testing.T) {
	player := newPlayer()
	player.Learn(&move.Def{ID: "lunge", Name: "Lunge", Targeted: true, Instant: true,
		Effects: []move.EffectSpec{{Kind: move.EffectDistance, Delta: -4}}})
	f := newFixture(t, player, []*combat.Combatant{newEnemy("e1", "Goblin")})
	f.session.Proximity().Set("p1", "e1", 9)
	f.strategy.choices = []combat.Choice{cast(0)}

	f.step(t)
	d, ok := f.session.Proximity().Distance("p1", "e1")
	require.True(t, ok)
	assert.Equal(t, 5.0, d)
}

func TestSession_DeadTargetResolvesAsNoop(t *testing.T) {
	player := newPlayer()
	strike := player.Learn(strikeDef())
	e1, e2 := newEnemy("e1", "Goblin"), newEnemy("e2", "Rat")
	f := newFixture(t, player, []*combat.Combatant{e1, e2})
	f.session.Proximity().Set("p1", "e1", 1)
	f.session.Proximity().Set("p1", "e2", 50)
	require.NoError(t, player.Cast(strike, "e1"))
	e1.HP = 0

	f.step(t)
	assert.Equal(t, move.StageResolving, strike.Stage())
	assert.Contains(t, f.presenter.lines, "Mara's Strike finds no target.")
	assert.Equal(t, 20, e2.HP)
	require.Len(t, f.session.Enemies(), 1)
}

func TestSession_ScriptHooks(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hooks.lua"), []byte(`
		function zap_resolve(user, target, move)
			engine.combat.narrate("sparks from " .. move)
			engine.combat.heat_change(1, 0.5)
			engine.combat.apply_status(target, "burn", user)
		end
		function burn_tick(target, status, intensity, source)
			engine.combat.narrate(target .. " smoulders")
		end
	`), 0644))
	mgr := scripting.NewManager(dice.NewLoggedRoller(dice.NewSeededSource(3), zap.NewNop()), zap.NewNop())
	require.NoError(t, mgr.Load(dir, 0))

	player := newPlayer()
	def := zapDef()
	def.LuaOnResolve = "zap_resolve"
	player.Learn(def)
	enemy := newEnemy("e1", "Goblin")
	f := newFixture(t, player, []*combat.Combatant{enemy}, func(d *combat.Deps) {
		d.Scripts = mgr
		d.Statuses = phoenixRegistry(t)
	})
	f.strategy.choices = []combat.Choice{cast(0)}

	f.step(t)
	assert.Contains(t, f.presenter.lines, "sparks from zap")
	assert.Equal(t, 1.5, f.session.Heat())
	assert.True(t, enemy.Statuses.Has("burn"))
	assert.Contains(t, f.presenter.lines, "e1 smoulders")
}

type memRecorder struct {
	results []combat.Result
}

func (r *memRecorder) Record(_ context.Context, res combat.Result) error {
	r.results = append(r.results, res)
	return nil
}

func TestSession_Run_RecordsResult(t *testing.T) {
	player := newPlayer()
	player.Learn(&move.Def{ID: "smite", Name: "Smite", Targeted: true, Instant: true,
		Effects: []move.EffectSpec{{Kind: move.EffectDamage, Amount: "50"}}})
	enemy := newEnemy("e1", "Goblin")
	enemy.Exp = 7
	rec := &memRecorder{}
	f := newFixture(t, player, []*combat.Combatant{enemy}, func(d *combat.Deps) {
		d.Recorder = rec
	})
	f.strategy.choices = []combat.Choice{cast(0)}

	res, err := f.session.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, combat.OutcomeVictory, res.Outcome)
	assert.Equal(t, 1, res.Beats)
	assert.Equal(t, 7, res.Experience)
	require.Len(t, rec.results, 1)
	assert.Equal(t, f.session.ID(), rec.results[0].SessionID)
	assert.Equal(t, "p1", rec.results[0].PlayerID)
	assert.False(t, res.FinishedAt.Before(res.StartedAt))
}

func TestSession_Run_CancelledContext(t *testing.T) {
	player := newPlayer()
	f := newFixture(t, player, []*combat.Combatant{newEnemy("e1", "Goblin")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.session.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, combat.OutcomeNone, res.Outcome)
	assert.False(t, player.InCombat())
}

func TestSession_Run_StrategyError(t *testing.T) {
	f := newFixture(t, newPlayer(), []*combat.Combatant{newEnemy("e1", "Goblin")})
	f.strategy.err = errors.New("stdin closed")
	_, err := f.session.Run(context.Background())
	assert.ErrorContains(t, err, "stdin closed")
}

func TestSession_Snapshot(t *testing.T) {
	player := newPlayer()
	player.Learn(strikeDef())
	player.Learn(&move.Def{ID: "heavy", Name: "Heavy Blow", FatigueCost: 50})
	f := newFixture(t, player, []*combat.Combatant{newEnemy("e1", "Goblin")})
	f.session.Proximity().Set("p1", "e1", 6)

	snap := f.session.Snapshot()
	assert.Equal(t, 0, snap.Beat)
	assert.Equal(t, 1.0, snap.Heat)
	assert.True(t, snap.Player.Player)
	require.Len(t, snap.Enemies, 1)
	assert.Equal(t, 6.0, snap.Enemies[0].Distance)
	require.Len(t, snap.Moves, 2)
	assert.True(t, snap.Moves[0].Legal)
	assert.False(t, snap.Moves[1].Legal)
}
