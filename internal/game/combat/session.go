package combat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/heat"
	"github.com/cory-johannsen/skirmish/internal/game/move"
	"github.com/cory-johannsen/skirmish/internal/game/proximity"
	"github.com/cory-johannsen/skirmish/internal/game/status"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

// Deps bundles a session's collaborators. Nil optional fields fall back to
// no-op or default implementations.
type Deps struct {
	Config config.CombatConfig
	// Roller supplies every random draw. Required.
	Roller *dice.Roller
	// Strategy supplies the player's choices. Required.
	Strategy PlayerStrategy
	// Statuses resolves status IDs named by move effects and scripts.
	Statuses  *status.Registry
	Heuristic Heuristic
	World     World
	Presenter Presenter
	Pacer     Pacer
	Recorder  Recorder
	Scripts   *scripting.Manager
	Logger    *zap.Logger
}

// Session is one encounter between the player's party and a hostile party.
// A Session runs on a single goroutine; none of its methods are safe for concurrent use.
//
// Invariant: the player is allies[0]; every combatant appears in exactly one side list.
type Session struct {
	id      string
	cfg     config.CombatConfig
	beat    int
	heat    *heat.Gauge
	player  *Combatant
	allies  []*Combatant
	enemies []*Combatant
	prox    *proximity.Model
	events  []Event

	expPool  int
	awarded  int
	outcome  Outcome
	started  bool
	inScript bool
	idle     []string

	startedAt  time.Time
	finishedAt time.Time

	roller    *dice.Roller
	strategy  PlayerStrategy
	statuses  *status.Registry
	heuristic Heuristic
	world     World
	presenter Presenter
	pacer     Pacer
	recorder  Recorder
	scripts   *scripting.Manager
	logger    *zap.Logger
}

// NewSession builds an encounter. allies excludes the player, who always leads the ally list.
//
// Precondition: player.Kind == KindPlayer; deps.Roller and deps.Strategy must be non-nil.
// Postcondition: Returns a session at beat 0 with heat 1.0, or an error on a malformed roster.
func NewSession(player *Combatant, allies, enemies []*Combatant, deps Deps) (*Session, error) {
	if player == nil || player.Kind != KindPlayer {
		return nil, fmt.Errorf("combat: session needs a player combatant")
	}
	if deps.Roller == nil {
		return nil, fmt.Errorf("combat: session needs a roller")
	}
	if deps.Strategy == nil {
		return nil, fmt.Errorf("combat: session needs a player strategy")
	}

	seen := map[string]bool{player.ID(): true}
	player.Side = SideAlly
	s := &Session{
		id:        uuid.NewString(),
		cfg:       normalize(deps.Config),
		heat:      heat.New(),
		player:    player,
		allies:    []*Combatant{player},
		prox:      proximity.New(),
		roller:    deps.Roller,
		strategy:  deps.Strategy,
		statuses:  deps.Statuses,
		heuristic: deps.Heuristic,
		world:     deps.World,
		presenter: deps.Presenter,
		pacer:     deps.Pacer,
		recorder:  deps.Recorder,
		scripts:   deps.Scripts,
		logger:    deps.Logger,
	}
	for _, group := range []struct {
		list []*Combatant
		side Side
	}{{allies, SideAlly}, {enemies, SideEnemy}} {
		for _, c := range group.list {
			if c == nil {
				return nil, fmt.Errorf("combat: nil combatant in %s list", group.side)
			}
			if c.IsPlayer() {
				return nil, fmt.Errorf("combat: %q: only one player per session", c.ID())
			}
			if seen[c.ID()] {
				return nil, fmt.Errorf("combat: duplicate combatant %q", c.ID())
			}
			seen[c.ID()] = true
			c.Side = group.side
			if group.side == SideAlly {
				s.allies = append(s.allies, c)
			} else {
				s.enemies = append(s.enemies, c)
			}
		}
	}

	if s.heuristic == nil {
		s.heuristic = RandomHeuristic{}
	}
	if s.world == nil {
		s.world = NopWorld{}
	}
	if s.presenter == nil {
		s.presenter = NopPresenter{}
	}
	if s.pacer == nil {
		s.pacer = DelayPacer{Delay: s.cfg.BeatDelay}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = observability.SessionLogger(s.logger, s.id, player.ID())
	return s, nil
}

func normalize(c config.CombatConfig) config.CombatConfig {
	if c.DefaultProximity <= 0 {
		c.DefaultProximity = 10
	}
	if c.StatusBoundary == "" {
		c.StatusBoundary = config.BoundaryPrune
	}
	if c.MoveReset == "" {
		c.MoveReset = config.MoveReset
	}
	return c
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Beat returns the number of completed beats.
func (s *Session) Beat() int { return s.beat }

// Heat returns the current heat multiplier.
func (s *Session) Heat() float64 { return s.heat.Value() }

// ChangeHeat is the only write path to the heat gauge.
func (s *Session) ChangeHeat(multiplier, add float64) float64 {
	before := s.heat.Value()
	after := s.heat.Change(multiplier, add)
	s.logger.Debug("heat changed", zap.Float64("from", before), zap.Float64("to", after))
	return after
}

// Player returns the player combatant.
func (s *Session) Player() *Combatant { return s.player }

// Allies returns a copy of the ally list, player first.
func (s *Session) Allies() []*Combatant { return append([]*Combatant(nil), s.allies...) }

// Enemies returns a copy of the enemy list.
func (s *Session) Enemies() []*Combatant { return append([]*Combatant(nil), s.enemies...) }

// Outcome returns the terminal outcome, or OutcomeNone while running.
func (s *Session) Outcome() Outcome { return s.outcome }

// Proximity exposes the distance model.
func (s *Session) Proximity() *proximity.Model { return s.prox }

// Combatant returns the participant with id still in the encounter, or nil.
func (s *Session) Combatant(id string) *Combatant {
	for _, c := range s.allies {
		if c.ID() == id {
			return c
		}
	}
	for _, c := range s.enemies {
		if c.ID() == id {
			return c
		}
	}
	return nil
}

// participants returns a snapshot of both side lists, allies first.
func (s *Session) participants() []*Combatant {
	out := make([]*Combatant, 0, len(s.allies)+len(s.enemies))
	out = append(out, s.allies...)
	return append(out, s.enemies...)
}

func (s *Session) side(side Side) []*Combatant {
	if side == SideEnemy {
		return s.enemies
	}
	return s.allies
}

// Candidates returns the living opponents of c inside def's range band,
// sorted by ascending distance.
func (s *Session) Candidates(c *Combatant, def *move.Def) []proximity.Candidate {
	var ids []string
	for _, o := range s.side(c.Side.Opposite()) {
		if o.Alive() {
			ids = append(ids, o.ID())
		}
	}
	lo, hi := def.Band()
	return s.prox.InRange(c.ID(), ids, lo, hi)
}

// ApplyStatus applies the registered status statusID to the participant targetID.
func (s *Session) ApplyStatus(targetID, statusID, source string) error {
	c := s.Combatant(targetID)
	if c == nil {
		return fmt.Errorf("applying %q: combatant %q is not in the encounter", statusID, targetID)
	}
	if s.statuses == nil {
		return fmt.Errorf("applying %q: no status registry", statusID)
	}
	def, ok := s.statuses.Get(statusID)
	if !ok {
		return fmt.Errorf("applying %q: unknown status", statusID)
	}
	_, compounded, err := c.Statuses.Apply(def, c, source)
	if err != nil {
		return err
	}
	if !def.Hidden {
		if compounded {
			s.presenter.Narrate(fmt.Sprintf("%s's %s intensifies.", c.Name(), def.Name))
		} else {
			s.presenter.Narrate(fmt.Sprintf("%s is %s.", c.Name(), def.Name))
		}
	}
	return nil
}

// Start enters every participant into combat, seeds proximity and rolls NPC
// delays. Step calls it on first use; calling it again is a no-op.
func (s *Session) Start() {
	if s.started {
		return
	}
	s.started = true
	s.startedAt = time.Now()
	s.heat.Reset()

	var allyIDs, enemyIDs []string
	for _, c := range s.participants() {
		c.SetInCombat(true)
		c.ResetStats()
		if s.scripts != nil {
			c.Statuses.SetHooks(statusHooks{s: s})
		}
		if c.Side == SideAlly {
			allyIDs = append(allyIDs, c.ID())
		} else {
			enemyIDs = append(enemyIDs, c.ID())
		}
	}
	s.prox.Seed(allyIDs, enemyIDs, s.cfg.DefaultProximity, s.roller)
	RollDelays(s.participants(), s.cfg.MaxNPCDelay, s.roller)

	s.logger.Info("encounter started",
		zap.String("player", s.player.ID()),
		zap.Int("allies", len(s.allies)),
		zap.Int("enemies", len(s.enemies)),
	)
}

// Run steps the session until it reaches a terminal outcome, then records it.
//
// Postcondition: on a nil error the returned Result carries a terminal outcome.
// A cancelled ctx or a failing strategy returns the partial Result and the error.
func (s *Session) Run(ctx context.Context) (Result, error) {
	s.Start()
	for s.outcome == OutcomeNone {
		if _, err := s.Step(ctx); err != nil {
			s.finish()
			s.logger.Warn("encounter aborted", zap.Int("beat", s.beat), zap.Error(err))
			return s.Result(), err
		}
	}
	res := s.Result()
	if s.recorder != nil {
		if err := s.recorder.Record(ctx, res); err != nil {
			return res, fmt.Errorf("recording encounter %s: %w", s.id, err)
		}
	}
	return res, nil
}

// Step runs one beat. It returns the terminal outcome once the encounter ends;
// stepping a finished session is a no-op.
func (s *Session) Step(ctx context.Context) (Outcome, error) {
	if s.outcome != OutcomeNone {
		return s.outcome, nil
	}
	s.Start()

	if o := s.evaluateEvents(); o != OutcomeNone {
		s.terminate(o)
		return o, nil
	}

	if !s.player.Alive() && !s.intervene(s.player) {
		s.world.Death(s.player)
		s.presenter.Narrate(fmt.Sprintf("%s has fallen.", s.player.Name()))
		s.terminate(OutcomeDefeat)
		return OutcomeDefeat, nil
	}

	if len(s.enemies) == 0 {
		s.awarded = s.expPool
		s.world.AwardExperience(s.player, s.expPool)
		s.player.RefillFatigue()
		s.presenter.Narrate(fmt.Sprintf("Victory! %s gains %d experience.", s.player.Name(), s.expPool))
		s.terminate(OutcomeVictory)
		return OutcomeVictory, nil
	}

	s.refreshStats()

	prompted, fled, err := s.playerTurn(ctx)
	if err != nil {
		return OutcomeNone, err
	}
	if fled {
		s.presenter.Narrate(fmt.Sprintf("%s flees the fight.", s.player.Name()))
		s.terminate(OutcomeFlee)
		return OutcomeFlee, nil
	}

	s.advanceMoves()
	s.npcTurns()
	s.sweep()
	s.feedback(prompted)
	s.tickStatuses()

	if err := s.pacer.Pace(ctx); err != nil {
		return OutcomeNone, err
	}
	s.beat++
	return OutcomeNone, nil
}

func (s *Session) refreshStats() {
	for _, c := range s.participants() {
		if !c.Alive() {
			continue
		}
		c.RefreshStats(s.world.StatBonuses(c))
		c.Protection = s.world.Protection(c)
	}
}

// playerTurn prompts until the player makes a legal choice. It is skipped
// while the player's current move is casting or resolving.
func (s *Session) playerTurn(ctx context.Context) (prompted, fled bool, err error) {
	if s.player.Busy() {
		return false, false, nil
	}
	for {
		snap := s.Snapshot()
		s.presenter.Render(snap)
		choice, err := s.strategy.ChooseMove(ctx, snap)
		if err != nil {
			return true, false, fmt.Errorf("choosing move: %w", err)
		}
		switch choice.Action {
		case ActionWait:
			return true, false, nil
		case ActionFlee:
			return true, true, nil
		}
		err = s.castPlayer(ctx, snap, choice.Move)
		if err == nil {
			return true, false, nil
		}
		if !recoverable(err) {
			return true, false, err
		}
		s.logger.Debug("player selection rejected", zap.Error(err))
		s.strategy.Reject(err)
	}
}

// castPlayer validates a selection and casts it. Every rejection happens
// before any state changes.
func (s *Session) castPlayer(ctx context.Context, snap Snapshot, idx int) error {
	moves := s.player.Moves()
	if idx < 0 || idx >= len(moves) {
		return fmt.Errorf("no move %d: %w", idx+1, ErrInputRejected)
	}
	m := moves[idx]
	if m.Stage() != move.StageReady {
		return fmt.Errorf("%s is %s: %w", m.Def.Name, m.Stage(), ErrMoveNotReady)
	}
	if !s.player.CanAfford(m) {
		return fmt.Errorf("%s costs %d fatigue, you have %d: %w",
			m.Def.Name, m.Def.FatigueCost, s.player.Fatigue, ErrInsufficientFatigue)
	}

	target := s.player.ID()
	if m.Def.Targeted {
		cands := s.Candidates(s.player, m.Def)
		switch len(cands) {
		case 0:
			return fmt.Errorf("%s: %w", m.Def.Name, ErrTargetUnresolved)
		case 1:
			target = cands[0].ID
		default:
			opts := s.targetOptions(cands)
			i, err := s.strategy.ChooseTarget(ctx, snap, opts)
			if err != nil {
				return fmt.Errorf("choosing target: %w", err)
			}
			if i < 0 || i >= len(opts) {
				return fmt.Errorf("no target %d: %w", i+1, ErrInputRejected)
			}
			target = opts[i].ID
		}
	}
	return s.cast(s.player, m, target)
}

func (s *Session) targetOptions(cands []proximity.Candidate) []TargetOption {
	opts := make([]TargetOption, 0, len(cands))
	for _, c := range cands {
		name := c.ID
		if p := s.Combatant(c.ID); p != nil {
			name = p.Name()
		}
		opts = append(opts, TargetOption{ID: c.ID, Name: name, Distance: c.Distance})
	}
	return opts
}

// cast stages m for c. Instant moves are advanced until they leave
// CASTING and RESOLVING.
func (s *Session) cast(c *Combatant, m *move.Move, target string) error {
	if err := c.Cast(m, target); err != nil {
		return err
	}
	s.logger.Debug("move cast",
		zap.String("user", c.ID()),
		zap.String("move", m.Def.ID),
		zap.String("target", target),
	)
	if target != c.ID() {
		if t := s.Combatant(target); t != nil {
			s.presenter.Narrate(fmt.Sprintf("%s readies %s against %s.", c.Name(), m.Def.Name, t.Name()))
		}
	} else {
		s.presenter.Narrate(fmt.Sprintf("%s readies %s.", c.Name(), m.Def.Name))
	}
	if m.Def.Instant {
		// Every stage lasts at least one tick, so this terminates.
		for m.Active() {
			s.advance(c, m)
		}
	}
	return nil
}

// advance ticks one move, resolving it on CASTING → RESOLVING and releasing
// its owner when it leaves RESOLVING.
func (s *Session) advance(c *Combatant, m *move.Move) {
	tr := m.Advance()
	if tr.Resolved() {
		s.resolve(c, m)
	}
	if tr.Released() {
		c.Release(m)
	}
}

func (s *Session) advanceMoves() {
	for _, c := range s.participants() {
		if !c.Alive() {
			continue
		}
		for _, m := range c.Moves() {
			s.advance(c, m)
		}
	}
}

func (s *Session) npcTurns() {
	s.idle = s.idle[:0]
	for _, c := range s.participants() {
		if c.IsPlayer() || !c.Alive() {
			continue
		}
		if c.Delay > 0 {
			c.Delay--
			continue
		}
		if c.Busy() {
			continue
		}
		npc := c
		m, target, ok := s.heuristic.Decide(npc, func(def *move.Def) []proximity.Candidate {
			return s.Candidates(npc, def)
		}, s.roller)
		if !ok {
			s.idle = append(s.idle, c.Name())
			continue
		}
		if err := s.cast(c, m, target); err != nil {
			s.logger.Debug("npc cast rejected", zap.String("npc", c.ID()), zap.Error(err))
			s.idle = append(s.idle, c.Name())
		}
	}
}

func (s *Session) feedback(prompted bool) {
	if !prompted {
		s.presenter.Render(s.Snapshot())
	}
	for _, name := range s.idle {
		s.presenter.Narrate(fmt.Sprintf("%s hesitates.", name))
	}
}

func (s *Session) tickStatuses() {
	for _, c := range s.participants() {
		for _, e := range c.Statuses.Process(c) {
			s.logger.Debug("status expired", zap.String("combatant", c.ID()), zap.String("status", e.ID()))
			if !e.Def.Hidden {
				s.presenter.Narrate(fmt.Sprintf("%s is no longer %s.", c.Name(), e.Def.Name))
			}
		}
	}
}

// terminate records the outcome and leaves combat.
func (s *Session) terminate(o Outcome) {
	s.outcome = o
	s.finish()
	s.logger.Info("encounter ended",
		zap.Stringer("outcome", o),
		zap.Int("beats", s.beat),
		zap.Int("experience", s.awarded),
		zap.Float64("heat", s.heat.Value()),
	)
}

// finish applies the boundary policies to every combatant still in the encounter.
func (s *Session) finish() {
	s.finishedAt = time.Now()
	carry := s.cfg.MoveReset == config.MoveCarry
	for _, c := range s.participants() {
		c.SetInCombat(false)
		if s.cfg.StatusBoundary == config.BoundaryPrune {
			c.Statuses.PruneNonPersistent(c)
		}
		c.Statuses.SetHooks(nil)
		c.ResetMoves(carry)
	}
}
