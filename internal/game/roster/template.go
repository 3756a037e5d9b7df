// Package roster loads combatant templates and spawns live combatants from them.
package roster

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/move"
)

// Template kinds.
const (
	KindPlayer = "player"
	KindNPC    = "npc"
)

// Template defines a reusable combatant archetype loaded from YAML.
type Template struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Kind        string            `yaml:"kind"` // "player" or "npc"; empty means npc
	MaxHP       int               `yaml:"max_hp"`
	MaxFatigue  int               `yaml:"max_fatigue"`
	Stats       combat.Attributes `yaml:"stats"`
	// Resistances maps an element name to a reduction factor in [-1, 1].
	Resistances map[string]float64 `yaml:"resistances"`
	// Moves lists move IDs in the order they are learned.
	Moves []string `yaml:"moves"`
	// Exp is the experience the player pools when this combatant is defeated.
	Exp int `yaml:"exp"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Kind is known,
// MaxHP >= 1, MaxFatigue >= 0, Exp >= 0 and every resistance names a known element
// with a factor in [-1, 1]; returns an error on the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("roster template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("roster template %q: name must not be empty", t.ID)
	}
	if t.Kind == "" {
		t.Kind = KindNPC
	}
	if t.Kind != KindPlayer && t.Kind != KindNPC {
		return fmt.Errorf("roster template %q: kind must be player or npc, got %q", t.ID, t.Kind)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("roster template %q: max_hp must be >= 1", t.ID)
	}
	if t.MaxFatigue < 0 {
		return fmt.Errorf("roster template %q: max_fatigue must be >= 0", t.ID)
	}
	if t.Exp < 0 {
		return fmt.Errorf("roster template %q: exp must be >= 0", t.ID)
	}
	for name, r := range t.Resistances {
		if !knownElement(name) {
			return fmt.Errorf("roster template %q: unknown element %q", t.ID, name)
		}
		if r < -1 || r > 1 {
			return fmt.Errorf("roster template %q: resistance %q must be in [-1, 1], got %g", t.ID, name, r)
		}
	}
	return nil
}

func knownElement(name string) bool {
	for _, e := range combat.Elements {
		if string(e) == name {
			return true
		}
	}
	return false
}

// LoadTemplateFromBytes parses a single template from raw YAML bytes.
// Unknown keys are rejected.
//
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// Roster holds every known template keyed by ID.
type Roster struct {
	templates map[string]*Template
}

// New creates an empty Roster.
func New() *Roster {
	return &Roster{templates: make(map[string]*Template)}
}

// Register validates and adds tmpl, rejecting a duplicate ID.
func (r *Roster) Register(tmpl *Template) error {
	if tmpl == nil {
		return fmt.Errorf("roster: template must not be nil")
	}
	if err := tmpl.Validate(); err != nil {
		return err
	}
	if _, exists := r.templates[tmpl.ID]; exists {
		return fmt.Errorf("roster: duplicate template %q", tmpl.ID)
	}
	r.templates[tmpl.ID] = tmpl
	return nil
}

// Get returns the template for id, or (nil, false) if not found.
func (r *Roster) Get(id string) (*Template, bool) {
	t, ok := r.templates[id]
	return t, ok
}

// All returns every template ordered by ID.
func (r *Roster) All() []*Template {
	out := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory reads all *.yaml files in dir into a Roster.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a Roster with every template, or an error on the first
// parse or validate failure; on error the partial result is discarded.
func LoadDirectory(dir string) (*Roster, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading roster dir %q: %w", dir, err)
	}

	r := New()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if err := r.Register(tmpl); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return r, nil
}

// Spawn creates a live combatant from tmpl. Players keep the template ID so
// the engine can key sessions on it; every NPC gets a fresh instance ID.
//
// Precondition: tmpl must be valid; moves and logger must be non-nil.
// Postcondition: Returns a full-HP combatant that knows every listed move,
// or an error naming the first unknown move.
func Spawn(tmpl *Template, moves *move.Registry, logger *zap.Logger) (*combat.Combatant, error) {
	kind := combat.KindNPC
	id := tmpl.ID + "-" + uuid.NewString()[:8]
	if tmpl.Kind == KindPlayer {
		kind = combat.KindPlayer
		id = tmpl.ID
	}

	c := combat.NewCombatant(id, tmpl.Name, kind, tmpl.MaxHP, tmpl.MaxFatigue, tmpl.Stats, logger)
	c.Exp = tmpl.Exp
	for name, r := range tmpl.Resistances {
		c.Resistance[combat.Element(name)] = r
	}
	for _, moveID := range tmpl.Moves {
		def, ok := moves.Get(moveID)
		if !ok {
			return nil, fmt.Errorf("spawning %q: unknown move %q", tmpl.ID, moveID)
		}
		c.Learn(def)
	}
	return c, nil
}

// SpawnParty spawns one combatant per template ID, in order. Repeated IDs
// spawn distinct instances.
func (r *Roster) SpawnParty(ids []string, moves *move.Registry, logger *zap.Logger) ([]*combat.Combatant, error) {
	party := make([]*combat.Combatant, 0, len(ids))
	for _, id := range ids {
		tmpl, ok := r.Get(id)
		if !ok {
			return nil, fmt.Errorf("roster: unknown template %q", id)
		}
		if tmpl.Kind == KindPlayer {
			return nil, fmt.Errorf("roster: %q is a player template", id)
		}
		c, err := Spawn(tmpl, moves, logger)
		if err != nil {
			return nil, err
		}
		party = append(party, c)
	}
	return party, nil
}
