package combat

import "context"

// World is the collaborator that owns everything outside the encounter:
// equipment, narrative death handling and experience distribution.
type World interface {
	// StatBonuses returns equipment- or state-sourced bonuses added to c's base stats.
	StatBonuses(c *Combatant) Attributes
	// Protection returns c's protection rating for the current beat.
	Protection(c *Combatant) int
	// BeforeDeath may keep c alive; it returns true when it intervened.
	BeforeDeath(c *Combatant) bool
	// Death runs the narrative death sequence for c.
	Death(c *Combatant)
	// AwardExperience distributes the pooled experience after a victory.
	AwardExperience(player *Combatant, exp int)
}

// NopWorld is a World that grants nothing and never intervenes.
// Embed it to override a subset of the methods.
type NopWorld struct{}

func (NopWorld) StatBonuses(*Combatant) Attributes { return Attributes{} }
func (NopWorld) Protection(*Combatant) int         { return 0 }
func (NopWorld) BeforeDeath(*Combatant) bool       { return false }
func (NopWorld) Death(*Combatant)                  {}
func (NopWorld) AwardExperience(*Combatant, int)   {}

// Presenter renders read-only views of the encounter. It must never mutate the session.
type Presenter interface {
	Render(snap Snapshot)
	Narrate(msg string)
}

// NopPresenter discards all output.
type NopPresenter struct{}

func (NopPresenter) Render(Snapshot) {}
func (NopPresenter) Narrate(string)  {}

// Recorder persists a finished encounter.
type Recorder interface {
	Record(ctx context.Context, res Result) error
}
