package combat

import "go.uber.org/zap"

// Outcome is the terminal state of an encounter.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeVictory
	OutcomeDefeat
	OutcomeFlee
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeVictory:
		return "victory"
	case OutcomeDefeat:
		return "defeat"
	case OutcomeFlee:
		return "flee"
	default:
		return "unknown"
	}
}

// Event is a pending combat event evaluated at the start of every beat.
type Event struct {
	Name string
	// Check returns a terminal outcome to end the encounter, or OutcomeNone.
	// keep == false drops the event after this evaluation.
	Check func(s *Session) (o Outcome, keep bool)
}

// AddEvent queues e for evaluation at the start of the next beat.
func (s *Session) AddEvent(e Event) {
	s.events = append(s.events, e)
}

// evaluateEvents runs every pending event in queue order and returns the
// first terminal outcome. Events queued during evaluation wait for the next beat.
func (s *Session) evaluateEvents() Outcome {
	pending := s.events
	s.events = nil
	var kept []Event
	for i, e := range pending {
		o, keep := e.Check(s)
		if keep {
			kept = append(kept, e)
		}
		if o != OutcomeNone {
			s.logger.Debug("event ended encounter",
				zap.String("event", e.Name),
				zap.Stringer("outcome", o),
			)
			kept = append(kept, pending[i+1:]...)
			s.events = append(kept, s.events...)
			return o
		}
	}
	s.events = append(kept, s.events...)
	return OutcomeNone
}
