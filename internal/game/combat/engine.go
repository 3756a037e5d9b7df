package combat

import (
	"fmt"
	"sync"
)

// Engine tracks the active session of each player, keyed by player ID.
// All methods are safe for concurrent use.
type Engine struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewEngine creates an empty Engine.
//
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine() *Engine {
	return &Engine{sessions: make(map[string]*Session)}
}

// Start builds a session for player and registers it.
//
// Precondition: see NewSession.
// Postcondition: Returns the new Session, or an error wrapping ErrSessionActive
// if the player already has one.
func (e *Engine) Start(player *Combatant, allies, enemies []*Combatant, deps Deps) (*Session, error) {
	if player == nil {
		return nil, fmt.Errorf("combat: session needs a player combatant")
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.sessions[player.ID()]; exists {
		return nil, fmt.Errorf("player %q: %w", player.ID(), ErrSessionActive)
	}
	s, err := NewSession(player, allies, enemies, deps)
	if err != nil {
		return nil, err
	}
	e.sessions[player.ID()] = s
	return s, nil
}

// Get returns the active session for playerID.
//
// Postcondition: Returns (session, true) if found, or (nil, false) otherwise.
func (e *Engine) Get(playerID string) (*Session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[playerID]
	return s, ok
}

// End removes the session record for playerID.
func (e *Engine) End(playerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, playerID)
}

// Active returns the number of registered sessions.
func (e *Engine) Active() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sessions)
}
