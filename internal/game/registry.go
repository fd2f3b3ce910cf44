package game

import (
	"fmt"
	"sync"
)

// Registry is the single source of truth for player records.
// Every mutation goes through ReplaceAll, Update, Add or Remove and every
// read hands out copies, so no caller can keep a live reference.
type Registry struct {
	mu      sync.RWMutex
	players []Player
	index   map[string]int
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Get returns a copy of the player with the given ID
func (r *Registry) Get(id string) (Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return Player{}, false
	}
	return r.players[i], true
}

// All returns a copy of the roster in insertion order
func (r *Registry) All() []Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Player, len(r.players))
	copy(out, r.players)
	return out
}

// Len returns the roster size
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// ReplaceAll swaps the whole roster in one step.
// Duplicate IDs are rejected and leave the registry untouched.
func (r *Registry) ReplaceAll(players []Player) error {
	index := make(map[string]int, len(players))
	for i, p := range players {
		if _, dup := index[p.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicatePlayer, p.ID)
		}
		index[p.ID] = i
	}

	next := make([]Player, len(players))
	copy(next, players)

	r.mu.Lock()
	r.players = next
	r.index = index
	r.mu.Unlock()
	return nil
}

// Update applies a patch to one player. An unknown ID matches nothing.
func (r *Registry) Update(id string, patch PlayerPatch) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return false
	}
	r.players[i] = patch.Apply(r.players[i])
	return true
}

// Add appends a player to the roster
func (r *Registry) Add(p Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[p.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePlayer, p.ID)
	}
	r.index[p.ID] = len(r.players)
	r.players = append(r.players, p)
	return nil
}

// Remove deletes a player from the roster, keeping the order of the rest
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return false
	}
	r.players = append(r.players[:i], r.players[i+1:]...)
	delete(r.index, id)
	for j := i; j < len(r.players); j++ {
		r.index[r.players[j].ID] = j
	}
	return true
}
