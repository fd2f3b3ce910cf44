package game

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimerState is the countdown as seen by renderers
type TimerState struct {
	Running   bool `json:"running"`
	Remaining int  `json:"remaining"`
}

// Standing is one row of the ranked leaderboard
type Standing struct {
	Rank         int    `json:"rank"`
	PlayerID     string `json:"playerId"`
	Name         string `json:"name"`
	Points       int    `json:"points"`
	IsEliminated bool   `json:"isEliminated"`
}

// GameSnapshot is the overlay view of the whole game
type GameSnapshot struct {
	Sequence       uint64     `json:"sequence"`
	Round          Round      `json:"round"`
	Players        []Player   `json:"players"`
	Standings      []Standing `json:"standings"`
	Winners        []string   `json:"winners"`
	ActivePlayerID string     `json:"activePlayerId,omitempty"`
	Timer          TimerState `json:"timer"`
	UndoDepth      int        `json:"undoDepth"`
	UsedQuestions  int        `json:"usedQuestions"`
}

// PlayerView is what a single contestant sees
type PlayerView struct {
	Player   Player     `json:"player"`
	Rank     int        `json:"rank"`
	Round    Round      `json:"round"`
	Timer    TimerState `json:"timer"`
	IsWinner bool       `json:"isWinner"`
}

// Standings ranks players by points, then ID. Ranks are 1-based and unique.
func Standings(players []Player) []Standing {
	ranked := make([]Player, len(players))
	copy(ranked, players)
	sortByRank(ranked)

	out := make([]Standing, len(ranked))
	for i, p := range ranked {
		out[i] = Standing{
			Rank:         i + 1,
			PlayerID:     p.ID,
			Name:         p.Name,
			Points:       p.Points,
			IsEliminated: p.IsEliminated || p.ForcedEliminated,
		}
	}
	return out
}

// Snapshot returns a consistent copy of the whole game state
func (e *Engine) Snapshot() GameSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	players := e.registry.All()
	return GameSnapshot{
		Sequence:       e.sequence,
		Round:          e.round,
		Players:        players,
		Standings:      Standings(players),
		Winners:        append([]string{}, e.winners...),
		ActivePlayerID: e.activeID,
		Timer:          TimerState{Running: e.timer.Running(), Remaining: e.timer.Remaining()},
		UndoDepth:      e.history.Len(),
		UsedQuestions:  e.questions.Len(),
	}
}

// PlayerView returns the view of a single player
func (e *Engine) PlayerView(id string) (PlayerView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.registry.Get(id)
	if !ok {
		return PlayerView{}, fmt.Errorf("%w: %q", ErrUnknownPlayer, id)
	}

	view := PlayerView{
		Player: p,
		Round:  e.round,
		Timer:  TimerState{Running: e.timer.Running(), Remaining: e.timer.Remaining()},
	}
	for _, s := range Standings(e.registry.All()) {
		if s.PlayerID == id {
			view.Rank = s.Rank
			break
		}
	}
	for _, w := range e.winners {
		if w == id {
			view.IsWinner = true
			break
		}
	}
	return view, nil
}

// =============================================================================
// SAVE / LOAD
// =============================================================================

// SaveVersion is the current save blob schema
const SaveVersion = 1

// SaveState is the persisted form of a game. The undo ledger and the timer
// are session state and are not saved.
type SaveState struct {
	Version        int       `json:"version"`
	Round          Round     `json:"round"`
	Players        []Player  `json:"players"`
	Winners        []string  `json:"winners"`
	UsedQuestions  []string  `json:"usedQuestions"`
	Contenders     []string  `json:"contenders"`
	ActivePlayerID string    `json:"activePlayerId,omitempty"`
	SavedAt        time.Time `json:"savedAt"`
}

// Export serializes the game to an opaque blob
func (e *Engine) Export() ([]byte, error) {
	e.mu.Lock()
	state := SaveState{
		Version:        SaveVersion,
		Round:          e.round,
		Players:        e.registry.All(),
		Winners:        append([]string{}, e.winners...),
		UsedQuestions:  e.questions.IDs(),
		ActivePlayerID: e.activeID,
		SavedAt:        time.Now().UTC(),
	}
	if e.contenders != nil {
		state.Contenders = make([]string, 0, len(e.contenders))
		for _, p := range state.Players {
			if e.contenders[p.ID] {
				state.Contenders = append(state.Contenders, p.ID)
			}
		}
	}
	e.mu.Unlock()

	return json.Marshal(state)
}

// Import replaces the game with a blob produced by Export. The blob is fully
// validated first; on error nothing changes. The undo ledger is cleared and
// the timer stopped.
func (e *Engine) Import(blob []byte) error {
	var state SaveState
	if err := json.Unmarshal(blob, &state); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSave, err)
	}
	if err := state.validate(); err != nil {
		return err
	}

	var err error
	e.run(func() {
		if err = e.registry.ReplaceAll(state.Players); err != nil {
			return
		}

		e.round = state.Round
		e.winners = append([]string(nil), state.Winners...)
		e.activeID = state.ActivePlayerID
		e.contenders = nil
		if state.Round != RoundSetup {
			e.contenders = make(map[string]bool)
			if state.Contenders == nil {
				for _, p := range state.Players {
					e.contenders[p.ID] = true
				}
			}
			for _, id := range state.Contenders {
				e.contenders[id] = true
			}
		}

		e.questions.Reset()
		for _, q := range state.UsedQuestions {
			e.questions.Mark(q)
		}
		e.history.Clear()
		e.timer.Stop()

		e.emit(EventTypeStateRestored, "", nil)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSave, err)
	}
	return nil
}

func (s SaveState) validate() error {
	if s.Version != SaveVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidSave, s.Version)
	}
	if !s.Round.Valid() {
		return fmt.Errorf("%w: invalid round", ErrInvalidSave)
	}

	ids := make(map[string]bool, len(s.Players))
	active := 0
	for _, p := range s.Players {
		if p.ID == "" {
			return fmt.Errorf("%w: player without id", ErrInvalidSave)
		}
		if ids[p.ID] {
			return fmt.Errorf("%w: duplicate player %s", ErrInvalidSave, p.ID)
		}
		ids[p.ID] = true
		if p.Health < 0 || p.Health > MaxHealth || p.Lives < 0 {
			return fmt.Errorf("%w: player %s has out-of-range stats", ErrInvalidSave, p.ID)
		}
		if p.IsActive {
			active++
		}
	}
	if active > 1 {
		return fmt.Errorf("%w: more than one active player", ErrInvalidSave)
	}

	for _, w := range s.Winners {
		if !ids[w] {
			return fmt.Errorf("%w: unknown winner %s", ErrInvalidSave, w)
		}
	}
	for _, c := range s.Contenders {
		if !ids[c] {
			return fmt.Errorf("%w: unknown contender %s", ErrInvalidSave, c)
		}
	}
	if s.ActivePlayerID != "" && !ids[s.ActivePlayerID] {
		return fmt.Errorf("%w: unknown active player %s", ErrInvalidSave, s.ActivePlayerID)
	}
	return nil
}
