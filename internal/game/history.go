package game

import "time"

// ActionType classifies a reversible host action
type ActionType string

const (
	ActionAward     ActionType = "award"
	ActionDeduct    ActionType = "deduct"
	ActionEliminate ActionType = "eliminate"
)

// DefaultHistoryLimit is the ledger capacity when none is configured
const DefaultHistoryLimit = 20

// HistoryEntry is the state a player had right before a reversible action
type HistoryEntry struct {
	Type          ActionType  `json:"type"`
	PlayerID      string      `json:"playerId"`
	PreviousState PlayerPatch `json:"previousState"`
	RecordedAt    time.Time   `json:"recordedAt"`
}

// History is a fixed-capacity ring buffer of undo entries.
// Once full, each new entry silently overwrites the oldest one.
// It is not safe for concurrent use; the engine lock guards it.
type History struct {
	buf  []HistoryEntry
	next int // slot the next entry is written to
	size int
}

// NewHistory creates a ledger holding at most limit entries
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{buf: make([]HistoryEntry, limit)}
}

// Record snapshots the reversible fields of playerID before a mutation.
// Returns false (and records nothing) if the player is unknown.
func (h *History) Record(action ActionType, playerID string, reg *Registry) bool {
	p, ok := reg.Get(playerID)
	if !ok {
		return false
	}
	h.push(HistoryEntry{
		Type:          action,
		PlayerID:      playerID,
		PreviousState: SnapshotOf(p),
		RecordedAt:    time.Now(),
	})
	return true
}

func (h *History) push(e HistoryEntry) {
	h.buf[h.next] = e
	h.next = (h.next + 1) % len(h.buf)
	if h.size < len(h.buf) {
		h.size++
	}
}

// Undo pops the newest entry and restores it through the registry.
// Returns false when the ledger is empty.
func (h *History) Undo(reg *Registry) (HistoryEntry, bool) {
	e, ok := h.pop()
	if !ok {
		return HistoryEntry{}, false
	}
	reg.Update(e.PlayerID, e.PreviousState)
	return e, true
}

func (h *History) pop() (HistoryEntry, bool) {
	if h.size == 0 {
		return HistoryEntry{}, false
	}
	h.next = (h.next - 1 + len(h.buf)) % len(h.buf)
	e := h.buf[h.next]
	h.buf[h.next] = HistoryEntry{}
	h.size--
	return e, true
}

// Len returns the number of undoable entries
func (h *History) Len() int {
	return h.size
}

// Cap returns the ledger capacity
func (h *History) Cap() int {
	return len(h.buf)
}

// Clear drops every entry
func (h *History) Clear() {
	for i := range h.buf {
		h.buf[i] = HistoryEntry{}
	}
	h.next = 0
	h.size = 0
}

// Entries returns the ledger newest first
func (h *History) Entries() []HistoryEntry {
	out := make([]HistoryEntry, 0, h.size)
	n := len(h.buf)
	for i := 1; i <= h.size; i++ {
		out = append(out, h.buf[(h.next-i+n)%n])
	}
	return out
}
