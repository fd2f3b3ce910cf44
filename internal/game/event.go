package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypePointsAwarded
	EventTypeHealthDeducted
	EventTypeLifeDeducted
	EventTypePlayerEliminated
	EventTypePlayerForceEliminated
	EventTypePointsAdjusted
	EventTypeHealthAdjusted
	EventTypeActionUndone
	EventTypeGameStarted
	EventTypeRoundAdvanced
	EventTypeGameFinished
	EventTypeGameReset
	EventTypeTimerStarted
	EventTypeTimerTick
	EventTypeTimerStopped
	EventTypeTimerTimeout
	EventTypePlayerAdded
	EventTypePlayerRemoved
	EventTypeActivePlayerChanged
	EventTypeQuestionUsed
	EventTypeQuestionsReset
	EventTypeStateRestored
)

// EventVersion for backwards compatibility in the audit log
const EventVersion uint8 = 1

var eventTypeNames = map[EventType]string{
	EventTypePointsAwarded:         "points_awarded",
	EventTypeHealthDeducted:        "health_deducted",
	EventTypeLifeDeducted:          "life_deducted",
	EventTypePlayerEliminated:      "player_eliminated",
	EventTypePlayerForceEliminated: "player_force_eliminated",
	EventTypePointsAdjusted:        "points_adjusted",
	EventTypeHealthAdjusted:        "health_adjusted",
	EventTypeActionUndone:          "action_undone",
	EventTypeGameStarted:           "game_started",
	EventTypeRoundAdvanced:         "round_advanced",
	EventTypeGameFinished:          "game_finished",
	EventTypeGameReset:             "game_reset",
	EventTypeTimerStarted:          "timer_started",
	EventTypeTimerTick:             "timer_tick",
	EventTypeTimerStopped:          "timer_stopped",
	EventTypeTimerTimeout:          "timer_timeout",
	EventTypePlayerAdded:           "player_added",
	EventTypePlayerRemoved:         "player_removed",
	EventTypeActivePlayerChanged:   "active_player_changed",
	EventTypeQuestionUsed:          "question_used",
	EventTypeQuestionsReset:        "questions_reset",
	EventTypeStateRestored:         "state_restored",
}

// String returns human-readable event type
func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the event type by name so overlay clients can switch on it
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes an event type name. Unknown names decode to
// EventTypeUnknown so older clients survive newer servers.
func (t *EventType) UnmarshalText(text []byte) error {
	name := string(text)
	for k, v := range eventTypeNames {
		if v == name {
			*t = k
			return nil
		}
	}
	*t = EventTypeUnknown
	return nil
}

// Event is the core event structure passed to subscribers and the audit log
type Event struct {
	Version   uint8           `json:"version"`   // Schema version
	Type      EventType       `json:"type"`      // Event type
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`  // Monotonic per engine
	Round     Round           `json:"round"`     // Round marker after the event
	PlayerID  string          `json:"playerId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Typed payloads for different event types

// PlayerChangePayload describes a single player's stats before and after an action
type PlayerChangePayload struct {
	PlayerID string `json:"playerId"`
	Amount   int    `json:"amount,omitempty"`
	Before   Player `json:"before"`
	After    Player `json:"after"`
	// Depleted is set when health or lives reached zero
	Depleted bool `json:"depleted,omitempty"`
}

// UndoPayload describes a reverted ledger entry
type UndoPayload struct {
	Action   ActionType `json:"action"`
	PlayerID string     `json:"playerId"`
	Restored Player     `json:"restored"`
}

// FinishPayload lists the winners of a finished game
type FinishPayload struct {
	Winners []string `json:"winners"`
}

// TimerPayload carries the countdown state
type TimerPayload struct {
	Seconds   int `json:"seconds,omitempty"`
	Remaining int `json:"remaining"`
}

// QuestionPayload names a question
type QuestionPayload struct {
	QuestionID string `json:"questionId"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, round Round, playerID string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		Round:     round,
		PlayerID:  playerID,
		Payload:   EncodePayload(payload),
	}
}
