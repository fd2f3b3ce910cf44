package game

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestEventLogWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	engine, _ := newTestEngine(t)
	if err := engine.StartEventLog(path); err != nil {
		t.Fatalf("StartEventLog: %v", err)
	}

	alice, _ := engine.AddPlayer("Alice")
	engine.StartGame()
	engine.AwardPoints(alice.ID, 10)
	engine.StopEventLog()
	// Idempotent
	engine.StopEventLog()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	var types []string
	var lastSeq float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		types = append(types, line["type"].(string))
		seq := line["sequence"].(float64)
		if seq <= lastSeq {
			t.Errorf("sequence not increasing: %v after %v", seq, lastSeq)
		}
		lastSeq = seq
	}

	want := []string{"player_added", "game_started", "points_awarded"}
	if len(types) != len(want) {
		t.Fatalf("expected %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("line %d: expected %s, got %s", i, want[i], types[i])
		}
	}

	stats := engine.GetEventLogStats()
	if stats["total"].(uint64) != 3 || stats["running"].(bool) {
		t.Errorf("unexpected stats: %v", stats)
	}
}

func TestEventLogEmitWhenStopped(t *testing.T) {
	el := NewEventLog()
	if el.Emit(NewEvent(EventTypeGameReset, RoundSetup, "", nil)) {
		t.Error("Emit should fail before Start")
	}
	if el.GetTotalCount() != 0 {
		t.Error("nothing should be counted")
	}
}

func TestEventLogRateLimit(t *testing.T) {
	el := NewEventLog()
	if err := el.Start(filepath.Join(t.TempDir(), "burst.jsonl")); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer el.Stop()

	for i := 0; i < MaxEventsPerSec*2; i++ {
		el.Emit(NewEvent(EventTypeTimerTick, RoundOne, "", TimerPayload{Remaining: i}))
	}

	if el.GetDroppedCount() == 0 {
		t.Error("a burst far above the limit should drop events")
	}
	if el.GetTotalCount()+el.GetDroppedCount() != MaxEventsPerSec*2 {
		t.Errorf("every event is either accepted or dropped: total=%d dropped=%d",
			el.GetTotalCount(), el.GetDroppedCount())
	}
}

func TestEventTypeNames(t *testing.T) {
	tests := []struct {
		t    EventType
		name string
	}{
		{EventTypePointsAwarded, "points_awarded"},
		{EventTypeRoundAdvanced, "round_advanced"},
		{EventTypeTimerTimeout, "timer_timeout"},
		{EventTypeUnknown, "unknown"},
		{EventType(250), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.t.String(); got != tt.name {
				t.Errorf("expected %s, got %s", tt.name, got)
			}
		})
	}
}

func TestNewEventEncodesPayload(t *testing.T) {
	ev := NewEvent(EventTypeQuestionUsed, RoundTwo, "", QuestionPayload{QuestionID: "q1"})

	var payload QuestionPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.QuestionID != "q1" || ev.Version != EventVersion || ev.Timestamp == 0 {
		t.Errorf("unexpected event: %+v", ev)
	}
	if NewEvent(EventTypeGameReset, RoundSetup, "", nil).Payload != nil {
		t.Error("nil payload should stay empty")
	}
}

func TestEventTypeUnmarshalText(t *testing.T) {
	var ev Event
	if err := json.Unmarshal([]byte(`{"type":"game_finished","round":"FINISHED"}`), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Type != EventTypeGameFinished || ev.Round != RoundFinished {
		t.Errorf("unexpected event: %+v", ev)
	}

	var unknown EventType
	if err := unknown.UnmarshalText([]byte("from_the_future")); err != nil || unknown != EventTypeUnknown {
		t.Errorf("unknown names decode to EventTypeUnknown, got %v (%v)", unknown, err)
	}
}
