package game

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestStandingsRanking(t *testing.T) {
	players := []Player{
		{ID: "c", Name: "Carol", Points: 20},
		{ID: "a", Name: "Alice", Points: 50},
		{ID: "b", Name: "Bob", Points: 20, IsEliminated: true},
	}

	got := Standings(players)
	want := []Standing{
		{Rank: 1, PlayerID: "a", Name: "Alice", Points: 50},
		{Rank: 2, PlayerID: "b", Name: "Bob", Points: 20, IsEliminated: true},
		{Rank: 3, PlayerID: "c", Name: "Carol", Points: 20},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected standings:\n got  %+v\n want %+v", got, want)
	}
	if players[0].ID != "c" {
		t.Error("Standings must not reorder its input")
	}
}

func TestSnapshotAndPlayerView(t *testing.T) {
	engine, players := newTestEngine(t, "Alice", "Bob")
	engine.StartGame()
	engine.AwardPoints(players[1].ID, 40)
	engine.SetActivePlayer(players[1].ID)
	engine.StartTimer(15)
	engine.MarkQuestionAsUsed("q1")

	snap := engine.Snapshot()
	if snap.Round != RoundOne || snap.ActivePlayerID != players[1].ID {
		t.Errorf("unexpected snapshot header: %+v", snap)
	}
	if snap.Timer != (TimerState{Running: true, Remaining: 15}) {
		t.Errorf("unexpected timer: %+v", snap.Timer)
	}
	if snap.UndoDepth != 1 || snap.UsedQuestions != 1 {
		t.Errorf("expected undo depth 1 and 1 question, got %d and %d", snap.UndoDepth, snap.UsedQuestions)
	}
	if snap.Standings[0].PlayerID != players[1].ID {
		t.Errorf("Bob should lead the standings")
	}

	view, err := engine.PlayerView(players[0].ID)
	if err != nil {
		t.Fatalf("PlayerView: %v", err)
	}
	if view.Rank != 2 || view.IsWinner || view.Round != RoundOne {
		t.Errorf("unexpected view: %+v", view)
	}

	engine.FinishGame([]string{players[1].ID})
	view, _ = engine.PlayerView(players[1].ID)
	if !view.IsWinner {
		t.Error("Bob should be reported as a winner")
	}

	if _, err := engine.PlayerView("ghost"); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("expected ErrUnknownPlayer, got %v", err)
	}
}

func TestSnapshotJSONUsesRoundNames(t *testing.T) {
	engine, _ := newTestEngine(t, "Alice")
	engine.StartGame()

	data, err := json.Marshal(engine.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"round":"ROUND_ONE"`) {
		t.Errorf("round should encode by name: %s", data)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	engine, players := playToRoundThree(t)
	engine.DeductLife(players[2].ID)
	engine.SetActivePlayer(players[0].ID)
	engine.MarkQuestionAsUsed("q7")
	engine.MarkQuestionAsUsed("q3")
	engine.StartTimer(20)

	blob, err := engine.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	before := engine.Snapshot()

	restored := NewEngine(EngineConfig{})
	if err := restored.Import(blob); err != nil {
		t.Fatalf("Import: %v", err)
	}
	after := restored.Snapshot()

	if !reflect.DeepEqual(after.Players, before.Players) {
		t.Errorf("players differ:\n got  %+v\n want %+v", after.Players, before.Players)
	}
	if after.Round != before.Round || after.ActivePlayerID != before.ActivePlayerID {
		t.Errorf("round or active player differ: %+v", after)
	}
	if !restored.IsQuestionUsed("q7") || !restored.IsQuestionUsed("q3") {
		t.Error("used questions lost")
	}
	if after.UndoDepth != 0 || after.Timer.Running {
		t.Error("import should start with an empty ledger and idle timer")
	}

	again, err := restored.Export()
	if err != nil {
		t.Fatalf("second Export: %v", err)
	}
	var a, b SaveState
	json.Unmarshal(blob, &a)
	json.Unmarshal(again, &b)
	a.SavedAt = b.SavedAt
	if !reflect.DeepEqual(a, b) {
		t.Errorf("round trip is lossy:\n first  %+v\n second %+v", a, b)
	}
}

func TestImportKeepsFinalistsOnly(t *testing.T) {
	engine, players := newTestEngine(t, "A", "B", "C", "D", "E", "F")
	engine.StartGame()
	for i, p := range players {
		engine.AwardPoints(p.ID, 60-10*i)
	}
	engine.AdvanceToRoundTwo() // F is out
	engine.AdvanceToRoundThree()

	blob, _ := engine.Export()
	restored := NewEngine(EngineConfig{})
	if err := restored.Import(blob); err != nil {
		t.Fatalf("Import: %v", err)
	}

	// D was never a finalist and must not win on points
	restored.AwardPoints(players[3].ID, 1000)
	for _, p := range players[:3] {
		restored.EliminatePlayer(p.ID)
	}
	if w := restored.Winners(); len(w) != 1 || w[0] != players[0].ID {
		t.Errorf("expected A to win among finalists, got %v", w)
	}
}

func TestImportRejectsInvalidBlobs(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"not json", `{`},
		{"wrong version", `{"version":9,"round":"SETUP","players":[]}`},
		{"bad round", `{"version":1,"round":"ROUND_NINE","players":[]}`},
		{"duplicate ids", `{"version":1,"round":"SETUP","players":[{"id":"a"},{"id":"a"}]}`},
		{"empty id", `{"version":1,"round":"SETUP","players":[{"id":""}]}`},
		{"health out of range", `{"version":1,"round":"SETUP","players":[{"id":"a","health":101}]}`},
		{"unknown winner", `{"version":1,"round":"FINISHED","players":[{"id":"a"}],"winners":["b"]}`},
		{"unknown contender", `{"version":1,"round":"ROUND_TWO","players":[{"id":"a"}],"contenders":["b"]}`},
		{"two active", `{"version":1,"round":"SETUP","players":[{"id":"a","isActive":true},{"id":"b","isActive":true}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(t, "Keep")
			engine.AwardPoints(engine.Players()[0].ID, 5)

			err := engine.Import([]byte(tt.blob))
			if !errors.Is(err, ErrInvalidSave) {
				t.Fatalf("expected ErrInvalidSave, got %v", err)
			}
			if p := engine.Players(); len(p) != 1 || p[0].Name != "Keep" {
				t.Error("failed import changed the roster")
			}
			if !engine.HasUndoHistory() {
				t.Error("failed import cleared the ledger")
			}
		})
	}
}
