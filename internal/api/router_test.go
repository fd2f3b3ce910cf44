package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quiz-show/internal/api"
	"quiz-show/internal/game"
	"quiz-show/internal/storage"
)

// ============================================================================
// Helpers
// ============================================================================

var testRateLimit = &api.RateLimitConfig{
	RequestsPerSecond: 1000, // High limit for tests
	Burst:             1000,
	CleanupInterval:   time.Hour,
}

func newTestServer(t *testing.T, saves api.SaveStore) (*httptest.Server, *game.Engine) {
	t.Helper()
	engine := game.NewEngine(game.EngineConfig{})
	router := api.NewRouter(api.RouterConfig{
		Engine:          engine,
		Saves:           saves,
		RateLimitConfig: testRateLimit,
		DisableLogging:  true,
	})
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, engine
}

func newSaveStore(t *testing.T) *storage.SaveRepository {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return storage.NewSaveRepository(db)
}

func do(t *testing.T, method, url, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func decode(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Failed to decode %s: %v", data, err)
	}
}

func addPlayer(t *testing.T, ts *httptest.Server, name string) game.Player {
	t.Helper()
	status, data := do(t, "POST", ts.URL+"/api/players", `{"name":"`+name+`"}`)
	if status != http.StatusCreated {
		t.Fatalf("add %s: expected 201, got %d (%s)", name, status, data)
	}
	var p game.Player
	decode(t, data, &p)
	return p
}

// ============================================================================
// Router Purity Tests
// ============================================================================

// TestNewRouterHasNoSideEffects verifies that NewRouter only builds handlers
func TestNewRouterHasNoSideEffects(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{
		Engine:          game.NewEngine(game.EngineConfig{}),
		RateLimitConfig: testRateLimit,
		DisableLogging:  true,
	})
	if router == nil {
		t.Fatal("Router should not be nil")
	}
}

// ============================================================================
// API Endpoint Tests
// ============================================================================

func TestAPIHealth(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	status, data := do(t, "GET", ts.URL+"/health", "")
	if status != http.StatusOK {
		t.Errorf("Expected 200, got %d", status)
	}
	var body map[string]string
	decode(t, data, &body)
	if body["status"] != "ok" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestAPIGetState(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	addPlayer(t, ts, "Alice")
	addPlayer(t, ts, "Bob")

	status, data := do(t, "GET", ts.URL+"/api/state", "")
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}

	var result struct {
		State    game.GameSnapshot `json:"state"`
		Settings struct {
			CorrectPoints int
			HealthPenalty int
		} `json:"settings"`
	}
	decode(t, data, &result)

	if len(result.State.Players) != 2 {
		t.Errorf("Expected 2 players, got %d", len(result.State.Players))
	}
	if result.State.Round != game.RoundSetup {
		t.Errorf("Expected SETUP, got %s", result.State.Round)
	}
	if result.Settings.CorrectPoints != 10 || result.Settings.HealthPenalty != 20 {
		t.Errorf("unexpected settings: %+v", result.Settings)
	}
}

func TestAPIAddPlayerValidation(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"name": "Alice"}`, http.StatusCreated},
		{"empty name", `{"name": ""}`, http.StatusBadRequest},
		{"missing name", `{}`, http.StatusBadRequest},
		{"invalid json", `{invalid}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data := do(t, "POST", ts.URL+"/api/players", tt.body)
			if status != tt.wantStatus {
				t.Errorf("Expected %d, got %d (%s)", tt.wantStatus, status, data)
			}
		})
	}
}

func TestAPIScoringUsesRoundDefaults(t *testing.T) {
	ts, engine := newTestServer(t, nil)
	alice := addPlayer(t, ts, "Alice")
	engine.StartGame()

	status, data := do(t, "POST", ts.URL+"/api/players/"+alice.ID+"/award", "")
	if status != http.StatusOK {
		t.Fatalf("award: expected 200, got %d (%s)", status, data)
	}
	var out game.Outcome
	decode(t, data, &out)
	if !out.Changed || out.Notice.Level != game.NoticeSuccess {
		t.Errorf("unexpected outcome: %+v", out)
	}

	do(t, "POST", ts.URL+"/api/players/"+alice.ID+"/award", `{"amount": 5}`)
	do(t, "POST", ts.URL+"/api/players/"+alice.ID+"/health/deduct", "")

	p, _ := engine.GetPlayer(alice.ID)
	if p.Points != 15 {
		t.Errorf("expected 10 default + 5 explicit points, got %d", p.Points)
	}
	if p.Health != 80 {
		t.Errorf("expected default 20%% penalty, got health %d", p.Health)
	}
}

func TestAPIAdjustRequiresDelta(t *testing.T) {
	ts, engine := newTestServer(t, nil)
	alice := addPlayer(t, ts, "Alice")
	engine.StartGame()

	status, _ := do(t, "POST", ts.URL+"/api/players/"+alice.ID+"/points/adjust", `{}`)
	if status != http.StatusBadRequest {
		t.Errorf("missing delta: expected 400, got %d", status)
	}

	status, _ = do(t, "POST", ts.URL+"/api/players/"+alice.ID+"/points/adjust", `{"delta": -5}`)
	if status != http.StatusOK {
		t.Errorf("adjust: expected 200, got %d", status)
	}
	if p, _ := engine.GetPlayer(alice.ID); p.Points != 0 {
		t.Errorf("points must floor at 0, got %d", p.Points)
	}
}

func TestAPIErrorStatus(t *testing.T) {
	ts, engine := newTestServer(t, nil)
	alice := addPlayer(t, ts, "Alice")

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"unknown player", "POST", "/api/players/ghost/award", `{"amount": 5}`, http.StatusNotFound},
		{"unknown player view", "GET", "/api/players/ghost", "", http.StatusNotFound},
		{"advance from setup", "POST", "/api/game/advance/round-two", "", http.StatusConflict},
		{"negative penalty", "POST", "/api/players/" + alice.ID + "/health/deduct", `{"amount": -1}`, http.StatusBadRequest},
		{"finish from setup", "POST", "/api/game/finish", `{"winners": []}`, http.StatusConflict},
		{"save slots disabled", "GET", "/api/saves", "", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data := do(t, tt.method, ts.URL+tt.path, tt.body)
			if status != tt.wantStatus {
				t.Fatalf("Expected %d, got %d (%s)", tt.wantStatus, status, data)
			}

			var body struct {
				Error  string      `json:"error"`
				Notice game.Notice `json:"notice"`
			}
			decode(t, data, &body)
			if body.Error == "" || body.Notice.Level != game.NoticeError {
				t.Errorf("error responses carry an error notice: %s", data)
			}
		})
	}

	if len(engine.History()) != 0 {
		t.Error("failed operations must not record history")
	}
}

func TestAPIGameFlow(t *testing.T) {
	ts, engine := newTestServer(t, nil)
	var ids []string
	for _, name := range []string{"A", "B", "C", "D", "E", "F"} {
		ids = append(ids, addPlayer(t, ts, name).ID)
	}

	post := func(path, body string) game.Outcome {
		t.Helper()
		status, data := do(t, "POST", ts.URL+path, body)
		if status != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d (%s)", path, status, data)
		}
		var out game.Outcome
		decode(t, data, &out)
		return out
	}

	post("/api/game/start", "")
	for i, id := range ids {
		post("/api/players/"+id+"/award", fmt.Sprintf(`{"amount": %d}`, 60-10*i))
	}

	out := post("/api/game/advance/round-two", "")
	if out.Round != game.RoundTwo || out.Advancement == nil || len(out.Advancement.Advancing) != 5 {
		t.Fatalf("unexpected advancement: %+v", out)
	}

	out = post("/api/game/advance/round-three", "")
	if out.Round != game.RoundThree || len(out.Advancement.Advancing) != 3 {
		t.Fatalf("unexpected advancement: %+v", out)
	}

	post("/api/players/"+ids[0]+"/eliminate", "")
	out = post("/api/players/"+ids[1]+"/eliminate", "")
	if out.RoundEnded {
		t.Fatal("round 3 must continue while a finalist is in play")
	}
	out = post("/api/players/"+ids[2]+"/eliminate", "")
	if out.Round != game.RoundFinished || len(out.Winners) != 1 || out.Winners[0] != ids[0] {
		t.Fatalf("top finalist by points should win: %+v", out)
	}

	status, data := do(t, "GET", ts.URL+"/api/standings", "")
	if status != http.StatusOK {
		t.Fatalf("standings: expected 200, got %d", status)
	}
	var standings []game.Standing
	decode(t, data, &standings)
	if len(standings) != 6 || standings[0].PlayerID != ids[0] {
		t.Errorf("unexpected standings: %+v", standings)
	}

	post("/api/game/reset", "")
	if engine.Round() != game.RoundSetup {
		t.Errorf("reset should return to SETUP, got %s", engine.Round())
	}
}

func TestAPIUndo(t *testing.T) {
	ts, engine := newTestServer(t, nil)
	alice := addPlayer(t, ts, "Alice")
	engine.StartGame()

	status, data := do(t, "POST", ts.URL+"/api/game/undo", "")
	if status != http.StatusOK {
		t.Fatalf("undo with empty ledger: expected 200, got %d", status)
	}
	var out game.Outcome
	decode(t, data, &out)
	if out.Changed || out.Notice.Level != game.NoticeInfo {
		t.Errorf("empty undo should be an info no-op: %+v", out)
	}

	do(t, "POST", ts.URL+"/api/players/"+alice.ID+"/award", `{"amount": 40}`)

	_, data = do(t, "GET", ts.URL+"/api/game/undo", "")
	var undo struct {
		HasUndo bool                `json:"hasUndo"`
		Entries []game.HistoryEntry `json:"entries"`
	}
	decode(t, data, &undo)
	if !undo.HasUndo || len(undo.Entries) != 1 || undo.Entries[0].PlayerID != alice.ID {
		t.Fatalf("unexpected ledger: %+v", undo)
	}

	do(t, "POST", ts.URL+"/api/game/undo", "")
	if p, _ := engine.GetPlayer(alice.ID); p.Points != 0 {
		t.Errorf("undo should restore 0 points, got %d", p.Points)
	}
}

func TestAPITimerAndQuestions(t *testing.T) {
	ts, engine := newTestServer(t, nil)

	status, _ := do(t, "POST", ts.URL+"/api/timer/start", "")
	if status != http.StatusOK {
		t.Fatalf("timer start: expected 200, got %d", status)
	}
	if ts := engine.TimerState(); !ts.Running || ts.Remaining != 30 {
		t.Errorf("expected default 30s countdown, got %+v", ts)
	}

	status, _ = do(t, "POST", ts.URL+"/api/timer/start", `{"seconds": 0}`)
	if status != http.StatusBadRequest {
		t.Errorf("zero seconds: expected 400, got %d", status)
	}

	do(t, "POST", ts.URL+"/api/timer/stop", "")
	if engine.TimerState().Running {
		t.Error("timer should be stopped")
	}

	do(t, "POST", ts.URL+"/api/questions/q42/used", "")
	_, data := do(t, "GET", ts.URL+"/api/questions/q42", "")
	var q struct {
		Used bool `json:"used"`
	}
	decode(t, data, &q)
	if !q.Used {
		t.Error("q42 should be marked used")
	}

	do(t, "DELETE", ts.URL+"/api/questions/used", "")
	if engine.IsQuestionUsed("q42") {
		t.Error("reset should clear used questions")
	}
}

func TestAPIActivePlayer(t *testing.T) {
	ts, engine := newTestServer(t, nil)
	alice := addPlayer(t, ts, "Alice")

	do(t, "POST", ts.URL+"/api/players/"+alice.ID+"/active", "")
	if snap := engine.Snapshot(); snap.ActivePlayerID != alice.ID {
		t.Errorf("expected Alice active, got %q", snap.ActivePlayerID)
	}

	do(t, "DELETE", ts.URL+"/api/active", "")
	if snap := engine.Snapshot(); snap.ActivePlayerID != "" {
		t.Errorf("expected no active player, got %q", snap.ActivePlayerID)
	}
}

func TestAPISaveSlots(t *testing.T) {
	store := newSaveStore(t)
	ts, engine := newTestServer(t, store)
	alice := addPlayer(t, ts, "Alice")
	engine.StartGame()
	engine.AwardPoints(alice.ID, 30)

	status, data := do(t, "PUT", ts.URL+"/api/saves/slot-1", "")
	if status != http.StatusOK {
		t.Fatalf("save: expected 200, got %d (%s)", status, data)
	}

	status, _ = do(t, "PUT", ts.URL+"/api/saves/"+strings.Repeat("x", storage.MaxSaveNameLength+1), "")
	if status != http.StatusBadRequest {
		t.Errorf("invalid name: expected 400, got %d", status)
	}

	_, data = do(t, "GET", ts.URL+"/api/saves", "")
	var infos []storage.SaveInfo
	decode(t, data, &infos)
	if len(infos) != 1 || infos[0].Name != "slot-1" || infos[0].Round != "ROUND_ONE" || infos[0].Players != 1 {
		t.Fatalf("unexpected listing: %+v", infos)
	}

	engine.ResetGame()
	engine.AddPlayer("Bob")

	status, data = do(t, "POST", ts.URL+"/api/saves/slot-1/load", "")
	if status != http.StatusOK {
		t.Fatalf("load: expected 200, got %d (%s)", status, data)
	}
	var snap game.GameSnapshot
	decode(t, data, &snap)
	if snap.Round != game.RoundOne || len(snap.Players) != 1 || snap.Players[0].Points != 30 {
		t.Errorf("unexpected restored state: %+v", snap)
	}

	status, _ = do(t, "POST", ts.URL+"/api/saves/missing/load", "")
	if status != http.StatusNotFound {
		t.Errorf("missing slot: expected 404, got %d", status)
	}

	status, _ = do(t, "DELETE", ts.URL+"/api/saves/slot-1", "")
	if status != http.StatusNoContent {
		t.Errorf("delete: expected 204, got %d", status)
	}
	status, _ = do(t, "DELETE", ts.URL+"/api/saves/slot-1", "")
	if status != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", status)
	}
}

func TestAPIRateLimit(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{
		Engine: game.NewEngine(game.EngineConfig{}),
		RateLimitConfig: &api.RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             2,
			CleanupInterval:   time.Hour,
		},
		DisableLogging: true,
	})

	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/state", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected burst of 2 then 429, got %v", codes)
	}
}

func TestAPICORS(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:5173", true},
		{"http://127.0.0.1:3000", true},
		{"https://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req, _ := http.NewRequest("GET", ts.URL+"/api/state", nil)
			req.Header.Set("Origin", tt.origin)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			resp.Body.Close()

			got := resp.Header.Get("Access-Control-Allow-Origin") == tt.origin
			if got != tt.allowed {
				t.Errorf("origin %s: allowed=%v, want %v", tt.origin, got, tt.allowed)
			}
		})
	}
}
