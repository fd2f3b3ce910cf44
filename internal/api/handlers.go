package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"quiz-show/internal/game"
	"quiz-show/internal/storage"

	"github.com/go-chi/chi/v5"
)

// Handler methods for routerHandlers

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	snapshot := h.engine.Snapshot()
	writeJSON(w, map[string]interface{}{
		"state":    snapshot,
		"settings": h.engine.CurrentSettings(),
	})
}

func (h *routerHandlers) handleGetStandings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Snapshot().Standings)
}

func (h *routerHandlers) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	view, err := h.engine.PlayerView(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, view)
}

func (h *routerHandlers) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	player, err := h.engine.AddPlayer(req.Name)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(player)
}

func (h *routerHandlers) handleRemovePlayer(w http.ResponseWriter, r *http.Request) {
	out, err := h.engine.RemovePlayer(chi.URLParam(r, "id"))
	writeOutcome(w, out, err)
}

// amountRequest carries an optional amount; nil means "use the round setting"
type amountRequest struct {
	Amount *int `json:"amount"`
}

func (h *routerHandlers) handleAward(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}

	amount := h.engine.CurrentSettings().CorrectPoints
	if req.Amount != nil {
		amount = *req.Amount
	}
	out, err := h.engine.AwardPoints(chi.URLParam(r, "id"), amount)
	writeOutcome(w, out, err)
}

func (h *routerHandlers) handleDeductHealth(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}

	percent := h.engine.CurrentSettings().HealthPenalty
	if req.Amount != nil {
		percent = *req.Amount
	}
	out, err := h.engine.DeductHealth(chi.URLParam(r, "id"), percent)
	writeOutcome(w, out, err)
}

// handlePlayerAction adapts a single-player engine operation to a handler
func (h *routerHandlers) handlePlayerAction(op func(EngineInterface, string) (game.Outcome, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := op(h.engine, chi.URLParam(r, "id"))
		writeOutcome(w, out, err)
	}
}

// handleAdjust adapts a manual correction operation to a handler
func (h *routerHandlers) handleAdjust(op func(EngineInterface, string, int) (game.Outcome, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Delta *int `json:"delta"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Delta == nil {
			writeError(w, "delta is required", http.StatusBadRequest)
			return
		}
		out, err := op(h.engine, chi.URLParam(r, "id"), *req.Delta)
		writeOutcome(w, out, err)
	}
}

func (h *routerHandlers) handleClearActive(w http.ResponseWriter, r *http.Request) {
	out, err := h.engine.SetActivePlayer("")
	writeOutcome(w, out, err)
}

// handleGameAction adapts a parameterless engine operation to a handler
func (h *routerHandlers) handleGameAction(op func(EngineInterface) (game.Outcome, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := op(h.engine)
		writeOutcome(w, out, err)
	}
}

func (h *routerHandlers) handleFinish(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Winners []string `json:"winners"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.engine.FinishGame(req.Winners)
	writeOutcome(w, out, err)
}

func (h *routerHandlers) handleGetUndo(w http.ResponseWriter, r *http.Request) {
	entries := h.engine.History()
	writeJSON(w, map[string]interface{}{
		"hasUndo": len(entries) > 0,
		"entries": entries,
	})
}

func (h *routerHandlers) handleTimerStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seconds *int `json:"seconds"`
	}
	if !decodeOptionalBody(w, r, &req) {
		return
	}

	seconds := h.timerSeconds
	if req.Seconds != nil {
		seconds = *req.Seconds
	}
	out, err := h.engine.StartTimer(seconds)
	writeOutcome(w, out, err)
}

func (h *routerHandlers) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, map[string]interface{}{
		"questionId": id,
		"used":       h.engine.IsQuestionUsed(id),
	})
}

func (h *routerHandlers) handleMarkQuestion(w http.ResponseWriter, r *http.Request) {
	out, err := h.engine.MarkQuestionAsUsed(chi.URLParam(r, "id"))
	writeOutcome(w, out, err)
}

// =============================================================================
// SAVE SLOTS
// =============================================================================

func (h *routerHandlers) requireSaves(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.saves == nil {
			writeError(w, "save slots are disabled", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *routerHandlers) handleListSaves(w http.ResponseWriter, r *http.Request) {
	infos, err := h.saves.List(r.Context())
	if err != nil {
		log.Printf("❌ Listing saves failed: %v", err)
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, infos)
}

func (h *routerHandlers) handlePutSave(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := storage.ValidateName(name); err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	blob, err := h.engine.Export()
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	snapshot := h.engine.Snapshot()
	save := storage.Save{
		Name:    name,
		Round:   snapshot.Round.String(),
		Players: len(snapshot.Players),
		Blob:    blob,
	}
	if err := h.saves.Put(r.Context(), save); err != nil {
		log.Printf("❌ Saving %q failed: %v", name, err)
		writeError(w, err.Error(), statusFor(err))
		return
	}

	log.Printf("💾 Game saved to slot %q (%s)", name, save.Round)
	writeJSON(w, map[string]interface{}{
		"success": true,
		"name":    name,
		"round":   save.Round,
		"size":    len(blob),
	})
}

func (h *routerHandlers) handleLoadSave(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	save, err := h.saves.Get(r.Context(), name)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	if err := h.engine.Import(save.Blob); err != nil {
		log.Printf("❌ Loading %q failed: %v", name, err)
		writeError(w, err.Error(), statusFor(err))
		return
	}

	log.Printf("📂 Game loaded from slot %q", name)
	writeJSON(w, h.engine.Snapshot())
}

func (h *routerHandlers) handleDeleteSave(w http.ResponseWriter, r *http.Request) {
	if err := h.saves.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

// statusFor maps engine and storage errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrUnknownPlayer), errors.Is(err, storage.ErrSaveNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidTransition), errors.Is(err, game.ErrNoPlayers):
		return http.StatusConflict
	case errors.Is(err, game.ErrInvalidAmount),
		errors.Is(err, game.ErrInvalidInput),
		errors.Is(err, game.ErrNoWinners),
		errors.Is(err, game.ErrDuplicatePlayer),
		errors.Is(err, game.ErrInvalidSave),
		errors.Is(err, storage.ErrInvalidSaveName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

// decodeOptionalBody accepts an empty body as "all defaults"
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

func writeOutcome(w http.ResponseWriter, out game.Outcome, err error) {
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusFor(err))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":  err.Error(),
			"notice": out.Notice,
		})
		return
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  message,
		"notice": game.Notice{Level: game.NoticeError, Message: message},
	})
}
