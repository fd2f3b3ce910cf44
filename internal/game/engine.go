package game

import (
	"fmt"
	"log"
	"sync"
	"time"

	"quiz-show/internal/config"
)

// EngineConfig configures a new engine
type EngineConfig struct {
	Rules        config.RulesConfig
	TickInterval time.Duration // Timer scheduler period used by Start
}

// Engine owns the whole game: roster, undo ledger, round marker, timer and
// used questions. Every operation runs under one mutex so a read-modify-write
// on the roster can never interleave with another one. Events produced while
// the lock is held are delivered to subscribers after it is released.
type Engine struct {
	mu sync.Mutex

	rules     config.RulesConfig
	registry  *Registry
	history   *History
	questions *QuestionSet
	timer     Countdown

	round      Round
	winners    []string
	contenders map[string]bool // players allowed to play the current round; nil in SETUP
	activeID   string
	sequence   uint64

	// Events waiting for delivery once the lock is released
	pending []Event

	subMu       sync.RWMutex
	subscribers map[int]func(Event)
	nextSubID   int

	// Audit log
	eventLog *EventLog

	// Timer scheduler
	tickInterval time.Duration
	running      bool
	ticker       *time.Ticker
	stopChan     chan struct{}
}

// NewEngine creates an engine in SETUP with an empty roster.
// Zero-valued rule fields fall back to config.DefaultRules.
func NewEngine(cfg EngineConfig) *Engine {
	rules := normalizeRules(cfg.Rules)
	interval := cfg.TickInterval
	if interval <= 0 {
		interval = time.Second
	}

	return &Engine{
		rules:        rules,
		registry:     NewRegistry(),
		history:      NewHistory(rules.HistoryLimit),
		questions:    NewQuestionSet(),
		round:        RoundSetup,
		subscribers:  make(map[int]func(Event)),
		eventLog:     NewEventLog(),
		tickInterval: interval,
		stopChan:     make(chan struct{}),
	}
}

func normalizeRules(r config.RulesConfig) config.RulesConfig {
	def := config.DefaultRules()
	if r.RoundOne == (config.RoundSettings{}) {
		r.RoundOne = def.RoundOne
	}
	if r.RoundTwo == (config.RoundSettings{}) {
		r.RoundTwo = def.RoundTwo
	}
	if r.RoundThree == (config.RoundSettings{}) {
		r.RoundThree = def.RoundThree
	}
	if r.StartingHealth <= 0 || r.StartingHealth > MaxHealth {
		r.StartingHealth = def.StartingHealth
	}
	if r.StartingLives <= 0 {
		r.StartingLives = def.StartingLives
	}
	if r.RoundTwoSlots <= 0 {
		r.RoundTwoSlots = def.RoundTwoSlots
	}
	if r.RoundThreeSlots <= 0 {
		r.RoundThreeSlots = def.RoundThreeSlots
	}
	if r.HistoryLimit <= 0 {
		r.HistoryLimit = def.HistoryLimit
	}
	if r.LuckyLoserThreshold < 0 {
		r.LuckyLoserThreshold = 0
	}
	return r
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Start begins the timer scheduler: one Tick per TickInterval
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.ticker = time.NewTicker(e.tickInterval)
	ticker := e.ticker
	e.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				e.Tick()
			case <-e.stopChan:
				return
			}
		}
	}()

	log.Printf("⏱️ Timer scheduler started (%v per tick)", e.tickInterval)
}

// Stop stops the timer scheduler
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	log.Println("🛑 Timer scheduler stopped")
}

// StartEventLog starts writing events to a JSONL file
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// StopEventLog flushes and closes the audit log
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// GetEventLogStats returns audit log statistics
func (e *Engine) GetEventLogStats() map[string]interface{} {
	return e.eventLog.GetStats()
}

// Rules returns the rule set the engine was built with
func (e *Engine) Rules() config.RulesConfig {
	return e.rules
}

// =============================================================================
// EVENTS
// =============================================================================

// Subscribe registers fn for every event. Events arrive in sequence order,
// after the operation that produced them has released the engine lock, so fn
// may call back into the engine. The returned func unsubscribes.
func (e *Engine) Subscribe(fn func(Event)) func() {
	e.subMu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = fn
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		delete(e.subscribers, id)
		e.subMu.Unlock()
	}
}

// emit queues an event. Must hold e.mu.
func (e *Engine) emit(eventType EventType, playerID string, payload interface{}) {
	e.sequence++
	ev := NewEvent(eventType, e.round, playerID, payload)
	ev.Sequence = e.sequence
	e.pending = append(e.pending, ev)
	e.eventLog.Emit(ev)
}

func (e *Engine) publish(events []Event) {
	if len(events) == 0 {
		return
	}

	e.subMu.RLock()
	subs := make([]func(Event), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		subs = append(subs, fn)
	}
	e.subMu.RUnlock()

	for _, ev := range events {
		for _, fn := range subs {
			fn(ev)
		}
	}
}

// run executes fn under the engine lock and then delivers its events
func (e *Engine) run(fn func()) {
	e.mu.Lock()
	fn()
	events := e.pending
	e.pending = nil
	e.mu.Unlock()

	e.publish(events)
}

// do runs a state-changing operation and fills in the resulting round and roster
func (e *Engine) do(fn func() (Outcome, error)) (Outcome, error) {
	var (
		out Outcome
		err error
	)
	e.run(func() {
		out, err = fn()
		out.Round = e.round
		out.Players = e.registry.All()
	})
	return out, err
}

// =============================================================================
// ROSTER
// =============================================================================

// AddPlayer registers a new contestant. Players can join during SETUP and
// ROUND_ONE only.
func (e *Engine) AddPlayer(name string) (Player, error) {
	var player Player
	_, err := e.do(func() (Outcome, error) {
		if name == "" {
			return failure(fmt.Errorf("%w: name is required", ErrInvalidInput))
		}
		if e.round != RoundSetup && e.round != RoundOne {
			return failure(fmt.Errorf("%w: cannot add players during %s", ErrInvalidTransition, e.round))
		}

		player = NewPlayer(name, e.rules.StartingHealth, e.rules.StartingLives)
		if err := e.registry.Add(player); err != nil {
			return failure(err)
		}
		if e.round == RoundOne {
			e.contenders[player.ID] = true
		}
		e.emit(EventTypePlayerAdded, player.ID, player)
		log.Printf("👤 Player joined: %s", name)
		return changed(NoticeSuccess, fmt.Sprintf("%s joined the game", name)), nil
	})
	return player, err
}

// RemovePlayer deletes a contestant from the roster
func (e *Engine) RemovePlayer(id string) (Outcome, error) {
	return e.do(func() (Outcome, error) {
		p, ok := e.registry.Get(id)
		if !ok {
			return e.unknownPlayer(id)
		}
		e.registry.Remove(id)
		delete(e.contenders, id)
		if e.activeID == id {
			e.activeID = ""
		}
		e.emit(EventTypePlayerRemoved, id, p)
		log.Printf("👋 Player removed: %s", p.Name)
		return changed(NoticeInfo, fmt.Sprintf("%s was removed", p.Name)), nil
	})
}

// GetPlayer returns a copy of a player
func (e *Engine) GetPlayer(id string) (Player, bool) {
	return e.registry.Get(id)
}

// Players returns a copy of the roster
func (e *Engine) Players() []Player {
	return e.registry.All()
}

func (e *Engine) unknownPlayer(id string) (Outcome, error) {
	return failure(fmt.Errorf("%w: %q", ErrUnknownPlayer, id))
}

// =============================================================================
// SCORING
// =============================================================================

// AwardPoints adds points to a player. Zero is legal and still recorded.
func (e *Engine) AwardPoints(id string, amount int) (Outcome, error) {
	return e.do(func() (Outcome, error) {
		before, ok := e.registry.Get(id)
		if !ok {
			return e.unknownPlayer(id)
		}

		e.history.Record(ActionAward, id, e.registry)
		after := AwardPoints(before, amount)
		e.registry.Update(id, SnapshotOf(after))

		e.emit(EventTypePointsAwarded, id, PlayerChangePayload{PlayerID: id, Amount: amount, Before: before, After: after})
		return changed(NoticeSuccess, fmt.Sprintf("%s +%d points", before.Name, amount)), nil
	})
}

// DeductHealth removes health from a player. In ROUND_ONE a player whose
// health reaches zero is eliminated.
func (e *Engine) DeductHealth(id string, percent int) (Outcome, error) {
	return e.do(func() (Outcome, error) {
		if percent < 0 {
			return failure(fmt.Errorf("%w: health deduction must not be negative", ErrInvalidAmount))
		}
		before, ok := e.registry.Get(id)
		if !ok {
			return e.unknownPlayer(id)
		}

		e.history.Record(ActionDeduct, id, e.registry)
		after, depleted := DeductHealth(before, percent)
		eliminated := depleted && e.round == RoundOne && !before.IsEliminated
		if eliminated {
			after.IsEliminated = true
		}
		e.registry.Update(id, SnapshotOf(after))

		e.emit(EventTypeHealthDeducted, id, PlayerChangePayload{PlayerID: id, Amount: percent, Before: before, After: after, Depleted: depleted})
		if eliminated {
			e.emit(EventTypePlayerEliminated, id, after)
			return changed(NoticeWarning, fmt.Sprintf("%s ran out of health and is eliminated", before.Name)), nil
		}
		return changed(NoticeSuccess, fmt.Sprintf("%s -%d%% health", before.Name, percent)), nil
	})
}

// DeductLife removes one life. In ROUND_TWO and ROUND_THREE a player with no
// lives left is eliminated; in ROUND_THREE the end-of-round check follows.
func (e *Engine) DeductLife(id string) (Outcome, error) {
	return e.do(func() (Outcome, error) {
		before, ok := e.registry.Get(id)
		if !ok {
			return e.unknownPlayer(id)
		}

		e.history.Record(ActionDeduct, id, e.registry)
		after, depleted := DeductLife(before)
		eliminated := depleted && (e.round == RoundTwo || e.round == RoundThree) && !before.IsEliminated
		if eliminated {
			after.IsEliminated = true
		}
		e.registry.Update(id, SnapshotOf(after))

		e.emit(EventTypeLifeDeducted, id, PlayerChangePayload{PlayerID: id, Amount: 1, Before: before, After: after, Depleted: depleted})
		out := changed(NoticeSuccess, fmt.Sprintf("%s lost a life (%d left)", before.Name, after.Lives))
		if eliminated {
			e.emit(EventTypePlayerEliminated, id, after)
			out.Notice = Notice{Level: NoticeWarning, Message: fmt.Sprintf("%s has no lives left and is eliminated", before.Name)}
		}
		e.afterRoundThreeLoss(&out)
		return out, nil
	})
}

// EliminatePlayer marks a player eliminated. Lucky Loser recovery can still
// bring them back.
func (e *Engine) EliminatePlayer(id string) (Outcome, error) {
	return e.do(func() (Outcome, error) {
		before, ok := e.registry.Get(id)
		if !ok {
			return e.unknownPlayer(id)
		}

		e.history.Record(ActionEliminate, id, e.registry)
		after := before
		after.IsEliminated = true
		e.registry.Update(id, SnapshotOf(after))

		e.emit(EventTypePlayerEliminated, id, after)
		out := changed(NoticeWarning, fmt.Sprintf("%s was eliminated", before.Name))
		e.afterRoundThreeLoss(&out)
		return out, nil
	})
}

// ForceEliminatePlayer removes a player permanently. It is not recorded in
// the undo ledger because the forced flag is not a reversible field.
func (e *Engine) ForceEliminatePlayer(id string) (Outcome, error) {
	return e.do(func() (Outcome, error) {
		before, ok := e.registry.Get(id)
		if !ok {
			return e.unknownPlayer(id)
		}
		if before.ForcedEliminated {
			return noop(fmt.Sprintf("%s is already out of the game", before.Name)), nil
		}

		players := e.registry.All()
		for i := range players {
			if players[i].ID == id {
				players[i].IsEliminated = true
				players[i].ForcedEliminated = true
				players[i].IsActive = false
			}
		}
		if err := e.registry.ReplaceAll(players); err != nil {
			return failure(err)
		}
		if e.activeID == id {
			e.activeID = ""
		}

		after, _ := e.registry.Get(id)
		e.emit(EventTypePlayerForceEliminated, id, after)
		out := changed(NoticeWarning, fmt.Sprintf("%s was removed from the game", before.Name))
		e.afterRoundThreeLoss(&out)
		return out, nil
	})
}

// AddManualPoints applies a free-form host correction, never below zero
func (e *Engine) AddManualPoints(id string, delta int) (Outcome, error) {
	return e.do(func() (Outcome, error) {
		before, ok := e.registry.Get(id)
		if !ok {
			return e.unknownPlayer(id)
		}

		e.history.Record(actionForDelta(delta), id, e.registry)
		after := AdjustPoints(before, delta)
		e.registry.Update(id, SnapshotOf(after))

		e.emit(EventTypePointsAdjusted, id, PlayerChangePayload{PlayerID: id, Amount: delta, Before: before, After: after})
		return changed(NoticeSuccess, fmt.Sprintf("%s points set to %d", before.Name, after.Points)), nil
	})
}

// AdjustHealthManually applies a free-form host correction clamped to [0, 100].
// It never eliminates or revives anyone.
func (e *Engine) AdjustHealthManually(id string, delta int) (Outcome, error) {
	return e.do(func() (Outcome, error) {
		before, ok := e.registry.Get(id)
		if !ok {
			return e.unknownPlayer(id)
		}

		e.history.Record(actionForDelta(delta), id, e.registry)
		after := AdjustHealth(before, delta)
		e.registry.Update(id, SnapshotOf(after))

		e.emit(EventTypeHealthAdjusted, id, PlayerChangePayload{PlayerID: id, Amount: delta, Before: before, After: after})
		return changed(NoticeSuccess, fmt.Sprintf("%s health set to %d%%", before.Name, after.Health)), nil
	})
}

func actionForDelta(delta int) ActionType {
	if delta < 0 {
		return ActionDeduct
	}
	return ActionAward
}

// =============================================================================
// UNDO
// =============================================================================

// UndoLastAction reverts the most recent reversible action. An empty ledger
// is reported as an informational no-op.
func (e *Engine) UndoLastAction() (Outcome, error) {
	return e.do(func() (Outcome, error) {
		entry, ok := e.history.Undo(e.registry)
		if !ok {
			return noop("Nothing to undo"), nil
		}

		restored, _ := e.registry.Get(entry.PlayerID)
		e.emit(EventTypeActionUndone, entry.PlayerID, UndoPayload{Action: entry.Type, PlayerID: entry.PlayerID, Restored: restored})
		return changed(NoticeInfo, fmt.Sprintf("Undid %s for %s", entry.Type, restored.Name)), nil
	})
}

// HasUndoHistory reports whether UndoLastAction would do anything
func (e *Engine) HasUndoHistory() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Len() > 0
}

// History returns the undo ledger, newest first
func (e *Engine) History() []HistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Entries()
}

// =============================================================================
// ROUND TRANSITIONS
// =============================================================================

// StartGame moves SETUP to ROUND_ONE with every rostered player as a contender
func (e *Engine) StartGame() (Outcome, error) {
	return e.do(func() (Outcome, error) {
		if e.round != RoundSetup {
			return failure(fmt.Errorf("%w: game already started (%s)", ErrInvalidTransition, e.round))
		}
		players := e.registry.All()
		if len(players) == 0 {
			return failure(ErrNoPlayers)
		}

		e.contenders = make(map[string]bool, len(players))
		for _, p := range players {
			e.contenders[p.ID] = true
		}
		e.round = RoundOne
		e.emit(EventTypeGameStarted, "", nil)
		log.Printf("🎬 Game started with %d players", len(players))
		return changed(NoticeSuccess, "Round 1 started"), nil
	})
}

// AdvanceToRoundTwo selects the Round 2 field (top qualifiers plus Lucky
// Losers) and flips the round marker.
func (e *Engine) AdvanceToRoundTwo() (Outcome, error) {
	return e.do(func() (Outcome, error) {
		if e.round != RoundOne {
			return failure(fmt.Errorf("%w: cannot advance to %s from %s", ErrInvalidTransition, RoundTwo, e.round))
		}

		adv := SelectRoundTwo(e.registry.All(), e.rules.RoundTwoSlots, e.rules.LuckyLoserThreshold)
		if len(adv.Advancing) == 0 {
			return noop("No players are eligible for Round 2"), nil
		}
		if err := e.advance(adv); err != nil {
			return failure(err)
		}

		out := changed(NoticeSuccess, fmt.Sprintf("Round 2: %d players advance", len(adv.Advancing)))
		out.Advancement = &adv
		return out, nil
	})
}

// AdvanceToRoundThree selects the finalists and flips the round marker
func (e *Engine) AdvanceToRoundThree() (Outcome, error) {
	return e.do(func() (Outcome, error) {
		if e.round != RoundTwo {
			return failure(fmt.Errorf("%w: cannot advance to %s from %s", ErrInvalidTransition, RoundThree, e.round))
		}

		adv := SelectRoundThree(e.registry.All(), e.contenders, e.rules.RoundThreeSlots)
		if len(adv.Advancing) == 0 {
			return noop("No players are eligible for Round 3"), nil
		}
		if err := e.advance(adv); err != nil {
			return failure(err)
		}

		out := changed(NoticeSuccess, fmt.Sprintf("Round 3: %d finalists", len(adv.Advancing)))
		out.Advancement = &adv
		return out, nil
	})
}

// advance applies a computed transition. Must hold e.mu.
func (e *Engine) advance(adv Advancement) error {
	next := ApplyAdvancement(e.registry.All(), adv, e.rules.StartingHealth, e.rules.StartingLives)
	if err := e.registry.ReplaceAll(next); err != nil {
		return err
	}

	e.contenders = make(map[string]bool, len(adv.Advancing))
	for _, id := range adv.Advancing {
		e.contenders[id] = true
	}
	e.questions.Reset()
	e.timer.Stop()
	e.activeID = ""
	e.round = adv.To

	e.emit(EventTypeRoundAdvanced, "", adv)
	log.Printf("🏁 %s → %s: %d advancing, %d lucky losers", adv.From, adv.To, len(adv.Advancing), len(adv.Backfilled))
	return nil
}

// CheckRoundThreeEnd finishes the game once no finalist can still play.
// Outside ROUND_THREE it does nothing.
func (e *Engine) CheckRoundThreeEnd() (Outcome, error) {
	return e.do(func() (Outcome, error) {
		if e.round != RoundThree {
			return noop(fmt.Sprintf("Round 3 is not in progress (%s)", e.round)), nil
		}
		out := noop("Round 3 continues")
		e.checkRoundThreeEnd(&out)
		return out, nil
	})
}

// afterRoundThreeLoss runs the end check after a finalist lost ground
func (e *Engine) afterRoundThreeLoss(out *Outcome) {
	if e.round == RoundThree {
		e.checkRoundThreeEnd(out)
	}
}

// checkRoundThreeEnd must hold e.mu and only be called in ROUND_THREE
func (e *Engine) checkRoundThreeEnd(out *Outcome) bool {
	players := e.registry.All()
	if anyInPlay(players, e.contenders) {
		return false
	}

	winners := []string{}
	if id, ok := PickWinner(players, e.contenders); ok {
		winners = append(winners, id)
	}
	e.finish(winners)

	out.Changed = true
	out.RoundEnded = true
	out.Winners = append([]string(nil), winners...)
	if len(winners) == 0 {
		out.Notice = Notice{Level: NoticeWarning, Message: "Round 3 is over with no eligible winner"}
	} else {
		w, _ := e.registry.Get(winners[0])
		out.Notice = Notice{Level: NoticeSuccess, Message: fmt.Sprintf("Round 3 is over: %s wins", w.Name)}
	}
	return true
}

// FinishGame records the winners and moves to FINISHED
func (e *Engine) FinishGame(winnerIDs []string) (Outcome, error) {
	return e.do(func() (Outcome, error) {
		if e.round == RoundSetup || e.round == RoundFinished {
			return failure(fmt.Errorf("%w: cannot finish from %s", ErrInvalidTransition, e.round))
		}

		seen := make(map[string]bool, len(winnerIDs))
		winners := make([]string, 0, len(winnerIDs))
		for _, id := range winnerIDs {
			if seen[id] {
				continue
			}
			if _, ok := e.registry.Get(id); !ok {
				return e.unknownPlayer(id)
			}
			seen[id] = true
			winners = append(winners, id)
		}
		if len(winners) == 0 {
			return failure(ErrNoWinners)
		}

		e.finish(winners)
		out := changed(NoticeSuccess, fmt.Sprintf("Game finished with %d winner(s)", len(winners)))
		out.Winners = append([]string(nil), winners...)
		return out, nil
	})
}

// finish enters the terminal round. Must hold e.mu.
func (e *Engine) finish(winners []string) {
	e.timer.Stop()
	e.winners = winners
	e.round = RoundFinished
	e.setActive("")

	e.emit(EventTypeGameFinished, "", FinishPayload{Winners: winners})
	log.Printf("🏆 Game finished, winners: %v", winners)
}

// ResetGame returns to SETUP with the roster kept and every stat fresh
func (e *Engine) ResetGame() (Outcome, error) {
	return e.do(func() (Outcome, error) {
		players := e.registry.All()
		for i := range players {
			players[i].Points = 0
			players[i].Health = e.rules.StartingHealth
			players[i].Lives = e.rules.StartingLives
			players[i].IsActive = false
			players[i].IsEliminated = false
			players[i].ForcedEliminated = false
		}
		if err := e.registry.ReplaceAll(players); err != nil {
			return failure(err)
		}

		e.history.Clear()
		e.questions.Reset()
		e.timer.Stop()
		e.winners = nil
		e.contenders = nil
		e.activeID = ""
		e.round = RoundSetup

		e.emit(EventTypeGameReset, "", nil)
		log.Println("🔄 Game reset")
		return changed(NoticeInfo, "Game reset"), nil
	})
}

// Round returns the current round marker
func (e *Engine) Round() Round {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.round
}

// Winners returns the recorded winners (empty until FINISHED)
func (e *Engine) Winners() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.winners...)
}

// CurrentSettings returns the scoring values of the current round.
// SETUP uses Round 1 values and FINISHED uses Round 3 values.
func (e *Engine) CurrentSettings() config.RoundSettings {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.round {
	case RoundTwo:
		return e.rules.RoundTwo
	case RoundThree, RoundFinished:
		return e.rules.RoundThree
	default:
		return e.rules.RoundOne
	}
}

// =============================================================================
// ACTIVE PLAYER & TIMER
// =============================================================================

// SetActivePlayer marks the player currently answering. An empty id clears it.
func (e *Engine) SetActivePlayer(id string) (Outcome, error) {
	return e.do(func() (Outcome, error) {
		if id != "" {
			if _, ok := e.registry.Get(id); !ok {
				return e.unknownPlayer(id)
			}
		}
		if err := e.setActive(id); err != nil {
			return failure(err)
		}
		e.emit(EventTypeActivePlayerChanged, id, nil)
		if id == "" {
			return changed(NoticeInfo, "No active player"), nil
		}
		p, _ := e.registry.Get(id)
		return changed(NoticeInfo, fmt.Sprintf("%s is up", p.Name)), nil
	})
}

// setActive must hold e.mu
func (e *Engine) setActive(id string) error {
	players := e.registry.All()
	for i := range players {
		players[i].IsActive = players[i].ID == id
	}
	if err := e.registry.ReplaceAll(players); err != nil {
		return err
	}
	e.activeID = id
	return nil
}

// StartTimer starts the countdown, replacing any running one
func (e *Engine) StartTimer(seconds int) (Outcome, error) {
	return e.do(func() (Outcome, error) {
		if err := e.timer.Start(seconds); err != nil {
			return failure(fmt.Errorf("%w: timer needs a positive duration, got %d", err, seconds))
		}
		e.emit(EventTypeTimerStarted, "", TimerPayload{Seconds: seconds, Remaining: seconds})
		return changed(NoticeInfo, fmt.Sprintf("Timer started: %ds", seconds)), nil
	})
}

// StopTimer forces the countdown idle. Stopping an idle timer is a no-op.
func (e *Engine) StopTimer() (Outcome, error) {
	return e.do(func() (Outcome, error) {
		remaining := e.timer.Remaining()
		if !e.timer.Stop() {
			return noop("Timer is not running"), nil
		}
		e.emit(EventTypeTimerStopped, "", TimerPayload{Remaining: remaining})
		return changed(NoticeInfo, "Timer stopped"), nil
	})
}

// Tick advances the countdown by one second. It is driven by the scheduler
// started in Start, or directly by callers that own their own clock.
func (e *Engine) Tick() (remaining int, expired bool) {
	e.run(func() {
		if !e.timer.Running() {
			return
		}
		remaining, expired = e.timer.Tick()
		e.emit(EventTypeTimerTick, "", TimerPayload{Remaining: remaining})
		if expired {
			e.emit(EventTypeTimerTimeout, e.activeID, TimerPayload{Remaining: 0})
		}
	})
	return remaining, expired
}

// TimerState returns the countdown state
func (e *Engine) TimerState() TimerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return TimerState{Running: e.timer.Running(), Remaining: e.timer.Remaining()}
}

// =============================================================================
// USED QUESTIONS
// =============================================================================

// MarkQuestionAsUsed records that a question was asked
func (e *Engine) MarkQuestionAsUsed(questionID string) (Outcome, error) {
	return e.do(func() (Outcome, error) {
		if questionID == "" {
			return failure(fmt.Errorf("%w: question id is required", ErrInvalidInput))
		}
		if !e.questions.Mark(questionID) {
			return noop("Question was already used"), nil
		}
		e.emit(EventTypeQuestionUsed, "", QuestionPayload{QuestionID: questionID})
		return changed(NoticeInfo, "Question marked as used"), nil
	})
}

// ResetUsedQuestions forgets every used question
func (e *Engine) ResetUsedQuestions() (Outcome, error) {
	return e.do(func() (Outcome, error) {
		e.questions.Reset()
		e.emit(EventTypeQuestionsReset, "", nil)
		return changed(NoticeInfo, "Used questions cleared"), nil
	})
}

// IsQuestionUsed reports whether a question was already asked
func (e *Engine) IsQuestionUsed(questionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.questions.Has(questionID)
}
