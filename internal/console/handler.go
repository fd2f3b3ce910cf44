package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"quiz-show/internal/config"
	"quiz-show/internal/game"

	"github.com/dustin/go-humanize"
)

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrUsage           = errors.New("usage")
	ErrAmbiguousPlayer = errors.New("ambiguous player name")
)

// Handler applies host console commands to the engine
type Handler struct {
	engine       *game.Engine
	timerSeconds int
}

// NewHandler creates a new command handler. timerSeconds is used by a bare
// "timer" command.
func NewHandler(engine *game.Engine, timerSeconds int) *Handler {
	if timerSeconds <= 0 {
		timerSeconds = config.DefaultTimer().DefaultSeconds
	}
	return &Handler{engine: engine, timerSeconds: timerSeconds}
}

// Execute runs one command and returns the line to print
func (h *Handler) Execute(cmd Command) (string, error) {
	switch GetCommandType(cmd.Name) {
	case CmdAdd:
		return h.handleAdd(cmd)
	case CmdRemove:
		return h.withPlayer(cmd, h.engine.RemovePlayer)
	case CmdAward:
		return h.handleAward(cmd)
	case CmdWrong:
		return h.handleWrong(cmd)
	case CmdLife:
		return h.withPlayer(cmd, h.engine.DeductLife)
	case CmdEliminate:
		return h.withPlayer(cmd, h.engine.EliminatePlayer)
	case CmdForce:
		return h.withPlayer(cmd, h.engine.ForceEliminatePlayer)
	case CmdPoints:
		return h.withDelta(cmd, h.engine.AddManualPoints)
	case CmdHealth:
		return h.withDelta(cmd, h.engine.AdjustHealthManually)
	case CmdActive:
		return h.handleActive(cmd)
	case CmdUndo:
		return h.reply(h.engine.UndoLastAction())
	case CmdStart:
		return h.reply(h.engine.StartGame())
	case CmdRoundTwo:
		return h.reply(h.engine.AdvanceToRoundTwo())
	case CmdRoundThree:
		return h.reply(h.engine.AdvanceToRoundThree())
	case CmdCheck:
		return h.reply(h.engine.CheckRoundThreeEnd())
	case CmdFinish:
		return h.handleFinish(cmd)
	case CmdReset:
		return h.reply(h.engine.ResetGame())
	case CmdTimer:
		return h.handleTimer(cmd)
	case CmdStop:
		return h.reply(h.engine.StopTimer())
	case CmdUsed:
		if len(cmd.Args) != 1 {
			return "", fmt.Errorf("%w: used <question>", ErrUsage)
		}
		return h.reply(h.engine.MarkQuestionAsUsed(cmd.Args[0]))
	case CmdClearQuestions:
		return h.reply(h.engine.ResetUsedQuestions())
	case CmdStandings:
		return h.standings(), nil
	case CmdHelp:
		return helpText, nil
	default:
		return "", fmt.Errorf("%w %q (try help)", ErrUnknownCommand, cmd.Name)
	}
}

func (h *Handler) handleAdd(cmd Command) (string, error) {
	name := strings.Join(cmd.Args, " ")
	if name == "" {
		return "", fmt.Errorf("%w: add <name>", ErrUsage)
	}
	p, err := h.engine.AddPlayer(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ %s joined (id %s)", p.Name, p.ID), nil
}

func (h *Handler) handleAward(cmd Command) (string, error) {
	id, amount, err := h.playerAndNumber(cmd, h.engine.CurrentSettings().CorrectPoints)
	if err != nil {
		return "", err
	}
	return h.reply(h.engine.AwardPoints(id, amount))
}

func (h *Handler) handleWrong(cmd Command) (string, error) {
	id, percent, err := h.playerAndNumber(cmd, h.engine.CurrentSettings().HealthPenalty)
	if err != nil {
		return "", err
	}
	// Rounds 2 and 3 cost a life instead of health
	if r := h.engine.Round(); r == game.RoundTwo || r == game.RoundThree {
		return h.reply(h.engine.DeductLife(id))
	}
	return h.reply(h.engine.DeductHealth(id, percent))
}

func (h *Handler) handleActive(cmd Command) (string, error) {
	if len(cmd.Args) == 1 && cmd.Args[0] == "-" {
		return h.reply(h.engine.SetActivePlayer(""))
	}
	return h.withPlayer(cmd, h.engine.SetActivePlayer)
}

func (h *Handler) handleFinish(cmd Command) (string, error) {
	if len(cmd.Args) == 0 {
		return "", fmt.Errorf("%w: finish <player...>", ErrUsage)
	}
	ids := make([]string, 0, len(cmd.Args))
	for _, arg := range cmd.Args {
		id, err := h.resolvePlayer(arg)
		if err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	return h.reply(h.engine.FinishGame(ids))
}

func (h *Handler) handleTimer(cmd Command) (string, error) {
	seconds := 0
	switch len(cmd.Args) {
	case 0:
		seconds = h.timerSeconds
	case 1:
		n, err := strconv.Atoi(cmd.Args[0])
		if err != nil {
			return "", fmt.Errorf("%w: timer [seconds]", ErrUsage)
		}
		seconds = n
	default:
		return "", fmt.Errorf("%w: timer [seconds]", ErrUsage)
	}
	return h.reply(h.engine.StartTimer(seconds))
}

// withPlayer runs a single-player operation
func (h *Handler) withPlayer(cmd Command, op func(string) (game.Outcome, error)) (string, error) {
	if len(cmd.Args) != 1 {
		return "", fmt.Errorf("%w: %s <player>", ErrUsage, cmd.Name)
	}
	id, err := h.resolvePlayer(cmd.Args[0])
	if err != nil {
		return "", err
	}
	return h.reply(op(id))
}

// withDelta runs a manual correction with a required signed amount
func (h *Handler) withDelta(cmd Command, op func(string, int) (game.Outcome, error)) (string, error) {
	if len(cmd.Args) != 2 {
		return "", fmt.Errorf("%w: %s <player> <+/-n>", ErrUsage, cmd.Name)
	}
	id, delta, err := h.playerAndNumber(cmd, 0)
	if err != nil {
		return "", err
	}
	return h.reply(op(id, delta))
}

// playerAndNumber parses "<player> [n]", using def when n is omitted
func (h *Handler) playerAndNumber(cmd Command, def int) (string, int, error) {
	if len(cmd.Args) < 1 || len(cmd.Args) > 2 {
		return "", 0, fmt.Errorf("%w: %s <player> [n]", ErrUsage, cmd.Name)
	}
	id, err := h.resolvePlayer(cmd.Args[0])
	if err != nil {
		return "", 0, err
	}
	n := def
	if len(cmd.Args) == 2 {
		if n, err = strconv.Atoi(strings.TrimPrefix(cmd.Args[1], "+")); err != nil {
			return "", 0, fmt.Errorf("%w: %q is not a number", ErrUsage, cmd.Args[1])
		}
	}
	return id, n, nil
}

// resolvePlayer accepts an exact ID or a case-insensitive unique name
func (h *Handler) resolvePlayer(arg string) (string, error) {
	if _, ok := h.engine.GetPlayer(arg); ok {
		return arg, nil
	}

	var matches []string
	for _, p := range h.engine.Players() {
		if strings.EqualFold(p.Name, arg) {
			matches = append(matches, p.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %q", game.ErrUnknownPlayer, arg)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %q matches %d players, use the id", ErrAmbiguousPlayer, arg, len(matches))
	}
}

var noticeIcons = map[game.NoticeLevel]string{
	game.NoticeInfo:    "ℹ️",
	game.NoticeSuccess: "✅",
	game.NoticeWarning: "⚠️",
	game.NoticeError:   "❌",
}

// reply renders an outcome as one console line
func (h *Handler) reply(out game.Outcome, err error) (string, error) {
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(noticeIcons[out.Notice.Level])
	b.WriteString(" ")
	b.WriteString(out.Notice.Message)

	names := make(map[string]string, len(out.Players))
	for _, p := range out.Players {
		names[p.ID] = p.Name
	}
	if adv := out.Advancement; adv != nil {
		fmt.Fprintf(&b, " | advancing: %s", joinNames(adv.Advancing, names))
		if len(adv.Backfilled) > 0 {
			fmt.Fprintf(&b, " | lucky losers: %s", joinNames(adv.Backfilled, names))
		}
	}
	if len(out.Winners) > 0 {
		fmt.Fprintf(&b, " | 🏆 %s", joinNames(out.Winners, names))
	}
	return b.String(), nil
}

func joinNames(ids []string, names map[string]string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if name, ok := names[id]; ok {
			out[i] = name
		} else {
			out[i] = id
		}
	}
	return strings.Join(out, ", ")
}

// standings renders the leaderboard, one player per line
func (h *Handler) standings() string {
	snap := h.engine.Snapshot()
	if len(snap.Standings) == 0 {
		return "📊 No players yet"
	}

	players := make(map[string]game.Player, len(snap.Players))
	for _, p := range snap.Players {
		players[p.ID] = p
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s", snap.Round)
	if snap.Timer.Running {
		fmt.Fprintf(&b, " | ⏱️ %ds", snap.Timer.Remaining)
	}
	for _, s := range snap.Standings {
		p := players[s.PlayerID]
		status := ""
		switch {
		case p.ForcedEliminated:
			status = " (removed)"
		case p.IsEliminated:
			status = " (out)"
		case p.ID == snap.ActivePlayerID:
			status = " ◀"
		}
		fmt.Fprintf(&b, "\n  %-4s %-20s %5d pts  %3d%% hp  %d lives%s",
			humanize.Ordinal(s.Rank), p.Name, p.Points, p.Health, p.Lives, status)
	}
	return b.String()
}
