package console

import "strings"

// Command is a parsed host console line
type Command struct {
	Name string   // "award", "undo", ...
	Args []string // Arguments after the command
	Raw  string
}

// CommandType for routing
type CommandType int

const (
	CmdAdd CommandType = iota
	CmdRemove
	CmdAward
	CmdWrong
	CmdLife
	CmdEliminate
	CmdForce
	CmdPoints
	CmdHealth
	CmdActive
	CmdUndo
	CmdStart
	CmdRoundTwo
	CmdRoundThree
	CmdCheck
	CmdFinish
	CmdReset
	CmdTimer
	CmdStop
	CmdUsed
	CmdClearQuestions
	CmdStandings
	CmdHelp
	CmdUnknown
)

// SupportedCommands maps command words to types. Spanish variants are
// accepted because hosts type what they say on air.
var SupportedCommands = map[string]CommandType{
	// Roster
	"add":     CmdAdd,
	"join":    CmdAdd,
	"agregar": CmdAdd,
	"remove":  CmdRemove,
	"quitar":  CmdRemove,

	// Scoring
	"award":      CmdAward,
	"correct":    CmdAward,
	"ok":         CmdAward,
	"correcto":   CmdAward,
	"wrong":      CmdWrong,
	"miss":       CmdWrong,
	"incorrecto": CmdWrong,
	"life":       CmdLife,
	"vida":       CmdLife,
	"eliminate":  CmdEliminate,
	"eliminar":   CmdEliminate,
	"kick":       CmdForce,
	"expulsar":   CmdForce,
	"points":     CmdPoints,
	"puntos":     CmdPoints,
	"hp":         CmdHealth,
	"health":     CmdHealth,
	"salud":      CmdHealth,
	"active":     CmdActive,
	"turn":       CmdActive,
	"turno":      CmdActive,
	"undo":       CmdUndo,
	"deshacer":   CmdUndo,

	// Rounds
	"start":     CmdStart,
	"empezar":   CmdStart,
	"r2":        CmdRoundTwo,
	"r3":        CmdRoundThree,
	"check":     CmdCheck,
	"finish":    CmdFinish,
	"ganador":   CmdFinish,
	"reset":     CmdReset,
	"reiniciar": CmdReset,

	// Timer and questions
	"timer":           CmdTimer,
	"tiempo":          CmdTimer,
	"stop":            CmdStop,
	"used":            CmdUsed,
	"usada":           CmdUsed,
	"clear-questions": CmdClearQuestions,

	// Views
	"standings": CmdStandings,
	"tabla":     CmdStandings,
	"help":      CmdHelp,
	"ayuda":     CmdHelp,
	"?":         CmdHelp,
}

// GetCommandType returns the command type for a word (case-insensitive)
func GetCommandType(name string) CommandType {
	if t, ok := SupportedCommands[strings.ToLower(name)]; ok {
		return t
	}
	return CmdUnknown
}

// ParseLine splits a console line into a command. A leading "!" or "/" is
// accepted. Blank lines and "#" comments return ok=false.
func ParseLine(line string) (Command, bool) {
	raw := strings.TrimSpace(line)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return Command{}, false
	}
	fields := strings.Fields(strings.TrimLeft(raw, "!/"))
	if len(fields) == 0 {
		return Command{}, false
	}
	return Command{Name: strings.ToLower(fields[0]), Args: fields[1:], Raw: raw}, true
}

const helpText = `Commands (player = id or name):
  add <name>            remove <player>        active <player|->
  award <player> [pts]  wrong <player> [pct]   life <player>
  eliminate <player>    kick <player>          undo
  points <player> <+/-n>                       hp <player> <+/-n>
  start  r2  r3  check  finish <player...>  reset
  timer [seconds]  stop  used <question>  clear-questions
  standings  help`
