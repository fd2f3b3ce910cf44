package game

// NoticeLevel tells the UI how to present a notice
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-facing message describing what an operation did.
// The engine never shows anything itself; callers decide whether a notice
// becomes a toast, a log line or nothing.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Outcome is returned by every state-changing engine operation
type Outcome struct {
	Notice  Notice `json:"notice"`
	Changed bool   `json:"changed"`

	Round   Round    `json:"round"`
	Players []Player `json:"players"`

	Advancement *Advancement `json:"advancement,omitempty"`
	Winners     []string     `json:"winners,omitempty"`
	RoundEnded  bool         `json:"roundEnded,omitempty"`
}

func changed(level NoticeLevel, msg string) Outcome {
	return Outcome{Notice: Notice{Level: level, Message: msg}, Changed: true}
}

func noop(msg string) Outcome {
	return Outcome{Notice: Notice{Level: NoticeInfo, Message: msg}}
}

func failure(err error) (Outcome, error) {
	return Outcome{Notice: Notice{Level: NoticeError, Message: err.Error()}}, err
}
