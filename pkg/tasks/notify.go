package tasks

// Level is the severity of a user-facing notification
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a toast-style message produced by controller transitions.
type Notification struct {
	Level       Level
	Title       string
	Description string
	TaskID      string
}

// Notifier receives notifications. It may be called from polling goroutines,
// so implementations must be safe for concurrent use and must not block for long.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}
