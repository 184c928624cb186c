package stores

import (
	"github.com/charmbracelet/log"
)

// Level classifies a user-facing notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return ""
	}
}

// Notification is one user-facing message emitted by a store. Notifications
// are advisory: dropping one never affects store state.
type Notification struct {
	Level   Level
	Message string
}

// Notifier receives store notifications. Implementations must not block.
type Notifier interface {
	Notify(Notification)
}

// LogNotifier writes notifications to a [log.Logger].
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(note Notification) {
	switch note.Level {
	case LevelError:
		n.logger.Error(note.Message)
	case LevelWarn:
		n.logger.Warn(note.Message)
	default:
		n.logger.Info(note.Message)
	}
}

// ChannelNotifier forwards notifications to a buffered channel without
// blocking; when the channel is full the notification is dropped.
type ChannelNotifier struct {
	ch chan Notification
}

func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer <= 0 {
		buffer = 16
	}
	return &ChannelNotifier{ch: make(chan Notification, buffer)}
}

// Updates exposes the notification stream for a UI consumer.
func (n *ChannelNotifier) Updates() <-chan Notification {
	return n.ch
}

func (n *ChannelNotifier) Notify(note Notification) {
	select {
	case n.ch <- note:
	default:
		// Channel full, skip this update
	}
}
