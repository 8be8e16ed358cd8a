package notification

import (
	"context"
	"log/slog"
)

// Notification kinds.
const (
	KindRegistration  = "registration"
	KindLogin         = "login"
	KindConnection    = "connection"
	KindProfileUpdate = "profile_update"
	KindRefresh       = "refresh"
	KindLogout        = "logout"
)

// Level mirrors the severities shown to attendees.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message describes a notification payload.
type Message struct {
	Kind        string `json:"kind"`
	Level       Level  `json:"level"`
	Destination string `json:"-"`
	Body        string `json:"message"`
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	level := slog.LevelInfo
	if message.Level == LevelError {
		level = slog.LevelWarn
	}
	n.logger.Log(ctx, level, "notification",
		"kind", message.Kind, "level", string(message.Level), "destination", message.Destination, "body", message.Body)
	return nil
}

// Recorder keeps sent messages in memory. Useful for tests.
type Recorder struct {
	Messages []Message
}

// Send appends the message.
func (r *Recorder) Send(_ context.Context, message Message) error {
	r.Messages = append(r.Messages, message)
	return nil
}
