package anchors

import (
	"context"
	"log/slog"
)

// Notifier shows user-facing notices.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// LogNotifier writes notices to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

func (n LogNotifier) Info(msg string)  { n.logger().Log(context.Background(), slog.LevelInfo, msg) }
func (n LogNotifier) Warn(msg string)  { n.logger().Log(context.Background(), slog.LevelWarn, msg) }
func (n LogNotifier) Error(msg string) { n.logger().Log(context.Background(), slog.LevelError, msg) }

// Level of a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Notice is one recorded notification.
type Notice struct {
	Level   Level
	Message string
}

// NoticeFunc adapts a function to Notifier.
type NoticeFunc func(Notice)

func (f NoticeFunc) Info(msg string)  { f(Notice{Level: LevelInfo, Message: msg}) }
func (f NoticeFunc) Warn(msg string)  { f(Notice{Level: LevelWarn, Message: msg}) }
func (f NoticeFunc) Error(msg string) { f(Notice{Level: LevelError, Message: msg}) }
