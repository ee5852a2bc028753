// Package notify is the presentation boundary: user-visible notifications and navigation.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notifier shows a short message to the user (a toast in a browser, a line on a terminal)
type Notifier interface {
	Notify(level Level, message string)
}

// Navigator moves the user to another location in the application
type Navigator interface {
	Navigate(path string)
}

// ConsoleNotifier writes coloured notifications to a terminal and mirrors them to the log
type ConsoleNotifier struct {
	out    io.Writer
	color  bool
	logger zerolog.Logger
	mu     sync.Mutex
}

func NewConsoleNotifier(out io.Writer, color bool, logger zerolog.Logger) *ConsoleNotifier {
	return &ConsoleNotifier{out: out, color: color, logger: logger}
}

func (n *ConsoleNotifier) Notify(level Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.color {
		fmt.Fprintf(n.out, "%s[%-7s]%s %s\n", levelColors[level], level, ResetColor, message)
	} else {
		fmt.Fprintf(n.out, "[%-7s] %s\n", level, message)
	}
	n.logger.Debug().Str("level", string(level)).Msg(message)
}

// Location is a Navigator that remembers where the user was last sent
type Location struct {
	mu      sync.RWMutex
	current string
	onMove  func(path string)
}

func NewLocation(start string, onMove func(path string)) *Location {
	return &Location{current: start, onMove: onMove}
}

func (l *Location) Navigate(path string) {
	l.mu.Lock()
	l.current = path
	l.mu.Unlock()
	if l.onMove != nil {
		l.onMove(path)
	}
}

func (l *Location) Current() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}
