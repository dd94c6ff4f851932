// Package notify carries transient user-facing notices (the toast
// messages of the booking UI) from the flow that produced them to the
// response that renders them.
package notify

import (
	"sync"
	"time"

	"github.com/mwangaza-health/booking-gateway/pkg/logging"
)

// Level classifies a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a single transient notification.
type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier receives success and error notices.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Log is a Notifier that writes notices to the structured log.
type Log struct {
	logger *logging.Logger
}

// NewLog creates a log-backed notifier.
func NewLog(logger *logging.Logger) *Log {
	if logger == nil {
		logger = logging.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Success(msg string) { l.logger.Info("notice", "level", "success", "message", msg) }
func (l *Log) Error(msg string)   { l.logger.Warn("notice", "level", "error", "message", msg) }

// Feed is a bounded in-memory notice queue. Producers append, the HTTP
// layer drains it into the next response. Oldest notices are dropped
// when the bound is exceeded.
type Feed struct {
	mu      sync.Mutex
	max     int
	notices []Notice
	now     func() time.Time
}

// NewFeed creates a feed holding at most max notices.
func NewFeed(max int) *Feed {
	if max <= 0 {
		max = 16
	}
	return &Feed{max: max, now: time.Now}
}

func (f *Feed) Success(msg string) { f.append(LevelSuccess, msg) }
func (f *Feed) Error(msg string)   { f.append(LevelError, msg) }

func (f *Feed) append(level Level, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, Notice{Level: level, Message: msg, At: f.now()})
	if len(f.notices) > f.max {
		f.notices = f.notices[len(f.notices)-f.max:]
	}
}

// Drain returns all pending notices and empties the feed.
func (f *Feed) Drain() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.notices
	f.notices = nil
	return out
}

type multi []Notifier

// Multi fans notices out to several notifiers.
func Multi(notifiers ...Notifier) Notifier {
	return multi(notifiers)
}

func (m multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

func (m multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}
