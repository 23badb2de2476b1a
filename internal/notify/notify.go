// Package notify delivers user-visible, fire-and-forget notifications.
package notify

import (
	"io"
	"log"
	"sync"
	"time"
)

// Kind classifies a notification.
type Kind string

const (
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
)

// Notifier shows a message to the user. Implementations must not block the
// caller on delivery and never report failure back.
type Notifier interface {
	Notify(kind Kind, message string)
}

// Message is a delivered notification.
type Message struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Session string    `json:"session,omitempty"`
	At      time.Time `json:"at"`
}

// SessionNotifier is implemented by sinks that can attribute a message to
// a client session.
type SessionNotifier interface {
	NotifySession(session string, kind Kind, message string)
}

type sessionNotifier struct {
	sink    SessionNotifier
	session string
}

func (n sessionNotifier) Notify(kind Kind, message string) {
	n.sink.NotifySession(n.session, kind, message)
}

// ForSession binds n to a session when it supports attribution and
// returns n unchanged otherwise.
func ForSession(n Notifier, session string) Notifier {
	if sn, ok := n.(SessionNotifier); ok {
		return sessionNotifier{sink: sn, session: session}
	}
	return n
}

// Discard drops every notification.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Kind, string) {}

type logNotifier struct {
	logger *log.Logger
}

// Log writes notifications to logger.
func Log(logger *log.Logger) Notifier {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Notify(kind Kind, message string) {
	n.logger.Printf("notify: kind=%s message=%q", kind, message)
}

type multi []Notifier

// Multi fans a notification out to every non-nil notifier.
func Multi(notifiers ...Notifier) Notifier {
	out := make(multi, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (m multi) Notify(kind Kind, message string) {
	for _, n := range m {
		n.Notify(kind, message)
	}
}

// Inbox keeps the most recent notifications for a client to poll.
type Inbox struct {
	mu       sync.Mutex
	capacity int
	messages []Message
	now      func() time.Time
}

func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = 50
	}
	return &Inbox{capacity: capacity, now: time.Now}
}

func (b *Inbox) Notify(kind Kind, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, Message{Kind: kind, Message: message, At: b.now().UTC()})
	if over := len(b.messages) - b.capacity; over > 0 {
		b.messages = append(b.messages[:0:0], b.messages[over:]...)
	}
}

// Drain returns queued messages oldest first and empties the inbox.
func (b *Inbox) Drain() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.messages
	b.messages = nil
	if out == nil {
		out = []Message{}
	}
	return out
}

// Recorder stores every notification; intended for tests.
type Recorder struct {
	mu       sync.Mutex
	Messages []Message
}

func (r *Recorder) Notify(kind Kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, Message{Kind: kind, Message: message})
}

// Count returns how many notifications of kind were recorded.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.Messages {
		if m.Kind == kind {
			n++
		}
	}
	return n
}
