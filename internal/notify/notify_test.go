package notify

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestInboxDrainAndCapacity(t *testing.T) {
	inbox := NewInbox(2)
	inbox.Notify(KindInfo, "one")
	inbox.Notify(KindError, "two")
	inbox.Notify(KindSuccess, "three")

	got := inbox.Drain()
	if len(got) != 2 || got[0].Message != "two" || got[1].Message != "three" {
		t.Fatalf("unexpected messages %+v", got)
	}
	if again := inbox.Drain(); len(again) != 0 {
		t.Fatalf("expected empty inbox after drain, got %+v", again)
	}
}

func TestMultiFansOut(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	Multi(a, nil, b).Notify(KindError, "boom")
	if a.Count(KindError) != 1 || b.Count(KindError) != 1 {
		t.Fatalf("expected both recorders to receive the error")
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	Log(log.New(&buf, "", 0)).Notify(KindInfo, "hello")
	if !strings.Contains(buf.String(), `kind=info message="hello"`) {
		t.Fatalf("unexpected log line %q", buf.String())
	}
}

func TestNATSSubject(t *testing.T) {
	n := NewNATSWithConn(nil, "", nil)
	if got := n.Subject(KindError); got != "producermap.notify.error" {
		t.Fatalf("unexpected subject %q", got)
	}
}

type sessionRecorder struct {
	sessions []string
}

func (s *sessionRecorder) Notify(kind Kind, message string) {
	s.NotifySession("", kind, message)
}

func (s *sessionRecorder) NotifySession(session string, _ Kind, _ string) {
	s.sessions = append(s.sessions, session)
}

func TestForSession(t *testing.T) {
	sink := &sessionRecorder{}
	ForSession(sink, "abc").Notify(KindInfo, "hello")
	if len(sink.sessions) != 1 || sink.sessions[0] != "abc" {
		t.Fatalf("expected session attribution, got %v", sink.sessions)
	}
	rec := &Recorder{}
	if ForSession(rec, "abc") != Notifier(rec) {
		t.Fatalf("expected plain notifier returned unchanged")
	}
}
