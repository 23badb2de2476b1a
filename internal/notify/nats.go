package notify

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS publishes notifications as JSON on <prefix>.<kind> so other
// processes (push gateways, audit) can relay them.
type NATS struct {
	conn   *nats.Conn
	prefix string
	logger *log.Logger
	now    func() time.Time
}

// NewNATS connects to url and returns a publisher for subject prefix.
func NewNATS(url, prefix string, logger *log.Logger) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return NewNATSWithConn(conn, prefix, logger), nil
}

func NewNATSWithConn(conn *nats.Conn, prefix string, logger *log.Logger) *NATS {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if prefix == "" {
		prefix = "producermap.notify"
	}
	return &NATS{conn: conn, prefix: prefix, logger: logger, now: time.Now}
}

// Subject returns the subject a notification of kind is published on.
func (n *NATS) Subject(kind Kind) string {
	return n.prefix + "." + string(kind)
}

func (n *NATS) Notify(kind Kind, message string) {
	n.NotifySession("", kind, message)
}

// NotifySession publishes a message tagged with the session id.
func (n *NATS) NotifySession(session string, kind Kind, message string) {
	data, err := json.Marshal(Message{Kind: kind, Message: message, Session: session, At: n.now().UTC()})
	if err != nil {
		n.logger.Printf("notify nats: marshal kind=%s error=%v", kind, err)
		return
	}
	if err := n.conn.Publish(n.Subject(kind), data); err != nil {
		n.logger.Printf("notify nats: publish subject=%s error=%v", n.Subject(kind), err)
	}
}

// Close drains and closes the connection.
func (n *NATS) Close() {
	_ = n.conn.Drain()
}
