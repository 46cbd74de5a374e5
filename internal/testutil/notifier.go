package testutil

import (
	"context"
	"sync"

	"vendorhub/internal/notify"
)

// RecordingNotifier captures notifications and fails for chosen recipients
type RecordingNotifier struct {
	mu       sync.Mutex
	sent     []notify.Message
	failures map[string]error
}

// NewRecordingNotifier creates an empty recorder
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{failures: make(map[string]error)}
}

// FailFor makes every notification to recipient return err
func (n *RecordingNotifier) FailFor(recipient string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures[recipient] = err
}

// Notify records the message
func (n *RecordingNotifier) Notify(ctx context.Context, channel notify.Channel, recipient string, template notify.Template, data map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notify.Message{Channel: channel, Recipient: recipient, Template: template, Data: data})
	return n.failures[recipient]
}

// Sent returns a copy of every recorded message
func (n *RecordingNotifier) Sent() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.sent...)
}

// SentWith returns the recorded messages using template
func (n *RecordingNotifier) SentWith(template notify.Template) []notify.Message {
	var out []notify.Message
	for _, m := range n.Sent() {
		if m.Template == template {
			out = append(out, m)
		}
	}
	return out
}
