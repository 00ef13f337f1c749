package views

import (
	"sync"
	"time"
)

type NotificationKind string

const (
	NotifySuccess NotificationKind = "Success"
	NotifyError   NotificationKind = "Error"
)

const (
	msgAdded     = "Successfully added to Favourite"
	msgDuplicate = "Already added in Favourite"
	msgRemoved   = "Successfully removed from Favourite"
)

// Notification is a transient toast shown by a list view.
type Notification struct {
	Kind    NotificationKind `json:"kind,omitempty"`
	Text    string           `json:"text,omitempty"`
	Visible bool             `json:"visible"`
}

// notifier shows one notification at a time and hides it after delay.
type notifier struct {
	mu       sync.Mutex
	current  Notification
	gen      uint64
	timer    *time.Timer
	delay    time.Duration
	onChange func()
}

func newNotifier(delay time.Duration, onChange func()) *notifier {
	return &notifier{delay: delay, onChange: onChange}
}

func (n *notifier) show(kind NotificationKind, text string) {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
	}
	n.gen++
	gen := n.gen
	n.current = Notification{Kind: kind, Text: text, Visible: true}
	if n.delay > 0 {
		n.timer = time.AfterFunc(n.delay, func() { n.hide(gen) })
	}
	n.mu.Unlock()

	n.fire()
}

func (n *notifier) hide(gen uint64) {
	n.mu.Lock()
	if gen != n.gen || !n.current.Visible {
		n.mu.Unlock()
		return
	}
	n.current.Visible = false
	n.mu.Unlock()

	n.fire()
}

func (n *notifier) dismiss() {
	n.mu.Lock()
	gen := n.gen
	n.mu.Unlock()
	n.hide(gen)
}

func (n *notifier) get() Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *notifier) stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
	}
	n.onChange = nil
}

func (n *notifier) fire() {
	n.mu.Lock()
	fn := n.onChange
	n.mu.Unlock()
	if fn != nil {
		fn()
	}
}
