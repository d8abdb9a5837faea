// Package notify shows success and failure toasts: inside the TUI through
// registered listeners, and on the desktop through notify-send.
package notify

import (
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Urgency levels for notifications
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
	Timeout time.Duration
	Icon    string // Optional icon name
}

// Toast is a short message about a finished operation
type Toast struct {
	Title   string
	Body    string
	Failure bool
	At      time.Time
}

// Notifier fans toasts out to listeners and the desktop
type Notifier struct {
	mu        sync.Mutex
	enabled   bool
	listeners []func(Toast)
	run       func(name string, args ...string) error
	log       *logrus.Logger
}

// NewNotifier creates a notifier; log may be nil
func NewNotifier(log *logrus.Logger) *Notifier {
	return &Notifier{
		enabled: true,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
		log: log,
	}
}

// SetEnabled turns desktop notifications on or off; listeners always fire
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether desktop notifications are enabled
func (n *Notifier) IsEnabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enabled
}

// OnToast registers fn to receive every toast
func (n *Notifier) OnToast(fn func(Toast)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}

// Send sends a desktop notification using notify-send
func (n *Notifier) Send(notification Notification) error {
	if !n.IsEnabled() {
		return nil
	}

	args := []string{}

	switch notification.Urgency {
	case UrgencyLow:
		args = append(args, "-u", "low")
	case UrgencyCritical:
		args = append(args, "-u", "critical")
	default:
		args = append(args, "-u", "normal")
	}

	// milliseconds
	if notification.Timeout > 0 {
		args = append(args, "-t", strconv.Itoa(int(notification.Timeout.Milliseconds())))
	}

	if notification.Icon != "" {
		args = append(args, "-i", notification.Icon)
	}

	args = append(args, "-a", "teamboard")

	args = append(args, notification.Title)
	if notification.Body != "" {
		args = append(args, notification.Body)
	}

	return n.run("notify-send", args...)
}

// Success reports a completed write
func (n *Notifier) Success(title, body string) {
	n.toast(Toast{Title: title, Body: body}, Notification{
		Title:   title,
		Body:    body,
		Urgency: UrgencyLow,
		Timeout: 4 * time.Second,
		Icon:    "emblem-ok-symbolic",
	})
}

// Failure reports a failed write or fetch
func (n *Notifier) Failure(title string, err error) {
	body := ""
	if err != nil {
		body = err.Error()
	}
	n.toast(Toast{Title: title, Body: body, Failure: true}, Notification{
		Title:   title,
		Body:    body,
		Urgency: UrgencyCritical,
		Timeout: 10 * time.Second,
		Icon:    "dialog-error-symbolic",
	})
}

func (n *Notifier) toast(t Toast, desktop Notification) {
	t.At = time.Now()
	n.mu.Lock()
	listeners := append([]func(Toast){}, n.listeners...)
	n.mu.Unlock()

	for _, fn := range listeners {
		fn(t)
	}
	// a missing notify-send is not worth failing the operation over
	if err := n.Send(desktop); err != nil && n.log != nil {
		n.log.WithError(err).Debug("desktop notification failed")
	}
}
