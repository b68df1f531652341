package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

type EventKind string

const (
	EventDown      EventKind = "down"
	EventRecovered EventKind = "recovered"
)

// Event describes one UP/DOWN transition of a target.
type Event struct {
	Kind    EventKind
	Target  domain.Target
	Outcome domain.Outcome
	At      time.Time
}

// Transport delivers transition alerts.
type Transport interface {
	NotifyDown(ctx context.Context, e Event) error
	NotifyRecovered(ctx context.Context, e Event) error
}

// Notifier sends a titled text message to one channel.
type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Deliver routes e to the method matching its kind.
func Deliver(ctx context.Context, t Transport, e Event) error {
	if e.Kind == EventRecovered {
		return t.NotifyRecovered(ctx, e)
	}
	return t.NotifyDown(ctx, e)
}

// DeliveryError wraps a failed alert delivery.
type DeliveryError struct {
	Transport string
	Event     EventKind
	TargetID  domain.TargetID
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notify %s: %s alert for %s: %v", e.Transport, e.Event, e.TargetID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) Kind() domain.ErrorKind { return domain.TransportNotifyError }

// Messages turns a Notifier into a Transport using the standard alert texts.
type Messages struct {
	Name     string
	Notifier Notifier
}

func (m Messages) NotifyDown(ctx context.Context, e Event) error {
	return m.send(ctx, e, DownTitle(e), DownText(e))
}

func (m Messages) NotifyRecovered(ctx context.Context, e Event) error {
	return m.send(ctx, e, RecoveredTitle(e), RecoveredText(e))
}

func (m Messages) send(ctx context.Context, e Event, title, text string) error {
	if err := m.Notifier.Send(ctx, title, text); err != nil {
		return &DeliveryError{Transport: m.Name, Event: e.Kind, TargetID: e.Target.ID, Err: err}
	}
	return nil
}

func DownTitle(e Event) string      { return "🔴 DOWN: " + e.Target.Name }
func RecoveredTitle(e Event) string { return "🟢 RECOVERED: " + e.Target.Name }

func DownText(e Event) string {
	return fmt.Sprintf("🔴 *DOWN* - %s\nTarget: `%s`\nError: %s\nTime: %s",
		e.Target.Name, e.Target.Address, reason(e.Outcome), stamp(e.At))
}

func RecoveredText(e Event) string {
	return fmt.Sprintf("🟢 *RECOVERED* - %s\nTarget: `%s`\nResponse: %dms\nTime: %s",
		e.Target.Name, e.Target.Address, e.Outcome.LatencyMS, stamp(e.At))
}

func reason(o domain.Outcome) string {
	switch {
	case o.Error != "":
		return o.Error
	case o.StatusCode != nil:
		return fmt.Sprintf("HTTP %d", *o.StatusCode)
	default:
		return "unknown"
	}
}

func stamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// Multi fans an event out to every transport and combines the failures.
type Multi []Transport

func (m Multi) NotifyDown(ctx context.Context, e Event) error {
	var err error
	for _, t := range m {
		if t == nil {
			continue
		}
		err = multierr.Append(err, t.NotifyDown(ctx, e))
	}
	return err
}

func (m Multi) NotifyRecovered(ctx context.Context, e Event) error {
	var err error
	for _, t := range m {
		if t == nil {
			continue
		}
		err = multierr.Append(err, t.NotifyRecovered(ctx, e))
	}
	return err
}

// Nop drops every event.
type Nop struct{}

func (Nop) NotifyDown(context.Context, Event) error      { return nil }
func (Nop) NotifyRecovered(context.Context, Event) error { return nil }
