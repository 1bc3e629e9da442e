// Package notification provides alert delivery to external channels
// (Telegram, webhooks, Kafka) and a log-only fallback.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrDelivery wraps every notifier failure.
var ErrDelivery = errors.New("notification delivery failed")

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"` // legacy Telegram Markdown
	// Key groups related alerts (throttle key for setup alerts).
	Key string `json:"key,omitempty"`
	// Fields carries the structured payload for machine consumers.
	Fields map[string]any `json:"fields,omitempty"`
	TS     time.Time      `json:"ts"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Errors wrap ErrDelivery.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier is a simple notifier that logs alerts (useful for dry runs).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s:\n%s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Multi fans an alert out to every notifier. All notifiers are attempted;
// failures are joined.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, alert Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d notifiers failed: %w", ErrDelivery, len(errs), len(m), errors.Join(errs...))
}

func deliveryError(channel, op string, err error) error {
	return fmt.Errorf("%w: %s: %s: %w", ErrDelivery, channel, op, err)
}
