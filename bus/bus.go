// Package bus emits application events to a message broker. Publishing is
// fire-and-forget: delivery failures are logged and never block or fail the
// operation that raised the event.
package bus

import (
	"github.com/healthq/healthq/logger"
)

// Subjects for emitted events.
const (
	SubjectUserRegistered = "healthq.user.registered"
	SubjectAlertCritical  = "healthq.alert.critical"
	SubjectAlertUrgent    = "healthq.alert.urgent"
)

// Publisher emits an event on a subject.
type Publisher interface {
	Publish(subject string, payload any)
	Close()
}

// LogPublisher is used when the bus is disabled; it records what would have
// been published.
type LogPublisher struct {
	Log *logger.Logger
}

func (p *LogPublisher) Publish(subject string, payload any) {
	p.Log.Info("bus disabled, event not published", "subject", subject, "payload", payload)
}

func (p *LogPublisher) Close() {}
