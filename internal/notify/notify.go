// Package notify defines the notification dispatch capability. Delivery
// transports (mail, push) live outside this service; implementations here
// are injected where notifications originate.
package notify

import (
	"github.com/rs/zerolog/log"

	"github.com/GoUserHub/GoUserHub/internal/db/models"
)

// TemplateVerifyEmail identifies the address-verification notification.
const TemplateVerifyEmail = "verify_email"

// Message is a notification addressed to one user.
type Message struct {
	Template string
	Data     map[string]any
}

// Notifier dispatches a message for a user. Dispatch is fire-and-forget
// from the caller's perspective; failures are logged, never propagated as
// operation failures.
type Notifier interface {
	Send(user *models.User, msg Message) error
}

// LogNotifier writes notifications to the application log. It stands in
// for a real delivery transport in development and tests.
type LogNotifier struct{}

// Send logs the notification.
func (LogNotifier) Send(user *models.User, msg Message) error {
	log.Info().
		Uint64("user_id", user.ID).
		Str("email", user.Email).
		Str("template", msg.Template).
		Msg("notification dispatched")

	return nil
}
