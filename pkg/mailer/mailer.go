package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/gracepointe/serveteam-backend/pkg/config"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
	"github.com/gracepointe/serveteam-backend/pkg/logger"
)

// Message is a rendered notification ready for delivery.
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	TextBody  string
	HTMLBody  string
}

// Result carries provider metadata back to the dispatcher.
type Result struct {
	ProviderMessageID string
}

// Channel delivers a single message. Implementations must honor ctx
// cancellation and classify failures as transient or permanent through
// the error types below.
type Channel interface {
	Kind() enums.NotificationChannel
	Send(ctx context.Context, msg Message) (*Result, error)
}

// TransientError marks a delivery failure worth retrying.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient delivery failure: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a delivery failure that will never succeed on retry,
// such as a rejected recipient address.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return fmt.Sprintf("permanent delivery failure: %v", e.Err) }
func (e *PermanentError) Unwrap() error { return e.Err }

// IsPermanent reports whether the delivery error should stop retries.
func IsPermanent(err error) bool {
	var perm *PermanentError
	return errors.As(err, &perm)
}

// New selects the configured delivery channel.
func New(cfg config.MailerConfig, sg config.SendgridConfig, logg *logger.Logger) (Channel, error) {
	switch cfg.Channel {
	case string(enums.NotificationChannelEmail):
		return NewSendgridChannel(sg)
	case string(enums.NotificationChannelConsole), "":
		return NewConsoleChannel(logg), nil
	default:
		return nil, fmt.Errorf("unknown mailer channel %q", cfg.Channel)
	}
}
