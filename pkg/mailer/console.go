package mailer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gracepointe/serveteam-backend/pkg/enums"
	"github.com/gracepointe/serveteam-backend/pkg/logger"
)

// ConsoleChannel writes messages to the log instead of delivering them.
// Used in development and as the test double for the dispatcher.
type ConsoleChannel struct {
	logg *logger.Logger

	mu   sync.Mutex
	sent []Message
}

func NewConsoleChannel(logg *logger.Logger) *ConsoleChannel {
	return &ConsoleChannel{logg: logg}
}

func (c *ConsoleChannel) Kind() enums.NotificationChannel {
	return enums.NotificationChannelConsole
}

func (c *ConsoleChannel) Send(ctx context.Context, msg Message) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransientError{Err: err}
	}

	body := new(strings.Builder)
	fmt.Fprintf(body, "To: %s <%s>\r\n", msg.ToName, msg.ToAddress)
	fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(body, "Subject: %s\r\n\r\n", msg.Subject)
	fmt.Fprintf(body, "%s\r\n", msg.TextBody)

	if c.logg != nil {
		logCtx := c.logg.WithFields(ctx, map[string]any{
			"to":      msg.ToAddress,
			"subject": msg.Subject,
		})
		c.logg.Info(logCtx, "console mail delivery\n"+body.String())
	}

	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.mu.Unlock()

	return &Result{ProviderMessageID: "console-" + uuid.NewString()}, nil
}

// Sent returns a copy of everything delivered so far.
func (c *ConsoleChannel) Sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.sent))
	copy(out, c.sent)
	return out
}
