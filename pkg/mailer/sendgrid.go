package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/gracepointe/serveteam-backend/pkg/config"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendgridChannel delivers messages through the SendGrid v3 mail API.
type SendgridChannel struct {
	key  string
	from *sgmail.Email
}

// NewSendgridChannel validates credentials and builds the channel.
func NewSendgridChannel(cfg config.SendgridConfig) (*SendgridChannel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	if cfg.DefaultFrom == "" {
		return nil, errors.New("sendgrid from address is required")
	}
	return &SendgridChannel{
		key:  cfg.APIKey,
		from: sgmail.NewEmail(cfg.FromName, cfg.DefaultFrom),
	}, nil
}

func (c *SendgridChannel) Kind() enums.NotificationChannel {
	return enums.NotificationChannelEmail
}

// Send posts the message to SendGrid. 4xx responses other than 429 are
// permanent; 429 and 5xx are transient along with network errors.
func (c *SendgridChannel) Send(ctx context.Context, msg Message) (*Result, error) {
	if msg.ToAddress == "" {
		return nil, &PermanentError{Err: errors.New("recipient address is empty")}
	}

	req := sendgrid.GetRequest(c.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(c.prepare(msg))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return nil, &TransientError{Err: fmt.Errorf("sendgrid request: %w", err)}
	}

	switch {
	case res.StatusCode < http.StatusBadRequest:
		return &Result{ProviderMessageID: messageIDFromHeaders(res.Headers)}, nil
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError:
		return nil, &TransientError{Err: fmt.Errorf("sendgrid status %d: %s", res.StatusCode, summarizeBody(res.Body))}
	default:
		return nil, &PermanentError{Err: fmt.Errorf("sendgrid status %d: %s", res.StatusCode, summarizeBody(res.Body))}
	}
}

func (c *SendgridChannel) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToAddress))

	m := sgmail.NewV3Mail()
	m.SetFrom(c.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", msg.TextBody),
		sgmail.NewContent("text/html", msg.HTMLBody),
	)
	return m
}

func messageIDFromHeaders(headers map[string][]string) string {
	for key, values := range headers {
		if http.CanonicalHeaderKey(key) == "X-Message-Id" && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func summarizeBody(body string) string {
	var parsed struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err == nil && len(parsed.Errors) > 0 {
		return parsed.Errors[0].Message
	}
	if len(body) > 256 {
		return body[:256]
	}
	return body
}
