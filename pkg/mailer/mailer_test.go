package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/gracepointe/serveteam-backend/pkg/config"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
)

func TestConsoleChannelRecordsMessages(t *testing.T) {
	ch := NewConsoleChannel(nil)

	res, err := ch.Send(context.Background(), Message{
		ToName:    "Jamie Rivera",
		ToAddress: "jamie@example.com",
		Subject:   "Serving invitation",
		TextBody:  "You are invited to serve.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil || res.ProviderMessageID == "" {
		t.Fatalf("expected provider message id")
	}

	sent := ch.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 sent message, got %d", len(sent))
	}
	if sent[0].ToAddress != "jamie@example.com" {
		t.Fatalf("unexpected recipient %s", sent[0].ToAddress)
	}
}

func TestConsoleChannelHonorsCancelledContext(t *testing.T) {
	ch := NewConsoleChannel(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ch.Send(ctx, Message{ToAddress: "jamie@example.com"})
	if err == nil {
		t.Fatalf("expected error for cancelled context")
	}
	var transient *TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("cancellation should surface as transient, got %T", err)
	}
}

func TestIsPermanent(t *testing.T) {
	if IsPermanent(&TransientError{Err: errors.New("timeout")}) {
		t.Fatalf("transient error misclassified as permanent")
	}
	if !IsPermanent(&PermanentError{Err: errors.New("bad address")}) {
		t.Fatalf("permanent error not detected")
	}
	wrapped := errors.Join(errors.New("outer"), &PermanentError{Err: errors.New("inner")})
	if !IsPermanent(wrapped) {
		t.Fatalf("permanent error not detected through join")
	}
}

func TestNewSelectsChannel(t *testing.T) {
	ch, err := New(config.MailerConfig{Channel: "console"}, config.SendgridConfig{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.Kind() != enums.NotificationChannelConsole {
		t.Fatalf("expected console channel, got %s", ch.Kind())
	}

	if _, err := New(config.MailerConfig{Channel: "email"}, config.SendgridConfig{}, nil); err == nil {
		t.Fatalf("expected missing sendgrid key error")
	}

	if _, err := New(config.MailerConfig{Channel: "carrier-pigeon"}, config.SendgridConfig{}, nil); err == nil {
		t.Fatalf("expected unknown channel error")
	}
}

func TestSendgridChannelRequiresConfig(t *testing.T) {
	if _, err := NewSendgridChannel(config.SendgridConfig{}); err == nil {
		t.Fatalf("expected api key error")
	}
	if _, err := NewSendgridChannel(config.SendgridConfig{APIKey: "key"}); err == nil {
		t.Fatalf("expected from address error")
	}
	ch, err := NewSendgridChannel(config.SendgridConfig{APIKey: "key", DefaultFrom: "team@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.Kind() != enums.NotificationChannelEmail {
		t.Fatalf("expected email channel kind")
	}
}

func TestSendgridRejectsEmptyRecipient(t *testing.T) {
	ch, err := NewSendgridChannel(config.SendgridConfig{APIKey: "key", DefaultFrom: "team@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = ch.Send(context.Background(), Message{Subject: "hello"})
	if !IsPermanent(err) {
		t.Fatalf("empty recipient should be permanent, got %v", err)
	}
}
