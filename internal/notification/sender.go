package notification

import (
	"context"
	"fmt"
	"log"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
)

// Sender delivers a single push message. Receipts are best effort.
type Sender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

type ExpoSender struct {
	client *expo.PushClient
}

func NewExpoSender(accessToken string) *ExpoSender {
	return &ExpoSender{
		client: expo.NewPushClient(&expo.ClientConfig{AccessToken: accessToken}),
	}
}

func (s *ExpoSender) Send(_ context.Context, token, title, body string, data map[string]string) error {
	pushToken, err := expo.NewExponentPushToken(token)
	if err != nil {
		return fmt.Errorf("invalid push token: %w", err)
	}

	resp, err := s.client.Publish(&expo.PushMessage{
		To:       []expo.ExponentPushToken{pushToken},
		Title:    title,
		Body:     body,
		Data:     data,
		Sound:    "default",
		Priority: expo.DefaultPriority,
	})
	if err != nil {
		return fmt.Errorf("expo publish: %w", err)
	}
	return resp.ValidateResponse()
}

// LogSender writes pushes to the log. Used when no push credentials are configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, token, title, body string, _ map[string]string) error {
	log.Printf("push_log token=%q title=%q body=%q", token, title, body)
	return nil
}
