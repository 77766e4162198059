// Package fcm delivers inbox push notifications to the team's devices
// through Firebase Cloud Messaging.
package fcm

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Kind is the notification type the web client switches on.
type Kind string

const (
	// KindNewMail announces fresh customer mail on a thread.
	KindNewMail Kind = "thread_update"
	// KindAssigned tells a teammate a thread was assigned to them.
	KindAssigned Kind = "thread_assigned"
)

// Notification is one inbox push. The thread ID doubles as the deep-link
// target, so every notification opens its thread when clicked.
type Notification struct {
	Kind     Kind
	Title    string
	Body     string
	ThreadID string
}

// data builds the FCM data payload the client reads alongside the visible
// notification.
func (n Notification) data() map[string]string {
	return map[string]string{
		"type":         string(n.Kind),
		"thread_id":    n.ThreadID,
		"click_action": "/inbox/" + n.ThreadID,
	}
}

// Client wraps the Firebase messaging client.
type Client struct {
	messagingClient *messaging.Client
}

// NewClient creates an FCM client using the provided credentials file.
func NewClient(credentialsFile string) (*Client, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	log.Println("[FCM] Client initialized successfully")
	return &Client{
		messagingClient: messagingClient,
	}, nil
}

// SendToDevices pushes one notification to multiple device tokens.
// Returns the tokens that failed delivery so callers can prune them.
func (c *Client) SendToDevices(ctx context.Context, tokens []string, n Notification) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.data(),
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: n.Title,
				Body:  n.Body,
				Icon:  "/icon-192.svg",
			},
		},
	}

	response, err := c.messagingClient.SendEachForMulticast(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("failed to send FCM multicast message: %w", err)
	}

	log.Printf("[FCM] Multicast sent: %d success, %d failures", response.SuccessCount, response.FailureCount)

	var failedTokens []string
	for i, resp := range response.Responses {
		if !resp.Success {
			failedTokens = append(failedTokens, tokens[i])
			log.Printf("[FCM] Failed to send to token %s: %v", tokens[i][:20]+"...", resp.Error)
		}
	}

	return failedTokens, nil
}
