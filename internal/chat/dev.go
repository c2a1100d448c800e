package chat

import (
	"context"
	"log"
	"time"
)

// DevClient logs outbound chat calls instead of sending them. It stands in
// for Client in local development when no bot token is configured.
type DevClient struct{}

// NewDevClient returns a DevClient.
func NewDevClient() *DevClient {
	return &DevClient{}
}

func (d *DevClient) PushMessage(_ context.Context, platformUserID string, resp Response) error {
	log.Printf("chat (dev): push to %s: %s (%d blocks)", platformUserID, resp.Text, len(resp.Blocks))
	return nil
}

func (d *DevClient) SetStatus(_ context.Context, platformUserID, statusText, emoji string, expiresAt time.Time) error {
	log.Printf("chat (dev): set status for %s: %s %s (expires %v)", platformUserID, emoji, statusText, expiresAt)
	return nil
}

func (d *DevClient) ClearStatus(_ context.Context, platformUserID string) error {
	log.Printf("chat (dev): clear status for %s", platformUserID)
	return nil
}
