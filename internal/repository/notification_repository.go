package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NotificationRepository publishes notification payloads on Redis pub/sub.
type NotificationRepository struct {
	client *redis.Client
	prefix string
}

// NewNotificationRepository constructs the publisher. Channels are named
// "<prefix>:<recipient>".
func NewNotificationRepository(client *redis.Client, prefix string) *NotificationRepository {
	if prefix == "" {
		prefix = "notifications"
	}
	return &NotificationRepository{client: client, prefix: prefix}
}

// Channel returns the channel a recipient subscribes to.
func (r *NotificationRepository) Channel(recipient string) string {
	return r.prefix + ":" + recipient
}

// Publish sends payload to the recipient channel.
func (r *NotificationRepository) Publish(ctx context.Context, recipient string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := r.client.Publish(ctx, r.Channel(recipient), body).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", r.Channel(recipient), err)
	}
	return nil
}
