package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/hr-engage-api/internal/models"
)

// Notifier delivers operator notifications.
type Notifier interface {
	Notify(ctx context.Context, notification models.Notification) error
}

// LogNotifier writes notifications to the application log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the notification.
func (n *LogNotifier) Notify(_ context.Context, notification models.Notification) error {
	n.logger.Info("notification",
		zap.String("type", string(notification.Type)),
		zap.String("recipient", notification.Recipient),
		zap.String("org_id", notification.OrgID),
		zap.String("session_id", notification.SessionID),
		zap.String("message", notification.Message),
	)
	return nil
}

type notificationPublisher interface {
	Publish(ctx context.Context, recipient string, payload interface{}) error
}

// PubSubNotifier publishes notifications to a per-recipient channel.
type PubSubNotifier struct {
	publisher notificationPublisher
	fallback  Notifier
	logger    *zap.Logger
}

// NewPubSubNotifier constructs a PubSubNotifier. Every notification is also
// handed to fallback when one is supplied.
func NewPubSubNotifier(publisher notificationPublisher, fallback Notifier, logger *zap.Logger) *PubSubNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PubSubNotifier{publisher: publisher, fallback: fallback, logger: logger}
}

// Notify publishes the notification.
func (n *PubSubNotifier) Notify(ctx context.Context, notification models.Notification) error {
	if n.fallback != nil {
		_ = n.fallback.Notify(ctx, notification)
	}
	if err := n.publisher.Publish(ctx, notification.Recipient, notification); err != nil {
		n.logger.Warn("publish notification failed", zap.String("recipient", notification.Recipient), zap.Error(err))
		return err
	}
	return nil
}
