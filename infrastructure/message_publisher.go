package infrastructure

import "context"

// MessagePublisher defines the interface for publishing messages to a message bus
type MessagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// NotificationMetrics counts undelivered notifications
type NotificationMetrics interface {
	IncNotificationFailure(sink string)
}

type noopNotificationMetrics struct{}

func (noopNotificationMetrics) IncNotificationFailure(string) {}
