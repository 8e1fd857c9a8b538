package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockdesk/internal/model"

	"github.com/streadway/amqp"
)

// Channel is the publishing half of an AMQP channel.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// NotificationPublisher sends committed notifications to a topic exchange with the
// routing key notification.<type>.
type NotificationPublisher struct {
	ch       Channel
	exchange string
}

func NewNotificationPublisher(ch Channel, exchange string) *NotificationPublisher {
	return &NotificationPublisher{ch: ch, exchange: exchange}
}

func RoutingKey(n model.Notification) string {
	return "notification." + n.Type
}

func (p *NotificationPublisher) Deliver(ctx context.Context, n model.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notification serialization error: %w", err)
	}

	err = p.ch.Publish(
		p.exchange,
		RoutingKey(n),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    n.ID.String(),
			Timestamp:    time.Now(),
			Type:         n.Type,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish notification %s: %w", n.ID, err)
	}
	return nil
}
