package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"stockdesk/internal/model"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent []published
	err  error
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func TestDeliverPublishesWithTypedRoutingKey(t *testing.T) {
	ch := &fakeChannel{}
	pub := NewNotificationPublisher(ch, "stockdesk.notifications")

	n := model.Notification{ID: uuid.New(), Type: model.NotificationRequestApproved, Message: "approved"}
	require.NoError(t, pub.Deliver(context.Background(), n))

	require.Len(t, ch.sent, 1)
	got := ch.sent[0]
	assert.Equal(t, "stockdesk.notifications", got.exchange)
	assert.Equal(t, "notification.request_approved", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, n.ID.String(), got.msg.MessageId)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)

	var body model.Notification
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, "approved", body.Message)
}

func TestDeliverWrapsPublishFailure(t *testing.T) {
	boom := errors.New("channel closed")
	pub := NewNotificationPublisher(&fakeChannel{err: boom}, "x")

	err := pub.Deliver(context.Background(), model.Notification{ID: uuid.New(), Type: "t"})
	assert.ErrorIs(t, err, boom)
}

func TestDeliverSkipsCancelledContext(t *testing.T) {
	ch := &fakeChannel{}
	pub := NewNotificationPublisher(ch, "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, pub.Deliver(ctx, model.Notification{ID: uuid.New()}), context.Canceled)
	assert.Empty(t, ch.sent)
}
