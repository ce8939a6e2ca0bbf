// Package notifier is the outbound notification sink. Operations publish an
// event after their transaction commits; a subscriber persists the bell-menu
// rows asynchronously. Failures on this path are logged and never propagate
// back into the triggering operation.
package notifier

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/kansha-app/kansha/model"
	Logger "github.com/kansha-app/kansha/utils/log"
	"gorm.io/gorm"
)

const TopicNotificationCreated = "notification.created"

// Notification event kinds.
const (
	TypePostReceived = "POST_RECEIVED"
	TypeLikeReceived = "LIKE_RECEIVED"
)

// Event carries everything needed to materialize one notification row.
type Event struct {
	RecipientID string  `json:"recipient_id"`
	SenderID    *string `json:"sender_id"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Message     string  `json:"message"`
	PostID      *string `json:"post_id"`
}

// Bus is an in-process pub/sub channel between the request handlers and the
// notification writer.
type Bus struct {
	pubsub *gochannel.GoChannel
	db     *gorm.DB
}

func NewBus(db *gorm.DB) *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{}),
		db:     db,
	}
}

// Publish sends the event to the writer, best effort. Callers must only
// publish after their own transaction committed, a notification must never
// exist for a rolled back operation.
func (b *Bus) Publish(e *Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		Logger.Log.Error("cannot marshal notification event: ", err)
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(TopicNotificationCreated, msg); err != nil {
		Logger.Log.Error("cannot publish notification event: ", err)
	}
}

// Run consumes events and writes notification rows until ctx is canceled or
// the bus is closed. Persist failures are logged and the loop continues.
func (b *Bus) Run(ctx context.Context) error {
	messages, err := b.pubsub.Subscribe(ctx, TopicNotificationCreated)
	if err != nil {
		return err
	}

	for msg := range messages {
		msg.Ack()

		var e Event
		if err := json.Unmarshal(msg.Payload, &e); err != nil {
			Logger.Log.Error("cannot unmarshal notification event: ", err)
			continue
		}
		if err := b.persist(&e); err != nil {
			Logger.Log.Error("cannot persist notification for user ", e.RecipientID, ": ", err)
		}
	}

	return nil
}

func (b *Bus) persist(e *Event) error {
	notification := model.Notification{
		Id:          uuid.New().String(),
		RecipientID: e.RecipientID,
		SenderID:    e.SenderID,
		Type:        e.Type,
		Title:       e.Title,
		Message:     e.Message,
		PostID:      e.PostID,
	}
	return b.db.Create(&notification).Error
}

func (b *Bus) Close() error {
	return b.pubsub.Close()
}
