package notification

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"courtbooking/internal/pkg/mq"
)

// RoutingPattern binds a queue to every notification topic.
const RoutingPattern = "notification.#"

const publishTimeout = 3 * time.Second

type busPublisher interface {
	PublishJSON(ctx context.Context, key, messageID string, v any) error
}

// BusPublisher forwards events to the message bus so a separate notifier
// process delivers them. A bus failure is logged and the event is dropped.
type BusPublisher struct {
	pub busPublisher
}

func NewBusPublisher(pub *mq.Publisher) *BusPublisher {
	return &BusPublisher{pub: pub}
}

func (p *BusPublisher) Publish(ctx context.Context, ev Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.pub.PublishJSON(ctx, ev.RoutingKey(), ev.ID, ev); err != nil {
		log.Printf("notification_publish_failed event_id=%s type=%s error=%q", ev.ID, ev.Type, err.Error())
	}
}

// Consume feeds bus deliveries to the dispatcher until ctx is cancelled or the
// channel closes. Handle is idempotent per event id, so redeliveries are safe.
func Consume(ctx context.Context, cons *mq.Consumer, d *Dispatcher) error {
	msgs, err := cons.Deliveries(ctx)
	if err != nil {
		return err
	}
	for msg := range msgs {
		var ev Event
		if err := json.Unmarshal(msg.Body, &ev); err != nil {
			log.Printf("notification_consume unmarshal_error=%q", err.Error())
			_ = msg.Nack(false, false)
			continue
		}
		if ev.ID == "" {
			ev.ID = msg.MessageId
		}
		if ev.ID == "" {
			log.Printf("notification_consume invalid_event routing_key=%s", msg.RoutingKey)
			_ = msg.Ack(false)
			continue
		}
		d.Handle(ctx, ev)
		_ = msg.Ack(false)
	}
	return ctx.Err()
}
