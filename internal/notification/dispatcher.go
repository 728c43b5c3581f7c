package notification

import (
	"context"
	"log"

	"courtbooking/internal/domain"
)

// Directory resolves who receives an event and where to push it.
type Directory interface {
	AdminIDs(ctx context.Context) ([]int64, error)
	PushTargets(ctx context.Context, ids []int64) (map[int64]string, error)
}

// Dispatcher consumes events on a single worker. It is both the in-process
// Publisher and the handler behind the message bus consumer.
type Dispatcher struct {
	queue  chan Event
	dir    Directory
	sender Sender
	store  *Store
	hub    *Hub
}

func NewDispatcher(queueSize int, dir Directory, sender Sender, store *Store, hub *Hub) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Dispatcher{
		queue:  make(chan Event, queueSize),
		dir:    dir,
		sender: sender,
		store:  store,
		hub:    hub,
	}
}

// NewLiveDispatcher only forwards events to the websocket sessions held by hub.
// An API process running beside cmd/notifier uses it to keep live sessions
// fed while the notifier owns the inbox and push delivery.
func NewLiveDispatcher(dir Directory, hub *Hub) *Dispatcher {
	return NewDispatcher(1, dir, nil, nil, hub)
}

// Publish enqueues ev without blocking. A full queue drops the event.
func (d *Dispatcher) Publish(_ context.Context, ev Event) {
	select {
	case d.queue <- ev:
	default:
		log.Printf("notification_dropped event_id=%s type=%s reason=queue_full", ev.ID, ev.Type)
	}
}

// Run drains the queue until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.queue:
			d.Handle(ctx, ev)
		}
	}
}

// Handle delivers ev to each recipient. Failures are logged per recipient and
// never returned.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) {
	recipients := ev.UserIDs
	if ev.ToAdmins {
		admins, err := d.dir.AdminIDs(ctx)
		if err != nil {
			log.Printf("notification_failed event_id=%s type=%s step=admins error=%q", ev.ID, ev.Type, err.Error())
			return
		}
		recipients = append(append([]int64(nil), recipients...), admins...)
	}
	recipients = uniqueIDs(recipients)
	if len(recipients) == 0 {
		return
	}

	tokens := map[int64]string{}
	if d.sender != nil {
		found, err := d.dir.PushTargets(ctx, recipients)
		if err != nil {
			log.Printf("notification_failed event_id=%s type=%s step=tokens error=%q", ev.ID, ev.Type, err.Error())
		} else {
			tokens = found
		}
	}

	for _, userID := range recipients {
		if err := d.deliver(ctx, ev, userID, tokens[userID]); err != nil {
			log.Printf("notification_failed event_id=%s type=%s error=%q", ev.ID, ev.Type, err.Error())
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev Event, userID int64, token string) error {
	n := &domain.Notification{
		EventID:   ev.ID,
		UserID:    userID,
		Type:      ev.Type,
		Title:     ev.Title,
		Body:      ev.Body,
		Data:      ev.Data,
		CreatedAt: ev.OccurredAt,
	}
	if d.store != nil {
		fresh, err := d.store.Save(ctx, n)
		if err != nil {
			return &domain.DeliveryError{UserID: userID, Err: err}
		}
		if !fresh {
			// redelivered event
			return nil
		}
	}
	if d.hub != nil {
		d.hub.SendToUser(userID, n)
	}
	if token == "" || d.sender == nil {
		return nil
	}
	if err := d.sender.Send(ctx, token, ev.Title, ev.Body, ev.Data); err != nil {
		return &domain.DeliveryError{UserID: userID, Err: err}
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Inline delivers on the caller's goroutine. One-shot commands use it so that
// every notice is handled before the process exits.
type Inline struct {
	D *Dispatcher
}

func (p Inline) Publish(ctx context.Context, ev Event) {
	p.D.Handle(ctx, ev)
}
