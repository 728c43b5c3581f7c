package notification

import (
	"context"
	"sync"
	"time"

	"courtbooking/internal/domain"

	"github.com/google/uuid"
)

// Event is an outbound notice emitted by the booking and membership services.
// Delivery happens out of band; publishing never reports failure to the caller.
type Event struct {
	ID         string                  `json:"id"`
	Type       domain.NotificationType `json:"type"`
	UserIDs    []int64                 `json:"user_ids,omitempty"`
	ToAdmins   bool                    `json:"to_admins,omitempty"`
	Title      string                  `json:"title"`
	Body       string                  `json:"body"`
	Data       map[string]string       `json:"data,omitempty"`
	OccurredAt time.Time               `json:"occurred_at"`
}

func NewEvent(typ domain.NotificationType, title, body string, data map[string]string, userIDs ...int64) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		UserIDs:    userIDs,
		Title:      title,
		Body:       body,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

// NewAdminEvent addresses every administrator.
func NewAdminEvent(typ domain.NotificationType, title, body string, data map[string]string) Event {
	ev := NewEvent(typ, title, body, data)
	ev.ToAdmins = true
	return ev
}

// RoutingKey is the topic the event is published under on the message bus.
func (e Event) RoutingKey() string {
	return "notification." + string(e.Type)
}

type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Nop discards events. Useful for tools that must not notify anybody.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) OfType(typ domain.NotificationType) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}
