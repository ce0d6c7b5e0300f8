package forward

import (
	"context"

	"github.com/staylink/rentops/internal/domain"
	"github.com/staylink/rentops/pkg/events"
)

// NATSForwarder publishes notification events onto the local event bus for
// a landlord surface that subscribes instead of listening on a socket.
type NATSForwarder struct {
	bus     events.Publisher
	subject string
}

func NewNATSForwarder(bus events.Publisher) *NATSForwarder {
	return &NATSForwarder{
		bus:     bus,
		subject: events.NotifyCheckIn,
	}
}

func (f *NATSForwarder) Forward(ctx context.Context, event domain.NotificationEvent) error {
	if err := f.bus.Publish(ctx, f.subject, event); err != nil {
		return &Error{Target: f.subject, Err: err}
	}
	return nil
}
