package inbox

import (
	"context"

	"github.com/staylink/rentops/internal/avito"
	"github.com/staylink/rentops/pkg/events"
)

// NewBusHandler returns a Handler that publishes each fresh inbound message
// on the event bus. A publish failure propagates, so the poller leaves the
// seen marker behind the message and redelivers it next cycle.
func NewBusHandler(bus events.Publisher) Handler {
	return func(ctx context.Context, msg avito.InboundMessage) error {
		return bus.Publish(ctx, events.InboxMessage, msg)
	}
}
