package forward

import (
	"context"
	"errors"
	"fmt"

	"github.com/staylink/rentops/internal/domain"
)

// Forwarder delivers a notification event to the landlord-facing process.
// Exactly one forward attempt is made per call; queuing and retries are the
// caller's choice.
type Forwarder interface {
	Forward(ctx context.Context, event domain.NotificationEvent) error
}

// Error reports a failed forward attempt. The notification did not reach
// the landlord process; the sender may retry the whole notify call.
type Error struct {
	Target string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("forward to %s failed: %v", e.Target, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsForwardingFailure reports whether err is a relay forwarding failure.
func IsForwardingFailure(err error) bool {
	var fwdErr *Error
	return errors.As(err, &fwdErr)
}
