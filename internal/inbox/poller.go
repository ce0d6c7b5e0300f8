package inbox

import (
	"context"
	"time"

	"github.com/staylink/rentops/internal/avito"
	"github.com/staylink/rentops/pkg/logger"
)

// PlatformClient is the slice of the platform facade the poller needs.
type PlatformClient interface {
	GetNewMessages(ctx context.Context, itemIDs []int64) ([]avito.InboundMessage, error)
	MarkChatRead(ctx context.Context, chatID string) error
}

// SeenStore tracks the newest processed message per chat. The new-message
// aggregation itself does no deduplication, so this state lives with the
// consumer.
type SeenStore interface {
	LastSeen(ctx context.Context, chatID string) (string, error)
	MarkSeen(ctx context.Context, chatID, messageID string) error
}

// Handler processes one fresh inbound message. A handler error stops the
// current chat before its seen marker moves, so the message is retried on
// the next poll.
type Handler func(ctx context.Context, msg avito.InboundMessage) error

// Poller drives the new-message aggregation on an interval, filters out
// messages already recorded in the seen store, hands fresh ones to the
// handler in chronological order, and marks drained chats read.
type Poller struct {
	client  PlatformClient
	seen    SeenStore
	handler Handler
	itemIDs []int64
}

func NewPoller(client PlatformClient, seen SeenStore, handler Handler, itemIDs []int64) *Poller {
	return &Poller{
		client:  client,
		seen:    seen,
		handler: handler,
		itemIDs: itemIDs,
	}
}

// PollOnce runs a single poll cycle and returns the number of messages
// handled.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	messages, err := p.client.GetNewMessages(ctx, p.itemIDs)
	if err != nil {
		return 0, err
	}
	if len(messages) == 0 {
		return 0, nil
	}

	// Keep per-chat platform order: newest first within each chat.
	byChat := make(map[string][]avito.InboundMessage)
	var chatOrder []string
	for _, msg := range messages {
		if _, ok := byChat[msg.ChatID]; !ok {
			chatOrder = append(chatOrder, msg.ChatID)
		}
		byChat[msg.ChatID] = append(byChat[msg.ChatID], msg)
	}

	handled := 0
	for _, chatID := range chatOrder {
		n, err := p.drainChat(ctx, chatID, byChat[chatID])
		handled += n
		if err != nil {
			return handled, err
		}
	}
	return handled, nil
}

func (p *Poller) drainChat(ctx context.Context, chatID string, msgs []avito.InboundMessage) (int, error) {
	lastSeen, err := p.seen.LastSeen(ctx, chatID)
	if err != nil {
		return 0, err
	}

	// Messages arrive newest first; cut at the last processed one.
	var fresh []avito.InboundMessage
	for _, msg := range msgs {
		if lastSeen != "" && msg.ID == lastSeen {
			break
		}
		fresh = append(fresh, msg)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	// Handle oldest to newest so the seen marker only ever moves forward.
	handled := 0
	for i := len(fresh) - 1; i >= 0; i-- {
		msg := fresh[i]
		if err := p.handler(ctx, msg); err != nil {
			return handled, err
		}
		if err := p.seen.MarkSeen(ctx, chatID, msg.ID); err != nil {
			return handled, err
		}
		handled++
	}

	if err := p.client.MarkChatRead(ctx, chatID); err != nil {
		// The chat stays unread on the platform; the seen store already
		// guards against double handling on the next cycle.
		logger.WarnContext(ctx, "Failed to mark chat read", "chat_id", chatID, "error", err)
	}
	return handled, nil
}

// Run polls until ctx is cancelled. Poll failures are logged and the loop
// keeps going; nothing here is fatal to the process.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			handled, err := p.PollOnce(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Inbox poll failed", "handled", handled, "error", err)
				continue
			}
			if handled > 0 {
				logger.InfoContext(ctx, "Inbox poll handled messages", "handled", handled)
			}
		}
	}
}
