package avito

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-querystring/query"

	"github.com/staylink/rentops/pkg/logger"
)

// ListChats returns the account's chats, filtered by read state, item ids,
// and chat types. Order is the platform's.
func (c *Client) ListChats(ctx context.Context, opts ListChatsOptions) ([]Chat, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultChatsLimit
	}
	if len(opts.ChatTypes) == 0 {
		opts.ChatTypes = DefaultChatTypes
	}

	qs, err := query.Values(opts)
	if err != nil {
		return nil, validationErr("list_chats", "encode query: %v", err)
	}

	var res struct {
		Chats []Chat `json:"chats"`
	}
	if err := c.do(ctx, "list_chats", http.MethodGet, "/messenger/v2/accounts/{account}/chats", qs, nil, &res); err != nil {
		return nil, err
	}
	return res.Chats, nil
}

// ListMessages returns messages in a chat, newest first as delivered by the
// platform. No re-sorting is performed.
func (c *Client) ListMessages(ctx context.Context, chatID string, opts ListMessagesOptions) ([]Message, error) {
	if chatID == "" {
		return nil, validationErr("list_messages", "chat id is required")
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultMessagesLimit
	}

	qs, err := query.Values(opts)
	if err != nil {
		return nil, validationErr("list_messages", "encode query: %v", err)
	}

	// This endpoint responds with a bare array rather than an envelope.
	var res []Message
	path := fmt.Sprintf("/messenger/v3/accounts/{account}/chats/%s/messages/", chatID)
	if err := c.do(ctx, "list_messages", http.MethodGet, path, qs, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// SendMessage posts a text message to a chat and returns the platform's
// acknowledgement. No idempotency key is attached; calling twice sends
// twice.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) (*Message, error) {
	if chatID == "" {
		return nil, validationErr("send_message", "chat id is required")
	}
	if text == "" {
		return nil, validationErr("send_message", "message text is required")
	}

	payload := map[string]any{
		"message": map[string]string{"text": text},
		"type":    "text",
	}

	var res Message
	path := fmt.Sprintf("/messenger/v1/accounts/{account}/chats/%s/messages", chatID)
	if err := c.do(ctx, "send_message", http.MethodPost, path, nil, payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// MarkChatRead marks the entire chat as read. The platform has no
// per-message granularity here.
func (c *Client) MarkChatRead(ctx context.Context, chatID string) error {
	if chatID == "" {
		return validationErr("mark_chat_read", "chat id is required")
	}
	path := fmt.Sprintf("/messenger/v1/accounts/{account}/chats/%s/read", chatID)
	return c.do(ctx, "mark_chat_read", http.MethodPost, path, nil, nil, nil)
}

// GetNewMessages lists unread chats and gathers their inbound messages,
// annotating each with its chat, counterpart user, and item. It performs no
// deduplication against previously seen messages; callers own that state.
func (c *Client) GetNewMessages(ctx context.Context, itemIDs []int64) ([]InboundMessage, error) {
	tok, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}

	chats, err := c.ListChats(ctx, ListChatsOptions{
		UnreadOnly: true,
		ItemIDs:    itemIDs,
		Limit:      10,
	})
	if err != nil {
		return nil, err
	}

	var inbound []InboundMessage
	for _, chat := range chats {
		if chat.ID == "" {
			continue
		}

		var itemID int64
		if chat.Context.Type == "item" {
			itemID = chat.Context.Value.ID
		}

		var counterpart int64
		for _, u := range chat.Users {
			if u.ID != tok.AccountID {
				counterpart = u.ID
				break
			}
		}

		messages, err := c.ListMessages(ctx, chat.ID, ListMessagesOptions{Limit: 20})
		if err != nil {
			return nil, err
		}

		for _, msg := range messages {
			if msg.Direction != "in" {
				continue
			}
			inbound = append(inbound, InboundMessage{
				Message:       msg,
				ChatID:        chat.ID,
				CounterpartID: counterpart,
				ItemID:        itemID,
			})
		}
	}

	logger.DebugContext(ctx, "Aggregated inbound messages",
		"unread_chats", len(chats), "messages", len(inbound),
	)
	return inbound, nil
}
