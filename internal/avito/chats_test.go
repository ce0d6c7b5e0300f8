package avito

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
)

func queryContains(raw, part string) bool {
	for _, kv := range strings.Split(raw, "&") {
		if kv == part {
			return true
		}
	}
	return false
}

func TestListChatsQuery(t *testing.T) {
	var gotPath, gotQuery string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"chats":[{"id":"C1"},{"id":"C2"}]}`))
	})
	client, _, _ := newTestClient(t, handler)

	chats, err := client.ListChats(context.Background(), ListChatsOptions{
		UnreadOnly: true,
		ItemIDs:    []int64{1, 2},
	})
	if err != nil {
		t.Fatalf("ListChats() error: %v", err)
	}
	if len(chats) != 2 || chats[0].ID != "C1" || chats[1].ID != "C2" {
		t.Errorf("chats = %+v, want platform order preserved", chats)
	}
	if gotPath != "/messenger/v2/accounts/111/chats" {
		t.Errorf("path = %q", gotPath)
	}
	for _, part := range []string{
		"unread_only=true",
		"item_ids=1%2C2",
		"chat_types=u2i%2Cu2u",
		"limit=50",
		"offset=0",
	} {
		if !queryContains(gotQuery, part) {
			t.Errorf("query %q missing %q", gotQuery, part)
		}
	}
}

func TestListMessagesBareArray(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The messages endpoint responds with a bare array.
		w.Write([]byte(`[
			{"id":"m3","direction":"in","content":{"text":"latest"}},
			{"id":"m2","direction":"out","content":{"text":"earlier"}},
			{"id":"m1","direction":"in","content":{"text":"first"}}
		]`))
	})
	client, _, _ := newTestClient(t, handler)

	messages, err := client.ListMessages(context.Background(), "C1", ListMessagesOptions{})
	if err != nil {
		t.Fatalf("ListMessages() error: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(messages))
	}
	if messages[0].ID != "m3" || messages[2].ID != "m1" {
		t.Errorf("order not preserved: %+v", messages)
	}
}

func TestListMessagesRequiresChatID(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	client, _, _ := newTestClient(t, handler)

	_, err := client.ListMessages(context.Background(), "", ListMessagesOptions{})
	if !IsValidationError(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if calls.Load() != 0 {
		t.Errorf("requests = %d, want 0", calls.Load())
	}
}

func TestSendMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"id":"m9","content":{"text":"hello"}}`))
	})
	client, _, _ := newTestClient(t, handler)

	msg, err := client.SendMessage(context.Background(), "C1", "hello")
	if err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}
	if msg.ID != "m9" {
		t.Errorf("ack id = %q, want m9", msg.ID)
	}
	if gotPath != "/messenger/v1/accounts/111/chats/C1/messages" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["type"] != "text" {
		t.Errorf("payload type = %v, want text", gotBody["type"])
	}
	inner, _ := gotBody["message"].(map[string]any)
	if inner["text"] != "hello" {
		t.Errorf("payload message = %v", gotBody["message"])
	}
}

func TestSendMessageRequiresText(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	client, _, _ := newTestClient(t, handler)

	_, err := client.SendMessage(context.Background(), "C1", "")
	if !IsValidationError(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if calls.Load() != 0 {
		t.Errorf("requests = %d, want 0", calls.Load())
	}
}

func TestMarkChatRead(t *testing.T) {
	var gotPath, gotMethod string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Write([]byte(`{}`))
	})
	client, _, _ := newTestClient(t, handler)

	if err := client.MarkChatRead(context.Background(), "C1"); err != nil {
		t.Fatalf("MarkChatRead() error: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/messenger/v1/accounts/111/chats/C1/read" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
}

func TestGetNewMessages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/messenger/v2/accounts/111/chats", func(w http.ResponseWriter, r *http.Request) {
		if !queryContains(r.URL.RawQuery, "unread_only=true") {
			t.Errorf("chats query %q missing unread_only=true", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"chats": []map[string]any{
				{
					"id": "C1",
					"context": map[string]any{
						"type":  "item",
						"value": map[string]any{"id": 42, "title": "Studio on Lenina"},
					},
					"users": []map[string]any{
						{"id": 111, "name": "Landlord"},
						{"id": 222, "name": "Guest"},
					},
				},
			},
		})
	})
	mux.HandleFunc("/messenger/v3/accounts/111/chats/C1/messages/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":"m3","author_id":222,"direction":"in","content":{"text":"When can I check in?"}},
			{"id":"m2","author_id":111,"direction":"out","content":{"text":"Hi!"}},
			{"id":"m1","author_id":222,"direction":"in","content":{"text":"Hello"}}
		]`))
	})
	client, _, _ := newTestClient(t, mux)

	inbound, err := client.GetNewMessages(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetNewMessages() error: %v", err)
	}
	if len(inbound) != 2 {
		t.Fatalf("inbound = %d, want 2 (outbound filtered)", len(inbound))
	}
	for _, msg := range inbound {
		if msg.ChatID != "C1" {
			t.Errorf("chat id = %q, want C1", msg.ChatID)
		}
		if msg.CounterpartID != 222 {
			t.Errorf("counterpart = %d, want 222", msg.CounterpartID)
		}
		if msg.ItemID != 42 {
			t.Errorf("item id = %d, want 42", msg.ItemID)
		}
	}
	if inbound[0].ID != "m3" || inbound[1].ID != "m1" {
		t.Errorf("order not preserved: %+v", inbound)
	}
}
