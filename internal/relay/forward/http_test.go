package forward_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/staylink/rentops/internal/domain"
	"github.com/staylink/rentops/internal/relay/forward"
)

func checkInEvent() domain.NotificationEvent {
	return domain.NotificationEvent{
		ID:       "evt-1",
		Kind:     domain.NotificationCheckInDetected,
		Audience: []int64{1308241542},
		Payload: domain.CheckInPayload{
			GuestID: "G1",
			ChatID:  "C1",
			Time:    "14:00",
			ItemID:  42,
		},
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestHTTPForwarderDelivers(t *testing.T) {
	var received domain.NotificationEvent
	landlord := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode forwarded event: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer landlord.Close()

	fwd := forward.NewHTTPForwarder(landlord.URL)
	if err := fwd.Forward(context.Background(), checkInEvent()); err != nil {
		t.Fatalf("Forward: %v", err)
	}

	if received.ID != "evt-1" || received.Payload.ChatID != "C1" || received.Payload.Time != "14:00" {
		t.Errorf("forwarded event = %+v", received)
	}
}

func TestHTTPForwarderUnreachableTarget(t *testing.T) {
	landlord := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	landlord.Close()

	fwd := forward.NewHTTPForwarder(landlord.URL)
	err := fwd.Forward(context.Background(), checkInEvent())
	if err == nil {
		t.Fatal("expected error for unreachable target")
	}
	if !forward.IsForwardingFailure(err) {
		t.Errorf("error %v not classified as forwarding failure", err)
	}
}

func TestHTTPForwarderRejectedByTarget(t *testing.T) {
	landlord := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown event", http.StatusUnprocessableEntity)
	}))
	defer landlord.Close()

	fwd := forward.NewHTTPForwarder(landlord.URL)
	err := fwd.Forward(context.Background(), checkInEvent())
	if err == nil {
		t.Fatal("expected error for rejected event")
	}
	if !forward.IsForwardingFailure(err) {
		t.Errorf("error %v not classified as forwarding failure", err)
	}
}
