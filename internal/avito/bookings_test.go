package avito

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
)

func TestUpdateItemBookingsRejectsInvertedRange(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{}`))
	})
	client, _, _ := newTestClient(t, handler)

	err := client.UpdateItemBookings(context.Background(), 42, []BookingEntry{
		{DateStart: "2024-01-05", DateEnd: "2024-01-01"},
	}, "")
	if !IsValidationError(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if calls.Load() != 0 {
		t.Errorf("requests = %d, want 0 (validation must precede the network)", calls.Load())
	}
}

func TestUpdateItemBookingsRejectsMalformedDate(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	client, _, _ := newTestClient(t, handler)

	err := client.UpdateItemBookings(context.Background(), 42, []BookingEntry{
		{DateStart: "05.01.2024", DateEnd: "2024-01-07"},
	}, "")
	if !IsValidationError(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if calls.Load() != 0 {
		t.Errorf("requests = %d, want 0", calls.Load())
	}
}

func TestUpdateItemBookingsPayload(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Bookings []BookingEntry `json:"bookings"`
		Source   string         `json:"source"`
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{}`))
	})
	client, _, _ := newTestClient(t, handler)

	err := client.UpdateItemBookings(context.Background(), 42, []BookingEntry{
		{DateStart: "2024-01-01", DateEnd: "2024-01-05", Comment: "renovation"},
	}, "")
	if err != nil {
		t.Fatalf("UpdateItemBookings() error: %v", err)
	}
	if gotPath != "/core/v1/accounts/111/items/42/bookings" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody.Source != SourcePMS {
		t.Errorf("source = %q, want default %q", gotBody.Source, SourcePMS)
	}
	if len(gotBody.Bookings) != 1 || gotBody.Bookings[0].Type != BookingTypeManual {
		t.Errorf("bookings = %+v, want one manual entry", gotBody.Bookings)
	}
}

func TestGetItemBookings(t *testing.T) {
	var gotQuery string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]any{
			"bookings": []map[string]any{
				{
					"avito_booking_id": "B1",
					"check_in":         "2024-01-03",
					"check_out":        "2024-01-07",
					"status":           "active",
					"base_price":       5200.0,
					"guest_count":      2,
					"nights":           4,
					"contact":          map[string]string{"name": "Ivan", "phone": "+7900"},
				},
				{
					"avito_booking_id": "B2",
					"check_in":         "2024-01-10",
					"check_out":        "2024-01-12",
					"status":           "pending",
					"contact":          map[string]string{"name": "Olga"},
				},
			},
		})
	})
	client, _, _ := newTestClient(t, handler)

	bookings, err := client.GetItemBookings(context.Background(), 42, "2024-01-01", "2024-01-31", false)
	if err != nil {
		t.Fatalf("GetItemBookings() error: %v", err)
	}
	if len(bookings) != 2 {
		t.Fatalf("bookings = %d, want 2", len(bookings))
	}

	first := bookings[0]
	if first.AvitoBookingID != "B1" || first.CheckIn != "2024-01-03" || first.CheckOut != "2024-01-07" {
		t.Errorf("first booking fields not preserved: %+v", first)
	}
	if first.Status != "active" || first.BasePrice != 5200 || first.GuestCount != 2 || first.Nights != 4 {
		t.Errorf("first booking detail fields not preserved: %+v", first)
	}
	if first.Contact.Name != "Ivan" || first.Contact.Phone != "+7900" {
		t.Errorf("first booking contact not preserved: %+v", first.Contact)
	}
	if bookings[1].AvitoBookingID != "B2" || bookings[1].Status != "pending" {
		t.Errorf("second booking fields not preserved: %+v", bookings[1])
	}

	for _, part := range []string{"date_start=2024-01-01", "date_end=2024-01-31", "with_unpaid=false"} {
		if !queryContains(gotQuery, part) {
			t.Errorf("query %q missing %q", gotQuery, part)
		}
	}
}

func TestGetItemBookingsRejectsInvertedRange(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	client, _, _ := newTestClient(t, handler)

	_, err := client.GetItemBookings(context.Background(), 42, "2024-02-01", "2024-01-01", false)
	if !IsValidationError(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if calls.Load() != 0 {
		t.Errorf("requests = %d, want 0", calls.Load())
	}
}

func TestUpdateItemAvailability(t *testing.T) {
	var gotBody struct {
		ItemID    int64                  `json:"item_id"`
		Intervals []AvailabilityInterval `json:"intervals"`
		Source    string                 `json:"source"`
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{}`))
	})
	client, _, _ := newTestClient(t, handler)

	err := client.UpdateItemAvailability(context.Background(), 42, []AvailabilityInterval{
		{DateStart: "2024-02-01", DateEnd: "2024-02-10", Open: 1},
		{DateStart: "2024-02-11", DateEnd: "2024-02-15", Open: 0},
	}, SourceManual)
	if err != nil {
		t.Fatalf("UpdateItemAvailability() error: %v", err)
	}
	if gotBody.ItemID != 42 || gotBody.Source != SourceManual || len(gotBody.Intervals) != 2 {
		t.Errorf("payload = %+v", gotBody)
	}
}

func TestUpdateItemAvailabilityRejectsBadOpenFlag(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	client, _, _ := newTestClient(t, handler)

	err := client.UpdateItemAvailability(context.Background(), 42, []AvailabilityInterval{
		{DateStart: "2024-02-01", DateEnd: "2024-02-10", Open: 3},
	}, "")
	if !IsValidationError(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if calls.Load() != 0 {
		t.Errorf("requests = %d, want 0", calls.Load())
	}
}
