package relay

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/staylink/rentops/internal/domain"
	"github.com/staylink/rentops/internal/relay/forward"
	"github.com/staylink/rentops/internal/relay/response"
	"github.com/staylink/rentops/pkg/logger"
)

// Handlers exposes the relay's single operation: accept a notification
// event from the guest agent and forward it to the landlord process. The
// acknowledgement covers receipt and the one forward attempt, not display
// to the landlord.
type Handlers struct {
	forwarder forward.Forwarder
}

func New(forwarder forward.Forwarder) *Handlers {
	return &Handlers{forwarder: forwarder}
}

// NotifyAck is the success body returned to the sender.
type NotifyAck struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

func (h *Handlers) Notify(w http.ResponseWriter, r *http.Request) {
	var event domain.NotificationEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		response.BadRequest(w, "Invalid notification body")
		return
	}

	if _, ok := domain.ParseNotificationKind(string(event.Kind)); !ok {
		response.BadRequest(w, "Unknown notification kind")
		return
	}
	if event.Payload.ChatID == "" || event.Payload.Time == "" {
		response.BadRequest(w, "Notification payload requires chat_id and time")
		return
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	if err := h.forwarder.Forward(r.Context(), event); err != nil {
		logger.ErrorContext(r.Context(), "Notification forward failed",
			"event_id", event.ID, "kind", event.Kind, "error", err,
		)
		response.ForwardFailed(w, "Failed to forward notification to landlord process")
		return
	}

	logger.InfoContext(r.Context(), "Notification relayed",
		"event_id", event.ID, "kind", event.Kind, "chat_id", event.Payload.ChatID,
	)
	response.WriteJSON(w, http.StatusOK, NotifyAck{Status: "accepted", ID: event.ID})
}
