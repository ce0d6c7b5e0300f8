package avito

// Wire types for the platform's messenger, item, and short-term-rental
// surfaces. Field sets follow the platform's documented schemas; optional
// fields are kept optional rather than defaulted so callers can tell absent
// from zero.

const (
	DefaultChatsLimit    = 50
	DefaultMessagesLimit = 50
	DefaultItemsPerPage  = 100
)

// DefaultChatTypes covers user-to-item and user-to-user conversations.
var DefaultChatTypes = []string{"u2i", "u2u"}

// Booking sources accepted by the calendar mutation endpoints.
const (
	SourceAvito  = "avito"
	SourceManual = "manual"
	SourcePMS    = "pms"
)

// BookingTypeManual is the mutation kind for landlord-placed date blocks.
const BookingTypeManual = "manual"

type Chat struct {
	ID          string      `json:"id"`
	Context     ChatContext `json:"context"`
	Users       []ChatUser  `json:"users"`
	LastMessage *Message    `json:"last_message,omitempty"`
	Created     int64       `json:"created"`
	Updated     int64       `json:"updated"`
}

type ChatContext struct {
	Type  string           `json:"type"`
	Value ChatContextValue `json:"value"`
}

type ChatContextValue struct {
	ID    int64  `json:"id"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

type ChatUser struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

type Message struct {
	ID        string         `json:"id"`
	AuthorID  int64          `json:"author_id"`
	Type      string         `json:"type"`
	Direction string         `json:"direction"`
	Content   MessageContent `json:"content"`
	Created   int64          `json:"created"`
	IsRead    bool           `json:"is_read,omitempty"`
}

type MessageContent struct {
	Text string `json:"text,omitempty"`
}

// InboundMessage is a platform message annotated with the chat it arrived
// in, the counterpart user, and the item the chat is about. Produced by the
// new-message aggregation; never sent back to the platform.
type InboundMessage struct {
	Message
	ChatID        string `json:"chat_id"`
	CounterpartID int64  `json:"chat_user_id"`
	ItemID        int64  `json:"item_id,omitempty"`
}

type Item struct {
	ID      int64   `json:"id"`
	Title   string  `json:"title,omitempty"`
	Address string  `json:"address,omitempty"`
	Price   float64 `json:"price,omitempty"`
	Status  string  `json:"status,omitempty"`
	URL     string  `json:"url,omitempty"`
}

type Booking struct {
	AvitoBookingID string         `json:"avito_booking_id,omitempty"`
	CheckIn        string         `json:"check_in"`
	CheckOut       string         `json:"check_out"`
	Status         string         `json:"status,omitempty"`
	BasePrice      float64        `json:"base_price,omitempty"`
	GuestCount     int            `json:"guest_count,omitempty"`
	Nights         int            `json:"nights,omitempty"`
	SafeDeposit    *SafeDeposit   `json:"safe_deposit,omitempty"`
	Contact        BookingContact `json:"contact"`
}

type SafeDeposit struct {
	OwnerAmount float64 `json:"owner_amount,omitempty"`
	Tax         float64 `json:"tax,omitempty"`
	TotalAmount float64 `json:"total_amount,omitempty"`
}

type BookingContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// BookingEntry is one date range in a booking mutation. Dates are
// YYYY-MM-DD; the range is inclusive and must satisfy start <= end, which
// is validated locally before transmission. Overlap against existing
// bookings is arbitrated by the platform, not here.
type BookingEntry struct {
	DateStart string `json:"date_start"`
	DateEnd   string `json:"date_end"`
	Type      string `json:"type"`
	Comment   string `json:"comment,omitempty"`
}

// AvailabilityInterval opens or closes one date range on an item's
// calendar. Open is 1 for open, 0 for closed, matching the platform's
// interval schema.
type AvailabilityInterval struct {
	DateStart string `json:"date_start"`
	DateEnd   string `json:"date_end"`
	Open      int    `json:"open"`
}

type ListChatsOptions struct {
	UnreadOnly bool     `url:"unread_only"`
	ItemIDs    []int64  `url:"item_ids,omitempty,comma"`
	ChatTypes  []string `url:"chat_types,omitempty,comma"`
	Limit      int      `url:"limit"`
	Offset     int      `url:"offset"`
}

type ListMessagesOptions struct {
	Limit  int `url:"limit"`
	Offset int `url:"offset"`
}

type ListItemsOptions struct {
	Status  string `url:"status,omitempty"`
	PerPage int    `url:"per_page"`
	Page    int    `url:"page"`
}
