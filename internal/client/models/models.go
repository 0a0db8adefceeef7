package models

import "time"

// Message types carried on the wire.
const (
	MessageTypeText             = "TEXT"
	MessageTypePaymentRequest   = "PAYMENT_REQUEST"
	MessageTypePaymentCompleted = "PAYMENT_COMPLETED"
	MessageTypeSystem           = "SYSTEM"
)

// Payment request statuses.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusApproved  = "approved"
	PaymentStatusRejected  = "rejected"
	PaymentStatusCompleted = "completed"
)

// User roles.
const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
)

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

type Conversation struct {
	ID            string    `json:"id"`
	Client        User      `json:"client"`
	Freelancer    User      `json:"freelancer"`
	ProjectTitle  string    `json:"project_title,omitempty"`
	LastMessage   string    `json:"last_message,omitempty"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int       `json:"unread_count"`
}

// Other returns the participant that is not userID.
func (c Conversation) Other(userID string) User {
	if c.Client.ID == userID {
		return c.Freelancer
	}
	return c.Client
}

// Message is one entry in a conversation feed. Before server confirmation an
// optimistic entry has only TempID set and Pending true; once confirmed it is
// identified by ID alone.
type Message struct {
	ID               string    `json:"id,omitempty"`
	TempID           string    `json:"temp_id,omitempty"`
	ConversationID   string    `json:"conversation_id"`
	SenderID         string    `json:"sender_id"`
	SenderName       string    `json:"sender_name,omitempty"`
	Content          string    `json:"content"`
	Type             string    `json:"message_type"`
	Currency         string    `json:"currency,omitempty"`
	Amount           float64   `json:"amount,omitempty"`
	PaymentRequestID string    `json:"payment_request_id,omitempty"`
	PaymentStatus    string    `json:"payment_status,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	ReadBy           []string  `json:"read_by,omitempty"`
	Pending          bool      `json:"-"`
}

type PaymentRequest struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	FreelancerID   string    `json:"freelancer_id"`
	ClientID       string    `json:"client_id"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	Description    string    `json:"description"`
	Status         string    `json:"status"`
	MessageID      string    `json:"message_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type Wallet struct {
	UserID       string              `json:"user_id"`
	Balance      float64             `json:"balance"`
	Transactions []WalletTransaction `json:"transactions,omitempty"`
}

type WalletTransaction struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"` // "credit" or "debit"
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
