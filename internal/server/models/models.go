package models

import (
	"encoding/json"
	"time"
)

// Message types.
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
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type Conversation struct {
	ID            string      `json:"id"`
	Client        Participant `json:"client"`
	Freelancer    Participant `json:"freelancer"`
	ProjectTitle  string      `json:"project_title,omitempty"`
	LastMessage   string      `json:"last_message,omitempty"`
	LastMessageAt time.Time   `json:"last_message_at"`
	UnreadCount   int         `json:"unread_count"`
	CreatedAt     time.Time   `json:"created_at"`
}

type Message struct {
	ID               string    `json:"id"`
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
	Balance      float64             `json:"balance"` // stored in INR
	Transactions []WalletTransaction `json:"transactions,omitempty"`
}

type WalletTransaction struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"` // "credit" or "debit"
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// WS Message Types

type WSFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinConversationPayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

type SendMessagePayload struct {
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	SenderName     string `json:"sender_name,omitempty"`
	Content        string `json:"content"`
	MessageType    string `json:"message_type"`
	TempID         string `json:"temp_id"`
}

type TypingPayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	UserName       string `json:"user_name,omitempty"`
}

type MessageSentPayload struct {
	Message Message `json:"message"`
	TempID  string  `json:"temp_id"`
}

type ReceiveMessagePayload struct {
	Message Message `json:"message"`
}

type MessageErrorPayload struct {
	TempID string `json:"temp_id"`
	Error  string `json:"error"`
}

type PaymentRequestUpdatedPayload struct {
	ConversationID   string `json:"conversation_id"`
	PaymentRequestID string `json:"payment_request_id"`
	Status           string `json:"status"`
}
