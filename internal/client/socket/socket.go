// Package socket manages the websocket connection to the messaging server:
// dialing, typed decoding of inbound events, and emit helpers for the
// outbound ones. Sends while disconnected fail locally; nothing is queued.
package socket

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/cloudzz-dev/gigmsg/internal/client/models"
)

var ErrNotConnected = errors.New("not connected")

// Inbound event types.
const (
	EventReceiveMessage        = "receive_message"
	EventMessageSent           = "message_sent"
	EventMessageError          = "message_error"
	EventUserTyping            = "user_typing"
	EventUserStopTyping        = "user_stop_typing"
	EventPaymentRequestUpdated = "payment_request_updated"
)

// Outbound event types.
const (
	emitJoinConversation = "join_conversation"
	emitSendMessage      = "send_message"
	emitTypingStart      = "typing_start"
	emitTypingStop       = "typing_stop"
)

// Frame is the wire envelope for every socket event.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is a decoded inbound frame. Which fields are set depends on Type.
type Event struct {
	Type string

	// receive_message, message_sent
	Message *models.Message

	// message_sent, message_error
	TempID string
	// message_error
	Error string

	// user_typing, user_stop_typing, payment_request_updated
	ConversationID string
	UserID         string
	UserName       string

	// payment_request_updated
	PaymentRequestID string
	Status           string
}

type SendMessagePayload struct {
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	SenderName     string `json:"sender_name,omitempty"`
	Content        string `json:"content"`
	MessageType    string `json:"message_type"`
	TempID         string `json:"temp_id"`
}

type joinPayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

type typingPayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	UserName       string `json:"user_name,omitempty"`
}

type Conn struct {
	mu        sync.Mutex
	ws        *websocket.Conn
	connected bool
}

func Dial(url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return &Conn{ws: ws, connected: true}, nil
}

func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		c.connected = false
		c.ws.Close()
	}
}

// ReadEvent blocks until the next inbound event. On read failure the
// connection is marked disconnected and the error returned; the caller
// surfaces it and offers a manual reconnect.
func (c *Conn) ReadEvent() (Event, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		return Event{}, err
	}

	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Event{}, fmt.Errorf("decoding frame: %w", err)
	}
	return decodeEvent(frame)
}

func decodeEvent(frame Frame) (Event, error) {
	ev := Event{Type: frame.Type}

	switch frame.Type {
	case EventReceiveMessage:
		var p struct {
			Message models.Message `json:"message"`
		}
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return ev, err
		}
		ev.Message = &p.Message

	case EventMessageSent:
		var p struct {
			Message models.Message `json:"message"`
			TempID  string         `json:"temp_id"`
		}
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return ev, err
		}
		ev.Message = &p.Message
		ev.TempID = p.TempID

	case EventMessageError:
		var p struct {
			TempID string `json:"temp_id"`
			Error  string `json:"error"`
		}
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return ev, err
		}
		ev.TempID = p.TempID
		ev.Error = p.Error

	case EventUserTyping, EventUserStopTyping:
		var p typingPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return ev, err
		}
		ev.ConversationID = p.ConversationID
		ev.UserID = p.UserID
		ev.UserName = p.UserName

	case EventPaymentRequestUpdated:
		var p struct {
			ConversationID   string `json:"conversation_id"`
			PaymentRequestID string `json:"payment_request_id"`
			Status           string `json:"status"`
		}
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return ev, err
		}
		ev.ConversationID = p.ConversationID
		ev.PaymentRequestID = p.PaymentRequestID
		ev.Status = p.Status
	}

	return ev, nil
}

func (c *Conn) emit(eventType string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return ErrNotConnected
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(Frame{Type: eventType, Payload: data})
	if err != nil {
		return err
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.connected = false
		return err
	}
	return nil
}

// JoinConversation enters the conversation's server-side room. The server
// handles membership idempotently; no leave is sent on switch.
func (c *Conn) JoinConversation(conversationID, userID string) error {
	return c.emit(emitJoinConversation, joinPayload{ConversationID: conversationID, UserID: userID})
}

func (c *Conn) SendMessage(p SendMessagePayload) error {
	return c.emit(emitSendMessage, p)
}

func (c *Conn) TypingStart(conversationID, userID, userName string) error {
	return c.emit(emitTypingStart, typingPayload{ConversationID: conversationID, UserID: userID, UserName: userName})
}

func (c *Conn) TypingStop(conversationID, userID string) error {
	return c.emit(emitTypingStop, typingPayload{ConversationID: conversationID, UserID: userID})
}
