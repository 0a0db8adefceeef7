package ws

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/cloudzz-dev/gigmsg/internal/server/models"
	"github.com/cloudzz-dev/gigmsg/internal/server/ratelimit"
)

type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	UserID  string
	IP      string
	Limiter *ratelimit.RateLimiter
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, msgBytes, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}

		var frame models.WSFrame
		if err := json.Unmarshal(msgBytes, &frame); err != nil {
			log.Printf("JSON Unmarshal error: %v", err)
			continue
		}

		c.ProcessFrame(frame)
	}
}

func (c *Client) WritePump() {
	defer func() {
		c.Conn.Close()
	}()
	for msg := range c.Send {
		c.Conn.WriteMessage(websocket.TextMessage, msg)
	}
}

func (c *Client) ProcessFrame(frame models.WSFrame) {
	switch frame.Type {
	case "join_conversation":
		var p models.JoinConversationPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return
		}
		ok, err := c.Hub.Store.IsParticipant(p.ConversationID, p.UserID)
		if err != nil || !ok {
			return
		}
		// The socket protocol carries no auth token; the first join
		// identifies the connection.
		c.UserID = p.UserID
		c.Hub.join <- joinRequest{client: c, conversationID: p.ConversationID}

	case "send_message":
		var p models.SendMessagePayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return
		}
		c.handleSend(p)

	case "typing_start":
		var p models.TypingPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return
		}
		c.Hub.BroadcastToRoom(p.ConversationID, "user_typing", p, c)

	case "typing_stop":
		var p models.TypingPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return
		}
		c.Hub.BroadcastToRoom(p.ConversationID, "user_stop_typing", p, c)
	}
}

func (c *Client) handleSend(p models.SendMessagePayload) {
	if strings.TrimSpace(p.Content) == "" {
		c.sendError(p.TempID, "message is empty")
		return
	}
	if !c.Limiter.AllowMessage(p.SenderID) {
		c.sendError(p.TempID, "sending too fast, slow down")
		return
	}
	ok, err := c.Hub.Store.IsParticipant(p.ConversationID, p.SenderID)
	if err != nil || !ok {
		c.sendError(p.TempID, "not a participant of this conversation")
		return
	}

	msg, err := c.Hub.Store.SaveMessage(p.ConversationID, p.SenderID, p.Content, p.MessageType)
	if err != nil {
		log.Printf("save message: %v", err)
		c.sendError(p.TempID, "could not save message")
		return
	}

	// Confirmation back to the sender, broadcast to the rest of the room.
	c.sendFrame("message_sent", models.MessageSentPayload{Message: *msg, TempID: p.TempID})
	c.Hub.BroadcastToRoom(p.ConversationID, "receive_message", models.ReceiveMessagePayload{Message: *msg}, c)
}

func (c *Client) sendFrame(frameType string, payload any) {
	data := marshalFrame(frameType, payload)
	if data == nil {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

func (c *Client) sendError(tempID, errText string) {
	c.sendFrame("message_error", models.MessageErrorPayload{TempID: tempID, Error: errText})
}
