package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/cloudzz-dev/gigmsg/internal/server/models"
	"github.com/cloudzz-dev/gigmsg/internal/server/storage"
)

// Hub tracks connected clients and per-conversation rooms. Joining is
// idempotent and nothing ever leaves a room explicitly; membership lasts for
// the life of the socket.
type Hub struct {
	Store *storage.Store

	Register   chan *Client
	Unregister chan *Client

	join      chan joinRequest
	broadcast chan roomMessage

	clients map[*Client]bool
	rooms   map[string]map[*Client]bool
}

type joinRequest struct {
	client         *Client
	conversationID string
}

type roomMessage struct {
	conversationID string
	data           []byte
	exclude        *Client
}

func NewHub(store *storage.Store) *Hub {
	return &Hub{
		Store:      store,
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		join:       make(chan joinRequest),
		broadcast:  make(chan roomMessage, 256),
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.Register:
			h.clients[client] = true

		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for convID, room := range h.rooms {
					delete(room, client)
					if len(room) == 0 {
						delete(h.rooms, convID)
					}
				}
				close(client.Send)
			}

		case req := <-h.join:
			room := h.rooms[req.conversationID]
			if room == nil {
				room = make(map[*Client]bool)
				h.rooms[req.conversationID] = room
			}
			room[req.client] = true

		case msg := <-h.broadcast:
			for client := range h.rooms[msg.conversationID] {
				if client == msg.exclude {
					continue
				}
				select {
				case client.Send <- msg.data:
				default:
					delete(h.clients, client)
					for _, room := range h.rooms {
						delete(room, client)
					}
					close(client.Send)
				}
			}
		}
	}
}

func marshalFrame(frameType string, payload any) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws: marshal payload: %v", err)
		return nil
	}
	frame, err := json.Marshal(models.WSFrame{Type: frameType, Payload: data})
	if err != nil {
		log.Printf("ws: marshal frame: %v", err)
		return nil
	}
	return frame
}

// BroadcastToRoom sends a frame to every member of a conversation room,
// optionally excluding one client (typically the sender).
func (h *Hub) BroadcastToRoom(conversationID, frameType string, payload any, exclude *Client) {
	data := marshalFrame(frameType, payload)
	if data == nil {
		return
	}
	h.broadcast <- roomMessage{conversationID: conversationID, data: data, exclude: exclude}
}

// NotifyMessage pushes a receive_message frame into the conversation room.
// Used by REST handlers that create carrier messages.
func (h *Hub) NotifyMessage(msg models.Message) {
	h.BroadcastToRoom(msg.ConversationID, "receive_message", models.ReceiveMessagePayload{Message: msg}, nil)
}

// NotifyPaymentUpdated tells the room a payment request changed status; the
// clients respond with a full history reload.
func (h *Hub) NotifyPaymentUpdated(conversationID, paymentRequestID, status string) {
	h.BroadcastToRoom(conversationID, "payment_request_updated", models.PaymentRequestUpdatedPayload{
		ConversationID:   conversationID,
		PaymentRequestID: paymentRequestID,
		Status:           status,
	}, nil)
}
