package socket

import (
	"encoding/json"
	"errors"
	"testing"
)

func frame(t *testing.T, typ string, payload any) Frame {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return Frame{Type: typ, Payload: data}
}

func TestDecodeReceiveMessage(t *testing.T) {
	f := frame(t, EventReceiveMessage, map[string]any{
		"message": map[string]any{"id": "m1", "conversation_id": "c1", "content": "hi"},
	})
	ev, err := decodeEvent(f)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Message == nil || ev.Message.ID != "m1" || ev.Message.ConversationID != "c1" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestDecodeMessageSent(t *testing.T) {
	f := frame(t, EventMessageSent, map[string]any{
		"message": map[string]any{"id": "m1"},
		"temp_id": "t-9",
	})
	ev, err := decodeEvent(f)
	if err != nil {
		t.Fatal(err)
	}
	if ev.TempID != "t-9" || ev.Message == nil || ev.Message.ID != "m1" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestDecodeMessageError(t *testing.T) {
	f := frame(t, EventMessageError, map[string]any{"temp_id": "t-9", "error": "conversation closed"})
	ev, err := decodeEvent(f)
	if err != nil {
		t.Fatal(err)
	}
	if ev.TempID != "t-9" || ev.Error != "conversation closed" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestDecodePaymentRequestUpdated(t *testing.T) {
	f := frame(t, EventPaymentRequestUpdated, map[string]any{
		"conversation_id": "c1", "payment_request_id": "pr1", "status": "approved",
	})
	ev, err := decodeEvent(f)
	if err != nil {
		t.Fatal(err)
	}
	if ev.ConversationID != "c1" || ev.PaymentRequestID != "pr1" || ev.Status != "approved" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestEmitWhileDisconnected(t *testing.T) {
	c := &Conn{} // never connected
	if err := c.SendMessage(SendMessagePayload{Content: "x"}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if err := c.JoinConversation("c1", "u1"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}
