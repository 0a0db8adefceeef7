package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudzz-dev/gigmsg/internal/client/models"
)

func TestAcceptedConversations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/messages/accepted-conversations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("userId"); got != "u1" {
			t.Errorf("userId = %q", got)
		}
		if got := r.URL.Query().Get("userType"); got != "client" {
			t.Errorf("userType = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"conversations": []models.Conversation{
				{ID: "c1", ProjectTitle: "Logo design"},
			},
		})
	}))
	defer srv.Close()

	convs, err := New(srv.URL).AcceptedConversations("u1", "client")
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 1 || convs[0].ID != "c1" {
		t.Errorf("unexpected conversations: %+v", convs)
	}
}

func TestServerErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "insufficient balance"})
	}))
	defer srv.Close()

	err := New(srv.URL).UpdatePaymentRequest("pr1", models.PaymentStatusApproved, "u1")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "insufficient balance" {
		t.Errorf("expected server message to surface, got %q", err.Error())
	}
}

func TestSuccessFalseWithOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "conversation not found"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Messages("ghost", "u1")
	if err == nil || err.Error() != "conversation not found" {
		t.Errorf("expected envelope failure, got %v", err)
	}
}

func TestCreatePaymentRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var p CreatePaymentRequestParams
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Fatal(err)
		}
		if p.Amount != 500 || p.Currency != "INR" {
			t.Errorf("unexpected params: %+v", p)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":        true,
			"paymentRequest": models.PaymentRequest{ID: "pr1", Status: models.PaymentStatusPending},
			"paymentMessage": models.Message{ID: "42", Type: models.MessageTypePaymentRequest},
		})
	}))
	defer srv.Close()

	pr, carrier, err := New(srv.URL).CreatePaymentRequest(CreatePaymentRequestParams{
		ConversationID: "c1", FreelancerID: "f1", ClientID: "u1",
		Amount: 500, Currency: "INR", Description: "Milestone 1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if pr.ID != "pr1" || carrier.ID != "42" {
		t.Errorf("unexpected response: %+v %+v", pr, carrier)
	}
}
