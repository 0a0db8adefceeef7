package main

import (
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudzz-dev/gigmsg/internal/client/feed"
	"github.com/cloudzz-dev/gigmsg/internal/client/models"
	"github.com/cloudzz-dev/gigmsg/internal/client/roster"
	"github.com/cloudzz-dev/gigmsg/internal/client/session"
	"github.com/cloudzz-dev/gigmsg/internal/client/socket"
	"github.com/cloudzz-dev/gigmsg/internal/money"
)

func TestRefreshRatesSwapsTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rates":{"USD":1,"INR":90,"EUR":0.5,"GBP":0.4}}`)
	}))
	defer srv.Close()

	conv := money.NewConverter()
	cmd := refreshRates(conv, srv.URL)
	if cmd == nil {
		t.Fatal("expected a command for a configured rates URL")
	}
	if _, ok := cmd().(ratesMsg); !ok {
		t.Fatal("expected ratesMsg after a successful refresh")
	}

	got, err := conv.Convert(1, "USD", "INR")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-90) > 1e-9 {
		t.Errorf("expected live rate 90, got %v", got)
	}
}

func TestRefreshRatesUnconfigured(t *testing.T) {
	if cmd := refreshRates(money.NewConverter(), ""); cmd != nil {
		t.Error("expected no command without a rates URL")
	}
}

func TestTypingBannerFallsBackToRosterName(t *testing.T) {
	m := model{
		sess:   session.Session{UserID: "c1", Name: "Asha"},
		feed:   feed.New(),
		roster: roster.New(),
	}
	m.roster.Set([]models.Conversation{{
		ID:         "conv-1",
		Client:     models.User{ID: "c1", Name: "Asha"},
		Freelancer: models.User{ID: "f1", Name: "Ravi"},
	}})
	m.roster.SetActive("conv-1")

	m = m.handleEvent(socket.Event{
		Type:           socket.EventUserTyping,
		ConversationID: "conv-1",
		UserID:         "f1",
	})
	if m.typingUser != "Ravi" {
		t.Errorf("expected roster fallback name, got %q", m.typingUser)
	}
}
