package ratelimit

import (
	"net/http/httptest"
	"testing"
)

func TestConnectionCap(t *testing.T) {
	rl := New(2, 60)

	if !rl.CanConnect("1.2.3.4") {
		t.Fatal("fresh IP rejected")
	}
	rl.AddConnection("1.2.3.4")
	rl.AddConnection("1.2.3.4")
	if rl.CanConnect("1.2.3.4") {
		t.Error("IP above cap still allowed")
	}
	if !rl.CanConnect("5.6.7.8") {
		t.Error("unrelated IP affected by cap")
	}

	rl.RemoveConnection("1.2.3.4")
	if !rl.CanConnect("1.2.3.4") {
		t.Error("IP still blocked after disconnect")
	}
}

func TestMessageBudget(t *testing.T) {
	rl := New(10, 3)

	for i := 0; i < 3; i++ {
		if !rl.AllowMessage("u1") {
			t.Fatalf("send %d rejected inside budget", i+1)
		}
	}
	if rl.AllowMessage("u1") {
		t.Error("send above budget allowed")
	}
	if !rl.AllowMessage("u2") {
		t.Error("another user's budget consumed")
	}
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	r.RemoteAddr = "9.9.9.9:1234"
	if got := GetClientIP(r); got != "9.9.9.9" {
		t.Errorf("GetClientIP = %q", got)
	}

	r.Header.Set("X-Forwarded-For", "8.8.8.8")
	if got := GetClientIP(r); got != "8.8.8.8" {
		t.Errorf("GetClientIP with XFF = %q", got)
	}
}
