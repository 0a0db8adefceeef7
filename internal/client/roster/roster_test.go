package roster

import (
	"testing"
	"time"

	"github.com/cloudzz-dev/gigmsg/internal/client/models"
)

func conv(id string) models.Conversation {
	return models.Conversation{ID: id}
}

func TestTouchMovesToFront(t *testing.T) {
	r := New()
	r.Set([]models.Conversation{conv("a"), conv("b"), conv("c")})

	r.Touch("c", "newest", time.Now())

	got := r.Conversations()
	if got[0].ID != "c" || got[1].ID != "a" || got[2].ID != "b" {
		t.Errorf("unexpected order: %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}
	if got[0].LastMessage != "newest" {
		t.Errorf("preview not updated: %q", got[0].LastMessage)
	}
}

func TestTouchUnreadCounting(t *testing.T) {
	r := New()
	r.Set([]models.Conversation{conv("a"), conv("b")})
	r.SetActive("a")

	r.Touch("a", "seen live", time.Now())
	r.Touch("b", "unseen", time.Now())
	r.Touch("b", "unseen again", time.Now())

	a, _ := r.Get("a")
	b, _ := r.Get("b")
	if a.UnreadCount != 0 {
		t.Errorf("active conversation accumulated unread: %d", a.UnreadCount)
	}
	if b.UnreadCount != 2 {
		t.Errorf("expected 2 unread on b, got %d", b.UnreadCount)
	}
}

func TestSetActiveClearsUnread(t *testing.T) {
	r := New()
	r.Set([]models.Conversation{{ID: "a", UnreadCount: 5}})
	r.SetActive("a")
	a, _ := r.Get("a")
	if a.UnreadCount != 0 {
		t.Errorf("unread not cleared on open: %d", a.UnreadCount)
	}
}

func TestTouchUnknownConversation(t *testing.T) {
	r := New()
	r.Set([]models.Conversation{conv("a")})
	r.Touch("ghost", "x", time.Now())
	if r.Len() != 1 {
		t.Error("touch invented a conversation")
	}
}
