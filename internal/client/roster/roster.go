// Package roster maintains the conversation list, ordered most recently
// updated first, with last-message previews and unread counts.
package roster

import (
	"time"

	"github.com/cloudzz-dev/gigmsg/internal/client/models"
)

type Roster struct {
	convs    []models.Conversation
	activeID string
}

func New() *Roster {
	return &Roster{}
}

// Set replaces the list with the server's accepted conversations.
func (r *Roster) Set(convs []models.Conversation) {
	r.convs = convs
}

func (r *Roster) Conversations() []models.Conversation {
	return r.convs
}

func (r *Roster) Len() int {
	return len(r.convs)
}

func (r *Roster) Get(id string) (models.Conversation, bool) {
	for _, c := range r.convs {
		if c.ID == id {
			return c, true
		}
	}
	return models.Conversation{}, false
}

// SetActive marks the open conversation and clears its unread count.
func (r *Roster) SetActive(id string) {
	r.activeID = id
	for i := range r.convs {
		if r.convs[i].ID == id {
			r.convs[i].UnreadCount = 0
			return
		}
	}
}

func (r *Roster) Active() string {
	return r.activeID
}

// Touch records a new message against a conversation: updates the preview,
// moves it to the front, and bumps the unread count unless the conversation
// is the active one.
func (r *Roster) Touch(convID, preview string, at time.Time) {
	for i := range r.convs {
		if r.convs[i].ID != convID {
			continue
		}
		c := r.convs[i]
		c.LastMessage = preview
		c.LastMessageAt = at
		if convID != r.activeID {
			c.UnreadCount++
		}
		copy(r.convs[1:i+1], r.convs[:i])
		r.convs[0] = c
		return
	}
}
