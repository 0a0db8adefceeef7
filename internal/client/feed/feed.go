// Package feed keeps the in-memory message list for the active conversation
// consistent across three event sources: optimistic local inserts, the
// server's send confirmation, and room broadcasts. At most one live entry may
// exist for a logical message, keyed by temp id before confirmation and by
// server id after.
package feed

import "github.com/cloudzz-dev/gigmsg/internal/client/models"

// recentSize bounds the ring of recently self-originated message ids used to
// suppress socket echoes of messages this client already inserted via REST.
const recentSize = 8

type Feed struct {
	msgs []models.Message

	// gen invalidates history responses that resolve after the user has
	// already switched to another conversation.
	gen int

	recent    [recentSize]string
	recentPos int
}

func New() *Feed {
	return &Feed{}
}

// Messages returns the feed in display order. Display order is arrival/load
// order; timestamps are never used to re-sort.
func (f *Feed) Messages() []models.Message {
	return f.msgs
}

func (f *Feed) Len() int {
	return len(f.msgs)
}

// AppendLocal adds an optimistic, not-yet-confirmed entry keyed by its temp id.
func (f *Feed) AppendLocal(m models.Message) {
	m.Pending = true
	f.msgs = append(f.msgs, m)
}

// Confirm replaces the optimistic entry matching tempID with the confirmed
// message, in place. Returns false if no such entry exists (already confirmed
// or the conversation was switched in between).
func (f *Feed) Confirm(tempID string, m models.Message) bool {
	if tempID == "" {
		return false
	}
	for i := range f.msgs {
		if f.msgs[i].Pending && f.msgs[i].TempID == tempID {
			m.Pending = false
			m.TempID = ""
			f.msgs[i] = m
			return true
		}
	}
	return false
}

// Fail removes the optimistic entry matching tempID after a send error.
func (f *Feed) Fail(tempID string) bool {
	for i := range f.msgs {
		if f.msgs[i].Pending && f.msgs[i].TempID == tempID {
			f.msgs = append(f.msgs[:i], f.msgs[i+1:]...)
			return true
		}
	}
	return false
}

// MarkOwn registers a message id this client just created through REST, so
// the socket echo of the same message is recognized and dropped.
func (f *Feed) MarkOwn(id string) {
	if id == "" {
		return
	}
	f.recent[f.recentPos] = id
	f.recentPos = (f.recentPos + 1) % recentSize
}

func (f *Feed) isOwn(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range f.recent {
		if r == id {
			return true
		}
	}
	return false
}

// Upsert inserts or replaces a confirmed message by id. A message whose id is
// both already present and marked self-originated is dropped: the local copy
// from the REST response wins over its socket echo. Returns true if the feed
// changed.
func (f *Feed) Upsert(m models.Message) bool {
	idx := f.indexOf(m.ID)
	if idx >= 0 {
		if f.isOwn(m.ID) {
			return false
		}
		m.Pending = false
		f.msgs[idx] = m
		return true
	}
	m.Pending = false
	f.msgs = append(f.msgs, m)
	return true
}

func (f *Feed) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range f.msgs {
		if f.msgs[i].ID == id {
			return i
		}
	}
	return -1
}

// BeginLoad clears the feed ahead of a history fetch, so the previous
// conversation's messages never flash under the new one, and returns the
// generation the eventual response must present to ApplyHistory.
func (f *Feed) BeginLoad() int {
	f.gen++
	f.msgs = nil
	return f.gen
}

// ApplyHistory replaces the feed with the server's history, deduplicated by
// id, unless the load generation is stale (the user switched conversations
// while the request was in flight).
func (f *Feed) ApplyHistory(gen int, msgs []models.Message) bool {
	if gen != f.gen {
		return false
	}
	seen := make(map[string]bool, len(msgs))
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.ID != "" && seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		m.Pending = false
		out = append(out, m)
	}
	f.msgs = out
	return true
}
