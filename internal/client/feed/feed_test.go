package feed

import (
	"fmt"
	"testing"

	"github.com/cloudzz-dev/gigmsg/internal/client/models"
)

func msg(id, content string) models.Message {
	return models.Message{ID: id, ConversationID: "c1", Content: content, Type: models.MessageTypeText}
}

func assertNoDuplicateIDs(t *testing.T, f *Feed) {
	t.Helper()
	seen := map[string]bool{}
	for _, m := range f.Messages() {
		if m.ID == "" {
			continue
		}
		if seen[m.ID] {
			t.Fatalf("duplicate id %q in feed", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestOptimisticSendConfirm(t *testing.T) {
	f := New()
	f.AppendLocal(models.Message{TempID: "t1", Content: "hello"})

	if f.Len() != 1 || !f.Messages()[0].Pending {
		t.Fatal("expected one pending entry")
	}

	if !f.Confirm("t1", msg("m1", "hello")) {
		t.Fatal("confirm failed")
	}
	got := f.Messages()[0]
	if got.Pending || got.ID != "m1" || got.TempID != "" {
		t.Errorf("entry not confirmed in place: %+v", got)
	}

	// A second confirmation for the same temp id must be a no-op.
	if f.Confirm("t1", msg("m1", "hello")) {
		t.Error("confirm matched an already confirmed entry")
	}
	if f.Len() != 1 {
		t.Errorf("expected 1 message, got %d", f.Len())
	}
}

func TestConfirmThenEchoDoesNotDuplicate(t *testing.T) {
	f := New()
	f.AppendLocal(models.Message{TempID: "t1", Content: "hi"})
	f.Confirm("t1", msg("m1", "hi"))

	// The room broadcast of the same message arrives afterwards.
	f.Upsert(msg("m1", "hi"))

	if f.Len() != 1 {
		t.Fatalf("expected 1 message after echo, got %d", f.Len())
	}
	assertNoDuplicateIDs(t, f)
}

func TestFailRemovesPendingEntry(t *testing.T) {
	f := New()
	f.AppendLocal(models.Message{TempID: "t1", Content: "lost"})
	f.Upsert(msg("m1", "other"))

	if !f.Fail("t1") {
		t.Fatal("fail did not find the pending entry")
	}
	if f.Len() != 1 || f.Messages()[0].ID != "m1" {
		t.Errorf("unexpected feed after fail: %+v", f.Messages())
	}
	if f.Fail("t1") {
		t.Error("fail matched twice")
	}
}

func TestUpsertReplacesByID(t *testing.T) {
	f := New()
	f.Upsert(msg("m1", "v1"))
	f.Upsert(msg("m2", "x"))
	f.Upsert(msg("m1", "v2"))

	if f.Len() != 2 {
		t.Fatalf("expected 2 messages, got %d", f.Len())
	}
	if f.Messages()[0].Content != "v2" {
		t.Errorf("expected in-place replacement, got %q", f.Messages()[0].Content)
	}
	assertNoDuplicateIDs(t, f)
}

func TestPaymentRequestEchoSuppressed(t *testing.T) {
	// A freelancer creates a payment request; the REST response carries the
	// carrier message id 42. The socket echo with the same id must be
	// discarded, not duplicated.
	f := New()
	carrier := models.Message{ID: "42", ConversationID: "c1", Type: models.MessageTypePaymentRequest, Amount: 500, Currency: "INR", Content: "Milestone 1"}
	f.MarkOwn(carrier.ID)
	f.Upsert(carrier)

	echo := carrier
	echo.Content = "Milestone 1 (echo)"
	if f.Upsert(echo) {
		t.Error("socket echo of a self-originated message was applied")
	}
	if f.Len() != 1 {
		t.Fatalf("expected 1 message, got %d", f.Len())
	}
	if f.Messages()[0].Content != "Milestone 1" {
		t.Error("local copy was overwritten by the echo")
	}
}

func TestEchoBeforeRESTResponse(t *testing.T) {
	// If the broadcast beats the REST response, whichever lands first stays
	// and the second arrival is absorbed.
	f := New()
	f.MarkOwn("42")
	f.Upsert(msg("42", "from socket"))
	f.Upsert(msg("42", "from rest"))

	if f.Len() != 1 {
		t.Fatalf("expected 1 message, got %d", f.Len())
	}
}

func TestMarkOwnIsBounded(t *testing.T) {
	f := New()
	for i := 0; i < recentSize+2; i++ {
		f.MarkOwn(fmt.Sprintf("id%d", i))
	}
	if f.isOwn("id0") || f.isOwn("id1") {
		t.Error("oldest entries should have been evicted")
	}
	if !f.isOwn(fmt.Sprintf("id%d", recentSize+1)) {
		t.Error("newest entry missing from recent set")
	}
}

func TestApplyHistoryDedupes(t *testing.T) {
	f := New()
	gen := f.BeginLoad()
	ok := f.ApplyHistory(gen, []models.Message{
		msg("m1", "a"), msg("m2", "b"), msg("m1", "a again"),
	})
	if !ok {
		t.Fatal("current-generation history was rejected")
	}
	if f.Len() != 2 {
		t.Errorf("expected 2 messages after dedupe, got %d", f.Len())
	}
	assertNoDuplicateIDs(t, f)
}

func TestStaleHistoryDropped(t *testing.T) {
	f := New()
	genA := f.BeginLoad() // load conversation A
	genB := f.BeginLoad() // user switches to conversation B

	// A's slow response lands after B's load began.
	if f.ApplyHistory(genA, []models.Message{msg("a1", "stale")}) {
		t.Fatal("stale history response was applied")
	}
	if f.Len() != 0 {
		t.Fatal("stale messages leaked into the feed")
	}

	if !f.ApplyHistory(genB, []models.Message{msg("b1", "fresh")}) {
		t.Fatal("current history response was rejected")
	}
	if f.Len() != 1 || f.Messages()[0].ID != "b1" {
		t.Errorf("unexpected feed: %+v", f.Messages())
	}
}

func TestBeginLoadClearsPreviousConversation(t *testing.T) {
	f := New()
	f.Upsert(msg("old", "previous conversation"))
	f.BeginLoad()
	if f.Len() != 0 {
		t.Error("previous conversation still visible during load")
	}
}
