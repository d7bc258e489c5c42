package store

import (
	"path/filepath"
	"testing"

	"github.com/iksnae/agent-sessions/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	st := openTestStore(t)
	nc := testutil.SampleConversation("sess-1")

	if err := st.Save(nc); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := st.Get(nc.Conversation.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.Conversation.ID != nc.Conversation.ID {
		t.Errorf("ID = %q, want %q", got.Conversation.ID, nc.Conversation.ID)
	}
	if got.Conversation.Title != "Fix flaky test" {
		t.Errorf("Title = %q", got.Conversation.Title)
	}
	if got.Conversation.InputTokens == nil || *got.Conversation.InputTokens != 120 {
		t.Errorf("InputTokens = %v, want 120", got.Conversation.InputTokens)
	}
	if len(got.Messages) != len(nc.Messages) {
		t.Fatalf("Messages = %d, want %d", len(got.Messages), len(nc.Messages))
	}
	for i, m := range got.Messages {
		if m.ID != nc.Messages[i].ID {
			t.Errorf("Message %d ID = %q, want %q", i, m.ID, nc.Messages[i].ID)
		}
		if m.Seq != i {
			t.Errorf("Message %d Seq = %d", i, m.Seq)
		}
	}
	if len(got.ToolCalls) != 1 || got.ToolCalls[0].Tool != "Edit" {
		t.Errorf("ToolCalls = %+v", got.ToolCalls)
	}
	if len(got.Files) != 1 || got.Files[0].Path != "main.go" {
		t.Errorf("Files = %+v", got.Files)
	}
	if len(got.MessageFiles) != 1 {
		t.Errorf("MessageFiles = %+v", got.MessageFiles)
	}
	if len(got.FileEdits) != 1 || got.FileEdits[0].LinesAdded != 3 {
		t.Errorf("FileEdits = %+v", got.FileEdits)
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	st := openTestStore(t)
	nc := testutil.SampleConversation("sess-1")

	if err := st.Save(nc); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	if err := st.Save(nc); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	stats, err := st.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Conversations != 1 {
		t.Errorf("Conversations = %d, want 1", stats.Conversations)
	}
	if stats.Messages != len(nc.Messages) {
		t.Errorf("Messages = %d, want %d", stats.Messages, len(nc.Messages))
	}
	if stats.ToolCalls != 1 {
		t.Errorf("ToolCalls = %d, want 1", stats.ToolCalls)
	}
}

func TestListOrdering(t *testing.T) {
	st := openTestStore(t)

	a := testutil.SampleConversation("sess-a")
	a.Conversation.UpdatedAt = "2024-03-01T10:00:00Z"
	b := testutil.SampleConversation("sess-b")
	b.Conversation.UpdatedAt = "2024-03-02T10:00:00Z"

	if err := st.Save(a); err != nil {
		t.Fatal(err)
	}
	if err := st.Save(b); err != nil {
		t.Fatal(err)
	}

	convs, err := st.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("Expected 2 conversations, got %d", len(convs))
	}
	if convs[0].ID != b.Conversation.ID {
		t.Error("Expected most recently updated conversation first")
	}
}

func TestListBySource(t *testing.T) {
	st := openTestStore(t)
	if err := st.Save(testutil.SampleConversation("sess-1")); err != nil {
		t.Fatal(err)
	}

	convs, err := st.ListBySource("claude")
	if err != nil {
		t.Fatalf("ListBySource failed: %v", err)
	}
	if len(convs) != 1 {
		t.Errorf("Expected 1 claude conversation, got %d", len(convs))
	}

	convs, err = st.ListBySource("cursor")
	if err != nil {
		t.Fatalf("ListBySource failed: %v", err)
	}
	if len(convs) != 0 {
		t.Errorf("Expected 0 cursor conversations, got %d", len(convs))
	}
}

func TestResolveID(t *testing.T) {
	st := openTestStore(t)
	nc := testutil.SampleConversation("sess-1")
	if err := st.Save(nc); err != nil {
		t.Fatal(err)
	}

	id, err := st.ResolveID(nc.Conversation.ID[:8])
	if err != nil {
		t.Fatalf("ResolveID failed: %v", err)
	}
	if id != nc.Conversation.ID {
		t.Errorf("Resolved %q, want %q", id, nc.Conversation.ID)
	}

	if _, err := st.ResolveID("zzzzzzzz"); err == nil {
		t.Error("Expected an error for an unknown prefix")
	}
}

func TestSearch(t *testing.T) {
	st := openTestStore(t)
	nc := testutil.SampleConversation("sess-1")
	if err := st.Save(nc); err != nil {
		t.Fatal(err)
	}

	hits, err := st.Search("flaky", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("Expected at least one hit for 'flaky'")
	}
	if hits[0].ConversationID != nc.Conversation.ID {
		t.Errorf("Hit conversation = %q, want %q", hits[0].ConversationID, nc.Conversation.ID)
	}

	hits, err = st.Search("nonexistentterm", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Expected no hits, got %d", len(hits))
	}
}

func TestSearchIndexFollowsResave(t *testing.T) {
	st := openTestStore(t)
	nc := testutil.SampleConversation("sess-1")
	if err := st.Save(nc); err != nil {
		t.Fatal(err)
	}

	// a resave deletes and reinserts messages; FTS must stay in sync
	nc.Messages[0].Content = "reproduce the race instead"
	if err := st.Save(nc); err != nil {
		t.Fatal(err)
	}

	hits, err := st.Search("race", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Expected 1 hit after resave, got %d", len(hits))
	}
}

func TestLocationMtime(t *testing.T) {
	st := openTestStore(t)

	if _, ok := st.LocationMtime("/never/seen"); ok {
		t.Error("Expected no mtime for an unknown location")
	}

	if err := st.SetLocationMtime("/some/file.jsonl", 1735800000); err != nil {
		t.Fatalf("SetLocationMtime failed: %v", err)
	}
	mtime, ok := st.LocationMtime("/some/file.jsonl")
	if !ok || mtime != 1735800000 {
		t.Errorf("LocationMtime = %d, %v", mtime, ok)
	}

	if err := st.SetLocationMtime("/some/file.jsonl", 1735800999); err != nil {
		t.Fatalf("SetLocationMtime update failed: %v", err)
	}
	mtime, _ = st.LocationMtime("/some/file.jsonl")
	if mtime != 1735800999 {
		t.Errorf("Updated mtime = %d", mtime)
	}
}
