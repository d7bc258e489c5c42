package source

import (
	"path/filepath"
	"testing"

	"github.com/iksnae/agent-sessions/internal"
	"github.com/iksnae/agent-sessions/testutil"
)

func cursorFixtureRows() map[string]interface{} {
	return map[string]interface{}{
		"composerData:comp-1": map[string]interface{}{
			"composerId":    "comp-1",
			"name":          "Refactor settings page",
			"createdAt":     1735800000000,
			"lastUpdatedAt": 1735800300000,
			"fullConversationHeadersOnly": []map[string]interface{}{
				{"bubbleId": "bub-a", "type": 1},
				{"bubbleId": "bub-b", "type": 2},
				{"bubbleId": "bub-missing", "type": 1},
			},
		},
		"bubbleId:comp-1:bub-a": map[string]interface{}{
			"text":      "move the settings form into its own component",
			"timestamp": 1735800000000,
			"type":      1,
		},
		"bubbleId:comp-1:bub-b": map[string]interface{}{
			"text":      "Done, extracted SettingsForm.",
			"timestamp": 1735800060000,
			"type":      2,
			"codeBlocks": []map[string]interface{}{
				{
					"language": "tsx",
					"content":  "export function SettingsForm() {}",
					"uri":      map[string]interface{}{"fsPath": "/src/SettingsForm.tsx"},
				},
			},
		},
	}
}

func TestCursorExtract(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.vscdb")
	testutil.CreateCursorFixture(t, dbPath, cursorFixtureRows())

	a := NewCursorAdapter(dbPath)
	if !a.Detect() {
		t.Fatal("Expected Detect to succeed")
	}
	locs, err := a.Discover()
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(locs) != 1 {
		t.Fatalf("Expected 1 location, got %d", len(locs))
	}

	raws, err := a.Extract(locs[0])
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("Expected 1 conversation, got %d", len(raws))
	}
	raw := raws[0]

	if raw.SessionID != "comp-1" {
		t.Errorf("SessionID = %q", raw.SessionID)
	}
	if raw.Title != "Refactor settings page" {
		t.Errorf("Title = %q", raw.Title)
	}
	if raw.CreatedAt != "1735800000000" || raw.UpdatedAt != "1735800300000" {
		t.Errorf("CreatedAt/UpdatedAt = %q/%q", raw.CreatedAt, raw.UpdatedAt)
	}

	// the missing bubble is skipped
	if len(raw.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(raw.Messages))
	}
	if raw.Messages[0].Role != internal.RoleUser || raw.Messages[1].Role != internal.RoleAssistant {
		t.Errorf("Roles = %q, %q", raw.Messages[0].Role, raw.Messages[1].Role)
	}

	asst := raw.Messages[1]
	if asst.Text == "" || asst.Text == "Done, extracted SettingsForm." {
		// code blocks are appended as fences
		t.Errorf("Assistant text = %q, want text plus code fence", asst.Text)
	}
	if len(asst.Files) != 1 || asst.Files[0].Path != "/src/SettingsForm.tsx" {
		t.Errorf("Files = %+v", asst.Files)
	}
}

func TestCursorMessagesSortedByTimestamp(t *testing.T) {
	rows := cursorFixtureRows()
	// headers list bub-b before bub-a; timestamps must win
	rows["composerData:comp-1"] = map[string]interface{}{
		"composerId": "comp-1",
		"fullConversationHeadersOnly": []map[string]interface{}{
			{"bubbleId": "bub-b", "type": 2},
			{"bubbleId": "bub-a", "type": 1},
		},
	}

	dbPath := filepath.Join(t.TempDir(), "state.vscdb")
	testutil.CreateCursorFixture(t, dbPath, rows)

	a := NewCursorAdapter(dbPath)
	raws, err := a.Extract(internal.SourceLocation{Path: dbPath})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	raw := raws[0]
	if len(raw.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(raw.Messages))
	}
	if raw.Messages[0].Role != internal.RoleUser {
		t.Errorf("First message role = %q, want user (earlier timestamp)", raw.Messages[0].Role)
	}
}

func TestCursorNormalize(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.vscdb")
	testutil.CreateCursorFixture(t, dbPath, cursorFixtureRows())

	a := NewCursorAdapter(dbPath)
	raws, err := a.Extract(internal.SourceLocation{Path: dbPath})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	nc, err := a.Normalize(&raws[0], internal.SourceLocation{Path: dbPath})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	c := nc.Conversation
	if c.Source != "cursor" || c.Mode != "chat" {
		t.Errorf("Source/Mode = %q/%q", c.Source, c.Mode)
	}
	if len(nc.Messages) != 2 {
		t.Fatalf("Expected 2 visible messages, got %d", len(nc.Messages))
	}
	// millisecond timestamps come out as RFC3339
	if nc.Messages[0].Timestamp == "1735800000000" || nc.Messages[0].Timestamp == "" {
		t.Errorf("Timestamp = %q, want normalized form", nc.Messages[0].Timestamp)
	}
	if len(nc.MessageFiles) != 1 {
		t.Errorf("Expected 1 message file, got %d", len(nc.MessageFiles))
	}
}

func TestCursorDeepLinkAbsent(t *testing.T) {
	a := NewCursorAdapter("/tmp/nope.vscdb")
	if _, ok := a.DeepLink(internal.SourceRef{SessionID: "comp-1"}); ok {
		t.Error("Expected cursor to have no deep link")
	}
}
