package source

import (
	"path/filepath"
	"testing"

	"github.com/iksnae/agent-sessions/internal"
	"github.com/iksnae/agent-sessions/testutil"
)

func codexFixtureRecords() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"timestamp": "2026-01-03T09:00:00Z",
			"type":      "session_meta",
			"payload": map[string]interface{}{
				"id":  "rollout-42",
				"cwd": "/home/dev/api",
				"git": map[string]interface{}{"branch": "feature/retries"},
			},
		},
		{
			"timestamp": "2026-01-03T09:00:01Z",
			"type":      "event_msg",
			"payload": map[string]interface{}{
				"type":    "user_message",
				"message": "add retries to the client",
			},
		},
		{
			"timestamp": "2026-01-03T09:00:02Z",
			"type":      "event_msg",
			"payload": map[string]interface{}{
				"type": "agent_reasoning",
				"text": "The client needs a backoff loop.",
			},
		},
		{
			"timestamp": "2026-01-03T09:00:03Z",
			"type":      "response_item",
			"payload": map[string]interface{}{
				"type":      "function_call",
				"name":      "shell",
				"call_id":   "call_1",
				"arguments": `{"command":["ls"]}`,
			},
		},
		{
			"timestamp": "2026-01-03T09:00:04Z",
			"type":      "response_item",
			"payload": map[string]interface{}{
				"type":    "function_call_output",
				"call_id": "call_1",
				"output":  "client.go\nclient_test.go",
			},
		},
		{
			"timestamp": "2026-01-03T09:00:05Z",
			"type":      "response_item",
			"payload": map[string]interface{}{
				"type": "message",
				"role": "assistant",
				"content": []map[string]interface{}{
					{"type": "output_text", "text": "Added exponential backoff."},
				},
			},
		},
		{
			"timestamp": "2026-01-03T09:00:06Z",
			"type":      "event_msg",
			"payload": map[string]interface{}{
				"type": "token_count",
				"info": map[string]interface{}{
					"total_token_usage": map[string]interface{}{
						"input_tokens":        500,
						"cached_input_tokens": 200,
						"output_tokens":       80,
					},
				},
			},
		},
	}
}

func TestCodexExtract(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "2026", "01", "03", "rollout-42.jsonl")
	testutil.WriteJSONLFixture(t, path, codexFixtureRecords())

	a := NewCodexAdapter(root)
	raws, err := a.Extract(internal.SourceLocation{Path: path})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("Expected 1 conversation, got %d", len(raws))
	}
	raw := raws[0]

	if raw.SessionID != "rollout-42" {
		t.Errorf("SessionID = %q", raw.SessionID)
	}
	if raw.Workspace != "/home/dev/api" || raw.Project != "api" {
		t.Errorf("Workspace/Project = %q/%q", raw.Workspace, raw.Project)
	}
	if raw.Subtitle != "feature/retries" {
		t.Errorf("Subtitle = %q, want git branch", raw.Subtitle)
	}
	if raw.Title != "add retries to the client" {
		t.Errorf("Title = %q, want first user excerpt", raw.Title)
	}
	if raw.CreatedAt != "2026-01-03T09:00:00Z" || raw.UpdatedAt != "2026-01-03T09:00:06Z" {
		t.Errorf("CreatedAt/UpdatedAt = %q/%q", raw.CreatedAt, raw.UpdatedAt)
	}

	// user, reasoning, tool-only, assistant text
	if len(raw.Messages) != 4 {
		t.Fatalf("Expected 4 raw messages, got %d", len(raw.Messages))
	}

	reasoning := raw.Messages[1]
	if !reasoning.Sidechain {
		t.Error("Expected reasoning record to be marked sidechain")
	}

	toolOnly := raw.Messages[2]
	if toolOnly.Text != "" {
		t.Errorf("Tool-only record text = %q, want empty", toolOnly.Text)
	}
	if len(toolOnly.ToolCalls) != 1 {
		t.Fatalf("Expected 1 tool call, got %d", len(toolOnly.ToolCalls))
	}
	if toolOnly.ToolCalls[0].Output != "client.go\nclient_test.go" {
		t.Errorf("Tool output = %q, want paired function_call_output", toolOnly.ToolCalls[0].Output)
	}

	final := raw.Messages[3]
	if final.Text != "Added exponential backoff." {
		t.Errorf("Final text = %q", final.Text)
	}
	if final.Tokens == nil || final.Tokens.Input != 500 || final.Tokens.CacheRead != 200 || final.Tokens.Output != 80 {
		t.Errorf("Token snapshot = %+v", final.Tokens)
	}
}

func TestCodexNormalizeHidesReasoningAndToolOnly(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "rollout-42.jsonl")
	testutil.WriteJSONLFixture(t, path, codexFixtureRecords())

	a := NewCodexAdapter(root)
	raws, err := a.Extract(internal.SourceLocation{Path: path})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	nc, err := a.Normalize(&raws[0], internal.SourceLocation{Path: path})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if len(nc.Messages) != 2 {
		t.Fatalf("Expected 2 visible messages, got %d", len(nc.Messages))
	}
	if nc.Messages[0].Role != internal.RoleUser || nc.Messages[1].Role != internal.RoleAssistant {
		t.Errorf("Visible roles = %q, %q", nc.Messages[0].Role, nc.Messages[1].Role)
	}

	if nc.Conversation.InputTokens == nil || *nc.Conversation.InputTokens != 500 {
		t.Errorf("InputTokens = %v, want 500", nc.Conversation.InputTokens)
	}
}

func TestCodexDeepLink(t *testing.T) {
	a := NewCodexAdapter("/tmp/nope")
	link, ok := a.DeepLink(internal.SourceRef{SessionID: "rollout-42"})
	if !ok || link != "codex resume rollout-42" {
		t.Errorf("DeepLink = %q, %v", link, ok)
	}
}
