package testutil

import (
	"github.com/iksnae/agent-sessions/internal"
)

// SampleConversation builds a small normalized conversation for tests. The
// raw input is normalized through the real engine so ids and invariants are
// the ones production code would produce.
func SampleConversation(sessionID string) *internal.NormalizedConversation {
	raw := &internal.RawConversation{
		SessionID: sessionID,
		Title:     "Fix flaky test",
		Workspace: "/home/dev/project",
		Model:     "test-model",
		CreatedAt: "2024-03-01T10:00:00Z",
		UpdatedAt: "2024-03-01T11:00:00Z",
		Files: []internal.RawFileRef{
			{Path: "main.go", Role: "write"},
		},
		Messages: []internal.RawMessage{
			{
				ID: "m1", Role: internal.RoleUser,
				Text:      "fix the flaky test",
				Timestamp: "2024-03-01T10:00:00Z",
			},
			{
				ID: "m2", Role: internal.RoleAssistant,
				Text:      "fixed by pinning the clock",
				Timestamp: "2024-03-01T10:05:00Z",
				Tokens:    &internal.TokenUsage{Input: 120, Output: 40},
				ToolCalls: []internal.RawToolCall{
					{ID: "t1", Name: "Edit", Input: `{"file_path":"main.go"}`, FilePath: "main.go"},
				},
				Files: []internal.RawFileRef{{Path: "main.go", Role: "write"}},
				Edits: []internal.RawFileEdit{
					{Path: "main.go", Kind: "modify", LinesAdded: 3, LinesRemoved: 1},
				},
				LinesAdded:   3,
				LinesRemoved: 1,
			},
		},
	}

	n := internal.NewNormalizer("claude", "agent")
	nc, err := n.Normalize(raw, internal.SourceLocation{
		Workspace: "/home/dev/project",
		Path:      "/home/dev/.claude/projects/project/" + sessionID + ".jsonl",
	})
	if err != nil {
		panic(err)
	}
	return nc
}
