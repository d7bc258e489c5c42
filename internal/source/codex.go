package source

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/agent-sessions/internal"
)

// codexRecord is one line of a Codex CLI rollout file.
type codexRecord struct {
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

type codexSessionMeta struct {
	ID  string `json:"id"`
	Cwd string `json:"cwd"`
	Git *struct {
		Branch        string `json:"branch"`
		RepositoryURL string `json:"repository_url"`
	} `json:"git"`
}

// event_msg payload (flat, not nested)
type codexEventPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"` // user_message
	Text    string `json:"text"`    // agent_reasoning
	Info    *struct {
		TotalTokenUsage *struct {
			InputTokens       int64 `json:"input_tokens"`
			CachedInputTokens int64 `json:"cached_input_tokens"`
			OutputTokens      int64 `json:"output_tokens"`
		} `json:"total_token_usage"`
	} `json:"info"` // token_count
}

type codexResponsePayload struct {
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Name      string          `json:"name"`      // function_call
	Arguments json.RawMessage `json:"arguments"` // function_call
	CallID    string          `json:"call_id"`   // function_call / function_call_output
	Output    string          `json:"output"`    // function_call_output
}

// CodexAdapter reads Codex CLI rollout logs from ~/.codex/sessions.
type CodexAdapter struct {
	root string
}

func NewCodexAdapter(root string) *CodexAdapter {
	if root == "" {
		if home, err := os.UserHomeDir(); err == nil {
			root = filepath.Join(home, ".codex", "sessions")
		}
	}
	return &CodexAdapter{root: root}
}

func (a *CodexAdapter) Name() string { return "codex" }
func (a *CodexAdapter) Mode() string { return "agent" }

func (a *CodexAdapter) Detect() bool {
	if a.root == "" {
		return false
	}
	info, err := os.Stat(a.root)
	return err == nil && info.IsDir()
}

func (a *CodexAdapter) Discover() ([]internal.SourceLocation, error) {
	var locs []internal.SourceLocation
	err := filepath.Walk(a.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() || filepath.Ext(path) != ".jsonl" {
			return nil
		}
		locs = append(locs, internal.SourceLocation{
			Path:    path,
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, &internal.AdapterError{Source: a.Name(), Op: "discover", Err: err}
	}
	return locs, nil
}

// Extract parses one rollout file. Reasoning records are kept as sidechain
// messages: they are part of the raw record stream but not of the visible
// conversation. Tool-only records get empty text for the same reason.
func (a *CodexAdapter) Extract(loc internal.SourceLocation) ([]internal.RawConversation, error) {
	f, err := os.Open(loc.Path)
	if err != nil {
		return nil, &internal.AdapterError{Source: a.Name(), Op: "extract", Err: err}
	}
	defer f.Close()

	var raw internal.RawConversation
	outputs := make(map[string]string)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec codexRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			internal.LogDebug("codex: skipping malformed line %d in %s: %v", lineNum, loc.Path, err)
			continue
		}

		if rec.Timestamp != "" {
			if raw.CreatedAt == "" {
				raw.CreatedAt = rec.Timestamp
			}
			raw.UpdatedAt = rec.Timestamp
		}

		switch rec.Type {
		case "session_meta":
			var meta codexSessionMeta
			if err := json.Unmarshal(rec.Payload, &meta); err == nil {
				if meta.ID != "" {
					raw.SessionID = meta.ID
				}
				if meta.Cwd != "" {
					raw.Workspace = meta.Cwd
					raw.Project = filepath.Base(meta.Cwd)
				}
				if meta.Git != nil && meta.Git.Branch != "" {
					raw.Subtitle = meta.Git.Branch
				}
			}

		case "event_msg":
			var evt codexEventPayload
			if err := json.Unmarshal(rec.Payload, &evt); err != nil {
				continue
			}
			a.extractEvent(&raw, &evt, rec.Timestamp)

		case "response_item":
			var item codexResponsePayload
			if err := json.Unmarshal(rec.Payload, &item); err != nil {
				continue
			}
			a.extractResponseItem(&raw, &item, rec.Timestamp, outputs)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &internal.ParseError{Source: a.Name(), Key: loc.Path, Err: err}
	}

	if len(raw.Messages) == 0 {
		return nil, nil
	}
	if raw.SessionID == "" {
		raw.SessionID = strings.TrimSuffix(filepath.Base(loc.Path), ".jsonl")
	}
	attachToolOutputs(raw.Messages, outputs)
	if raw.Title == "" {
		raw.Title = firstUserExcerpt(raw.Messages)
	}
	return []internal.RawConversation{raw}, nil
}

func (a *CodexAdapter) extractEvent(raw *internal.RawConversation, evt *codexEventPayload, ts string) {
	switch evt.Type {
	case "user_message":
		raw.Messages = append(raw.Messages, internal.RawMessage{
			Role:      internal.RoleUser,
			Text:      strings.TrimSpace(evt.Message),
			Timestamp: ts,
		})

	case "agent_reasoning":
		raw.Messages = append(raw.Messages, internal.RawMessage{
			Role:      internal.RoleAssistant,
			Text:      strings.TrimSpace(evt.Text),
			Timestamp: ts,
			Sidechain: true,
		})

	case "token_count":
		if evt.Info == nil || evt.Info.TotalTokenUsage == nil {
			return
		}
		u := evt.Info.TotalTokenUsage
		// running totals; keep the latest snapshot on the last assistant record
		for i := len(raw.Messages) - 1; i >= 0; i-- {
			if raw.Messages[i].Role == internal.RoleAssistant {
				raw.Messages[i].Tokens = &internal.TokenUsage{
					Input:     u.InputTokens,
					Output:    u.OutputTokens,
					CacheRead: u.CachedInputTokens,
				}
				return
			}
		}
	}
}

func (a *CodexAdapter) extractResponseItem(raw *internal.RawConversation, item *codexResponsePayload, ts string, outputs map[string]string) {
	switch item.Type {
	case "message":
		role := item.Role
		if role == "" {
			role = internal.RoleAssistant
		}
		var parts []string
		for _, c := range item.Content {
			if (c.Type == "input_text" || c.Type == "output_text" || c.Type == "text") && c.Text != "" {
				parts = append(parts, c.Text)
			}
		}
		text := strings.TrimSpace(strings.Join(parts, "\n"))
		if text == "" {
			return
		}
		raw.Messages = append(raw.Messages, internal.RawMessage{
			Role:      role,
			Text:      text,
			Timestamp: ts,
		})

	case "function_call":
		// a tool-only continuation record: no visible text
		raw.Messages = append(raw.Messages, internal.RawMessage{
			Role:      internal.RoleAssistant,
			Timestamp: ts,
			ToolCalls: []internal.RawToolCall{{
				ID:    item.CallID,
				Name:  item.Name,
				Input: string(item.Arguments),
			}},
		})

	case "function_call_output":
		if item.CallID != "" {
			outputs[item.CallID] = item.Output
		}
	}
}

func (a *CodexAdapter) Normalize(raw *internal.RawConversation, loc internal.SourceLocation) (*internal.NormalizedConversation, error) {
	return internal.NewNormalizer(a.Name(), a.Mode()).Normalize(raw, loc)
}

func (a *CodexAdapter) DeepLink(ref internal.SourceRef) (string, bool) {
	if ref.SessionID == "" {
		return "", false
	}
	return "codex resume " + ref.SessionID, true
}
