package source

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/agent-sessions/internal"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB, single records can be huge

// claudeRecord is one line of a Claude Code JSONL session file.
type claudeRecord struct {
	Type          string          `json:"type"`
	IsSidechain   bool            `json:"isSidechain"`
	IsMeta        bool            `json:"isMeta"`
	UUID          string          `json:"uuid"`
	SessionID     string          `json:"sessionId"`
	Cwd           string          `json:"cwd"`
	Timestamp     string          `json:"timestamp"`
	Message       json.RawMessage `json:"message"`
	Summary       string          `json:"summary"` // type="summary" records
	ToolUseResult json.RawMessage `json:"toolUseResult"`
}

type claudeMessage struct {
	Model   string          `json:"model"`
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
	Usage   *claudeUsage    `json:"usage"`
}

type claudeUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

// claudeBlock is one entry of a content-block array.
type claudeBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
}

// claudeToolInput covers the fields shared by file-oriented tools.
type claudeToolInput struct {
	FilePath  string `json:"file_path"`
	Content   string `json:"content"`
	OldString string `json:"old_string"`
	NewString string `json:"new_string"`
}

// ClaudeAdapter reads Claude Code session logs from ~/.claude/projects.
type ClaudeAdapter struct {
	root string
}

// NewClaudeAdapter creates the adapter. An empty root means the default
// location under the user's home directory.
func NewClaudeAdapter(root string) *ClaudeAdapter {
	if root == "" {
		if home, err := os.UserHomeDir(); err == nil {
			root = filepath.Join(home, ".claude", "projects")
		}
	}
	return &ClaudeAdapter{root: root}
}

func (a *ClaudeAdapter) Name() string { return "claude" }
func (a *ClaudeAdapter) Mode() string { return "agent" }

func (a *ClaudeAdapter) Detect() bool {
	if a.root == "" {
		return false
	}
	info, err := os.Stat(a.root)
	return err == nil && info.IsDir()
}

// Discover walks the projects tree for session files. Subagent transcripts
// and index files are handled inside the parent session, not as sessions of
// their own.
func (a *ClaudeAdapter) Discover() ([]internal.SourceLocation, error) {
	var locs []internal.SourceLocation
	err := filepath.Walk(a.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable dirs
		}
		if info.IsDir() {
			if filepath.Base(path) == "subagents" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".jsonl" {
			return nil
		}
		if strings.Contains(filepath.Base(path), "sessions-index") {
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

// Extract parses one JSONL session file into a raw conversation. Malformed
// lines are skipped, never fatal.
func (a *ClaudeAdapter) Extract(loc internal.SourceLocation) ([]internal.RawConversation, error) {
	f, err := os.Open(loc.Path)
	if err != nil {
		return nil, &internal.AdapterError{Source: a.Name(), Op: "extract", Err: err}
	}
	defer f.Close()

	var raw internal.RawConversation

	// tool_result records arrive after the call they answer; collect outputs
	// by id and pair them up once the whole file is scanned
	outputs := make(map[string]string)
	seenFiles := make(map[string]int)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec claudeRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			internal.LogDebug("claude: skipping malformed line in %s: %v", loc.Path, err)
			continue
		}

		if rec.Type == "summary" && rec.Summary != "" {
			raw.Title = rec.Summary
			continue
		}
		if rec.SessionID != "" && raw.SessionID == "" {
			raw.SessionID = rec.SessionID
		}
		if rec.Cwd != "" && raw.Workspace == "" {
			raw.Workspace = rec.Cwd
			raw.Project = filepath.Base(rec.Cwd)
		}
		if rec.Timestamp != "" {
			if raw.CreatedAt == "" {
				raw.CreatedAt = rec.Timestamp
			}
			raw.UpdatedAt = rec.Timestamp
		}
		if rec.IsMeta {
			continue
		}
		if rec.Type != "user" && rec.Type != "assistant" {
			continue
		}

		var msg claudeMessage
		if err := json.Unmarshal(rec.Message, &msg); err != nil {
			continue
		}
		if msg.Model != "" && raw.Model == "" {
			raw.Model = msg.Model
		}

		m := internal.RawMessage{
			ID:        rec.UUID,
			Role:      rec.Type,
			Timestamp: rec.Timestamp,
			Sidechain: rec.IsSidechain,
		}
		if msg.Usage != nil {
			m.Tokens = &internal.TokenUsage{
				Input:         msg.Usage.InputTokens,
				Output:        msg.Usage.OutputTokens,
				CacheCreation: msg.Usage.CacheCreationInputTokens,
				CacheRead:     msg.Usage.CacheReadInputTokens,
			}
		}

		a.extractBlocks(&m, msg.Content, outputs)
		a.collectFiles(&raw, &m, seenFiles)

		raw.Messages = append(raw.Messages, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, &internal.ParseError{Source: a.Name(), Key: loc.Path, Err: err}
	}

	if len(raw.Messages) == 0 {
		return nil, nil
	}
	if raw.SessionID == "" {
		// older logs omit sessionId on records; the filename carries it
		raw.SessionID = strings.TrimSuffix(filepath.Base(loc.Path), ".jsonl")
	}
	attachToolOutputs(raw.Messages, outputs)
	if raw.Subtitle == "" {
		raw.Subtitle = firstUserExcerpt(raw.Messages)
	}
	return []internal.RawConversation{raw}, nil
}

// attachToolOutputs fills each tool call's output from the collected
// tool_result records.
func attachToolOutputs(msgs []internal.RawMessage, outputs map[string]string) {
	for i := range msgs {
		for j := range msgs[i].ToolCalls {
			tc := &msgs[i].ToolCalls[j]
			if out, ok := outputs[tc.ID]; ok {
				tc.Output = out
			}
		}
	}
}

// extractBlocks maps content blocks onto the raw message: text blocks become
// the visible text, tool_use blocks become tool calls, file edits, and line
// counts, tool_result blocks record their output for later pairing.
func (a *ClaudeAdapter) extractBlocks(m *internal.RawMessage, content json.RawMessage, outputs map[string]string) {
	// content can be a plain string
	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		m.Text = strings.TrimSpace(s)
		return
	}

	var blocks []claudeBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		return
	}

	var textParts []string
	for _, b := range blocks {
		switch b.Type {
		case "text":
			if b.Text != "" {
				textParts = append(textParts, b.Text)
			}

		case "tool_use":
			var in claudeToolInput
			_ = json.Unmarshal(b.Input, &in)

			m.ToolCalls = append(m.ToolCalls, internal.RawToolCall{
				ID:       b.ID,
				Name:     b.Name,
				Input:    string(b.Input),
				FilePath: in.FilePath,
			})
			if edit, ok := editFromToolUse(b.Name, &in); ok {
				m.Edits = append(m.Edits, edit)
				m.LinesAdded += edit.LinesAdded
				m.LinesRemoved += edit.LinesRemoved
			}

		case "tool_result":
			if b.ToolUseID != "" {
				outputs[b.ToolUseID] = toolResultText(b.Content)
			}
		}
	}
	m.Text = strings.TrimSpace(strings.Join(textParts, "\n"))
}

// collectFiles records per-message and conversation-scope file references
// derived from file-oriented tool calls, first use wins.
func (a *ClaudeAdapter) collectFiles(raw *internal.RawConversation, m *internal.RawMessage, seen map[string]int) {
	for _, tc := range m.ToolCalls {
		if tc.FilePath == "" {
			continue
		}
		role := fileRoleForTool(tc.Name)
		m.Files = append(m.Files, internal.RawFileRef{Path: tc.FilePath, Role: role})
		if _, ok := seen[tc.FilePath]; !ok {
			seen[tc.FilePath] = len(raw.Files)
			raw.Files = append(raw.Files, internal.RawFileRef{Path: tc.FilePath, Role: role})
		}
	}
}

// editFromToolUse derives an edit operation from a file-mutating tool input.
// Line counts come from the payload itself: a written file adds its own line
// count, an edit adds the new text's lines and removes the old text's.
func editFromToolUse(tool string, in *claudeToolInput) (internal.RawFileEdit, bool) {
	if in.FilePath == "" {
		return internal.RawFileEdit{}, false
	}
	switch tool {
	case "Write":
		return internal.RawFileEdit{
			Path:       in.FilePath,
			Kind:       "create",
			LinesAdded: countLines(in.Content),
		}, true
	case "Edit", "MultiEdit":
		return internal.RawFileEdit{
			Path:         in.FilePath,
			Kind:         "modify",
			LinesAdded:   countLines(in.NewString),
			LinesRemoved: countLines(in.OldString),
		}, true
	}
	return internal.RawFileEdit{}, false
}

func fileRoleForTool(tool string) string {
	switch tool {
	case "Read", "Grep", "Glob":
		return "read"
	case "Write", "Edit", "MultiEdit", "NotebookEdit":
		return "write"
	}
	return "context"
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

// toolResultText flattens a tool_result content value, which is either a
// string or an array of text blocks.
func toolResultText(content json.RawMessage) string {
	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return s
	}
	var blocks []claudeBlock
	if err := json.Unmarshal(content, &blocks); err == nil {
		var parts []string
		for _, b := range blocks {
			if b.Type == "text" && b.Text != "" {
				parts = append(parts, b.Text)
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}

func firstUserExcerpt(msgs []internal.RawMessage) string {
	for i := range msgs {
		if msgs[i].Role == internal.RoleUser && !msgs[i].Sidechain {
			s := strings.TrimSpace(msgs[i].Text)
			if s == "" {
				continue
			}
			s = strings.ReplaceAll(s, "\n", " ")
			if len(s) > 200 {
				s = s[:200]
			}
			return s
		}
	}
	return ""
}

// Normalize defers to the shared normalization core.
func (a *ClaudeAdapter) Normalize(raw *internal.RawConversation, loc internal.SourceLocation) (*internal.NormalizedConversation, error) {
	return internal.NewNormalizer(a.Name(), a.Mode()).Normalize(raw, loc)
}

// DeepLink returns the resume command for the original session.
func (a *ClaudeAdapter) DeepLink(ref internal.SourceRef) (string, bool) {
	if ref.SessionID == "" {
		return "", false
	}
	return "claude --resume " + ref.SessionID, true
}
