package internal

import "time"

// SourceLocation identifies one candidate session discovered on disk.
type SourceLocation struct {
	Workspace string
	Path      string
	ModTime   time.Time
}

// SourceRef points back at the raw data a conversation came from.
type SourceRef struct {
	Source    string `json:"source" yaml:"source"`
	Workspace string `json:"workspace,omitempty" yaml:"workspace,omitempty"`
	SessionID string `json:"session_id" yaml:"session_id"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Conversation is the normalized representation of one session.
type Conversation struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	Title        string `json:"title,omitempty" yaml:"title,omitempty"`
	Subtitle     string `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Workspace    string `json:"workspace,omitempty" yaml:"workspace,omitempty"`
	Project      string `json:"project,omitempty" yaml:"project,omitempty"`
	Model        string `json:"model,omitempty" yaml:"model,omitempty"`
	Mode         string `json:"mode" yaml:"mode"`
	CreatedAt    string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	MessageCount int    `json:"message_count" yaml:"message_count"`

	InputTokens         *int64 `json:"input_tokens,omitempty" yaml:"input_tokens,omitempty"`
	OutputTokens        *int64 `json:"output_tokens,omitempty" yaml:"output_tokens,omitempty"`
	CacheCreationTokens *int64 `json:"cache_creation_tokens,omitempty" yaml:"cache_creation_tokens,omitempty"`
	CacheReadTokens     *int64 `json:"cache_read_tokens,omitempty" yaml:"cache_read_tokens,omitempty"`

	TotalLinesAdded   *int `json:"total_lines_added,omitempty" yaml:"total_lines_added,omitempty"`
	TotalLinesRemoved *int `json:"total_lines_removed,omitempty" yaml:"total_lines_removed,omitempty"`

	Ref SourceRef `json:"ref" yaml:"ref"`
}

// Message is one visible turn in a conversation. Seq is zero-based and
// contiguous over visible messages only.
type Message struct {
	ID             string `json:"id" yaml:"id"`
	ConversationID string `json:"conversation_id" yaml:"conversation_id"`
	Role           string `json:"role" yaml:"role"`
	Content        string `json:"content" yaml:"content"`
	Timestamp      string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Seq            int    `json:"seq" yaml:"seq"`

	InputTokens         *int64 `json:"input_tokens,omitempty" yaml:"input_tokens,omitempty"`
	OutputTokens        *int64 `json:"output_tokens,omitempty" yaml:"output_tokens,omitempty"`
	CacheCreationTokens *int64 `json:"cache_creation_tokens,omitempty" yaml:"cache_creation_tokens,omitempty"`
	CacheReadTokens     *int64 `json:"cache_read_tokens,omitempty" yaml:"cache_read_tokens,omitempty"`

	LinesAdded   *int `json:"lines_added,omitempty" yaml:"lines_added,omitempty"`
	LinesRemoved *int `json:"lines_removed,omitempty" yaml:"lines_removed,omitempty"`
}

// ToolCall is one tool invocation attached to a visible message.
type ToolCall struct {
	ID             string `json:"id" yaml:"id"`
	MessageID      string `json:"message_id" yaml:"message_id"`
	ConversationID string `json:"conversation_id" yaml:"conversation_id"`
	Tool           string `json:"tool" yaml:"tool"`
	Input          string `json:"input,omitempty" yaml:"input,omitempty"`
	Output         string `json:"output,omitempty" yaml:"output,omitempty"`
	FilePath       string `json:"file_path,omitempty" yaml:"file_path,omitempty"`
}

// ConversationFile is a file referenced at conversation scope.
type ConversationFile struct {
	ID             string `json:"id" yaml:"id"`
	ConversationID string `json:"conversation_id" yaml:"conversation_id"`
	Path           string `json:"path" yaml:"path"`
	Role           string `json:"role,omitempty" yaml:"role,omitempty"`
}

// MessageFile is a file referenced by one specific message.
type MessageFile struct {
	ID             string `json:"id" yaml:"id"`
	MessageID      string `json:"message_id" yaml:"message_id"`
	ConversationID string `json:"conversation_id" yaml:"conversation_id"`
	Path           string `json:"path" yaml:"path"`
	Role           string `json:"role,omitempty" yaml:"role,omitempty"`
}

// FileEdit is one discrete edit operation attached to a visible message. Its
// id is a content hash so identical edits keep the same id across re-runs.
type FileEdit struct {
	ID             string `json:"id" yaml:"id"`
	MessageID      string `json:"message_id" yaml:"message_id"`
	ConversationID string `json:"conversation_id" yaml:"conversation_id"`
	Path           string `json:"path" yaml:"path"`
	Kind           string `json:"kind" yaml:"kind"` // "create", "modify", "delete"
	LinesAdded     int    `json:"lines_added" yaml:"lines_added"`
	LinesRemoved   int    `json:"lines_removed" yaml:"lines_removed"`
}

// NormalizedConversation bundles the full entity set produced by one
// normalization call, ready for hand-off to storage or export.
type NormalizedConversation struct {
	Conversation Conversation       `json:"conversation" yaml:"conversation"`
	Messages     []Message          `json:"messages" yaml:"messages"`
	ToolCalls    []ToolCall         `json:"tool_calls,omitempty" yaml:"tool_calls,omitempty"`
	Files        []ConversationFile `json:"files,omitempty" yaml:"files,omitempty"`
	MessageFiles []MessageFile      `json:"message_files,omitempty" yaml:"message_files,omitempty"`
	FileEdits    []FileEdit         `json:"file_edits,omitempty" yaml:"file_edits,omitempty"`
}

// TokenUsage carries raw per-message token counters as reported by a source.
type TokenUsage struct {
	Input         int64
	Output        int64
	CacheCreation int64
	CacheRead     int64
}

// RawFileRef is a source-reported file reference.
type RawFileRef struct {
	Path string
	Role string
}

// RawFileEdit is a source-reported edit operation.
type RawFileEdit struct {
	Path         string
	Kind         string
	LinesAdded   int
	LinesRemoved int
}

// RawToolCall is a source-reported tool invocation.
type RawToolCall struct {
	ID       string
	Name     string
	Input    string
	Output   string
	FilePath string
}

// RawMessage is one source-specific message record, in original order.
// Sidechain records and records with empty text are not visible but may still
// carry line counts that must be attributed to a visible message.
type RawMessage struct {
	ID           string
	Role         string
	Text         string
	Timestamp    string
	Sidechain    bool
	Tokens       *TokenUsage
	LinesAdded   int
	LinesRemoved int
	ToolCalls    []RawToolCall
	Files        []RawFileRef
	Edits        []RawFileEdit
}

// RawConversation is the source-specific shape every adapter hands to the
// shared normalizer. Timestamps are kept raw; parsing happens during
// normalization and invalid values are dropped, never defaulted.
type RawConversation struct {
	SessionID string
	Title     string
	Subtitle  string
	Workspace string
	Project   string
	Model     string
	CreatedAt string
	UpdatedAt string
	Files     []RawFileRef
	Messages  []RawMessage
}

// Role constants shared by all sources.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
