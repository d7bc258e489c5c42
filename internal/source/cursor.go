package source

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/iksnae/agent-sessions/internal"
	_ "modernc.org/sqlite"
)

// cursorBubble is one message bubble from the cursorDiskKV table.
type cursorBubble struct {
	BubbleID   string              `json:"bubbleId"`
	Text       string              `json:"text,omitempty"`
	RichText   string              `json:"richText,omitempty"`
	CodeBlocks []cursorCodeBlock   `json:"codeBlocks,omitempty"`
	Timestamp  int64               `json:"timestamp"`
	Type       int                 `json:"type"` // 1=user, 2=assistant
}

type cursorCodeBlock struct {
	Language string `json:"language,omitempty"`
	Content  string `json:"content"`
	URI      *struct {
		Path string `json:"path,omitempty"`
		FsPath string `json:"fsPath,omitempty"`
	} `json:"uri,omitempty"`
}

// cursorComposer is one conversation's composerData row.
type cursorComposer struct {
	ComposerID                  string `json:"composerId"`
	Name                        string `json:"name,omitempty"`
	FullConversationHeadersOnly []struct {
		BubbleID string `json:"bubbleId"`
		Type     int    `json:"type"`
	} `json:"fullConversationHeadersOnly,omitempty"`
	LastUpdatedAt int64 `json:"lastUpdatedAt,omitempty"`
	CreatedAt     int64 `json:"createdAt,omitempty"`
}

// CursorAdapter reads Cursor IDE chat sessions from the globalStorage
// state.vscdb database.
type CursorAdapter struct {
	dbPath string
}

// NewCursorAdapter creates the adapter. An empty path means the platform
// default globalStorage location.
func NewCursorAdapter(dbPath string) *CursorAdapter {
	if dbPath == "" {
		dbPath = defaultCursorDBPath()
	}
	return &CursorAdapter{dbPath: dbPath}
}

func defaultCursorDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library/Application Support/Cursor/User/globalStorage/state.vscdb")
	case "linux":
		return filepath.Join(home, ".config/Cursor/User/globalStorage/state.vscdb")
	}
	return ""
}

func (a *CursorAdapter) Name() string { return "cursor" }
func (a *CursorAdapter) Mode() string { return "chat" }

func (a *CursorAdapter) Detect() bool {
	if a.dbPath == "" {
		return false
	}
	_, err := os.Stat(a.dbPath)
	return err == nil
}

// Discover returns the one globalStorage database; all composers live in it.
func (a *CursorAdapter) Discover() ([]internal.SourceLocation, error) {
	info, err := os.Stat(a.dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &internal.AdapterError{Source: a.Name(), Op: "discover", Err: err}
	}
	return []internal.SourceLocation{{
		Path:    a.dbPath,
		ModTime: info.ModTime(),
	}}, nil
}

// Extract loads all composers and their bubbles and reassembles one raw
// conversation per composer. Unreadable rows are skipped, never fatal.
func (a *CursorAdapter) Extract(loc internal.SourceLocation) ([]internal.RawConversation, error) {
	db, err := sql.Open("sqlite", loc.Path+"?mode=ro")
	if err != nil {
		return nil, &internal.AdapterError{Source: a.Name(), Op: "extract", Err: err}
	}
	defer db.Close()

	bubbles, err := a.loadBubbles(db)
	if err != nil {
		return nil, err
	}
	composers, err := a.loadComposers(db)
	if err != nil {
		return nil, err
	}

	var out []internal.RawConversation
	for _, composer := range composers {
		raw := a.reassemble(composer, bubbles)
		if len(raw.Messages) > 0 {
			out = append(out, raw)
		}
	}
	return out, nil
}

// loadBubbles loads all bubbles keyed by bubbleId. Key format in
// cursorDiskKV is bubbleId:<chatId>:<bubbleId>.
func (a *CursorAdapter) loadBubbles(db *sql.DB) (map[string]*cursorBubble, error) {
	rows, err := db.Query("SELECT key, value FROM cursorDiskKV WHERE key LIKE 'bubbleId:%' AND value IS NOT NULL")
	if err != nil {
		return nil, &internal.StoreError{Op: "query bubbles", Err: err}
	}
	defer rows.Close()

	bubbles := make(map[string]*cursorBubble)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, &internal.StoreError{Op: "scan bubbles", Err: err}
		}
		parts := strings.Split(key, ":")
		if len(parts) != 3 {
			continue
		}
		var bubble cursorBubble
		if err := json.Unmarshal([]byte(value), &bubble); err != nil {
			internal.LogDebug("cursor: skipping bad bubble %s: %v", key, err)
			continue
		}
		bubble.BubbleID = parts[2]
		bubbles[bubble.BubbleID] = &bubble
	}
	return bubbles, rows.Err()
}

// loadComposers loads all composers ordered by key so extraction order is
// stable across runs.
func (a *CursorAdapter) loadComposers(db *sql.DB) ([]*cursorComposer, error) {
	rows, err := db.Query("SELECT key, value FROM cursorDiskKV WHERE key LIKE 'composerData:%' AND value IS NOT NULL ORDER BY key")
	if err != nil {
		return nil, &internal.StoreError{Op: "query composers", Err: err}
	}
	defer rows.Close()

	var composers []*cursorComposer
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, &internal.StoreError{Op: "scan composers", Err: err}
		}
		var composer cursorComposer
		if err := json.Unmarshal([]byte(value), &composer); err != nil {
			internal.LogDebug("cursor: skipping bad composer %s: %v", key, err)
			continue
		}
		composer.ComposerID = strings.TrimPrefix(key, "composerData:")
		composers = append(composers, &composer)
	}
	return composers, rows.Err()
}

// reassemble rebuilds one conversation from its composer headers, resolving
// each header's bubble and extracting its text. Bubbles referenced by a
// header but missing from the table are skipped.
func (a *CursorAdapter) reassemble(composer *cursorComposer, bubbles map[string]*cursorBubble) internal.RawConversation {
	raw := internal.RawConversation{
		SessionID: composer.ComposerID,
		Title:     composer.Name,
	}
	if composer.CreatedAt > 0 {
		raw.CreatedAt = strconv.FormatInt(composer.CreatedAt, 10)
	}
	if composer.LastUpdatedAt > 0 {
		raw.UpdatedAt = strconv.FormatInt(composer.LastUpdatedAt, 10)
	}

	type timed struct {
		ms  int64
		msg internal.RawMessage
	}
	var msgs []timed

	for _, header := range composer.FullConversationHeadersOnly {
		bubble, ok := bubbles[header.BubbleID]
		if !ok {
			internal.LogDebug("cursor: bubble %s not found for composer %s", header.BubbleID, composer.ComposerID)
			continue
		}

		m := internal.RawMessage{
			ID:   bubble.BubbleID,
			Role: cursorRole(header.Type),
			Text: extractBubbleText(bubble),
		}
		if bubble.Timestamp > 0 {
			m.Timestamp = strconv.FormatInt(bubble.Timestamp, 10)
		}
		for _, cb := range bubble.CodeBlocks {
			if cb.URI == nil {
				continue
			}
			path := cb.URI.FsPath
			if path == "" {
				path = cb.URI.Path
			}
			if path != "" {
				m.Files = append(m.Files, internal.RawFileRef{Path: path, Role: "context"})
			}
		}
		msgs = append(msgs, timed{ms: bubble.Timestamp, msg: m})
	}

	// headers are usually chronological already; make it a guarantee
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].ms < msgs[j].ms
	})
	for _, t := range msgs {
		raw.Messages = append(raw.Messages, t.msg)
	}
	return raw
}

func cursorRole(bubbleType int) string {
	if bubbleType == 2 {
		return internal.RoleAssistant
	}
	return internal.RoleUser
}

// extractBubbleText uses a three-tier strategy: the plain text field first,
// then the richText JSON structure, then code blocks appended as fences.
func extractBubbleText(bubble *cursorBubble) string {
	var parts []string

	if bubble.Text != "" {
		parts = append(parts, bubble.Text)
	}

	if bubble.RichText != "" {
		rich, err := extractRichText(bubble.RichText)
		if err != nil {
			internal.LogDebug("cursor: richText parse failed: %v", err)
		} else if rich != "" && (bubble.Text == "" || !strings.Contains(bubble.Text, rich)) {
			parts = append(parts, rich)
		}
	}

	for _, cb := range bubble.CodeBlocks {
		if cb.Content != "" {
			parts = append(parts, "```"+cb.Language+"\n"+cb.Content+"\n```")
		}
	}

	return strings.Join(parts, "\n\n")
}

func (a *CursorAdapter) Normalize(raw *internal.RawConversation, loc internal.SourceLocation) (*internal.NormalizedConversation, error) {
	return internal.NewNormalizer(a.Name(), a.Mode()).Normalize(raw, loc)
}

// DeepLink is absent for Cursor: the IDE exposes no stable URL scheme for
// jumping to a past composer session.
func (a *CursorAdapter) DeepLink(ref internal.SourceRef) (string, bool) {
	return "", false
}
