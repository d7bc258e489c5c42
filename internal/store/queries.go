package store

import (
	"database/sql"
	"fmt"

	"github.com/iksnae/agent-sessions/internal"
)

const conversationColumns = `id, source, title, subtitle, workspace, project, model, mode,
	created_at, updated_at, message_count,
	input_tokens, output_tokens, cache_creation_tokens, cache_read_tokens,
	total_lines_added, total_lines_removed, source_session_id, source_path`

// List returns all indexed conversations, most recently updated first.
func (s *Store) List() ([]internal.Conversation, error) {
	rows, err := s.db.Query("SELECT " + conversationColumns + " FROM conversations ORDER BY updated_at DESC, id")
	if err != nil {
		return nil, &internal.StoreError{Op: "list", Err: err}
	}
	defer rows.Close()

	var convs []internal.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// ListBySource returns all indexed conversations for one source.
func (s *Store) ListBySource(source string) ([]internal.Conversation, error) {
	rows, err := s.db.Query("SELECT "+conversationColumns+" FROM conversations WHERE source = ? ORDER BY updated_at DESC, id", source)
	if err != nil {
		return nil, &internal.StoreError{Op: "list by source", Err: err}
	}
	defer rows.Close()

	var convs []internal.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// ResolveID expands an id prefix to a full conversation id. It fails when
// the prefix is unknown or ambiguous.
func (s *Store) ResolveID(prefix string) (string, error) {
	rows, err := s.db.Query("SELECT id FROM conversations WHERE id LIKE ? LIMIT 2", prefix+"%")
	if err != nil {
		return "", &internal.StoreError{Op: "resolve id", Err: err}
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", &internal.StoreError{Op: "resolve id", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", &internal.StoreError{Op: "resolve id", Err: err}
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("no conversation matches %q", prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("conversation id %q is ambiguous", prefix)
	}
}

// Get loads one conversation and all its child entities.
func (s *Store) Get(id string) (*internal.NormalizedConversation, error) {
	row := s.db.QueryRow("SELECT "+conversationColumns+" FROM conversations WHERE id = ?", id)
	c, err := scanConversation(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conversation not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	nc := &internal.NormalizedConversation{Conversation: c}

	rows, err := s.db.Query(`SELECT id, conversation_id, role, content, ts, seq,
		input_tokens, output_tokens, cache_creation_tokens, cache_read_tokens,
		lines_added, lines_removed
		FROM messages WHERE conversation_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, &internal.StoreError{Op: "get messages", Err: err}
	}
	defer rows.Close()
	for rows.Next() {
		var m internal.Message
		var in, out, cc, cr sql.NullInt64
		var la, lr sql.NullInt64
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Timestamp, &m.Seq,
			&in, &out, &cc, &cr, &la, &lr); err != nil {
			return nil, &internal.StoreError{Op: "scan message", Err: err}
		}
		m.InputTokens = fromNull64(in)
		m.OutputTokens = fromNull64(out)
		m.CacheCreationTokens = fromNull64(cc)
		m.CacheReadTokens = fromNull64(cr)
		m.LinesAdded = fromNull(la)
		m.LinesRemoved = fromNull(lr)
		nc.Messages = append(nc.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &internal.StoreError{Op: "get messages", Err: err}
	}

	if nc.ToolCalls, err = s.toolCalls(id); err != nil {
		return nil, err
	}
	if nc.Files, err = s.conversationFiles(id); err != nil {
		return nil, err
	}
	if nc.MessageFiles, err = s.messageFiles(id); err != nil {
		return nil, err
	}
	if nc.FileEdits, err = s.fileEdits(id); err != nil {
		return nil, err
	}
	return nc, nil
}

func (s *Store) toolCalls(convID string) ([]internal.ToolCall, error) {
	rows, err := s.db.Query("SELECT id, message_id, conversation_id, tool, input, output, file_path FROM tool_calls WHERE conversation_id = ? ORDER BY id", convID)
	if err != nil {
		return nil, &internal.StoreError{Op: "get tool calls", Err: err}
	}
	defer rows.Close()

	var out []internal.ToolCall
	for rows.Next() {
		var tc internal.ToolCall
		if err := rows.Scan(&tc.ID, &tc.MessageID, &tc.ConversationID, &tc.Tool, &tc.Input, &tc.Output, &tc.FilePath); err != nil {
			return nil, &internal.StoreError{Op: "scan tool call", Err: err}
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (s *Store) conversationFiles(convID string) ([]internal.ConversationFile, error) {
	rows, err := s.db.Query("SELECT id, conversation_id, path, role FROM conversation_files WHERE conversation_id = ? ORDER BY id", convID)
	if err != nil {
		return nil, &internal.StoreError{Op: "get files", Err: err}
	}
	defer rows.Close()

	var out []internal.ConversationFile
	for rows.Next() {
		var f internal.ConversationFile
		if err := rows.Scan(&f.ID, &f.ConversationID, &f.Path, &f.Role); err != nil {
			return nil, &internal.StoreError{Op: "scan file", Err: err}
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) messageFiles(convID string) ([]internal.MessageFile, error) {
	rows, err := s.db.Query("SELECT id, message_id, conversation_id, path, role FROM message_files WHERE conversation_id = ? ORDER BY id", convID)
	if err != nil {
		return nil, &internal.StoreError{Op: "get message files", Err: err}
	}
	defer rows.Close()

	var out []internal.MessageFile
	for rows.Next() {
		var f internal.MessageFile
		if err := rows.Scan(&f.ID, &f.MessageID, &f.ConversationID, &f.Path, &f.Role); err != nil {
			return nil, &internal.StoreError{Op: "scan message file", Err: err}
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) fileEdits(convID string) ([]internal.FileEdit, error) {
	rows, err := s.db.Query("SELECT id, message_id, conversation_id, path, kind, lines_added, lines_removed FROM file_edits WHERE conversation_id = ? ORDER BY id", convID)
	if err != nil {
		return nil, &internal.StoreError{Op: "get file edits", Err: err}
	}
	defer rows.Close()

	var out []internal.FileEdit
	for rows.Next() {
		var e internal.FileEdit
		if err := rows.Scan(&e.ID, &e.MessageID, &e.ConversationID, &e.Path, &e.Kind, &e.LinesAdded, &e.LinesRemoved); err != nil {
			return nil, &internal.StoreError{Op: "scan file edit", Err: err}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SearchHit is one full-text search result.
type SearchHit struct {
	ConversationID string
	MessageID      string
	Source         string
	Title          string
	Role           string
	Snippet        string
}

// Search runs a full-text query over message content.
func (s *Store) Search(query string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT m.conversation_id, m.id, c.source, c.title, m.role,
		       snippet(messages_fts, 0, '', '', ' … ', 12)
		FROM messages_fts
		JOIN messages m ON m.rowid = messages_fts.rowid
		JOIN conversations c ON c.id = m.conversation_id
		WHERE messages_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, &internal.StoreError{Op: "search", Err: err}
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.ConversationID, &h.MessageID, &h.Source, &h.Title, &h.Role, &h.Snippet); err != nil {
			return nil, &internal.StoreError{Op: "scan search hit", Err: err}
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Stats summarizes the index.
type Stats struct {
	Conversations int
	Messages      int
	ToolCalls     int
	FileEdits     int
}

func (s *Store) Stats() (Stats, error) {
	var st Stats
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"conversations", &st.Conversations},
		{"messages", &st.Messages},
		{"tool_calls", &st.ToolCalls},
		{"file_edits", &st.FileEdits},
	} {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + q.table).Scan(q.dst); err != nil {
			return st, &internal.StoreError{Op: "count " + q.table, Err: err}
		}
	}
	return st, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConversation(row rowScanner) (internal.Conversation, error) {
	var c internal.Conversation
	var in, out, cc, cr, la, lr sql.NullInt64
	err := row.Scan(&c.ID, &c.Source, &c.Title, &c.Subtitle, &c.Workspace, &c.Project, &c.Model, &c.Mode,
		&c.CreatedAt, &c.UpdatedAt, &c.MessageCount,
		&in, &out, &cc, &cr, &la, &lr,
		&c.Ref.SessionID, &c.Ref.Path)
	if err == sql.ErrNoRows {
		return c, err
	}
	if err != nil {
		return c, &internal.StoreError{Op: "scan conversation", Err: err}
	}
	c.InputTokens = fromNull64(in)
	c.OutputTokens = fromNull64(out)
	c.CacheCreationTokens = fromNull64(cc)
	c.CacheReadTokens = fromNull64(cr)
	c.TotalLinesAdded = fromNull(la)
	c.TotalLinesRemoved = fromNull(lr)
	c.Ref.Source = c.Source
	c.Ref.Workspace = c.Workspace
	return c, nil
}

func fromNull64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func fromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
