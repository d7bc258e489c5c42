// Package store persists normalized conversations in a local SQLite index.
// All rows are keyed by the deterministic ids produced during normalization,
// so re-ingesting unchanged raw data rewrites identical rows.
package store

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/iksnae/agent-sessions/internal"
	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS conversations (
    id                    TEXT PRIMARY KEY,
    source                TEXT NOT NULL,
    title                 TEXT NOT NULL DEFAULT '',
    subtitle              TEXT NOT NULL DEFAULT '',
    workspace             TEXT NOT NULL DEFAULT '',
    project               TEXT NOT NULL DEFAULT '',
    model                 TEXT NOT NULL DEFAULT '',
    mode                  TEXT NOT NULL DEFAULT '',
    created_at            TEXT NOT NULL DEFAULT '',
    updated_at            TEXT NOT NULL DEFAULT '',
    message_count         INTEGER NOT NULL DEFAULT 0,
    input_tokens          INTEGER,
    output_tokens         INTEGER,
    cache_creation_tokens INTEGER,
    cache_read_tokens     INTEGER,
    total_lines_added     INTEGER,
    total_lines_removed   INTEGER,
    source_session_id     TEXT NOT NULL DEFAULT '',
    source_path           TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS messages (
    id                    TEXT PRIMARY KEY,
    conversation_id       TEXT NOT NULL,
    role                  TEXT NOT NULL,
    content               TEXT NOT NULL,
    ts                    TEXT NOT NULL DEFAULT '',
    seq                   INTEGER NOT NULL,
    input_tokens          INTEGER,
    output_tokens         INTEGER,
    cache_creation_tokens INTEGER,
    cache_read_tokens     INTEGER,
    lines_added           INTEGER,
    lines_removed         INTEGER
);
CREATE INDEX IF NOT EXISTS messages_conversation ON messages (conversation_id, seq);

CREATE TABLE IF NOT EXISTS tool_calls (
    id              TEXT PRIMARY KEY,
    message_id      TEXT NOT NULL,
    conversation_id TEXT NOT NULL,
    tool            TEXT NOT NULL,
    input           TEXT NOT NULL DEFAULT '',
    output          TEXT NOT NULL DEFAULT '',
    file_path       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS tool_calls_conversation ON tool_calls (conversation_id);

CREATE TABLE IF NOT EXISTS conversation_files (
    id              TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    path            TEXT NOT NULL,
    role            TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS conversation_files_conversation ON conversation_files (conversation_id);

CREATE TABLE IF NOT EXISTS message_files (
    id              TEXT PRIMARY KEY,
    message_id      TEXT NOT NULL,
    conversation_id TEXT NOT NULL,
    path            TEXT NOT NULL,
    role            TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS message_files_conversation ON message_files (conversation_id);

CREATE TABLE IF NOT EXISTS file_edits (
    id              TEXT PRIMARY KEY,
    message_id      TEXT NOT NULL,
    conversation_id TEXT NOT NULL,
    path            TEXT NOT NULL,
    kind            TEXT NOT NULL DEFAULT '',
    lines_added     INTEGER NOT NULL DEFAULT 0,
    lines_removed   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS file_edits_conversation ON file_edits (conversation_id);

CREATE TABLE IF NOT EXISTS locations (
    path  TEXT PRIMARY KEY,
    mtime INTEGER NOT NULL DEFAULT 0
);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    content,
    content=messages,
    content_rowid=rowid,
    tokenize='unicode61'
);

CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, content) VALUES (new.rowid, new.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
    INSERT INTO messages_fts(rowid, content) VALUES (new.rowid, new.content);
END;
`

// Store is the local index of normalized conversations.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the index at dbPath.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &internal.StoreError{Op: "create db dir", Err: err}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, &internal.StoreError{Op: "open", Err: err}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &internal.StoreError{Op: "init schema", Err: err}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes one normalized conversation and all its child entities,
// replacing any previous version wholesale. Deterministic ids make this
// idempotent: saving the same normalization result twice leaves the index
// unchanged.
func (s *Store) Save(nc *internal.NormalizedConversation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &internal.StoreError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	convID := nc.Conversation.ID
	for _, table := range []string{"messages", "tool_calls", "conversation_files", "message_files", "file_edits"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE conversation_id = ?", convID); err != nil {
			return &internal.StoreError{Op: "clear " + table, Err: err}
		}
	}

	c := nc.Conversation
	_, err = tx.Exec(`INSERT OR REPLACE INTO conversations
		(id, source, title, subtitle, workspace, project, model, mode,
		 created_at, updated_at, message_count,
		 input_tokens, output_tokens, cache_creation_tokens, cache_read_tokens,
		 total_lines_added, total_lines_removed, source_session_id, source_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Source, c.Title, c.Subtitle, c.Workspace, c.Project, c.Model, c.Mode,
		c.CreatedAt, c.UpdatedAt, c.MessageCount,
		nullInt64(c.InputTokens), nullInt64(c.OutputTokens),
		nullInt64(c.CacheCreationTokens), nullInt64(c.CacheReadTokens),
		nullInt(c.TotalLinesAdded), nullInt(c.TotalLinesRemoved),
		c.Ref.SessionID, c.Ref.Path)
	if err != nil {
		return &internal.StoreError{Op: "insert conversation", Err: err}
	}

	for _, m := range nc.Messages {
		_, err = tx.Exec(`INSERT INTO messages
			(id, conversation_id, role, content, ts, seq,
			 input_tokens, output_tokens, cache_creation_tokens, cache_read_tokens,
			 lines_added, lines_removed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.ConversationID, m.Role, m.Content, m.Timestamp, m.Seq,
			nullInt64(m.InputTokens), nullInt64(m.OutputTokens),
			nullInt64(m.CacheCreationTokens), nullInt64(m.CacheReadTokens),
			nullInt(m.LinesAdded), nullInt(m.LinesRemoved))
		if err != nil {
			return &internal.StoreError{Op: "insert message", Err: err}
		}
	}

	for _, tc := range nc.ToolCalls {
		_, err = tx.Exec(`INSERT INTO tool_calls
			(id, message_id, conversation_id, tool, input, output, file_path)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			tc.ID, tc.MessageID, tc.ConversationID, tc.Tool, tc.Input, tc.Output, tc.FilePath)
		if err != nil {
			return &internal.StoreError{Op: "insert tool call", Err: err}
		}
	}

	for _, f := range nc.Files {
		_, err = tx.Exec(`INSERT INTO conversation_files (id, conversation_id, path, role) VALUES (?, ?, ?, ?)`,
			f.ID, f.ConversationID, f.Path, f.Role)
		if err != nil {
			return &internal.StoreError{Op: "insert conversation file", Err: err}
		}
	}

	for _, f := range nc.MessageFiles {
		_, err = tx.Exec(`INSERT INTO message_files (id, message_id, conversation_id, path, role) VALUES (?, ?, ?, ?, ?)`,
			f.ID, f.MessageID, f.ConversationID, f.Path, f.Role)
		if err != nil {
			return &internal.StoreError{Op: "insert message file", Err: err}
		}
	}

	for _, e := range nc.FileEdits {
		_, err = tx.Exec(`INSERT INTO file_edits
			(id, message_id, conversation_id, path, kind, lines_added, lines_removed)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.MessageID, e.ConversationID, e.Path, e.Kind, e.LinesAdded, e.LinesRemoved)
		if err != nil {
			return &internal.StoreError{Op: "insert file edit", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &internal.StoreError{Op: "commit", Err: err}
	}
	return nil
}

// LocationMtime returns the recorded modification time for a raw storage
// location, or false if the location was never ingested.
func (s *Store) LocationMtime(path string) (int64, bool) {
	var mtime int64
	err := s.db.QueryRow("SELECT mtime FROM locations WHERE path = ?", path).Scan(&mtime)
	if err != nil {
		return 0, false
	}
	return mtime, true
}

// SetLocationMtime records a location's modification time after ingestion.
func (s *Store) SetLocationMtime(path string, mtime int64) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO locations (path, mtime) VALUES (?, ?)", path, mtime)
	if err != nil {
		return &internal.StoreError{Op: "set location mtime", Err: err}
	}
	return nil
}

func nullInt64(p *int64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func nullInt(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
