package internal

import (
	"fmt"
	"strconv"
	"strings"
)

// Normalizer converts a source-specific RawConversation into the canonical
// entity set. It is purely computational: no I/O, no shared state, safe to
// run concurrently on distinct conversations. Every adapter shares this
// machinery; only the raw field mapping differs per source.
type Normalizer struct {
	source string
	mode   string
}

// NewNormalizer creates a Normalizer for one source. The mode tag is fixed
// per source (e.g. "agent").
func NewNormalizer(source, mode string) *Normalizer {
	return &Normalizer{source: source, mode: mode}
}

// lineTotals accumulates reconciled added/removed line counts for one
// visible message.
type lineTotals struct {
	added   int
	removed int
}

// Normalize builds the full canonical entity set for one raw conversation.
// Re-running on the same input yields byte-identical output, including ids.
func (n *Normalizer) Normalize(raw *RawConversation, loc SourceLocation) (*NormalizedConversation, error) {
	if raw == nil {
		return nil, fmt.Errorf("conversation is nil")
	}

	convID := ConversationIDFor(n.source, raw.SessionID)

	visible := n.visibleIndices(raw.Messages)
	totals := n.reconcileLineCounts(raw.Messages)

	workspace := raw.Workspace
	if workspace == "" {
		workspace = loc.Workspace
	}

	result := &NormalizedConversation{
		Conversation: Conversation{
			ID:           convID,
			Source:       n.source,
			Title:        raw.Title,
			Subtitle:     raw.Subtitle,
			Workspace:    workspace,
			Project:      raw.Project,
			Model:        raw.Model,
			Mode:         n.mode,
			CreatedAt:    NormalizeTimestamp(raw.CreatedAt),
			UpdatedAt:    NormalizeTimestamp(raw.UpdatedAt),
			MessageCount: len(raw.Messages),
			Ref: SourceRef{
				Source:    n.source,
				Workspace: workspace,
				SessionID: raw.SessionID,
				Path:      loc.Path,
			},
		},
	}

	for i, path := range raw.Files {
		result.Files = append(result.Files, ConversationFile{
			ID:             convID + ":file:" + strconv.Itoa(i),
			ConversationID: convID,
			Path:           path.Path,
			Role:           path.Role,
		})
	}

	var convAdded, convRemoved int
	for seq, rawIdx := range visible {
		msg := raw.Messages[rawIdx]
		msgID := convID + ":" + messageKey(msg.ID, rawIdx)

		m := Message{
			ID:             msgID,
			ConversationID: convID,
			Role:           msg.Role,
			Content:        strings.TrimSpace(msg.Text),
			Timestamp:      NormalizeTimestamp(msg.Timestamp),
			Seq:            seq,
		}

		if msg.Tokens != nil {
			m.InputTokens = optInt64(msg.Tokens.Input)
			m.OutputTokens = optInt64(msg.Tokens.Output)
			m.CacheCreationTokens = optInt64(msg.Tokens.CacheCreation)
			m.CacheReadTokens = optInt64(msg.Tokens.CacheRead)
		}

		// Reconciled line totals are emitted per field only when strictly
		// positive, so "no edits" stays distinguishable from "not tracked".
		if t, ok := totals[rawIdx]; ok {
			m.LinesAdded = optInt(t.added)
			m.LinesRemoved = optInt(t.removed)
			convAdded += t.added
			convRemoved += t.removed
		}

		result.Messages = append(result.Messages, m)

		for j, tc := range msg.ToolCalls {
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:             msgID + ":" + messageKey(tc.ID, j),
				MessageID:      msgID,
				ConversationID: convID,
				Tool:           tc.Name,
				Input:          tc.Input,
				Output:         tc.Output,
				FilePath:       tc.FilePath,
			})
		}

		for j, f := range msg.Files {
			result.MessageFiles = append(result.MessageFiles, MessageFile{
				ID:             msgID + ":file:" + strconv.Itoa(j),
				MessageID:      msgID,
				ConversationID: convID,
				Path:           f.Path,
				Role:           f.Role,
			})
		}

		for j, e := range msg.Edits {
			result.FileEdits = append(result.FileEdits, FileEdit{
				ID:             FileEditIDFor(msgID, j, e.Path),
				MessageID:      msgID,
				ConversationID: convID,
				Path:           e.Path,
				Kind:           e.Kind,
				LinesAdded:     e.LinesAdded,
				LinesRemoved:   e.LinesRemoved,
			})
		}
	}

	result.Conversation.TotalLinesAdded = optInt(convAdded)
	result.Conversation.TotalLinesRemoved = optInt(convRemoved)
	n.aggregateTokens(&result.Conversation, raw.Messages)

	return result, nil
}

// NormalizeAll normalizes a batch of raw conversations, skipping any that
// fail rather than aborting the batch.
func (n *Normalizer) NormalizeAll(raws []RawConversation, loc SourceLocation) []*NormalizedConversation {
	var out []*NormalizedConversation
	for i := range raws {
		nc, err := n.Normalize(&raws[i], loc)
		if err != nil {
			LogDebug("skipping conversation: %v", err)
			continue
		}
		out = append(out, nc)
	}
	return out
}

// isVisible reports whether a raw message belongs in the canonical message
// list: not flagged sidechain and carrying non-whitespace text.
func isVisible(msg *RawMessage) bool {
	return !msg.Sidechain && strings.TrimSpace(msg.Text) != ""
}

// visibleIndices returns the raw indices of visible messages in original
// order. Positions in the returned slice are the sequence indices.
func (n *Normalizer) visibleIndices(msgs []RawMessage) []int {
	var visible []int
	for i := range msgs {
		if isVisible(&msgs[i]) {
			visible = append(visible, i)
		}
	}
	return visible
}

// reconcileLineCounts attributes line counts carried by hidden assistant
// records to the nearest preceding visible assistant message. Raw logs
// interleave a visible reply with zero or more hidden tool-only continuation
// records; only the reply is shown, so its totals must include the hidden
// contributions. One linear scan over the original order, no lookahead: a
// hidden record with no visible assistant predecessor is dropped.
func (n *Normalizer) reconcileLineCounts(msgs []RawMessage) map[int]*lineTotals {
	totals := make(map[int]*lineTotals)
	lastVisibleAssistant := -1

	for i := range msgs {
		msg := &msgs[i]
		if isVisible(msg) {
			totals[i] = &lineTotals{added: msg.LinesAdded, removed: msg.LinesRemoved}
			if msg.Role == RoleAssistant {
				lastVisibleAssistant = i
			}
			continue
		}
		if msg.Role != RoleAssistant || msg.LinesAdded <= 0 {
			continue
		}
		if lastVisibleAssistant < 0 {
			LogDebug("dropping orphan hidden record with %d added lines", msg.LinesAdded)
			continue
		}
		t := totals[lastVisibleAssistant]
		t.added += msg.LinesAdded
		t.removed += msg.LinesRemoved
	}

	return totals
}

// aggregateTokens sums token counters over all raw messages, hidden ones
// included: reconciliation reassigns line counts only, token spend on a
// hidden record is still real.
func (n *Normalizer) aggregateTokens(conv *Conversation, msgs []RawMessage) {
	var in, out, cc, cr int64
	for i := range msgs {
		u := msgs[i].Tokens
		if u == nil {
			continue
		}
		in += u.Input
		out += u.Output
		cc += u.CacheCreation
		cr += u.CacheRead
	}
	conv.InputTokens = optInt64(in)
	conv.OutputTokens = optInt64(out)
	conv.CacheCreationTokens = optInt64(cc)
	conv.CacheReadTokens = optInt64(cr)
}

// messageKey returns the original identifier for a positional entity,
// falling back to the ordinal when the source did not supply one.
func messageKey(id string, ordinal int) string {
	if id != "" {
		return id
	}
	return strconv.Itoa(ordinal)
}

func optInt(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}

func optInt64(v int64) *int64 {
	if v <= 0 {
		return nil
	}
	return &v
}
