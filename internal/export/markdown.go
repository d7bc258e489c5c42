package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/agent-sessions/internal"
)

// MarkdownExporter exports conversations in Markdown format
type MarkdownExporter struct{}

// Export exports a conversation to Markdown format
func (e *MarkdownExporter) Export(conv *internal.NormalizedConversation, w io.Writer) error {
	c := conv.Conversation

	title := c.Title
	if title == "" {
		title = "Conversation " + c.ID
	}
	_, _ = fmt.Fprintf(w, "# %s\n\n", title)

	_, _ = fmt.Fprintf(w, "**Source:** %s  \n", c.Source)
	if c.Workspace != "" {
		_, _ = fmt.Fprintf(w, "**Workspace:** %s  \n", c.Workspace)
	}
	if c.Model != "" {
		_, _ = fmt.Fprintf(w, "**Model:** %s  \n", c.Model)
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n", c.MessageCount)
	if c.TotalLinesAdded != nil || c.TotalLinesRemoved != nil {
		_, _ = fmt.Fprintf(w, "**Lines:** +%d / -%d\n", intOrZero(c.TotalLinesAdded), intOrZero(c.TotalLinesRemoved))
	}
	_, _ = fmt.Fprintf(w, "\n---\n\n")

	toolsByMessage := make(map[string][]internal.ToolCall)
	for _, tc := range conv.ToolCalls {
		toolsByMessage[tc.MessageID] = append(toolsByMessage[tc.MessageID], tc)
	}
	editsByMessage := make(map[string][]internal.FileEdit)
	for _, fe := range conv.FileEdits {
		editsByMessage[fe.MessageID] = append(editsByMessage[fe.MessageID], fe)
	}

	for i, msg := range conv.Messages {
		timestamp := ""
		if msg.Timestamp != "" {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp)
		}
		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", msg.Role, timestamp, escapeMarkdown(msg.Content))

		for _, tc := range toolsByMessage[msg.ID] {
			_, _ = fmt.Fprintf(w, "> tool: %s", tc.Tool)
			if tc.FilePath != "" {
				_, _ = fmt.Fprintf(w, " — %s", tc.FilePath)
			}
			_, _ = fmt.Fprintf(w, "\n")
		}
		for _, fe := range editsByMessage[msg.ID] {
			_, _ = fmt.Fprintf(w, "> %s %s (+%d/-%d)\n", fe.Kind, fe.Path, fe.LinesAdded, fe.LinesRemoved)
		}
		if len(toolsByMessage[msg.ID]) > 0 || len(editsByMessage[msg.ID]) > 0 {
			_, _ = fmt.Fprintf(w, "\n")
		}

		if i < len(conv.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}

// escapeMarkdown escapes markdown emphasis outside code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
