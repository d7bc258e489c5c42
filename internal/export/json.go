package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/agent-sessions/internal"
)

// JSONExporter exports conversations in JSON format (pretty-printed)
type JSONExporter struct{}

// Export exports a conversation with its full entity set to JSON
func (e *JSONExporter) Export(conv *internal.NormalizedConversation, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(conv)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
