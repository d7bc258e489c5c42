package source

import (
	"encoding/json"
	"fmt"
)

// richTextNode is one node of Cursor's Lexical richText tree.
type richTextNode struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	Content  string         `json:"content,omitempty"`
	Value    string         `json:"value,omitempty"`
	Children []richTextNode `json:"children,omitempty"`
}

type richTextRoot struct {
	Root richTextNode `json:"root"`
}

// extractRichText parses a richText JSON document and flattens it to plain
// text. Code nodes come out as markdown fences.
func extractRichText(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	var root richTextRoot
	if err := json.Unmarshal([]byte(raw), &root); err == nil {
		if s := flattenRichTextNode(root.Root); s != "" {
			return s, nil
		}
	}

	// some bubbles store a bare node or an array of nodes
	var node richTextNode
	if err := json.Unmarshal([]byte(raw), &node); err == nil {
		if s := flattenRichTextNode(node); s != "" {
			return s, nil
		}
	}
	var nodes []richTextNode
	if err := json.Unmarshal([]byte(raw), &nodes); err == nil {
		if s := flattenRichTextChildren(nodes); s != "" {
			return s, nil
		}
	}

	return "", fmt.Errorf("richText JSON in no known format")
}

func flattenRichTextNode(node richTextNode) string {
	var text string

	switch node.Type {
	case "text":
		text += node.Text
	case "code":
		if code := flattenRichTextChildren(node.Children); code != "" {
			text += "\n```\n" + code + "\n```\n"
		}
		return text
	default:
		if node.Text != "" {
			text += node.Text
		} else if node.Content != "" {
			text += node.Content
		} else if node.Value != "" {
			text += node.Value
		}
	}

	if len(node.Children) > 0 {
		children := flattenRichTextChildren(node.Children)
		if children != "" {
			if text != "" {
				text += "\n"
			}
			text += children
		}
	}
	return text
}

func flattenRichTextChildren(children []richTextNode) string {
	var text string
	for _, child := range children {
		text += flattenRichTextNode(child)
	}
	return text
}
