// Package richtext renders TipTap/ProseMirror JSON documents as plain text
// (search bodies) and Markdown (notes mount, exports).
package richtext

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"taeu.kr/kirosumi/internal/platform/apperr"
)

// Node는 ProseMirror 문서 트리의 노드입니다
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
}

type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// IsEmpty는 값이 없거나 JSON null인지 확인합니다
func IsEmpty(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Validate는 문서가 비어 있거나 type 필드가 있는 객체인지 확인합니다
func Validate(raw json.RawMessage) error {
	if IsEmpty(raw) {
		return nil
	}
	var node Node
	if err := json.Unmarshal(raw, &node); err != nil {
		return apperr.Invalid("content must be a rich-text document")
	}
	if node.Type == "" {
		return apperr.Invalid("content must have a node type")
	}
	return nil
}

func Parse(raw json.RawMessage) (*Node, error) {
	if IsEmpty(raw) {
		return nil, nil
	}
	var node Node
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("parse rich text: %w", err)
	}
	return &node, nil
}

// FromText는 줄 단위 문단으로 된 문서를 만듭니다. 빈 문자열이면 nil.
func FromText(text string) json.RawMessage {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	doc := Node{Type: "doc"}
	for _, line := range strings.Split(text, "\n") {
		p := Node{Type: "paragraph"}
		if line = strings.TrimRight(line, "\r"); line != "" {
			p.Content = []Node{{Type: "text", Text: line}}
		}
		doc.Content = append(doc.Content, p)
	}

	raw, _ := json.Marshal(doc)
	return raw
}

// PlainText는 서식을 버리고 블록 사이를 줄바꿈으로 이은 텍스트를 반환합니다.
// 파싱할 수 없는 문서는 빈 문자열.
func PlainText(raw json.RawMessage) string {
	node, err := Parse(raw)
	if err != nil || node == nil {
		return ""
	}
	var b strings.Builder
	writePlain(&b, *node)
	return strings.TrimSpace(collapseBlankLines(b.String()))
}

func writePlain(b *strings.Builder, n Node) {
	switch n.Type {
	case "text":
		b.WriteString(n.Text)
		return
	case "hardBreak":
		b.WriteString("\n")
		return
	}
	for _, child := range n.Content {
		writePlain(b, child)
	}
	if isBlock(n.Type) {
		b.WriteString("\n")
	}
}

func isBlock(nodeType string) bool {
	switch nodeType {
	case "paragraph", "heading", "codeBlock", "tableRow", "horizontalRule":
		return true
	}
	return false
}

func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
