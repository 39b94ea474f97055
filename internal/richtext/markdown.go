package richtext

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Markdown은 문서를 Markdown으로 렌더링합니다. 모르는 노드는 자식만 렌더링한다.
func Markdown(raw json.RawMessage) string {
	node, err := Parse(raw)
	if err != nil || node == nil {
		return ""
	}
	r := &mdRenderer{}
	r.block(*node, "")
	return strings.TrimRight(collapseBlankLines(r.b.String()), "\n") + "\n"
}

type mdRenderer struct {
	b strings.Builder
}

func (r *mdRenderer) block(n Node, prefix string) {
	switch n.Type {
	case "doc":
		r.children(n, prefix)
	case "paragraph":
		r.line(prefix, r.inline(n.Content))
		r.b.WriteString(strings.TrimRight(prefix, " ") + "\n")
	case "heading":
		level := 1
		if lvl, ok := n.Attrs["level"].(float64); ok && lvl >= 1 && lvl <= 6 {
			level = int(lvl)
		}
		r.line(prefix, strings.Repeat("#", level)+" "+r.inline(n.Content))
		r.b.WriteString("\n")
	case "bulletList":
		for _, li := range n.Content {
			r.listItem(li, prefix, "- ")
		}
		r.b.WriteString("\n")
	case "orderedList":
		start := 1
		if s, ok := n.Attrs["start"].(float64); ok {
			start = int(s)
		}
		for i, li := range n.Content {
			r.listItem(li, prefix, fmt.Sprintf("%d. ", start+i))
		}
		r.b.WriteString("\n")
	case "taskList":
		for _, li := range n.Content {
			box := "- [ ] "
			if checked, _ := li.Attrs["checked"].(bool); checked {
				box = "- [x] "
			}
			r.listItem(li, prefix, box)
		}
		r.b.WriteString("\n")
	case "blockquote":
		r.children(n, prefix+"> ")
	case "codeBlock":
		lang, _ := n.Attrs["language"].(string)
		r.line(prefix, "```"+lang)
		for _, l := range strings.Split(plainInline(n.Content), "\n") {
			r.line(prefix, l)
		}
		r.line(prefix, "```")
		r.b.WriteString("\n")
	case "horizontalRule":
		r.line(prefix, "---")
		r.b.WriteString("\n")
	case "text", "hardBreak":
		r.line(prefix, r.inline([]Node{n}))
	default:
		r.children(n, prefix)
	}
}

func (r *mdRenderer) children(n Node, prefix string) {
	for _, child := range n.Content {
		r.block(child, prefix)
	}
}

// listItem은 첫 문단에 표식을 붙이고 나머지 블록은 들여씁니다
func (r *mdRenderer) listItem(li Node, prefix, marker string) {
	indent := prefix + strings.Repeat(" ", len(marker))
	for i, child := range li.Content {
		if i == 0 && child.Type == "paragraph" {
			r.line(prefix, marker+r.inline(child.Content))
			continue
		}
		if i == 0 {
			r.line(prefix, strings.TrimRight(marker, " "))
		}
		sub := &mdRenderer{}
		sub.block(child, indent)
		r.b.WriteString(strings.TrimRight(sub.b.String(), "\n") + "\n")
	}
	if len(li.Content) == 0 {
		r.line(prefix, strings.TrimRight(marker, " "))
	}
}

func (r *mdRenderer) line(prefix, s string) {
	r.b.WriteString(prefix + s + "\n")
}

func (r *mdRenderer) inline(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch n.Type {
		case "text":
			b.WriteString(applyMarks(n.Text, n.Marks))
		case "hardBreak":
			b.WriteString("  \n")
		default:
			b.WriteString(r.inline(n.Content))
		}
	}
	return b.String()
}

func plainInline(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch n.Type {
		case "text":
			b.WriteString(n.Text)
		case "hardBreak":
			b.WriteString("\n")
		default:
			b.WriteString(plainInline(n.Content))
		}
	}
	return b.String()
}

func applyMarks(text string, marks []Mark) string {
	if text == "" {
		return ""
	}
	for i := len(marks) - 1; i >= 0; i-- {
		switch marks[i].Type {
		case "bold":
			text = "**" + text + "**"
		case "italic":
			text = "_" + text + "_"
		case "code":
			text = "`" + text + "`"
		case "strike":
			text = "~~" + text + "~~"
		case "link":
			href, _ := marks[i].Attrs["href"].(string)
			text = "[" + text + "](" + href + ")"
		}
	}
	return text
}
