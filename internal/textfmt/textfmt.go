// ABOUTME: Terminal text helpers: markdown flattening, activity timestamps, truncation
// ABOUTME: Used by the TUI and the line-mode CLI to render partner replies

package textfmt

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Bullet prefixes list items in flattened text.
const Bullet = "• "

// PlainText flattens markdown into plain terminal text. Emphasis and links
// keep only their text, headings and paragraphs end in a newline, list items
// get a bullet and code blocks keep their lines verbatim.
func PlainText(markdown string) string {
	if markdown == "" {
		return ""
	}
	src := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var b strings.Builder
	endLine := func() {
		s := b.String()
		if s != "" && !strings.HasSuffix(s, "\n") {
			b.WriteByte('\n')
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					b.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				b.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				b.Write(node.URL(src))
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(src))
				}
				return ast.WalkSkipChildren, nil
			}
			endLine()
		case *ast.ListItem:
			if entering {
				endLine()
				b.WriteString(Bullet)
			}
		case *ast.Paragraph, *ast.Heading, *ast.TextBlock, *ast.ThematicBreak:
			if !entering {
				endLine()
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}

// Preview renders markdown as a single line of at most n runes.
func Preview(markdown string, n int) string {
	flat := strings.Join(strings.Fields(PlainText(markdown)), " ")
	return Truncate(flat, n)
}

// Truncate shortens s to at most n runes, ending in an ellipsis when cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

// Activity formats a last-activity time for the roster: relative within a
// day, the weekday within a week, the day and month otherwise.
func Activity(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < 24*time.Hour:
		return humanize.RelTime(t, now, "ago", "from now")
	case d < 7*24*time.Hour:
		return t.Weekday().String()[:3]
	default:
		return t.Format("2 Jan")
	}
}
