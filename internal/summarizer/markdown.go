package summarizer

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// NoInformation is the model's placeholder for an empty section.
const NoInformation = "No hay información"

// Section is one numbered part of a summary.
type Section struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Empty reports whether the section carries no information.
func (s Section) Empty() bool {
	return strings.TrimSpace(s.Body) == "" || strings.Contains(s.Body, NoInformation)
}

// Model output uses single newlines between lines of a section, so they are
// rendered as hard breaks.
var md = goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps()))

var numberedLine = regexp.MustCompile(`(?m)^(\d{1,2}[.)]\s)`)

var titleLine = regexp.MustCompile(`^\**\s*(\d{1,2})[.)]\s+(.+?)\s*\**$`)

// RenderHTML converts a summary to an HTML fragment.
func RenderHTML(summary string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(summary), &buf); err != nil {
		return "", fmt.Errorf("RenderHTML: %w", err)
	}
	return buf.String(), nil
}

// Sections splits a summary into its numbered sections. Sections may come as
// an ordered list, as headings, or as paragraphs whose first line is
// "N. Title". Text before the first section is ignored.
func Sections(summary string) []Section {
	src := []byte(numberedLine.ReplaceAllString(summary, "\n$1"))
	doc := md.Parser().Parse(text.NewReader(src))

	var (
		out     []Section
		current *Section
		body    []string
	)
	flush := func() {
		if current != nil {
			current.Body = strings.Join(body, "\n")
			out = append(out, *current)
		}
		current, body = nil, nil
	}
	start := func(number int, title string) {
		flush()
		current = &Section{Number: number, Title: strings.TrimSpace(title)}
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.List:
			if !n.IsOrdered() {
				if current != nil {
					body = append(body, blockLines(n, src, "")...)
				}
				continue
			}
			next := n.Start
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				lines := blockLines(item, src, "")
				title := ""
				if len(lines) > 0 {
					title, lines = lines[0], lines[1:]
				}
				num := itemNumber(item, src, next)
				start(num, title)
				body = append(body, lines...)
				next = num + 1
			}
		case *ast.Heading:
			lines := blockLines(n, src, "")
			if len(lines) > 0 {
				if m := titleLine.FindStringSubmatch(lines[0]); m != nil {
					num, _ := strconv.Atoi(m[1])
					start(num, m[2])
					continue
				}
			}
			if current != nil {
				body = append(body, lines...)
			}
		default:
			lines := blockLines(n, src, "")
			if len(lines) > 0 {
				if m := titleLine.FindStringSubmatch(lines[0]); m != nil {
					num, _ := strconv.Atoi(m[1])
					start(num, m[2])
					body = append(body, lines[1:]...)
					continue
				}
			}
			if current != nil {
				body = append(body, lines...)
			}
		}
	}
	flush()
	return out
}

// blockLines returns the trimmed source lines under a block node. Items of
// nested lists are prefixed with "- ".
func blockLines(n ast.Node, src []byte, prefix string) []string {
	if n.Type() != ast.TypeBlock {
		return nil
	}
	var out []string
	if segs := n.Lines(); segs != nil && segs.Len() > 0 {
		for i := 0; i < segs.Len(); i++ {
			seg := segs.At(i)
			line := strings.TrimSpace(string(seg.Value(src)))
			if line == "" {
				continue
			}
			if prefix != "" {
				line, prefix = prefix+line, ""
			}
			out = append(out, line)
		}
		return out
	}
	_, isList := n.(*ast.List)
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		p := ""
		switch {
		case isList:
			p = "- "
		case c == n.FirstChild():
			p = prefix
		}
		out = append(out, blockLines(c, src, p)...)
	}
	return out
}

// itemNumber reads the marker of an ordered list item from the source, since
// the list only records the number of its first item.
func itemNumber(item ast.Node, src []byte, fallback int) int {
	pos, ok := firstOffset(item)
	if !ok {
		return fallback
	}
	lineStart := bytes.LastIndexByte(src[:pos], '\n') + 1
	marker := strings.TrimSpace(string(src[lineStart:pos]))
	digits := strings.TrimRight(marker, ".)")
	if n, err := strconv.Atoi(digits); err == nil {
		return n
	}
	return fallback
}

func firstOffset(n ast.Node) (int, bool) {
	if n.Type() != ast.TypeBlock {
		return 0, false
	}
	if segs := n.Lines(); segs != nil && segs.Len() > 0 {
		return segs.At(0).Start, true
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if pos, ok := firstOffset(c); ok {
			return pos, true
		}
	}
	return 0, false
}
