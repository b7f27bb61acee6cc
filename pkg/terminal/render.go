package terminal

import (
	"strings"

	"golang.org/x/net/html"
)

// blockElements start on a new line when rendered.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"div": true, "dl": true, "dt": true, "dd": true, "fieldset": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "table": true, "tr": true,
	"ul": true,
}

// RenderText returns the text a user would select in the rendered markup:
// tags dropped, script and style skipped, block elements on their own lines
// and runs of whitespace collapsed outside <pre>.
func RenderText(markup string) (string, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", err
	}
	body := findBody(doc)
	if body == nil {
		return "", nil
	}

	r := &renderer{}
	for child := body.FirstChild; child != nil; child = child.NextSibling {
		r.walk(child, false)
	}
	return r.String(), nil
}

// findBody finds the body element in the parsed document.
func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findBody(child); found != nil {
			return found
		}
	}
	return nil
}

type renderer struct {
	lines []string
	cur   strings.Builder
}

func (r *renderer) walk(n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		r.text(n.Data, pre)
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.Data {
	case "script", "style", "template", "head":
		return
	case "br":
		r.newline()
		return
	}

	block := blockElements[n.Data]
	if block {
		r.breakLine()
	}
	inPre := pre || n.Data == "pre"
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		r.walk(child, inPre)
	}
	if n.Data == "td" || n.Data == "th" {
		r.cur.WriteByte('\t')
	}
	if block {
		r.breakLine()
	}
}

func (r *renderer) text(s string, pre bool) {
	if pre {
		parts := strings.Split(s, "\n")
		for i, p := range parts {
			if i > 0 {
				r.newline()
			}
			r.cur.WriteString(p)
		}
		return
	}

	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" && r.cur.Len() > 0 && !strings.HasSuffix(r.cur.String(), " ") {
			r.cur.WriteByte(' ')
		}
		return
	}
	if r.cur.Len() > 0 && startsWithSpace(s) && !strings.HasSuffix(r.cur.String(), " ") {
		r.cur.WriteByte(' ')
	}
	r.cur.WriteString(strings.Join(fields, " "))
	if endsWithSpace(s) {
		r.cur.WriteByte(' ')
	}
}

// breakLine ends the current line if it has content.
func (r *renderer) breakLine() {
	if strings.TrimSpace(r.cur.String()) != "" {
		r.newline()
	}
}

func (r *renderer) newline() {
	r.lines = append(r.lines, strings.TrimRight(r.cur.String(), " \t"))
	r.cur.Reset()
}

func (r *renderer) String() string {
	lines := r.lines
	if tail := strings.TrimRight(r.cur.String(), " \t"); tail != "" {
		lines = append(lines, tail)
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

func startsWithSpace(s string) bool {
	return s != "" && strings.TrimLeft(s, " \t\r\n") != s
}

func endsWithSpace(s string) bool {
	return s != "" && strings.TrimRight(s, " \t\r\n") != s
}
