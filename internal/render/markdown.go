// Package render turns assistant output into plain terminal text.
package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Renderer converts markdown to indented plain text.
type Renderer struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
	bullet    string
}

// Option configures the Renderer.
type Option func(*Renderer)

// WithSanitization sets the policy applied to raw HTML found in the input.
func WithSanitization(policy *bluemonday.Policy) Option {
	return func(r *Renderer) {
		r.sanitizer = policy
	}
}

// WithBullet sets the marker used for unordered list items.
func WithBullet(b string) Option {
	return func(r *Renderer) {
		r.bullet = b
	}
}

// New creates a Renderer. By default all HTML tags are stripped.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		sanitizer: bluemonday.StrictPolicy(),
		bullet:    "•",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Markdown renders src as text. Blocks are separated by blank lines,
// code blocks are indented by four spaces, and links keep their target.
func (r *Renderer) Markdown(src string) string {
	source := []byte(src)
	doc := r.md.Parser().Parse(text.NewReader(source))
	w := &textWriter{src: source, r: r}
	return strings.TrimRight(strings.Join(w.children(doc, false), "\n"), "\n ")
}

// Strip removes HTML tags from s and decodes entities.
func (r *Renderer) Strip(s string) string {
	return html.UnescapeString(r.sanitizer.Sanitize(s))
}

type textWriter struct {
	src []byte
	r   *Renderer
}

// children renders the block children of n. Tight lists do not get blank
// lines between their blocks.
func (w *textWriter) children(n ast.Node, tight bool) []string {
	var out []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		lines := w.block(c)
		if len(lines) == 0 {
			continue
		}
		if len(out) > 0 && !tight {
			out = append(out, "")
		}
		out = append(out, lines...)
	}
	return out
}

func (w *textWriter) block(n ast.Node) []string {
	switch n := n.(type) {
	case *ast.Heading:
		return []string{w.inline(n)}
	case *ast.Paragraph, *ast.TextBlock:
		return strings.Split(w.inline(n), "\n")
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return indent(w.rawLines(n), "    ", "    ")
	case *ast.HTMLBlock:
		raw := strings.Join(w.rawLines(n), "\n")
		stripped := strings.TrimSpace(w.r.Strip(raw))
		if stripped == "" {
			return nil
		}
		return strings.Split(stripped, "\n")
	case *ast.Blockquote:
		return indent(w.children(n, false), "> ", "> ")
	case *ast.ThematicBreak:
		return []string{"----"}
	case *ast.List:
		return w.list(n)
	case *east.Table:
		return w.table(n)
	default:
		return w.children(n, false)
	}
}

func (w *textWriter) list(l *ast.List) []string {
	var out []string
	i := l.Start
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		marker := w.r.bullet + " "
		if l.IsOrdered() {
			marker = fmt.Sprintf("%d. ", i)
			i++
		}
		if len(out) > 0 && !l.IsTight {
			out = append(out, "")
		}
		lines := w.children(item, l.IsTight)
		if len(lines) == 0 {
			lines = []string{""}
		}
		out = append(out, indent(lines, marker, strings.Repeat(" ", len([]rune(marker))))...)
	}
	return out
}

func (w *textWriter) table(t *east.Table) []string {
	var out []string
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, strings.TrimSpace(w.inline(cell)))
		}
		out = append(out, strings.Join(cells, " | "))
		if _, ok := row.(*east.TableHeader); ok {
			out = append(out, strings.Repeat("-", len([]rune(out[len(out)-1]))))
		}
	}
	return out
}

func (w *textWriter) rawLines(n ast.Node) []string {
	lines := n.Lines()
	out := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, strings.TrimRight(string(seg.Value(w.src)), "\r\n"))
	}
	return out
}

func (w *textWriter) inline(n ast.Node) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if c == n || !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(w.src))
			if c.SoftLineBreak() || c.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(c.Value)
		case *ast.AutoLink:
			b.Write(c.URL(w.src))
		case *ast.Link:
			label := w.inline(c)
			dest := string(c.Destination)
			b.WriteString(label)
			if dest != "" && dest != label {
				b.WriteString(" (" + dest + ")")
			}
			return ast.WalkSkipChildren, nil
		case *ast.Image:
			b.WriteString(w.inline(c))
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			var raw strings.Builder
			for i := 0; i < c.Segments.Len(); i++ {
				seg := c.Segments.At(i)
				raw.Write(seg.Value(w.src))
			}
			b.WriteString(w.r.Strip(raw.String()))
		case *east.TaskCheckBox:
			if c.IsChecked {
				b.WriteString("[x] ")
			} else {
				b.WriteString("[ ] ")
			}
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// indent prefixes the first line with first and the rest with rest.
func indent(lines []string, first, rest string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		p := rest
		if i == 0 {
			p = first
		}
		if l == "" {
			out[i] = strings.TrimRight(p, " ")
			continue
		}
		out[i] = p + l
	}
	return out
}
