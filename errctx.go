package gsplex

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dpotapov/go-gsplex/gsp"
)

// SourceLine is one numbered line of template source.
type SourceLine struct {
	Number int
	Text   string
}

// SourceContext is the excerpt of a template around a syntax error.
type SourceContext struct {
	Lines       []SourceLine
	ErrorLine   int // 1-based line of the error
	ErrorColumn int // 1-based rune column of the error
	ErrorLength int // runes to highlight, never past the end of the error line
}

func asSyntaxError(err error) (*gsp.SyntaxError, bool) {
	var se *gsp.SyntaxError
	ok := errors.As(err, &se)
	return se, ok
}

// ErrorContext returns up to n lines before and after the line of a *gsp.SyntaxError found in err's
// chain. src is the template text the error came from. It returns nil if err carries no syntax
// error or its line is not in src.
func ErrorContext(src string, err error, n int) *SourceContext {
	se, ok := asSyntaxError(err)
	if !ok {
		return nil
	}
	src = gsp.Strip(src)
	lines := gsp.NewLineIndex(src)
	line := se.Span.Line
	if line < 1 || line > lines.Lines() {
		return nil
	}

	first, last := max(line-n, 1), min(line+n, lines.Lines())
	ctx := &SourceContext{ErrorLine: line, ErrorColumn: se.Span.Column}
	for i := first; i <= last; i++ {
		ctx.Lines = append(ctx.Lines, SourceLine{Number: i, Text: lineText(src, lines, i)})
	}

	end := min(se.Span.End(), lines.LineStart(line)+len(lineText(src, lines, line)), len(src))
	if off := se.Span.Offset; off < end {
		ctx.ErrorLength = utf8.RuneCountInString(src[off:end])
	}
	return ctx
}

func lineText(src string, lines *gsp.LineIndex, n int) string {
	s := src[lines.LineStart(n):lines.LineStart(n+1)]
	return strings.TrimSuffix(s, "\n")
}

// WriteText writes the excerpt as numbered lines with a caret line under the broken region.
func (c *SourceContext) WriteText(w io.Writer) error {
	width := len(strconv.Itoa(c.Lines[len(c.Lines)-1].Number))
	for _, l := range c.Lines {
		if _, err := fmt.Fprintf(w, "%*d | %s\n", width, l.Number, l.Text); err != nil {
			return err
		}
		if l.Number != c.ErrorLine {
			continue
		}
		// keep tabs so the caret lines up with the text above
		var pad strings.Builder
		for i, r := range []rune(l.Text) {
			if i >= c.ErrorColumn-1 {
				break
			}
			if r == '\t' {
				pad.WriteRune('\t')
			} else {
				pad.WriteRune(' ')
			}
		}
		carets := strings.Repeat("^", max(c.ErrorLength, 1))
		if _, err := fmt.Fprintf(w, "%s | %s%s\n", strings.Repeat(" ", width), pad.String(), carets); err != nil {
			return err
		}
	}
	return nil
}

// Node builds a <pre> element with one line per row. The error line has the "error" class and the
// broken region is wrapped in <mark>.
func (c *SourceContext) Node() *html.Node {
	pre := element(atom.Pre, attr("class", "gsp-source"))
	width := len(strconv.Itoa(c.Lines[len(c.Lines)-1].Number))

	for i, l := range c.Lines {
		if i > 0 {
			pre.AppendChild(textNode("\n"))
		}
		class := "line"
		if l.Number == c.ErrorLine {
			class = "line error"
		}
		span := element(atom.Span, attr("class", class))
		num := strconv.Itoa(l.Number)
		span.AppendChild(textNode(strings.Repeat(" ", width-len(num)) + num + " | "))

		if l.Number != c.ErrorLine {
			span.AppendChild(textNode(l.Text))
			pre.AppendChild(span)
			continue
		}

		runes := []rune(l.Text)
		from := min(max(c.ErrorColumn-1, 0), len(runes))
		to := min(from+c.ErrorLength, len(runes))
		span.AppendChild(textNode(string(runes[:from])))
		mark := element(atom.Mark)
		mark.AppendChild(textNode(string(runes[from:to])))
		span.AppendChild(mark)
		span.AppendChild(textNode(string(runes[to:])))
		pre.AppendChild(span)
	}
	return pre
}

// ErrorHTML renders the ErrorContext of err as an HTML fragment, or returns "" when err carries no
// syntax error.
func ErrorHTML(src string, err error, n int) string {
	ctx := ErrorContext(src, err, n)
	if ctx == nil {
		return ""
	}
	var buf strings.Builder
	_ = html.Render(&buf, ctx.Node())
	return buf.String()
}
