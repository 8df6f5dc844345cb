package gsplex

import (
	"fmt"
	"io"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dpotapov/go-gsplex/gsp"
)

var tableColumns = []string{"#", "Kind", "Namespace", "Line", "Column", "Text"}

// TokenTable builds an HTML table listing tokens, one row per token. The token text is placed in a
// <code> element with its whitespace preserved.
func TokenTable(page string, tokens []gsp.Token) *html.Node {
	table := element(atom.Table, attr("class", "gsp-tokens"))
	if page != "" {
		caption := element(atom.Caption)
		caption.AppendChild(textNode(page))
		table.AppendChild(caption)
	}

	thead := element(atom.Thead)
	tr := element(atom.Tr)
	for _, c := range tableColumns {
		th := element(atom.Th)
		th.AppendChild(textNode(c))
		tr.AppendChild(th)
	}
	thead.AppendChild(tr)
	table.AppendChild(thead)

	tbody := element(atom.Tbody)
	for i, t := range tokens {
		tr := element(atom.Tr, attr("class", t.Kind.String()))
		cells := []string{strconv.Itoa(i), t.Kind.String(), t.Namespace, strconv.Itoa(t.Line), strconv.Itoa(t.Column)}
		for _, c := range cells {
			td := element(atom.Td)
			td.AppendChild(textNode(c))
			tr.AppendChild(td)
		}
		code := element(atom.Code, attr("style", "white-space: pre"))
		code.AppendChild(textNode(t.Text))
		td := element(atom.Td)
		td.AppendChild(code)
		tr.AppendChild(td)
		tbody.AppendChild(tr)
	}
	table.AppendChild(tbody)

	return table
}

// RenderTokens writes the TokenTable of tokens to w.
func RenderTokens(w io.Writer, page string, tokens []gsp.Token) error {
	if err := html.Render(w, TokenTable(page, tokens)); err != nil {
		return fmt.Errorf("render HTML: %w", err)
	}
	return nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
