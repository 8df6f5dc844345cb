package gsplex

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/beevik/etree"

	"github.com/dpotapov/go-gsplex/gsp"
)

// jsonToken is the wire form of a gsp.Token used by WriteJSON and the WebSocket session.
type jsonToken struct {
	Kind         gsp.Kind `json:"kind"`
	Text         string   `json:"text"`
	Namespace    string   `json:"ns,omitempty"`
	Offset       int      `json:"offset"`
	End          int      `json:"end"`
	Line         int      `json:"line"`
	Column       int      `json:"column"`
	Interpolated bool     `json:"interpolated,omitempty"`
}

func newJSONTokens(tokens []gsp.Token) []jsonToken {
	out := make([]jsonToken, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, jsonToken(t))
	}
	return out
}

// jsonError is the wire form of a scan error.
type jsonError struct {
	Message string `json:"message"`
	Page    string `json:"page,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

func newJSONError(err error) *jsonError {
	je := &jsonError{Message: err.Error()}
	if se, ok := asSyntaxError(err); ok {
		je.Page = se.Page
		je.Kind = se.Kind.String()
		je.Line = se.Span.Line
		je.Column = se.Span.Column
		je.Offset = se.Span.Offset
	}
	return je
}

// WriteJSON writes tokens as an indented JSON array. Kinds are written by name.
func WriteJSON(w io.Writer, tokens []gsp.Token) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newJSONTokens(tokens)); err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	return nil
}

// WriteXML writes tokens as an XML document:
//
//	<tokens page="index.gsp">
//	  <token kind="tag-start" ns="g" line="1" column="4" offset="3" end="7">link</token>
//	</tokens>
func WriteXML(w io.Writer, page string, tokens []gsp.Token) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateText("\n")

	root := doc.CreateElement("tokens")
	if page != "" {
		root.CreateAttr("page", page)
	}
	// indent by hand, doc.Indent strips whitespace-only token text
	for _, t := range tokens {
		root.CreateText("\n  ")
		el := root.CreateElement("token")
		el.CreateAttr("kind", t.Kind.String())
		if t.Namespace != "" {
			el.CreateAttr("ns", t.Namespace)
		}
		el.CreateAttr("line", strconv.Itoa(t.Line))
		el.CreateAttr("column", strconv.Itoa(t.Column))
		el.CreateAttr("offset", strconv.Itoa(t.Offset))
		el.CreateAttr("end", strconv.Itoa(t.End))
		if t.Interpolated {
			el.CreateAttr("interpolated", "true")
		}
		if t.Text != "" {
			el.SetText(t.Text)
		}
	}
	if len(tokens) > 0 {
		root.CreateText("\n")
	}
	doc.CreateText("\n")

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write XML: %w", err)
	}
	return nil
}

// writeXMLError writes err as a single <error> element carrying the location of a syntax error.
func writeXMLError(w io.Writer, err error) error {
	je := newJSONError(err)

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateText("\n")
	el := doc.CreateElement("error")
	if je.Page != "" {
		el.CreateAttr("page", je.Page)
		el.CreateAttr("kind", je.Kind)
		el.CreateAttr("line", strconv.Itoa(je.Line))
		el.CreateAttr("column", strconv.Itoa(je.Column))
		el.CreateAttr("offset", strconv.Itoa(je.Offset))
	}
	el.SetText(je.Message)
	doc.CreateText("\n")

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write XML: %w", err)
	}
	return nil
}
