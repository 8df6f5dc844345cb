package gsplex

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/dpotapov/go-gsplex/gsp"
)

const encodeSrc = "<p>\n<g:x v=\"${\"${y}\"}\"/>\n"

func TestWriteJSON(t *testing.T) {
	toks, err := gsp.Scan("page.gsp", encodeSrc, nil)
	require.NoError(t, err)
	require.Len(t, toks, 6)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, toks))
	require.Contains(t, buf.String(), `"kind": "tag-expr"`)
	require.Contains(t, buf.String(), `"interpolated": true`)

	var got []jsonToken
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	if diff := cmp.Diff(newJSONTokens(toks), got); diff != "" {
		t.Errorf("WriteJSON() mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	require.Equal(t, "[]\n", buf.String())
}

func TestWriteXML(t *testing.T) {
	toks, err := gsp.Scan("page.gsp", encodeSrc, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteXML(&buf, "page.gsp", toks))
	require.True(t, strings.HasPrefix(buf.String(), `<?xml version="1.0" encoding="UTF-8"?>`))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(buf.String()))

	root := doc.SelectElement("tokens")
	require.NotNil(t, root)
	require.Equal(t, "page.gsp", root.SelectAttrValue("page", ""))

	els := root.SelectElements("token")
	require.Len(t, els, len(toks))

	type row struct {
		Kind, NS, Line, Interpolated, Text string
	}
	var got []row
	for _, el := range els {
		got = append(got, row{
			Kind:         el.SelectAttrValue("kind", ""),
			NS:           el.SelectAttrValue("ns", ""),
			Line:         el.SelectAttrValue("line", ""),
			Interpolated: el.SelectAttrValue("interpolated", ""),
			Text:         el.Text(),
		})
	}
	want := []row{
		{Kind: "html", Line: "1", Text: "<p>\n"},
		{Kind: "tag-start", NS: "g", Line: "2", Text: `x v="`},
		{Kind: "tag-expr", NS: "g", Line: "2", Interpolated: "true", Text: `"${y}"`},
		{Kind: "tag-start", NS: "g", Line: "2", Text: `"`},
		{Kind: "tag-empty-end", NS: "g", Line: "2"},
		{Kind: "html", Line: "2", Text: "\n"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WriteXML() mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteXMLError(t *testing.T) {
	_, err := gsp.Scan("bad.gsp", "a\n<% x", nil)
	require.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeXMLError(&buf, err))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(buf.String()))
	el := doc.SelectElement("error")
	require.NotNil(t, el)
	require.Equal(t, "expr-script", el.SelectAttrValue("kind", ""))
	require.Equal(t, "2", el.SelectAttrValue("line", ""))
	require.Equal(t, "1", el.SelectAttrValue("column", ""))
	require.Equal(t, "bad.gsp:2:1: unclosed expr-script", el.Text())
}
