package gsplex

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dpotapov/go-gsplex/gsp"
)

func TestRenderTokens(t *testing.T) {
	toks, err := gsp.Scan("page.gsp", `<b>${a < b}</b><g:x/>`, nil)
	require.NoError(t, err)
	require.Len(t, toks, 5)

	var buf bytes.Buffer
	require.NoError(t, RenderTokens(&buf, "page.gsp", toks))
	out := buf.String()

	require.True(t, strings.HasPrefix(out, `<table class="gsp-tokens"><caption>page.gsp</caption><thead><tr><th>#</th><th>Kind</th>`))
	require.Equal(t, len(toks)+1, strings.Count(out, "<tr"))
	require.Contains(t, out, `<tr class="native-expr"><td>1</td><td>native-expr</td><td></td><td>1</td><td>6</td>`+
		`<td><code style="white-space: pre">a &lt; b</code></td></tr>`)
	require.Contains(t, out, `<tr class="tag-empty-end"><td>4</td><td>tag-empty-end</td><td>g</td>`)
}

func TestTokenTable_NoCaption(t *testing.T) {
	table := TokenTable("", nil)
	require.Equal(t, "table", table.Data)
	require.Equal(t, "thead", table.FirstChild.Data)
	require.Equal(t, "tbody", table.LastChild.Data)
	require.Nil(t, table.LastChild.FirstChild)
}
