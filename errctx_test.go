package gsplex

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dpotapov/go-gsplex/gsp"
)

func TestErrorContext(t *testing.T) {
	src := "line1\nline2\n  ${ broken\nline4\nline5\n"
	_, err := gsp.Scan("t.gsp", src, nil)
	require.Error(t, err)

	ctx := ErrorContext(src, fmt.Errorf("render: %w", err), 1)
	require.NotNil(t, ctx)
	require.Equal(t, &SourceContext{
		Lines: []SourceLine{
			{Number: 2, Text: "line2"},
			{Number: 3, Text: "  ${ broken"},
			{Number: 4, Text: "line4"},
		},
		ErrorLine:   3,
		ErrorColumn: 3,
		ErrorLength: 9,
	}, ctx)

	ctx = ErrorContext(src, err, 10)
	require.Len(t, ctx.Lines, 6)
	require.Equal(t, 1, ctx.Lines[0].Number)
	require.Equal(t, "", ctx.Lines[5].Text)
}

func TestErrorContext_NotSyntaxError(t *testing.T) {
	require.Nil(t, ErrorContext("x", errors.New("boom"), 3))
	require.Nil(t, ErrorContext("x", nil, 3))
	require.Equal(t, "", ErrorHTML("x", errors.New("boom"), 3))
}

func TestErrorHTML(t *testing.T) {
	src := "line1\nline2\n  ${ broken\nline4\n"
	_, err := gsp.Scan("t.gsp", src, nil)
	require.Error(t, err)

	want := `<pre class="gsp-source"><span class="line">2 | line2</span>` + "\n" +
		`<span class="line error">3 |   <mark>${ broken</mark></span>` + "\n" +
		`<span class="line">4 | line4</span></pre>`
	require.Equal(t, want, ErrorHTML(src, err, 1))
}

func TestErrorHTML_Runes(t *testing.T) {
	src := "<p>été ${ x"
	_, err := gsp.Scan("t.gsp", src, nil)
	require.Error(t, err)

	want := `<pre class="gsp-source"><span class="line error">1 | &lt;p&gt;été <mark>${ x</mark></span></pre>`
	require.Equal(t, want, ErrorHTML(src, err, 2))
}

func TestSourceContext_WriteText(t *testing.T) {
	src := "a\n\tb ${ c\nd\n"
	_, err := gsp.Scan("t.gsp", src, nil)
	require.Error(t, err)

	var buf strings.Builder
	require.NoError(t, ErrorContext(src, err, 1).WriteText(&buf))
	require.Equal(t, "1 | a\n2 | \tb ${ c\n  | \t  ^^^^\n3 | d\n", buf.String())
}
