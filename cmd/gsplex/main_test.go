package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, ctx context.Context, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func TestTokensCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "text",
			args: []string{"tokens", "../../testdata/admin/users.gsp"},
			want: []string{
				`1:4 expr-directive " page contentType=\"text/html\" "`,
				`2:7 tag-start(tmpl) "row user=\""`,
				`2:19 tag-expr(tmpl) "u"`,
				`2:23 tag-empty-end(tmpl) ""`,
			},
		},
		{
			name: "json",
			args: []string{"tokens", "--format", "json", "../../testdata/admin/users.gsp"},
			want: []string{`"kind": "expr-directive"`, `"ns": "tmpl"`},
		},
		{
			name: "xml",
			args: []string{"tokens", "-f", "xml", "../../testdata/admin/users.gsp"},
			want: []string{`<tokens page="../../testdata/admin/users.gsp">`, `<token kind="tag-expr" ns="tmpl"`},
		},
		{
			name: "table",
			args: []string{"tokens", "-f", "table", "../../testdata/admin/users.gsp"},
			want: []string{"tag-empty-end", `"row user=\""`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, context.Background(), "", tt.args...)
			require.NoError(t, err)
			for _, s := range tt.want {
				require.Contains(t, out, s)
			}
		})
	}
}

func TestTokensCmd_Stdin(t *testing.T) {
	out, _, err := execute(t, context.Background(), "a${b}", "tokens")
	require.NoError(t, err)
	require.Equal(t, "1:1 html \"a\"\n1:4 native-expr \"b\"\n", out)
}

func TestTokensCmd_MaxChunk(t *testing.T) {
	out, _, err := execute(t, context.Background(), "abcdefg", "tokens", "--max-chunk", "3")
	require.NoError(t, err)
	require.Equal(t, "1:1 html \"abc\"\n1:4 html \"def\"\n1:7 html \"g\"\n", out)
}

func TestTokensCmd_SyntaxError(t *testing.T) {
	out, errOut, err := execute(t, context.Background(), "", "tokens", "../../testdata/broken.gsp")
	require.EqualError(t, err, "../../testdata/broken.gsp:2:3: unclosed expression")
	require.Equal(t, "1:1 html \"<p>\\n  \"\n", out)
	require.Contains(t, errOut, "2 |   ${ user.name\n  |   ^^^^^^^^^^^^\n")
}

func TestTokensCmd_Errors(t *testing.T) {
	_, _, err := execute(t, context.Background(), "", "tokens", "../../testdata/missing.gsp")
	require.ErrorContains(t, err, "read template")

	_, _, err = execute(t, context.Background(), "x", "tokens", "-f", "yaml")
	require.EqualError(t, err, `unknown format "yaml"`)
}

func TestCheckCmd(t *testing.T) {
	out, _, err := execute(t, context.Background(), "", "check", "../../testdata")
	require.EqualError(t, err, "2 of 4 templates failed")
	require.Contains(t, out, "admin/bad.gsp")
	require.Contains(t, out, "2:3: unclosed expression")

	out, _, err = execute(t, context.Background(), "", "check", "--ext", ".gsp", "-p", "1", "../../testdata/admin")
	require.EqualError(t, err, "1 of 2 templates failed")
	require.Contains(t, out, "users.gsp")
}

func TestCheckCmd_Verbose(t *testing.T) {
	_, errOut, err := execute(t, context.Background(), "", "check", "-v", "--ext", ".jsp", "../../testdata")
	require.NoError(t, err)
	require.NotContains(t, errOut, "Checked template")

	_, errOut, _ = execute(t, context.Background(), "", "check", "--verbose", "../../testdata")
	require.Contains(t, errOut, "Checked template")
}

func TestServeCmd_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, errOut, err := execute(t, ctx, "", "serve", "--addr", "127.0.0.1:0", "../../testdata")
	require.NoError(t, err)
	require.Contains(t, errOut, "Shutting down HTTP server")
}
