package gsp

import "fmt"

// Kind identifies both the scanner state and the kind of token produced while the scanner was in
// that state.
type Kind int

const (
	HTML Kind = iota
	ExprScript
	ExprOutput
	ExprDirective
	ExprDeclaration
	TagStart
	TagEnd
	TagEmptyEnd
	TagExpr
	NativeExpr
	NativeScript
	NativeDirective
	NativeDeclaration

	// EOF is returned exactly once, after the last token.
	EOF
)

var kindNames = [...]string{
	HTML:              "html",
	ExprScript:        "expr-script",
	ExprOutput:        "expr-output",
	ExprDirective:     "expr-directive",
	ExprDeclaration:   "expr-declaration",
	TagStart:          "tag-start",
	TagEnd:            "tag-end",
	TagEmptyEnd:       "tag-empty-end",
	TagExpr:           "tag-expr",
	NativeExpr:        "native-expr",
	NativeScript:      "native-script",
	NativeDirective:   "native-directive",
	NativeDeclaration: "native-declaration",
	EOF:               "eof",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("gsp: invalid token kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("gsp: unknown token kind %q", b)
}

// IsTag reports whether tokens of this kind carry a tag namespace.
func (k Kind) IsTag() bool {
	return k == TagStart || k == TagEnd || k == TagEmptyEnd || k == TagExpr
}

// IsScriptlet reports whether k is one of the <% %> region kinds.
func (k Kind) IsScriptlet() bool {
	return k >= ExprScript && k <= ExprDeclaration
}

// IsNative reports whether k is one of the ${ }, %{ }%, @{ } or !{ }! region kinds.
func (k Kind) IsNative() bool {
	return k >= NativeExpr && k <= NativeDeclaration
}

// Token is a classified, positioned piece of a template.
type Token struct {
	Kind Kind

	// Text is the token content without the surrounding delimiters.
	Text string

	// Namespace is the tag prefix (the "g" in <g:link>) for tag kinds, empty otherwise.
	Namespace string

	// Offset and End delimit Text in the scanner's working buffer, the template after comment
	// removal: Text == buf[Offset:End].
	Offset, End int

	// Line and Column locate Offset in the original template, both 1-based. Columns count runes.
	Line, Column int

	// Interpolated is set for NativeExpr and TagExpr tokens whose expression contains
	// interpolation inside a string literal (such as "a ${b}").
	Interpolated bool
}

func (t Token) String() string {
	if t.Namespace != "" {
		return fmt.Sprintf("%d:%d %s(%s) %q", t.Line, t.Column, t.Kind, t.Namespace, t.Text)
	}
	return fmt.Sprintf("%d:%d %s %q", t.Line, t.Column, t.Kind, t.Text)
}
