package gsp

// ExprSpan is the location of one embedded expression. Start is the first byte after the opening
// delimiter and End is the offset of the terminator, or -1 if none was found.
type ExprSpan struct {
	Start, End int

	// Interpolated is set when the expression contains an interpolation inside a string literal
	// ("a ${b}"), or, for text parsed from the Normal state, an interpolation that does not start
	// at the first byte.
	Interpolated bool
}

// Text returns the expression source without delimiters.
func (s ExprSpan) Text(src string) string {
	if s.End < s.Start {
		return ""
	}
	return src[s.Start:s.End]
}

type exprState int

const (
	stateNormal exprState = iota
	stateExpression
	stateSingleQuoted
	stateDoubleQuoted
	stateTripleSingleQuoted
	stateTripleDoubleQuoted
)

func (s exprState) quoted() bool { return s >= stateSingleQuoted }

// quote returns the quote character that closes a quoted state.
func (s exprState) quote() byte {
	switch s {
	case stateSingleQuoted, stateTripleSingleQuoted:
		return '\''
	case stateDoubleQuoted, stateTripleDoubleQuoted:
		return '"'
	}
	return 0
}

// interpolates reports whether ${ opens an expression inside this state.
func (s exprState) interpolates() bool {
	return s == stateDoubleQuoted || s == stateTripleDoubleQuoted
}

type exprFrame struct {
	state exprState
	open  int // offset of the byte that pushed the frame
}

// exprStack is a stack of parser states. The bottom frame is never popped.
type exprStack []exprFrame

func (s *exprStack) push(state exprState, open int) {
	*s = append(*s, exprFrame{state: state, open: open})
}

// pop pops the stack unless only the bottom frame is left.
func (s *exprStack) pop() {
	if i := len(*s); i > 1 {
		*s = (*s)[:i-1]
	}
}

func (s exprStack) top() exprFrame { return s[len(s)-1] }

// ParseExpr finds the end of the embedded expression that starts at src[start]. The scan stops at
// the first term byte seen outside any string literal or nested bracket, and, when next is not 0,
// only if next follows it. inExpr tells whether start is already inside an expression (right after
// "${") or in plain text that may contain interpolations.
//
// It returns ErrUnclosedExpression when src ends first and ErrNestedInterpolation when "${" is
// opened directly inside an expression. In both cases End is -1.
func ParseExpr(src string, start int, term, next byte, inExpr bool) (ExprSpan, error) {
	span := ExprSpan{Start: start, End: -1}

	bottom := stateNormal
	if inExpr {
		bottom = stateExpression
	}
	stack := make(exprStack, 1, 8)
	stack[0] = exprFrame{state: bottom, open: start - 1}

	at := func(i int) byte {
		if i < start || i >= len(src) {
			return 0
		}
		return src[i]
	}

	for pos := start; pos < len(src); pos++ {
		c := src[pos]
		top := stack.top()

		if top.state.quoted() {
			q := top.state.quote()
			switch {
			case c == '\\':
				pos++ // the escaped byte never closes the string
			case c == q && (top.state == stateSingleQuoted || top.state == stateDoubleQuoted):
				stack.pop()
			case c == q && pos-2 > top.open && at(pos-1) == q && at(pos-2) == q:
				stack.pop()
			case c == '{' && at(pos-1) == '$' && top.state.interpolates():
				stack.push(stateExpression, pos)
				span.Interpolated = true
			}
			continue
		}

		if len(stack) == 1 && c == term && (next == 0 || at(pos+1) == next) {
			span.End = pos
			return span, nil
		}

		switch c {
		case '{':
			switch {
			case top.state == stateExpression && at(pos-1) == '$' && at(pos-2) != '\\':
				return span, ErrNestedInterpolation
			case top.state == stateExpression:
				stack.push(stateExpression, pos)
			case at(pos-1) == '$':
				stack.push(stateExpression, pos)
				if pos-1 > start {
					span.Interpolated = true
				}
			}
		case '[':
			if top.state == stateExpression {
				stack.push(stateExpression, pos)
			}
		case '}', ']':
			if top.state == stateExpression {
				stack.pop()
			}
		case '\'', '"':
			if top.state != stateExpression {
				break
			}
			single, triple := stateSingleQuoted, stateTripleSingleQuoted
			if c == '"' {
				single, triple = stateDoubleQuoted, stateTripleDoubleQuoted
			}
			switch {
			case at(pos-1) == c && at(pos-2) == c:
				stack.push(triple, pos)
			case at(pos-1) != c && at(pos+1) != c:
				stack.push(single, pos)
			}
		}
	}
	return span, ErrUnclosedExpression
}
