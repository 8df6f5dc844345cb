package gsp

import (
	"fmt"
	"io/fs"
	"iter"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultMaxHTMLChunk is the longest literal HTML token produced when Options.MaxHTMLChunk is
// not set.
const DefaultMaxHTMLChunk = 64000

type Options struct {
	// MaxHTMLChunk limits the length in bytes of a single HTML token. Longer literal text is split
	// into several tokens, never inside a UTF-8 sequence. Zero or negative values select
	// DefaultMaxHTMLChunk.
	MaxHTMLChunk int
}

// Scanner splits a server page into tokens. Literal markup becomes HTML tokens; <% %> scriptlets,
// ${ } expressions, %{ }% scripts, @{ } directives, !{ }! declarations and <ns:tag> custom tags
// become tokens of their own kinds, without their delimiters. Comments (<%-- --%> and %{-- --}%)
// are removed from the text and produce no token.
//
// A Scanner is not safe for concurrent use. Separate scanners share nothing.
type Scanner struct {
	page     string
	src      string     // stripped template, never modified
	lines    *LineIndex // line starts of src
	maxChunk int

	buf    string  // working copy of src with comments spliced out
	shifts []shift // comments removed from buf, in scanning order

	state Kind
	pos   int    // next byte of buf to examine
	start int    // first byte of the pending token
	open  int    // offset of the delimiter that opened the current region
	eopen int    // offset of the "${" inside a tag
	ns    string // namespace of the tag being scanned
	quote byte   // open quote inside a tag or a native block

	last Token
	done bool
	err  error
}

// shift records that comment text was removed from the working buffer at offset at. total is the
// number of bytes removed at or before at.
type shift struct {
	at, total int
}

// NewScanner returns a scanner for src. The page name is only used in error messages.
func NewScanner(page, src string, opts *Options) *Scanner {
	src = Strip(src)
	s := &Scanner{
		page:     page,
		src:      src,
		lines:    NewLineIndex(src),
		maxChunk: DefaultMaxHTMLChunk,
	}
	if opts != nil && opts.MaxHTMLChunk > 0 {
		s.maxChunk = opts.MaxHTMLChunk
	}
	s.Reset()
	return s
}

// Reset rewinds the scanner to the beginning of the template, restoring removed comments, so the
// same token stream can be produced again.
func (s *Scanner) Reset() {
	s.buf = s.src
	s.shifts = nil
	s.state = HTML
	s.pos, s.start, s.open, s.eopen = 0, 0, 0, 0
	s.ns, s.quote = "", 0
	s.last = Token{}
	s.done = false
	s.err = nil
}

// Page returns the page name the scanner was created with.
func (s *Scanner) Page() string { return s.page }

// Source returns the working buffer: the stripped template without the comments removed so far.
// Token offsets refer to this text.
func (s *Scanner) Source() string { return s.buf }

// Lines returns the line index of the stripped template, before comment removal.
func (s *Scanner) Lines() *LineIndex { return s.lines }

// Line returns the line of the most recently returned token, or 0 before the first one.
func (s *Scanner) Line() int { return s.last.Line }

// Next returns the next token. After the last token it returns a token of kind EOF once; calling
// Next again panics. Errors are *SyntaxError values and are sticky: once an error is returned,
// every further call returns it.
func (s *Scanner) Next() (Token, error) {
	if s.err != nil {
		return Token{}, s.err
	}
	if s.done {
		panic("gsp: Next called after EOF")
	}
	for {
		tok, ok, err := s.step()
		if err != nil {
			s.err = err
			return Token{}, err
		}
		if ok {
			s.last = tok
			return tok, nil
		}
	}
}

// All returns an iterator over the remaining tokens. It stops after the EOF token or the first
// error.
func (s *Scanner) All() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		for {
			tok, err := s.Next()
			if !yield(tok, err) || err != nil || tok.Kind == EOF {
				return
			}
		}
	}
}

// step runs the state machine up to the next token boundary. ok is false when the boundary
// produced an empty HTML token, which is dropped.
func (s *Scanner) step() (tok Token, ok bool, err error) {
	switch s.state {
	case HTML:
		return s.lexHTML()
	case ExprScript, ExprOutput, ExprDirective, ExprDeclaration:
		i := strings.Index(s.buf[s.pos:], "%>")
		if i < 0 {
			return s.fail(ErrUnclosedRegion, s.open)
		}
		s.pos += i
		return s.found(HTML, 2)
	case TagStart:
		return s.lexTag()
	case TagEnd, TagEmptyEnd:
		i := strings.IndexByte(s.buf[s.pos:], '>')
		if i < 0 {
			return s.fail(ErrUnclosedRegion, s.open)
		}
		s.pos += i
		return s.found(HTML, 1)
	case NativeExpr, TagExpr:
		return s.lexExpr()
	case NativeScript, NativeDirective, NativeDeclaration:
		return s.lexNative()
	case EOF:
		s.done = true
		return s.token(EOF, len(s.buf), len(s.buf)), true, nil
	}
	panic(fmt.Sprintf("gsp: bad scanner state %v", s.state))
}

// found ends the pending token at s.pos, skips the skip delimiter bytes and switches the scanner
// to state next.
func (s *Scanner) found(next Kind, skip int) (Token, bool, error) {
	tok := s.token(s.state, s.start, s.pos)
	if s.state == HTML || next == HTML {
		s.quote = 0
	}
	if s.state == HTML && next != HTML {
		s.open = s.pos
	}
	if next == TagExpr {
		s.eopen = s.pos
	}
	s.pos += skip
	s.start = s.pos
	s.state = next
	return tok, tok.Kind != HTML || tok.Text != "", nil
}

func (s *Scanner) token(kind Kind, start, end int) Token {
	tok := Token{
		Kind:   kind,
		Text:   s.buf[start:end],
		Offset: start,
		End:    end,
	}
	if kind.IsTag() {
		tok.Namespace = s.ns
	}
	tok.Line, tok.Column = s.lines.Position(s.origin(start))
	return tok
}

func (s *Scanner) fail(err error, at int) (Token, bool, error) {
	orig := s.origin(at)
	span := s.lines.Span(orig, len(s.src)-orig)
	return Token{}, false, newSyntaxError(s.page, span, s.state, err)
}

func (s *Scanner) peek(n int) byte {
	if i := s.pos + n; i < len(s.buf) {
		return s.buf[i]
	}
	return 0
}

func (s *Scanner) lexHTML() (Token, bool, error) {
	for s.pos < len(s.buf) {
		if s.pos-s.start >= s.maxChunk {
			return s.splitHTML()
		}
		switch c := s.buf[s.pos]; c {
		case '<':
			if s.peek(1) == '%' {
				switch s.peek(2) {
				case '=':
					return s.found(ExprOutput, 3)
				case '@':
					return s.found(ExprDirective, 3)
				case '!':
					return s.found(ExprDeclaration, 3)
				case '-':
					if s.peek(3) == '-' {
						if err := s.skipComment("--%>"); err != nil {
							return Token{}, false, err
						}
						continue
					}
				}
				return s.found(ExprScript, 2)
			}
			if ns, end, ok := s.tagAhead(); ok {
				next, skip := TagStart, len(ns)+2
				if end {
					next, skip = TagEnd, len(ns)+3
				}
				tok, emit, err := s.found(next, skip)
				s.ns = ns
				return tok, emit, err
			}
		case '$':
			if s.peek(1) == '{' {
				return s.found(NativeExpr, 2)
			}
		case '%':
			if s.peek(1) == '{' {
				if s.peek(2) == '-' && s.peek(3) == '-' {
					if err := s.skipComment("--}%"); err != nil {
						return Token{}, false, err
					}
					continue
				}
				return s.found(NativeScript, 2)
			}
		case '!':
			if s.peek(1) == '{' {
				return s.found(NativeDeclaration, 2)
			}
		case '@':
			if s.peek(1) == '{' {
				return s.found(NativeDirective, 2)
			}
		}
		s.pos++
	}
	return s.found(EOF, 0)
}

// splitHTML emits the pending HTML text as a token of at most maxChunk bytes and keeps scanning
// HTML from where it ended. A chunk always holds at least one whole rune.
func (s *Scanner) splitHTML() (Token, bool, error) {
	cut := s.start + s.maxChunk
	for cut > s.start && !utf8.RuneStart(s.buf[cut]) {
		cut--
	}
	if cut == s.start {
		cut = s.start + s.maxChunk
		for cut < len(s.buf) && !utf8.RuneStart(s.buf[cut]) {
			cut++
		}
	}
	tok := s.token(HTML, s.start, cut)
	s.pos, s.start = cut, cut
	return tok, true, nil
}

// skipComment removes the comment starting at s.pos up to and including the end marker from the
// working buffer.
func (s *Scanner) skipComment(end string) error {
	i := strings.Index(s.buf[s.pos+4:], end)
	if i < 0 {
		_, _, err := s.fail(ErrUnclosedComment, s.pos)
		return err
	}
	to := s.pos + 4 + i + len(end)
	total := to - s.pos
	if n := len(s.shifts); n > 0 {
		total += s.shifts[n-1].total
	}
	s.shifts = append(s.shifts, shift{at: s.pos, total: total})
	s.buf = s.buf[:s.pos] + s.buf[to:]
	return nil
}

// origin maps an offset of the working buffer to the stripped template.
func (s *Scanner) origin(off int) int {
	i := sort.Search(len(s.shifts), func(i int) bool { return s.shifts[i].at > off })
	if i == 0 {
		return off
	}
	return off + s.shifts[i-1].total
}

// tagAhead reports whether s.pos, which holds '<', starts a custom tag: "<ns:name" or
// "</ns:name" where ns is a letter followed by word characters and the name is followed by
// white space, '>' or '/'. It returns the namespace and whether the tag is an end tag.
func (s *Scanner) tagAhead() (ns string, end, ok bool) {
	if len(s.buf)-s.pos < 4 {
		return "", false, false
	}
	from := s.pos + 1
	if s.buf[from] == '/' {
		from++
		end = true
	}
	i := from
	if i >= len(s.buf) || !isLetter(s.buf[i]) {
		return "", false, false
	}
	for i++; i < len(s.buf) && isWord(s.buf[i]); i++ {
	}
	if i >= len(s.buf) || s.buf[i] != ':' {
		return "", false, false
	}
	ns = s.buf[from:i]

	// The name must be followed by a tag delimiter. Markup such as "<a:b=c>" or a comparison
	// written as "x <y:z" stays literal HTML instead of opening a tag that never closes.
	i++
	if i >= len(s.buf) || !(isLetter(s.buf[i]) || s.buf[i] == '_') {
		return "", false, false
	}
	for i++; i < len(s.buf) && isNameByte(s.buf[i]); i++ {
	}
	if i >= len(s.buf) {
		return "", false, false
	}
	switch s.buf[i] {
	case '>', ' ', '\t', '\n', '\f':
		return ns, end, true
	case '/':
		return ns, end, !end
	}
	return "", false, false
}

func (s *Scanner) lexTag() (Token, bool, error) {
	for s.pos < len(s.buf) {
		c := s.buf[s.pos]
		switch {
		case c == '$' && s.peek(1) == '{':
			return s.found(TagExpr, 2)
		case s.quote != 0:
			if c == '\\' {
				s.pos++
			} else if c == s.quote {
				s.quote = 0
			}
		case (c == '\'' || c == '"') && s.afterEquals():
			s.quote = c
		case c == '>':
			return s.found(HTML, 1)
		case c == '/' && s.peek(1) == '>':
			return s.found(TagEmptyEnd, 1)
		}
		s.pos++
	}
	return s.fail(ErrUnclosedRegion, s.open)
}

// afterEquals reports whether the byte at s.pos follows '=' in the current tag, ignoring white
// space. Quotes anywhere else, as in title=it's, are plain attribute text.
func (s *Scanner) afterEquals() bool {
	for i := s.pos - 1; i > s.open; i-- {
		switch s.buf[i] {
		case ' ', '\t', '\n', '\f':
			continue
		case '=':
			return true
		}
		return false
	}
	return false
}

// lexExpr hands a ${ } expression over to ParseExpr. Expressions inside a tag return to the tag.
func (s *Scanner) lexExpr() (Token, bool, error) {
	at, next := s.open, HTML
	if s.state == TagExpr {
		at, next = s.eopen, TagStart
	}
	span, err := ParseExpr(s.buf, s.pos, '}', 0, true)
	if err != nil {
		return s.fail(err, at)
	}
	s.pos = span.End
	tok, ok, err := s.found(next, 1)
	tok.Interpolated = span.Interpolated
	return tok, ok, err
}

// lexNative scans a %{ }%, @{ } or !{ }! block. The first closing delimiter outside a string
// literal ends the block, so a control statement may open in one block and close in a later one.
func (s *Scanner) lexNative() (Token, bool, error) {
	for s.pos < len(s.buf) {
		c := s.buf[s.pos]
		if s.quote != 0 {
			if c == '\\' {
				s.pos++
			} else if c == s.quote {
				s.quote = 0
			}
			s.pos++
			continue
		}
		switch c {
		case '\'', '"':
			s.quote = c
		case '}':
			switch n := s.peek(1); s.state {
			case NativeDirective:
				return s.found(HTML, 1)
			case NativeScript:
				if n == '%' {
					return s.found(HTML, 2)
				}
			case NativeDeclaration:
				if n == '!' || n == '%' {
					return s.found(HTML, 2)
				}
			}
		}
		s.pos++
	}
	return s.fail(ErrUnclosedRegion, s.open)
}

func isLetter(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }

func isWord(c byte) bool { return isLetter(c) || '0' <= c && c <= '9' || c == '_' }

func isNameByte(c byte) bool { return isWord(c) || c == '-' || c == '.' }

// Scan returns all tokens of src, without the final EOF token.
func Scan(page, src string, opts *Options) ([]Token, error) {
	s := NewScanner(page, src, opts)
	var toks []Token
	for tok, err := range s.All() {
		if err != nil {
			return toks, err
		}
		if tok.Kind != EOF {
			toks = append(toks, tok)
		}
	}
	return toks, nil
}

// ScanFile reads the template name from fsys and scans it. The file name is used as the page name.
func ScanFile(fsys fs.FS, name string, opts *Options) ([]Token, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", name, err)
	}
	return Scan(name, string(b), opts)
}
