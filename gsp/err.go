package gsp

import (
	"errors"
	"fmt"
)

var (
	ErrUnclosedExpression  = errors.New("unclosed expression")
	ErrNestedInterpolation = errors.New("invalid expression: nested ${")
	ErrUnclosedComment     = errors.New("unclosed comment")
	ErrUnclosedRegion      = errors.New("unclosed region")
)

// SyntaxError reports malformed template syntax. It is the only error the scanner returns.
type SyntaxError struct {
	Page string // page name given to NewScanner
	Span Span   // location of the opening delimiter of the broken region, in the original template
	Kind Kind   // state the scanner was in
	err  error
}

func newSyntaxError(page string, span Span, kind Kind, err error) *SyntaxError {
	return &SyntaxError{Page: page, Span: span, Kind: kind, err: err}
}

func (e *SyntaxError) Error() string {
	page := e.Page
	if page == "" {
		page = "<template>"
	}
	return fmt.Sprintf("%s:%d:%d: %s", page, e.Span.Line, e.Span.Column, e.Message())
}

// Message returns the error text without the location prefix.
func (e *SyntaxError) Message() string {
	if errors.Is(e.err, ErrUnclosedRegion) {
		return "unclosed " + e.Kind.String()
	}
	return e.err.Error()
}

func (e *SyntaxError) Unwrap() error {
	return e.err
}

// Line returns the best-known line of the error.
func (e *SyntaxError) Line() int { return e.Span.Line }
