package recipe

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for recipe parsing

var (
	// Hard parse errors
	ErrEmptyRecipe           = errors.New("recipe text is empty")
	ErrNoIngredients         = errors.New("recipe must have at least one ingredient")
	ErrUnbalancedParentheses = errors.New("unbalanced parentheses")
	ErrEmptyParentheses      = errors.New("empty parentheses")
	ErrNestedParentheses     = errors.New("nested parentheses are not supported")
	ErrMultipleSubRecipes    = errors.New("only one parenthetical sub-recipe per line is supported")
	ErrMissingName           = errors.New("missing ingredient name")
	ErrDivisionByZero        = errors.New("division by zero")

	// ErrNotQuantity signals that a token is not a quantity. It is not a parse failure.
	ErrNotQuantity = errors.New("not a quantity")
)

// ParseError describes why a recipe could not be parsed
type ParseError struct {
	Line    int // 1-based line number, 0 when the error concerns the whole text
	Text    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Unwrap returns the sentinel describing the condition
func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(line int, text string, err error, detail string) *ParseError {
	msg := err.Error()
	if detail != "" {
		msg = fmt.Sprintf("%s: %s", detail, msg)
	}
	return &ParseError{Line: line, Text: text, Message: msg, Err: err}
}

// ParseErrors collects every hard error reported for one recipe
type ParseErrors []*ParseError

// Error implements the error interface
func (p ParseErrors) Error() string {
	if len(p) == 0 {
		return "parse failed"
	}
	msgs := make([]string, len(p))
	for i, e := range p {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual errors to errors.Is and errors.As
func (p ParseErrors) Unwrap() []error {
	errs := make([]error, len(p))
	for i, e := range p {
		errs[i] = e
	}
	return errs
}
