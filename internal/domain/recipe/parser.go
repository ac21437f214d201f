package recipe

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxNameLength is the longest ingredient, sub-recipe or title name kept
// after parsing, in characters. Longer names are truncated with a warning.
const MaxNameLength = 255

// Parse reads a line-oriented recipe: the first non-blank line is the title
// and every following non-blank line is one ingredient written as
// "<quantity> <unit> <name>", optionally followed by a parenthetical,
// comma-separated ingredient list that defines a sub-recipe:
//
//	Pasta Dinner
//	1 cup sauce (1/2 cup tomatoes, 1/4 cup onions)
//	2 cups pasta
//
// Parse never fails outright. Hard errors are reported in ParsedRecipe.Errors
// and stop parsing at the offending line; the ingredients read before it are
// kept.
func Parse(text string) ParsedRecipe {
	p := &parser{subRecipes: make(map[string]bool)}
	p.run(text)
	return p.finish()
}

type parser struct {
	result     ParsedRecipe
	subRecipes map[string]bool
}

func (p *parser) run(text string) {
	text = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(text)

	titleSeen := false
	ingredientLines := 0
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lineNo := i + 1

		if !titleSeen {
			p.result.Title = p.truncate(lineNo, "title", line)
			titleSeen = true
			continue
		}

		ingredientLines++
		if err := p.parseLine(lineNo, line); err != nil {
			p.fail(err)
			return
		}
	}

	switch {
	case !titleSeen:
		p.fail(newParseError(0, text, ErrEmptyRecipe, ""))
	case ingredientLines == 0:
		p.fail(newParseError(0, text, ErrNoIngredients, ""))
	}
}

func (p *parser) parseLine(lineNo int, line string) *ParseError {
	open, closing, err := findGroup(line)
	if err != nil {
		return newParseError(lineNo, line, err, "")
	}

	if open < 0 {
		ingredient, perr := p.parseIngredient(lineNo, line)
		if perr != nil {
			return perr
		}
		p.result.Ingredients = append(p.result.Ingredients, ingredient)
		return nil
	}

	items := splitItems(line[open+1 : closing])
	if len(items) == 0 {
		return newParseError(lineNo, line, ErrEmptyParentheses, "")
	}

	parent, perr := p.parseIngredient(lineNo, line[:open]+" "+line[closing+1:])
	if perr != nil {
		return perr
	}

	sub := SubRecipe{
		Name:        parent.IngredientName,
		RawText:     line,
		Quantity:    parent.Quantity,
		Unit:        parent.Unit,
		Ingredients: make([]ParsedIngredient, 0, len(items)),
	}
	for _, item := range items {
		ingredient, perr := p.parseIngredient(lineNo, item)
		if perr != nil {
			return perr
		}
		sub.Ingredients = append(sub.Ingredients, ingredient)
	}

	if p.subRecipes[sub.Key()] {
		p.warn(lineNo, "duplicate sub-recipe name %q", sub.Name)
	}
	p.subRecipes[sub.Key()] = true
	p.result.SubRecipes = append(p.result.SubRecipes, sub)

	return nil
}

func (p *parser) parseIngredient(lineNo int, text string) (ParsedIngredient, *ParseError) {
	text = strings.Join(strings.Fields(text), " ")

	q, rest, err := ScanQuantity(text)
	switch {
	case errors.Is(err, ErrNotQuantity):
		q = Quantity{Value: 1}
		rest = text
		p.warn(lineNo, "no quantity given for %q, assuming 1", text)
	case err != nil:
		return ParsedIngredient{}, newParseError(lineNo, text, err, "")
	}
	if q.Capped {
		p.warn(lineNo, "quantity %s exceeds the maximum of %d and was capped", q.Literal, MaxQuantity)
	}

	unit, name := scanUnit(rest)
	if name == "" {
		return ParsedIngredient{}, newParseError(lineNo, text, ErrMissingName, fmt.Sprintf("%q", text))
	}

	return ParsedIngredient{
		RawText:        text,
		Quantity:       q.Value,
		Unit:           unit,
		IngredientName: p.truncate(lineNo, "ingredient name", name),
	}, nil
}

func (p *parser) truncate(lineNo int, what, name string) string {
	if utf8.RuneCountInString(name) <= MaxNameLength {
		return name
	}
	p.warn(lineNo, "%s truncated to %d characters", what, MaxNameLength)
	return strings.TrimSpace(string([]rune(name)[:MaxNameLength]))
}

func (p *parser) warn(lineNo int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.result.Warnings = append(p.result.Warnings, fmt.Sprintf("line %d: %s", lineNo, msg))
}

func (p *parser) fail(err *ParseError) {
	p.result.parseErrors = append(p.result.parseErrors, err)
	p.result.Errors = append(p.result.Errors, err.Error())
}

func (p *parser) finish() ParsedRecipe {
	r := p.result
	if r.Ingredients == nil {
		r.Ingredients = []ParsedIngredient{}
	}
	if r.SubRecipes == nil {
		r.SubRecipes = []SubRecipe{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
	if r.Errors == nil {
		r.Errors = []string{}
	}
	return r
}

// findGroup validates the parentheses of a line and returns the byte offsets
// of its single parenthetical group, or -1 when there is none.
func findGroup(line string) (open, closing int, err error) {
	open, closing = -1, -1
	depth, groups := 0, 0
	nested := false

	for i, r := range line {
		switch r {
		case '(':
			if depth > 0 {
				nested = true
			}
			depth++
			if depth == 1 {
				groups++
				if groups == 1 {
					open = i
				}
			}
		case ')':
			depth--
			if depth < 0 {
				return -1, -1, ErrUnbalancedParentheses
			}
			if depth == 0 && groups == 1 && closing < 0 {
				closing = i
			}
		}
	}

	switch {
	case depth != 0:
		return -1, -1, ErrUnbalancedParentheses
	case nested:
		return -1, -1, ErrNestedParentheses
	case groups > 1:
		return -1, -1, ErrMultipleSubRecipes
	}
	return open, closing, nil
}

func splitItems(inner string) []string {
	var items []string
	for _, item := range strings.Split(inner, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// scanUnit reads an optional unit (one or two words, "fl oz") from the front
// of text and returns it with the remaining name. A filler "of" after the unit
// is dropped.
func scanUnit(text string) (MeasurementUnit, string) {
	first, rest := splitToken(text)
	if second, after := splitToken(rest); second != "" {
		if u, ok := ParseUnit(first + " " + second); ok {
			return u, dropFiller(after)
		}
	}
	if u, ok := ParseUnit(first); ok {
		return u, dropFiller(rest)
	}
	return MeasurementUnitNone, text
}

func dropFiller(name string) string {
	if strings.HasPrefix(strings.ToLower(name), "of ") {
		return strings.TrimSpace(name[3:])
	}
	return name
}
