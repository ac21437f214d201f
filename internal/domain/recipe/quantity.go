package recipe

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxQuantity is the largest quantity the lexer will produce. Larger literals
// are capped so that aggregation cannot overflow.
const MaxQuantity = 1_000_000

// fractionSlash is U+2044, the separator NFKC produces for vulgar fractions
const fractionSlash = "⁄"

var plainNumber = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)$`)

// Quantity is a decimal amount read from recipe text
type Quantity struct {
	Value   float64
	Literal string // text the value was read from
	Capped  bool   // literal exceeded MaxQuantity
}

// ParseQuantity converts a single numeric token into a decimal. It accepts
// decimals ("1.5", ".5"), simple fractions ("1/2"), hyphenated mixed numbers
// ("1-1/2") and unicode vulgar fractions with an optional leading integer
// ("½", "2½"). Tokens that are not quantities return ErrNotQuantity; a zero
// denominator returns ErrDivisionByZero.
func ParseQuantity(token string) (Quantity, error) {
	v, err := parseToken(token)
	if err != nil {
		return Quantity{}, err
	}
	return capQuantity(v, token), nil
}

// ScanQuantity reads the longest leading quantity from text and returns the
// remaining text. Mixed numbers written as two tokens ("1 1/2", "2 ½") are
// combined, and a number glued to a unit ("500g") is split from it.
func ScanQuantity(text string) (Quantity, string, error) {
	text = strings.TrimSpace(text)
	first, rest := splitToken(text)

	v, err := parseToken(first)
	if errors.Is(err, ErrNotQuantity) {
		prefix, suffix := splitNumericPrefix(first)
		if prefix == "" {
			return Quantity{}, text, ErrNotQuantity
		}
		v, err = parseToken(prefix)
		if err != nil {
			return Quantity{}, text, err
		}
		return capQuantity(v, prefix), strings.TrimSpace(suffix + " " + rest), nil
	}
	if err != nil {
		return Quantity{}, text, err
	}

	literal := first
	if isInteger(first) {
		second, after := splitToken(rest)
		if isFraction(second) {
			f, ferr := parseToken(second)
			if ferr != nil {
				return Quantity{}, text, ferr
			}
			v += f
			literal = first + " " + second
			rest = after
		}
	}

	return capQuantity(v, literal), rest, nil
}

func capQuantity(v float64, literal string) Quantity {
	if v > MaxQuantity || math.IsInf(v, 1) {
		return Quantity{Value: MaxQuantity, Literal: literal, Capped: true}
	}
	return Quantity{Value: v, Literal: literal}
}

func parseToken(token string) (float64, error) {
	token = normalizeSlashes(strings.TrimSpace(token))
	if token == "" {
		return 0, ErrNotQuantity
	}

	// Unicode vulgar fraction, optionally after an integer: "½", "2½"
	last, size := utf8.DecodeLastRuneInString(token)
	if num, den, ok := vulgarFraction(last); ok {
		whole := 0.0
		if prefix := token[:len(token)-size]; prefix != "" {
			if !isInteger(prefix) {
				return 0, ErrNotQuantity
			}
			whole, _ = strconv.ParseFloat(prefix, 64)
		}
		return whole + num/den, nil
	}

	// Hyphenated mixed number: "1-1/2"
	if i := strings.Index(token, "-"); i > 0 {
		whole, frac := token[:i], token[i+1:]
		if !isInteger(whole) || !strings.Contains(frac, "/") {
			return 0, ErrNotQuantity
		}
		w, _ := strconv.ParseFloat(whole, 64)
		f, err := parseFraction(frac, token)
		if err != nil {
			return 0, err
		}
		return w + f, nil
	}

	if strings.Contains(token, "/") {
		return parseFraction(token, token)
	}

	return parseDecimal(token)
}

func parseFraction(s, token string) (float64, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0, ErrNotQuantity
	}
	num, err := parseDecimal(parts[0])
	if err != nil {
		return 0, err
	}
	den, err := parseDecimal(parts[1])
	if err != nil {
		return 0, err
	}
	if den == 0 {
		return 0, fmt.Errorf("invalid fraction %q: %w", token, ErrDivisionByZero)
	}
	return num / den, nil
}

func parseDecimal(s string) (float64, error) {
	if !plainNumber.MatchString(s) {
		return 0, ErrNotQuantity
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// only range errors are possible here; the value is +Inf and gets capped
		return math.Inf(1), nil
	}
	return v, nil
}

// vulgarFraction decodes single-codepoint fractions such as ½ or ⅞ through
// their NFKC compatibility decomposition ("1⁄2").
func vulgarFraction(r rune) (num, den float64, ok bool) {
	if !unicode.Is(unicode.No, r) {
		return 0, 0, false
	}
	parts := strings.Split(norm.NFKC.String(string(r)), fractionSlash)
	if len(parts) != 2 {
		return 0, 0, false
	}
	n, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, false
	}
	d, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || d == 0 {
		return 0, 0, false
	}
	return n, d, true
}

func normalizeSlashes(s string) string {
	return strings.NewReplacer(fractionSlash, "/", "∕", "/").Replace(s)
}

func isInteger(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isFraction reports whether a token is a bare fraction that can complete a
// mixed number ("1/2", "½"). Zero denominators still count so that the
// caller reports them.
func isFraction(token string) bool {
	token = normalizeSlashes(token)
	if utf8.RuneCountInString(token) == 1 {
		r, _ := utf8.DecodeRuneInString(token)
		_, _, ok := vulgarFraction(r)
		return ok
	}
	parts := strings.Split(token, "/")
	return len(parts) == 2 && plainNumber.MatchString(parts[0]) && plainNumber.MatchString(parts[1])
}

func splitToken(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// splitNumericPrefix separates "500g" into "500" and "g". The suffix must
// start with a letter, otherwise no split happens.
func splitNumericPrefix(token string) (string, string) {
	end := 0
	for i, r := range token {
		if unicode.IsDigit(r) || r == '.' || r == '/' || r == '-' || r == '⁄' || r == '∕' {
			end = i + utf8.RuneLen(r)
			continue
		}
		if _, _, ok := vulgarFraction(r); ok {
			end = i + utf8.RuneLen(r)
			continue
		}
		break
	}
	if end == 0 || end == len(token) {
		return "", ""
	}
	next, _ := utf8.DecodeRuneInString(token[end:])
	if !unicode.IsLetter(next) {
		return "", ""
	}
	return token[:end], token[end:]
}
