package dice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Expression is a parsed power formula.
type Expression struct {
	Raw   string
	Count int
	Sides int
	// Modifier is a flat bonus; an expression with Count 0 is a constant.
	Modifier int
	// KeepHighest keeps only the N highest dice when > 0.
	KeepHighest int
}

// Bounds on a single expression. Larger pools are content errors, not rolls.
const (
	MaxCount = 100
	MaxSides = 1000
)

var (
	diceRe     = regexp.MustCompile(`^(\d*)d(\d+)(?:kh(\d+))?([+-]\d+)?$`)
	constantRe = regexp.MustCompile(`^[+-]?\d+$`)
)

// Parse parses "d20", "2d6", "2d6+3", "4d8-2", "4d6kh3" or a bare constant such as "12".
//
// Postcondition: Returns an Expression with Count == 0, or with 1 <= Count <= MaxCount and
// 2 <= Sides <= MaxSides; otherwise a descriptive error.
func Parse(expr string) (Expression, error) {
	s := strings.ToLower(strings.ReplaceAll(expr, " ", ""))
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}

	if constantRe.MatchString(s) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid constant %q: %w", expr, err)
		}
		return Expression{Raw: expr, Modifier: n}, nil
	}

	m := diceRe.FindStringSubmatch(s)
	if m == nil {
		return Expression{}, fmt.Errorf("dice: malformed expression %q", expr)
	}

	e := Expression{Raw: expr, Count: 1}
	fields := []struct {
		name string
		text string
		dst  *int
	}{
		{"die count", m[1], &e.Count},
		{"die sides", m[2], &e.Sides},
		{"kh value", m[3], &e.KeepHighest},
		{"modifier", m[4], &e.Modifier},
	}
	for _, f := range fields {
		if f.text == "" {
			continue
		}
		n, err := strconv.Atoi(f.text)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid %s in %q: %w", f.name, expr, err)
		}
		*f.dst = n
	}

	switch {
	case e.Count < 1 || e.Count > MaxCount:
		return Expression{}, fmt.Errorf("dice: die count in %q must be between 1 and %d", expr, MaxCount)
	case e.Sides < 2 || e.Sides > MaxSides:
		return Expression{}, fmt.Errorf("dice: die sides in %q must be between 2 and %d", expr, MaxSides)
	case m[3] != "" && (e.KeepHighest < 1 || e.KeepHighest >= e.Count):
		return Expression{}, fmt.Errorf("dice: kh value %d must be > 0 and < count %d in %q", e.KeepHighest, e.Count, expr)
	}
	return e, nil
}

// MustParse parses expr and panics on error.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic(err.Error())
	}
	return e
}

// Min returns the smallest total the expression can produce.
func (e Expression) Min() int {
	kept := e.Count
	if e.KeepHighest > 0 {
		kept = e.KeepHighest
	}
	return kept + e.Modifier
}

// Max returns the largest total the expression can produce.
func (e Expression) Max() int {
	kept := e.Count
	if e.KeepHighest > 0 {
		kept = e.KeepHighest
	}
	return kept*e.Sides + e.Modifier
}
