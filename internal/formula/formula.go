// Package formula parses chemical formula strings into element counts.
package formula

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidFormula is returned for malformed formula strings: empty input,
// unbalanced groups, zero counts, or syntax that is not a formula.
var ErrInvalidFormula = errors.New("invalid formula")

// Formula maps element symbols to atom counts. Treat as read-only after Parse.
type Formula map[string]int

// Parse converts a chemical formula string such as "C6H12O6" or "Ca(OH)2"
// into a Formula. Element symbols are an uppercase letter with an optional
// lowercase letter; counts default to 1. Symbols are not checked against the
// isotope table here; unknown elements surface when the correction matrix is
// built.
func Parse(s string) (Formula, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidFormula)
	}
	p := &parser{input: s}
	f, err := p.parseSequence(false)
	if err != nil {
		return nil, err
	}
	if p.pos != len(s) {
		return nil, fmt.Errorf("%w: unexpected %q at position %d", ErrInvalidFormula, s[p.pos], p.pos)
	}
	if len(f) == 0 {
		return nil, fmt.Errorf("%w: no elements in %q", ErrInvalidFormula, s)
	}
	return f, nil
}

// Count returns the atom count for an element, zero when absent.
func (f Formula) Count(symbol string) int {
	return f[symbol]
}

// Canonical renders the formula in a deterministic order (Hill convention:
// carbon, then hydrogen, then remaining elements alphabetically). Used as a
// stable cache key component.
func (f Formula) Canonical() string {
	symbols := make([]string, 0, len(f))
	for s := range f {
		symbols = append(symbols, s)
	}
	sort.Slice(symbols, func(i, j int) bool {
		return hillRank(symbols[i]) < hillRank(symbols[j])
	})

	var b strings.Builder
	for _, s := range symbols {
		b.WriteString(s)
		if n := f[s]; n > 1 {
			b.WriteString(strconv.Itoa(n))
		}
	}
	return b.String()
}

func hillRank(symbol string) string {
	switch symbol {
	case "C":
		return "0"
	case "H":
		return "1"
	}
	return "2" + symbol
}

type parser struct {
	input string
	pos   int
}

// parseSequence consumes element/group terms until end of input or, inside a
// group, a closing parenthesis.
func (p *parser) parseSequence(inGroup bool) (Formula, error) {
	f := Formula{}
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch {
		case c == ')':
			if !inGroup {
				return nil, fmt.Errorf("%w: unbalanced %q at position %d", ErrInvalidFormula, c, p.pos)
			}
			return f, nil
		case c == '(':
			p.pos++
			inner, err := p.parseSequence(true)
			if err != nil {
				return nil, err
			}
			if p.pos >= len(p.input) || p.input[p.pos] != ')' {
				return nil, fmt.Errorf("%w: unbalanced group in %q", ErrInvalidFormula, p.input)
			}
			p.pos++
			n, err := p.parseCount()
			if err != nil {
				return nil, err
			}
			for sym, count := range inner {
				f[sym] += count * n
			}
		case c >= 'A' && c <= 'Z':
			sym := p.parseSymbol()
			n, err := p.parseCount()
			if err != nil {
				return nil, err
			}
			f[sym] += n
		default:
			return nil, fmt.Errorf("%w: unexpected %q at position %d", ErrInvalidFormula, c, p.pos)
		}
	}
	if inGroup {
		return nil, fmt.Errorf("%w: unbalanced group in %q", ErrInvalidFormula, p.input)
	}
	return f, nil
}

func (p *parser) parseSymbol() string {
	start := p.pos
	p.pos++ // uppercase letter already checked by the caller
	if p.pos < len(p.input) && p.input[p.pos] >= 'a' && p.input[p.pos] <= 'z' {
		p.pos++
	}
	return p.input[start:p.pos]
}

// parseCount reads an optional integer count. Absent counts mean 1; explicit
// zero (or a leading zero) is rejected.
func (p *parser) parseCount() (int, error) {
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 1, nil
	}
	digits := p.input[start:p.pos]
	if digits[0] == '0' {
		return 0, fmt.Errorf("%w: count %q at position %d", ErrInvalidFormula, digits, start)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: count %q: %v", ErrInvalidFormula, digits, err)
	}
	return n, nil
}
