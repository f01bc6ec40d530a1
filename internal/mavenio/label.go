package mavenio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/isotrace-data/nacorrect/internal/isotope"
)

// ParseLabel converts a MAVEN label cell into a labeled-atom count for the
// given tracer element. Accepted forms are the unlabeled parent ("C12
// PARENT") and "C13-label-k" for k labeled atoms. The label's element must
// match the run's tracer.
func ParseLabel(label, tracer string) (int, error) {
	label = strings.TrimSpace(label)

	if rest, ok := strings.CutSuffix(label, " PARENT"); ok {
		if err := matchIsotopeToken(rest, tracer); err != nil {
			return 0, fmt.Errorf("label %q: %w", label, err)
		}
		return 0, nil
	}

	parts := strings.Split(label, "-label-")
	if len(parts) != 2 {
		return 0, fmt.Errorf("unrecognized label %q", label)
	}
	if err := matchIsotopeToken(parts[0], tracer); err != nil {
		return 0, fmt.Errorf("label %q: %w", label, err)
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("bad label count in %q", label)
	}
	return n, nil
}

// matchIsotopeToken checks that an isotope token such as "C13" names exactly
// the tracer element followed by a mass number. A symbol prefix match is not
// enough: with a carbon tracer, "Cl37" is chlorine, not a heavy carbon.
func matchIsotopeToken(token, tracer string) error {
	i := 0
	for i < len(token) && !isDigit(token[i]) {
		i++
	}
	symbol, mass := token[:i], token[i:]
	if symbol != tracer {
		return fmt.Errorf("isotope element %q does not match tracer %q", symbol, tracer)
	}
	if mass == "" {
		return fmt.Errorf("isotope token %q has no mass number", token)
	}
	for j := 0; j < len(mass); j++ {
		if !isDigit(mass[j]) {
			return fmt.Errorf("bad mass number in isotope token %q", token)
		}
	}
	return nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// FormatLabel renders a labeled-atom count as a MAVEN label cell, the inverse
// of ParseLabel. Zero renders as the unlabeled parent with the monoisotopic
// mass number; positive counts use the tracer isotope one mass unit up.
func FormatLabel(tracer string, n int) (string, error) {
	base, err := isotope.MonoisotopicMass(tracer)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return fmt.Sprintf("%s%d PARENT", tracer, base), nil
	}
	return fmt.Sprintf("%s%d-label-%d", tracer, base+1, n), nil
}
