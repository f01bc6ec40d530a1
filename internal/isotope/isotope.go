// Package isotope holds natural-abundance reference data for the stable
// isotopes of elements that occur in metabolite formulas.
//
// Abundance values are taken from the CRC Handbook of Chemistry and Physics
// (83rd ed., Lide 2002). The table is loaded once at process start and never
// mutated.
package isotope

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownElement is returned when a symbol has no entry in the table.
var ErrUnknownElement = errors.New("unknown element")

// Peak is one stable isotope of an element. Shift is the integer mass offset
// relative to the monoisotopic peak (shift 0).
type Peak struct {
	MassNumber int
	Shift      int
	Abundance  float64
}

// table maps element symbols to their stable isotopes, ordered by shift.
// Abundances for one element sum to 1.0 within floating tolerance.
var table = map[string][]Peak{
	"H":  {{1, 0, 0.999885}, {2, 1, 0.000115}},
	"C":  {{12, 0, 0.9893}, {13, 1, 0.0107}},
	"N":  {{14, 0, 0.99632}, {15, 1, 0.00368}},
	"O":  {{16, 0, 0.99757}, {17, 1, 0.00038}, {18, 2, 0.00205}},
	"P":  {{31, 0, 1.0}},
	"S":  {{32, 0, 0.9493}, {33, 1, 0.0076}, {34, 2, 0.0429}, {36, 4, 0.0002}},
	"Si": {{28, 0, 0.92223}, {29, 1, 0.04685}, {30, 2, 0.03092}},
	"Cl": {{35, 0, 0.7578}, {37, 2, 0.2422}},
	"Na": {{23, 0, 1.0}},
	"K":  {{39, 0, 0.932581}, {40, 1, 0.000117}, {41, 2, 0.067302}},
}

// Lookup returns the ordered isotope peaks for an element symbol.
func Lookup(symbol string) ([]Peak, error) {
	peaks, ok := table[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownElement, symbol)
	}
	return peaks, nil
}

// Distribution returns the element's abundance distribution as a dense slice
// indexed by mass shift. Shifts with no stable isotope hold zero (sulfur has
// no shift-3 isotope, for example).
func Distribution(symbol string) ([]float64, error) {
	peaks, err := Lookup(symbol)
	if err != nil {
		return nil, err
	}
	maxShift := peaks[len(peaks)-1].Shift
	dist := make([]float64, maxShift+1)
	for _, p := range peaks {
		dist[p.Shift] = p.Abundance
	}
	return dist, nil
}

// MonoisotopicMass returns the mass number of the element's shift-0 isotope.
// Used when formatting isotopologue labels such as "C12 PARENT".
func MonoisotopicMass(symbol string) (int, error) {
	peaks, err := Lookup(symbol)
	if err != nil {
		return 0, err
	}
	return peaks[0].MassNumber, nil
}

// Elements returns the sorted list of supported element symbols.
func Elements() []string {
	symbols := make([]string, 0, len(table))
	for s := range table {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
