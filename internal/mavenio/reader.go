// Package mavenio reads and writes MAVEN-style long-format CSV files: one row
// per (metabolite, isotopologue, sample) with columns Name, Formula, Label,
// Sample, Intensity.
package mavenio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/isotrace-data/nacorrect/internal/formula"
	"github.com/isotrace-data/nacorrect/internal/workflow"
)

var inputHeader = []string{"Name", "Formula", "Label", "Sample", "Intensity"}

// ReadGroups parses a long-format intensity file into workflow groups, one
// per (metabolite, sample). Each group's vector is dense over label counts
// 0..N where N is the tracer's atom count in the formula; labels absent from
// the file are zero-filled. Duplicate labels and negative intensities are
// input errors.
func ReadGroups(r io.Reader, tracer string) ([]workflow.Group, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	type groupKey struct{ name, sample string }
	type groupAccum struct {
		formula string
		seen    map[int]bool
		values  map[int]float64
	}
	var order []groupKey
	accum := make(map[groupKey]*groupAccum)

	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		name, formulaStr, labelStr, sample := record[0], record[1], record[2], record[3]
		label, err := ParseLabel(labelStr, tracer)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		intensity, err := strconv.ParseFloat(strings.TrimSpace(record[4]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad intensity %q", line, record[4])
		}
		if intensity < 0 {
			return nil, fmt.Errorf("line %d: negative intensity %g for %s/%s", line, intensity, name, sample)
		}

		key := groupKey{name, sample}
		g, ok := accum[key]
		if !ok {
			g = &groupAccum{
				formula: formulaStr,
				seen:    make(map[int]bool),
				values:  make(map[int]float64),
			}
			accum[key] = g
			order = append(order, key)
		}
		if g.formula != formulaStr {
			return nil, fmt.Errorf("line %d: metabolite %q has conflicting formulas %q and %q",
				line, name, g.formula, formulaStr)
		}
		if g.seen[label] {
			return nil, fmt.Errorf("line %d: duplicate label %q for %s/%s", line, labelStr, name, sample)
		}
		g.seen[label] = true
		g.values[label] = intensity
	}

	groups := make([]workflow.Group, 0, len(order))
	for _, key := range order {
		g := accum[key]
		f, err := formula.Parse(g.formula)
		if err != nil {
			return nil, fmt.Errorf("metabolite %q: %w", key.name, err)
		}
		size := f.Count(tracer) + 1
		observed := make([]float64, size)
		for label, v := range g.values {
			if label >= size {
				return nil, fmt.Errorf("metabolite %q: label %d exceeds %d %s atoms",
					key.name, label, f.Count(tracer), tracer)
			}
			observed[label] = v
		}
		groups = append(groups, workflow.Group{
			Metabolite: key.name,
			Formula:    g.formula,
			Tracer:     tracer,
			Sample:     key.sample,
			Observed:   observed,
		})
	}
	return groups, nil
}

func checkHeader(header []string) error {
	if len(header) != len(inputHeader) {
		return fmt.Errorf("header has %d columns, want %d (%s)",
			len(header), len(inputHeader), strings.Join(inputHeader, ","))
	}
	for i, want := range inputHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return fmt.Errorf("header column %d is %q, want %q", i+1, header[i], want)
		}
	}
	return nil
}
