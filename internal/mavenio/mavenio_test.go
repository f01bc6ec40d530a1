package mavenio

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isotrace-data/nacorrect/internal/workflow"
)

const sampleCSV = `Name,Formula,Label,Sample,Intensity
pyruvate,C3H7O2,C12 PARENT,s1,100
pyruvate,C3H7O2,C13-label-1,s1,20
pyruvate,C3H7O2,C13-label-2,s1,5
pyruvate,C3H7O2,C13-label-3,s1,1
pyruvate,C3H7O2,C12 PARENT,s2,80
pyruvate,C3H7O2,C13-label-1,s2,40
glucose,C6H12O6,C12 PARENT,s1,500
glucose,C6H12O6,C13-label-6,s1,12
`

func TestReadGroups(t *testing.T) {
	t.Parallel()

	groups, err := ReadGroups(strings.NewReader(sampleCSV), "C")
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, "pyruvate", groups[0].Metabolite)
	assert.Equal(t, "s1", groups[0].Sample)
	assert.Equal(t, []float64{100, 20, 5, 1}, groups[0].Observed)

	// Missing labels zero-fill the dense vector.
	assert.Equal(t, "s2", groups[1].Sample)
	assert.Equal(t, []float64{80, 40, 0, 0}, groups[1].Observed)

	// Glucose has six carbons: seven states, sparse input.
	assert.Equal(t, "glucose", groups[2].Metabolite)
	assert.Equal(t, []float64{500, 0, 0, 0, 0, 0, 12}, groups[2].Observed)
}

func TestReadGroupsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		csv     string
		wantErr string
	}{
		{
			"wrong header",
			"Metabolite,Formula,Label,Sample,Intensity\n",
			"header column 1",
		},
		{
			"duplicate label",
			"Name,Formula,Label,Sample,Intensity\na,C2H4,C12 PARENT,s1,1\na,C2H4,C12 PARENT,s1,2\n",
			"duplicate label",
		},
		{
			"negative intensity",
			"Name,Formula,Label,Sample,Intensity\na,C2H4,C12 PARENT,s1,-5\n",
			"negative intensity",
		},
		{
			"tracer mismatch",
			"Name,Formula,Label,Sample,Intensity\na,C2H4N,N15-label-1,s1,5\n",
			"does not match tracer",
		},
		{
			"bad label",
			"Name,Formula,Label,Sample,Intensity\na,C2H4,labeled-thrice,s1,5\n",
			"unrecognized label",
		},
		{
			"label beyond formula",
			"Name,Formula,Label,Sample,Intensity\na,C2H4,C13-label-3,s1,5\n",
			"exceeds 2 C atoms",
		},
		{
			"conflicting formulas",
			"Name,Formula,Label,Sample,Intensity\na,C2H4,C12 PARENT,s1,1\na,C2H6,C13-label-1,s1,2\n",
			"conflicting formulas",
		},
		{
			"bad intensity",
			"Name,Formula,Label,Sample,Intensity\na,C2H4,C12 PARENT,s1,abc\n",
			"bad intensity",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ReadGroups(strings.NewReader(tc.csv), "C")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestParseLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label  string
		tracer string
		want   int
	}{
		{"C12 PARENT", "C", 0},
		{"C13-label-1", "C", 1},
		{"C13-label-12", "C", 12},
		{"N15-label-2", "N", 2},
		{"N14 PARENT", "N", 0},
	}
	for _, tc := range tests {
		got, err := ParseLabel(tc.label, tc.tracer)
		require.NoError(t, err, tc.label)
		assert.Equal(t, tc.want, got, tc.label)
	}

	for _, bad := range []string{"", "PARENT", "C13-label-0", "C13-label--1", "C13-label-x"} {
		_, err := ParseLabel(bad, "C")
		assert.Error(t, err, "label %q", bad)
	}
}

func TestParseLabelElementMustMatchTracer(t *testing.T) {
	t.Parallel()

	// Chlorine shares carbon's symbol prefix; its labels must not pass as
	// carbon labels, and a bare tracer letter is not an isotope token.
	for _, bad := range []string{"Cl37-label-1", "Cl35 PARENT", "C PARENT", "C-label-2", "N15-label-1"} {
		_, err := ParseLabel(bad, "C")
		assert.Error(t, err, "label %q", bad)
	}

	got, err := ParseLabel("Cl37-label-1", "Cl")
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestFormatLabelRoundTrip(t *testing.T) {
	t.Parallel()

	for n := 0; n <= 6; n++ {
		label, err := FormatLabel("C", n)
		require.NoError(t, err)
		got, err := ParseLabel(label, "C")
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}

	label, err := FormatLabel("N", 0)
	require.NoError(t, err)
	assert.Equal(t, "N14 PARENT", label)

	label, err = FormatLabel("N", 1)
	require.NoError(t, err)
	assert.Equal(t, "N15-label-1", label)

	_, err = FormatLabel("Xx", 1)
	assert.Error(t, err)
}

func TestWriteResults(t *testing.T) {
	t.Parallel()

	groups, err := ReadGroups(strings.NewReader(sampleCSV), "C")
	require.NoError(t, err)

	run := workflow.NewRunner(workflow.Config{Workers: 2}).Run(context.Background(), "C", groups)
	require.Zero(t, run.Failed())

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, run))

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// Header plus 4 + 4 + 7 data rows.
	assert.Len(t, lines, 1+4+4+7)
	assert.Equal(t, "Name,Formula,Label,Sample,NA Corrected,Pool Total,Fractional Enrichment", lines[0])
	assert.Contains(t, out, "pyruvate,C3H7O2,C12 PARENT,s1,")
	assert.Contains(t, out, "glucose,C6H12O6,C13-label-6,s1,")
}

func TestWriteResultsSkipsFailedGroups(t *testing.T) {
	t.Parallel()

	groups := []workflow.Group{
		{Metabolite: "bad", Formula: "Xx2", Tracer: "Xx", Sample: "s1", Observed: []float64{1, 2, 3}},
		{Metabolite: "ok", Formula: "C2H4", Tracer: "C", Sample: "s1", Observed: []float64{10, 1, 0}},
	}
	run := workflow.NewRunner(workflow.Config{Workers: 1}).Run(context.Background(), "C", groups)
	require.Equal(t, 1, run.Failed())

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, run))
	assert.NotContains(t, buf.String(), "bad")
	assert.Contains(t, buf.String(), "ok,C2H4,C12 PARENT,s1,")
}

func TestWriteIntensitiesRoundTrip(t *testing.T) {
	t.Parallel()

	groups := []workflow.Group{
		{Metabolite: "alanine", Formula: "C3H7NO2", Tracer: "C", Sample: "s1", Observed: []float64{50, 5, 1, 0}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteIntensities(&buf, groups))

	back, err := ReadGroups(&buf, "C")
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, groups[0].Observed, back[0].Observed)
	assert.Equal(t, groups[0].Metabolite, back[0].Metabolite)
}
