package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/netlist"
	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/simulate"
)

func mustParse(t *testing.T, src string) *netlist.Netlist {
	t.Helper()
	nl, err := netlist.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return nl
}

func TestAreaOverhead(t *testing.T) {
	assert.InDelta(t, 25.0, AreaOverhead(4, 5), 1e-9)
	assert.Equal(t, 0.0, AreaOverhead(0, 5))
}

func TestMeasureDetectionProbabilityMatchesANDStatistics(t *testing.T) {
	nl := mustParse(t, `
INPUT(a)
INPUT(b)
g = AND(a, b)
OUTPUT(g)
`)
	g := nl.Lookup("g")
	rng := simulate.NewRand(3)
	activations, prob := MeasureDetectionProbability(nl, g, 20000, rng)

	assert.InDelta(t, 0.25, prob, 0.02)
	assert.InDelta(t, prob, float64(activations)/20000, 1e-9)
}

func TestThresholdSweepMonotonic(t *testing.T) {
	nl := mustParse(t, `
INPUT(a)
INPUT(b)
g = AND(a, b)
OUTPUT(g)
`)
	rng := simulate.NewRand(9)
	rows := ThresholdSweep("tiny_and", nl, []float64{0.05, 0.5}, 2000, rng)
	require.Len(t, rows, 2)
	// A looser threshold (0.5) never finds fewer rare nodes than a
	// tighter one (0.05).
	assert.GreaterOrEqual(t, rows[1].RareNodes, rows[0].RareNodes)
}

func TestWriteTableMetricsCSV(t *testing.T) {
	rows := []TableMetrics{{
		Circuit: "c17", OriginalGates: 6, TrojanGates: 9,
		AreaOverheadPct: 50.0, TriggerSize: 2,
		DetectedCount: 1234, TotalVectors: 100000, DetectionProb: 0.01234,
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteTableMetricsCSV(&buf, rows))

	out := buf.String()
	assert.Contains(t, out, "Circuit,OriginalGates,TrojanGates")
	assert.Contains(t, out, "c17,6,9,50.0000,2,100000,1234")
}

func TestPrintTableMetricsRendersHeader(t *testing.T) {
	rows := []TableMetrics{{Circuit: "c17", OriginalGates: 6, TrojanGates: 9, AreaOverheadPct: 50}}
	var buf bytes.Buffer
	PrintTableMetrics(&buf, rows)
	assert.Contains(t, buf.String(), "CIRCUIT")
}

func TestMeasureDetectionProbabilityAgainstGoldenC17(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "c17.bench"))
	require.NoError(t, err)
	defer f.Close()

	nl, err := netlist.Parse(f)
	require.NoError(t, err)

	g := nl.Lookup("22")
	require.NotNil(t, g)
	rng := simulate.NewRand(21)
	activations, prob := MeasureDetectionProbability(nl, g, 5000, rng)

	assert.InDelta(t, prob, float64(activations)/5000, 1e-9)
	assert.GreaterOrEqual(t, prob, 0.0)
	assert.LessOrEqual(t, prob, 1.0)
}
