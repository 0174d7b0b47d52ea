// Package report computes post-insertion metrics (area overhead,
// detection probability, rare-node threshold sensitivity) and renders
// them as CSV and ASCII tables (spec.md §7).
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/netlist"
	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/simulate"
)

// TableMetrics is one row of the area-overhead / detection-probability
// summary (original source's validate_tables.cpp Tables 2 & 3).
type TableMetrics struct {
	Circuit         string
	OriginalGates   int
	TrojanGates     int
	AreaOverheadPct float64
	TriggerSize     int
	DetectedCount   int
	TotalVectors    int
	DetectionProb   float64
}

// AreaOverhead returns the percentage gate-count increase trojanGates
// represents over originalGates.
func AreaOverhead(originalGates, trojanGates int) float64 {
	if originalGates == 0 {
		return 0
	}
	return float64(trojanGates-originalGates) * 100.0 / float64(originalGates)
}

// MeasureDetectionProbability drives numVectors uniform-random vectors
// through nl and counts how often trigger evaluates to 1 — the
// fraction of random test patterns that would activate (and so risk
// exposing) the Trojan.
func MeasureDetectionProbability(nl *netlist.Netlist, trigger *netlist.Node, numVectors int, rng *simulate.Rand) (activations int, prob float64) {
	for i := 0; i < numVectors; i++ {
		simulate.ClearValues(nl)
		for _, in := range nl.PrimaryInputs {
			in.Value = rng.Bit()
		}
		for _, g := range nl.Gates {
			simulate.Evaluate(g)
		}
		if simulate.Evaluate(trigger) == netlist.One {
			activations++
		}
	}
	return activations, float64(activations) / float64(numVectors)
}

// ThresholdRow is one row of the rare-node-count-vs-threshold sweep
// (original source's validate_alg1.cpp Figure 2).
type ThresholdRow struct {
	Circuit        string
	Threshold      float64
	TotalNodes     int
	RareNodes      int
	RarePercentage float64
}

// ThresholdSweep runs simulate.FindRareNodes once per threshold in
// thresholds (holding numVectors fixed) and reports how the rare-node
// count responds. rng is threaded through every run rather than
// reseeded, matching the original tool's single continuing PRNG
// stream.
func ThresholdSweep(circuit string, nl *netlist.Netlist, thresholds []float64, numVectors int, rng *simulate.Rand) []ThresholdRow {
	rows := make([]ThresholdRow, 0, len(thresholds))
	total := len(nl.Nodes)

	for _, thresh := range thresholds {
		simulate.FindRareNodes(nl, numVectors, thresh, rng)
		rareCount := countRare(nl)
		rows = append(rows, ThresholdRow{
			Circuit:        circuit,
			Threshold:      thresh,
			TotalNodes:     total,
			RareNodes:      rareCount,
			RarePercentage: float64(rareCount) * 100.0 / float64(total),
		})
	}
	return rows
}

// VectorCountRow is one row of the rare-node-count-vs-vector-count
// sweep (original source's validate_alg1.cpp Figure 3).
type VectorCountRow struct {
	Circuit        string
	NumVectors     int
	TotalNodes     int
	RareNodes      int
	RarePercentage float64
}

// VectorCountSweep runs simulate.FindRareNodes once per entry in
// vectorCounts (holding threshold fixed).
func VectorCountSweep(circuit string, nl *netlist.Netlist, vectorCounts []int, threshold float64, rng *simulate.Rand) []VectorCountRow {
	rows := make([]VectorCountRow, 0, len(vectorCounts))
	total := len(nl.Nodes)

	for _, n := range vectorCounts {
		simulate.FindRareNodes(nl, n, threshold, rng)
		rareCount := countRare(nl)
		rows = append(rows, VectorCountRow{
			Circuit:        circuit,
			NumVectors:     n,
			TotalNodes:     total,
			RareNodes:      rareCount,
			RarePercentage: float64(rareCount) * 100.0 / float64(total),
		})
	}
	return rows
}

func countRare(nl *netlist.Netlist) int {
	count := 0
	for _, n := range nl.Nodes {
		if n.RarePolarity != netlist.NotRare {
			count++
		}
	}
	return count
}

// WriteTableMetricsCSV writes rows in the validate_tables.cpp column
// order.
func WriteTableMetricsCSV(w io.Writer, rows []TableMetrics) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"Circuit", "OriginalGates", "TrojanGates", "OverheadPct", "TriggerSize", "TotalVectors", "Activations", "DetectionProb"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Circuit,
			strconv.Itoa(r.OriginalGates),
			strconv.Itoa(r.TrojanGates),
			strconv.FormatFloat(r.AreaOverheadPct, 'f', 4, 64),
			strconv.Itoa(r.TriggerSize),
			strconv.Itoa(r.TotalVectors),
			strconv.Itoa(r.DetectedCount),
			strconv.FormatFloat(r.DetectionProb, 'e', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return cw.Error()
}

// WriteThresholdSweepCSV writes rows in the validate_alg1.cpp Figure 2
// column order.
func WriteThresholdSweepCSV(w io.Writer, rows []ThresholdRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"Circuit", "Threshold", "TotalNodes", "RareNodes", "RarePercentage"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Circuit,
			strconv.FormatFloat(r.Threshold*100, 'f', 2, 64),
			strconv.Itoa(r.TotalNodes),
			strconv.Itoa(r.RareNodes),
			strconv.FormatFloat(r.RarePercentage, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return cw.Error()
}

// PrintTableMetrics renders rows as an ASCII table to w.
func PrintTableMetrics(w io.Writer, rows []TableMetrics) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Circuit", "Orig", "Trojan", "Overhead%", "TriggerSize", "Vectors", "Activations", "DetectionProb"})
	for _, r := range rows {
		table.Append([]string{
			r.Circuit,
			strconv.Itoa(r.OriginalGates),
			strconv.Itoa(r.TrojanGates),
			fmt.Sprintf("%.2f", r.AreaOverheadPct),
			strconv.Itoa(r.TriggerSize),
			strconv.Itoa(r.TotalVectors),
			strconv.Itoa(r.DetectedCount),
			fmt.Sprintf("%.2e", r.DetectionProb),
		})
	}
	table.Render()
}
