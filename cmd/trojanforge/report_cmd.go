package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/netlist"
	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/report"
)

const csvFlagName = "csv"

var csvFlag string

var reportCmd = newReportCmd()

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <dir>",
		Short: "Re-derive and print area-overhead metrics for a directory of Trojan-inserted netlists",
		Long: `report pairs every <circuit>_trojan.bench file in dir with its original
<circuit>.bench, re-parses both, and prints the gate-count overhead each
insertion introduced, in the Table 2/3 style of the original benchmark
tooling.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(args[0])
		},
	}
	cmd.Flags().StringVar(&csvFlag, csvFlagName, "", "write the metrics table as CSV to this path instead of only printing it")
	return cmd
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}

	var rows []report.TableMetrics
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), "_trojan.bench") {
			continue
		}
		circuit := strings.TrimSuffix(e.Name(), "_trojan.bench")
		origPath := filepath.Join(dir, circuit+".bench")
		trojanPath := filepath.Join(dir, e.Name())

		origGates, err := countGates(origPath)
		if err != nil {
			fmt.Printf("%s: skipping, no matching original: %v\n", circuit, err)
			continue
		}
		trojanGates, err := countGates(trojanPath)
		if err != nil {
			fmt.Printf("%s: %v\n", circuit, err)
			continue
		}

		rows = append(rows, report.TableMetrics{
			Circuit:         circuit,
			OriginalGates:   origGates,
			TrojanGates:     trojanGates,
			AreaOverheadPct: report.AreaOverhead(origGates, trojanGates),
		})
	}

	if len(rows) == 0 {
		fmt.Println("no <circuit>_trojan.bench / <circuit>.bench pairs found")
		return nil
	}

	report.PrintTableMetrics(os.Stdout, rows)

	if csvFlag == "" {
		return nil
	}
	out, err := os.Create(csvFlag)
	if err != nil {
		return fmt.Errorf("create %s: %w", csvFlag, err)
	}
	defer out.Close()
	return report.WriteTableMetricsCSV(out, rows)
}

func countGates(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	nl, err := netlist.Parse(f)
	if err != nil {
		return 0, err
	}
	return len(nl.Gates), nil
}
