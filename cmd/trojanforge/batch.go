package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/batch"
	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/compatgraph"
	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/config"
	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/netlist"
	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/report"
	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/simulate"
	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/telemetry"
	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/trojan"
)

const (
	watchFlagName       = "watch"
	metricsAddrFlagName = "metrics-addr"
	parallelFlagName    = "parallel"
	triggerSizeFlagName = "trigger-size"
	payloadFlagName     = "payload"
)

var defaultBatchDirs = []string{
	filepath.Join("inputs", "combinational"),
	filepath.Join("inputs", "sequential"),
}

var (
	watchFlag       bool
	metricsAddrFlag string
	parallelFlag    int
	triggerSizeFlag int
	payloadFlag     string
)

var batchCmd = newBatchCmd()

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [dirs...]",
		Short: "Scan directories of bench netlists and insert a Trojan into each",
		Long: `batch scans one or more directories (default inputs/combinational and
inputs/sequential) for *.bench files and runs the full mining, compatibility
graph, and insertion pipeline against each one. Supplying both --trigger-size
and --payload runs non-interactively and concurrently via errgroup; omitting
either one drives an interactive Bubble Tea prompt per file instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs := args
			if len(dirs) == 0 {
				dirs = defaultBatchDirs
			}
			if triggerSizeFlag > 0 && payloadFlag != "" {
				return runBatchNonInteractive(dirs)
			}
			return runBatchInteractive(dirs)
		},
	}
	configureBatchFlags(cmd)
	return cmd
}

func init() {
	rootCmd.AddCommand(batchCmd)
}

func configureBatchFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&watchFlag, watchFlagName, false, "watch the scanned directories and re-run on new/changed .bench files (non-interactive mode only)")
	cmd.Flags().StringVar(&metricsAddrFlag, metricsAddrFlagName, viper.GetString(config.MetricsAddrKey), "serve Prometheus metrics on this address (blank disables; non-interactive mode only)")
	bindFlagToConfig(cmd.Flags().Lookup(metricsAddrFlagName), config.MetricsAddrKey)

	cmd.Flags().IntVar(&parallelFlag, parallelFlagName, viper.GetInt(config.ConcurrencyKey), "number of bench files to process concurrently in non-interactive mode")
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), config.ConcurrencyKey)

	cmd.Flags().IntVar(&triggerSizeFlag, triggerSizeFlagName, 0, "minimum trigger clique size (non-interactive mode; requires --payload)")
	cmd.Flags().StringVar(&payloadFlag, payloadFlagName, "", "payload kind (non-interactive mode; requires --trigger-size)")
}

func runBatchNonInteractive(dirs []string) error {
	kind, err := parseTrojanKind(payloadFlag)
	if err != nil {
		return err
	}

	opts := batch.Options{
		Dirs:       dirs,
		NumVectors: viper.GetInt(config.NumVectorsKey),
		Threshold:  viper.GetFloat64(config.ThresholdKey),
		// --trigger-size pins the fallback chain to a single candidate;
		// the interactive path likewise uses only the size picked at the
		// prompt, so the descending config chain applies to `run` alone.
		MinCliqueSizes: []int{triggerSizeFlag},
		TrojanKind:     kind,
		Seed:           uint64(viper.GetInt64(config.SeedKey)),
		OutputDir:      viper.GetString(config.OutputDirKey),
		Concurrency:    viper.GetInt(config.ConcurrencyKey),
	}
	runner := batch.NewRunner(opts)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	telemetry.ServeMetrics(ctx, metricsAddrFlag)

	if watchFlag {
		return runner.Watch(ctx, printBatchResults)
	}
	results, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	printBatchResults(results)
	return nil
}

func printBatchResults(results []batch.FileResult) {
	for _, res := range results {
		if res.Err != nil {
			fmt.Printf("%s: FAILED: %v\n", res.Circuit, res.Err)
			continue
		}
		fmt.Printf("%s: trigger size %d, %d -> %d gates (%.2f%% overhead) [run %s]\n",
			res.Circuit, res.Metrics.TriggerSize, res.Metrics.OriginalGates, res.Metrics.TrojanGates,
			res.Metrics.AreaOverheadPct, res.RunID)
	}
}

func runBatchInteractive(dirs []string) error {
	paths, err := scanBenchFiles(dirs)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Println("no .bench files found")
		return nil
	}

	outDir := viper.GetString(config.OutputDirKey)
	seed := uint64(viper.GetInt64(config.SeedKey))

	for _, path := range paths {
		circuit := trimBenchSuffix(filepath.Base(path))
		choice, err := promptForChoice(circuit)
		if err != nil {
			return fmt.Errorf("prompt for %s: %w", circuit, err)
		}
		if choice.cancelled {
			fmt.Println("cancelled")
			return nil
		}
		kind, err := parseTrojanKind(choice.payloadKind)
		if err != nil {
			return err
		}
		if err := insertWithChoice(path, circuit, choice.triggerSize, kind, outDir, seed); err != nil {
			fmt.Printf("%s: FAILED: %v\n", circuit, err)
			continue
		}
	}
	return nil
}

func insertWithChoice(path, circuit string, minCliqueSize int, kind trojan.Kind, outDir string, seed uint64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	nl, err := netlist.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	originalGates := len(nl.Gates)

	rng := simulate.NewRand(seed)
	simulate.FindRareNodes(nl, viper.GetInt(config.NumVectorsKey), viper.GetFloat64(config.ThresholdKey), rng)

	var rareNodes []*netlist.Node
	for _, n := range nl.Nodes {
		if n.RarePolarity != netlist.NotRare {
			rareNodes = append(rareNodes, n)
		}
	}

	graph := compatgraph.New(nl)
	graph.GenerateTestVectors(rareNodes)
	graph.BuildGraph()
	cliques := graph.FindCliquesFallback([]int{minCliqueSize})
	if len(cliques) == 0 {
		return fmt.Errorf("no compatibility clique of size >= %d found", minCliqueSize)
	}

	gen := trojan.NewGenerator(nl, seed)
	trig := gen.GenerateTrigger(cliques[0])
	if trig == nil {
		return fmt.Errorf("trigger synthesis failed")
	}
	gen.InsertPayload(trig, trojan.Config{Kind: kind, TriggerSize: len(cliques[0])})

	overhead := report.AreaOverhead(originalGates, len(nl.Gates))
	fmt.Printf("%s: trigger size %d, %d -> %d gates (%.2f%% overhead)\n", circuit, len(cliques[0]), originalGates, len(nl.Gates), overhead)

	if outDir == "" {
		return nil
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", outDir, err)
	}
	outPath := filepath.Join(outDir, circuit+"_trojan.bench")
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()
	return nl.Write(out)
}

func scanBenchFiles(dirs []string) ([]string, error) {
	var paths []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".bench") {
				continue
			}
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}
