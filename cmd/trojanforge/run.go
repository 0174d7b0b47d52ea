package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/compatgraph"
	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/config"
	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/netlist"
	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/report"
	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/simulate"
	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/trojan"
)

const (
	outFlagName        = "out"
	trojanKindFlagName = "trojan-kind"
)

var (
	outFlag        string
	trojanKindFlag string
)

var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <path.bench>",
		Short: "Insert a Trojan into a single bench netlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingleFile(args[0])
		},
	}
	configureRunFlags(cmd)
	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outFlag, outFlagName, "o", viper.GetString(config.OutputDirKey), "directory to write the Trojan-inserted netlist into")
	bindFlagToConfig(cmd.Flags().Lookup(outFlagName), config.OutputDirKey)

	cmd.Flags().StringVar(&trojanKindFlag, trojanKindFlagName, viper.GetString(config.TrojanKindKey), "payload kind: functional_xor, dos_sa0, dos_sa1, delay_parametric, leak_info")
	bindFlagToConfig(cmd.Flags().Lookup(trojanKindFlagName), config.TrojanKindKey)
}

func runSingleFile(path string) error {
	kind, err := parseTrojanKind(viper.GetString(config.TrojanKindKey))
	if err != nil {
		return err
	}

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

	rng := simulate.NewRand(uint64(viper.GetInt64(config.SeedKey)))
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
	minCliqueSizes := viper.GetIntSlice(config.MinCliqueSizesKey)
	cliques := graph.FindCliquesFallback(minCliqueSizes)
	if len(cliques) == 0 {
		return fmt.Errorf("%s: no compatibility clique found for any size in the fallback chain %v", path, minCliqueSizes)
	}

	gen := trojan.NewGenerator(nl, uint64(viper.GetInt64(config.SeedKey)))
	trig := gen.GenerateTrigger(cliques[0])
	if trig == nil {
		return fmt.Errorf("%s: trigger synthesis failed", path)
	}
	tReport := gen.InsertPayload(trig, trojan.Config{Kind: kind, TriggerSize: len(cliques[0])})

	overhead := report.AreaOverhead(originalGates, len(nl.Gates))
	circuit := filepath.Base(path)
	fmt.Printf("%s: trigger size %d, %d original gates, %d after insertion (%.2f%% overhead), payload victim %s\n",
		circuit, len(cliques[0]), originalGates, len(nl.Gates), overhead, tReport.VictimOriginalName)

	outDir := viper.GetString(config.OutputDirKey)
	if outDir == "" {
		return nil
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", outDir, err)
	}
	outPath := filepath.Join(outDir, trimBenchSuffix(circuit)+"_trojan.bench")
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()
	return nl.Write(out)
}

func trimBenchSuffix(name string) string {
	const suffix = ".bench"
	if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
		return name[:len(name)-len(suffix)]
	}
	return name
}
