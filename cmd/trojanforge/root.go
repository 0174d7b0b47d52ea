package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/config"
	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/telemetry"
)

const (
	seedFlagName           = "seed"
	numVectorsFlagName     = "num-vectors"
	thresholdFlagName      = "threshold"
	minCliqueSizesFlagName = "min-clique-sizes"
	verboseFlagName        = "verbose"
)

var (
	seedFlag           int64
	numVectorsFlag     int
	thresholdFlag      float64
	minCliqueSizesFlag []int
	verboseFlag        bool
)

var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trojanforge",
		Short: "Hardware Trojan insertion research tool",
		Long: `trojanforge mines rare internal nodes from a gate-level bench netlist,
synthesizes a stealthy trigger network from a clique of jointly-justifiable
rare nodes, and splices one of five payload effects onto a downstream
victim output.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			telemetry.ConfigureLogger()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func init() {
	config.Init()
	configureRootFlags(rootCmd)
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Int64Var(&seedFlag, seedFlagName, viper.GetInt64(config.SeedKey), "PRNG seed driving rare-node mining, victim and secret-node selection")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(seedFlagName), config.SeedKey)

	cmd.PersistentFlags().IntVar(&numVectorsFlag, numVectorsFlagName, viper.GetInt(config.NumVectorsKey), "number of Monte-Carlo vectors for rare-node mining")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(numVectorsFlagName), config.NumVectorsKey)

	cmd.PersistentFlags().Float64Var(&thresholdFlag, thresholdFlagName, viper.GetFloat64(config.ThresholdKey), "rare-node signal-probability threshold ratio")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(thresholdFlagName), config.ThresholdKey)

	cmd.PersistentFlags().IntSliceVar(&minCliqueSizesFlag, minCliqueSizesFlagName, viper.GetIntSlice(config.MinCliqueSizesKey), "descending clique-size fallback chain: candidate trigger sizes tried in order until one yields a clique")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(minCliqueSizesFlagName), config.MinCliqueSizesKey)

	cmd.PersistentFlags().BoolVar(&verboseFlag, verboseFlagName, viper.GetBool(config.LogVerboseKey), "log at debug level to stderr instead of the rotating log file")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), config.LogVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config file and
// env values feed the flag's default.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}
	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute runs the root command. Called by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
