// Package config loads trojanforge's YAML/env configuration via Viper,
// following the same config-file/env-prefix/flag-binding pattern the
// teacher's CLI uses (spec.md §6/§9 "Configuration").
package config

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	configBaseName   = "trojanforge"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	envPrefix = "TROJANFORGE"

	SeedKey            = "seed"
	NumVectorsKey      = "mining.num_vectors"
	ThresholdKey       = "mining.threshold"
	MinCliqueSizesKey  = "mining.min_clique_sizes"
	TrojanKindKey      = "trojan.kind"
	OutputDirKey       = "output.dir"
	ConcurrencyKey     = "batch.concurrency"
	MetricsAddrKey     = "batch.metrics_addr"

	LogFilenameKey   = "log.filename"
	LogLevelKey      = "log.level"
	LogVerboseKey    = "log.verbose"
	LogMaxSizeKey    = "log.max_size"
	LogMaxBackupsKey = "log.max_backups"
	LogMaxAgeKey     = "log.max_age"
	LogCompressKey   = "log.compress"

	DefaultSeed        = int64(1)
	DefaultNumVectors  = 10000
	DefaultThreshold   = 0.20
	DefaultTrojanKind  = "functional_xor"
	DefaultOutputDir   = "./trojanforge-out"
	DefaultConcurrency = 4

	DefaultLogFilename   = ".trojanforge.log"
	DefaultLogLevel      = int(slog.LevelInfo)
	DefaultLogVerbose    = false
	DefaultLogMaxSize    = 10
	DefaultLogMaxBackups = 3
	DefaultLogMaxAge     = 28
	DefaultLogCompress   = true
)

// DefaultMinCliqueSizes is the clique-size fallback chain: descending
// candidate trigger sizes, tried in order until one yields a
// compatibility clique (spec.md §3's "clique-size fallback chain").
var DefaultMinCliqueSizes = []int{8, 6, 4, 3, 2}

// Init wires Viper's config file, env var, and default-value setup.
// Call once before any command reads configuration.
func Init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(SeedKey, DefaultSeed)
	viper.SetDefault(NumVectorsKey, DefaultNumVectors)
	viper.SetDefault(ThresholdKey, DefaultThreshold)
	viper.SetDefault(MinCliqueSizesKey, DefaultMinCliqueSizes)
	viper.SetDefault(TrojanKindKey, DefaultTrojanKind)
	viper.SetDefault(OutputDirKey, DefaultOutputDir)
	viper.SetDefault(ConcurrencyKey, DefaultConcurrency)
	viper.SetDefault(MetricsAddrKey, "")

	viper.SetDefault(LogFilenameKey, DefaultLogFilename)
	viper.SetDefault(LogLevelKey, DefaultLogLevel)
	viper.SetDefault(LogVerboseKey, DefaultLogVerbose)
	viper.SetDefault(LogMaxSizeKey, DefaultLogMaxSize)
	viper.SetDefault(LogMaxBackupsKey, DefaultLogMaxBackups)
	viper.SetDefault(LogMaxAgeKey, DefaultLogMaxAge)
	viper.SetDefault(LogCompressKey, DefaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}
	}
}
