// Package telemetry wires structured logging (slog + lumberjack
// rotation) and the Prometheus /metrics HTTP endpoint, the same two
// ambient concerns the teacher's cmd package configures at startup.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/config"
)

// ConfigureLogger builds the process-wide slog logger from Viper's
// log.* keys: a rotating file handler via lumberjack or, when
// log.verbose is set, a plain stderr handler at debug level instead.
// It installs the logger with slog.SetDefault and returns it.
func ConfigureLogger() *slog.Logger {
	lj := &lumberjack.Logger{
		Filename:   viper.GetString(config.LogFilenameKey),
		MaxSize:    viper.GetInt(config.LogMaxSizeKey),
		MaxBackups: viper.GetInt(config.LogMaxBackupsKey),
		MaxAge:     viper.GetInt(config.LogMaxAgeKey),
		Compress:   viper.GetBool(config.LogCompressKey),
	}

	level := slog.Level(viper.GetInt(config.LogLevelKey))
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(lj, opts)
	if viper.GetBool(config.LogVerboseKey) {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ServeMetrics starts a background HTTP server exposing Prometheus
// metrics at /metrics on addr. A blank addr disables the endpoint and
// ServeMetrics returns immediately. The server runs until ctx is
// cancelled; a bind failure is logged rather than propagated, since
// metrics are diagnostic and must never block the pipeline they
// describe.
func ServeMetrics(ctx context.Context, addr string) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server exited", "addr", addr, "error", err)
		}
	}()

	slog.Info("metrics endpoint listening", "addr", fmt.Sprintf("http://%s/metrics", addr))
}
