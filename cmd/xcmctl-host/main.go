// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/xcmctl/ctl"
	"github.com/bureau-foundation/xcmctl/lib/attr"
	"github.com/bureau-foundation/xcmctl/lib/config"
	"github.com/bureau-foundation/xcmctl/lib/process"
	"github.com/bureau-foundation/xcmctl/lib/secret"
	"github.com/bureau-foundation/xcmctl/lib/service"
	"github.com/bureau-foundation/xcmctl/lib/version"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		process.Fatal(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var (
		configPath  string
		socketID    int64
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("xcmctl-host", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&configPath, "config", "", "configuration file (default: $"+config.EnvConfig+")")
	flagSet.Int64Var(&socketID, "socket-id", -1, "control socket id (default: host.socket_id)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if showVersion {
		fmt.Fprintf(stdout, "xcmctl-host %s\n", version.Full())
		return nil
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if socketID >= 0 {
		cfg.Host.SocketID = socketID
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := cfg.Log.NewLogger(stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, logger)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// serve runs one hosting socket until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	registry, closeKey, err := buildAttributes(cfg, logger)
	if err != nil {
		return err
	}
	defer closeKey()

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	host, err := service.NewHost(service.HostConfig{
		SocketID: cfg.Host.SocketID,
		Control: ctl.Config{
			Directory:  cfg.Control.Directory,
			MaxClients: cfg.Control.MaxClients,
			Metrics:    ctl.NewMetrics(metricsRegistry),
		},
		PollInterval: cfg.PollInterval(),
		Logger:       logger,
	}, registry)
	if err != nil {
		return err
	}
	defer host.Close(true)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metricsDone := make(chan error, 1)
	if cfg.Host.MetricsAddress != "" {
		metricsServer := service.NewHTTPServer(service.HTTPServerConfig{
			Address: cfg.Host.MetricsAddress,
			Handler: service.MetricsHandler(metricsRegistry),
			Logger:  logger,
		})
		go func() {
			metricsDone <- metricsServer.Serve(ctx)
		}()
	} else {
		close(metricsDone)
	}

	runErr := host.Run(ctx)
	if runErr != nil {
		logger.Error("event loop failed", "error", runErr)
	}
	cancel()

	if err := <-metricsDone; err != nil {
		logger.Error("metrics server failed", "error", err)
	}
	logger.Info("shutting down", "path", host.Server().Path())
	return runErr
}

// buildAttributes seeds the attribute registry from configuration. The
// returned function releases the TLS key; it is safe to call when no
// key was loaded.
func buildAttributes(cfg *config.Config, logger *slog.Logger) (*attr.Registry, func(), error) {
	registry := attr.NewRegistry()
	closeKey := func() {}

	if cfg.Host.AttributesFile != "" {
		values, err := service.LoadStaticAttributes(cfg.Host.AttributesFile)
		if err != nil {
			return nil, closeKey, err
		}
		for name, value := range values {
			registry.Set(name, value)
		}
		logger.Debug("static attributes loaded", "path", cfg.Host.AttributesFile, "count", len(values))
	}

	// Generic attributes replace any static value of the same name.
	service.RegisterIdentity(registry, service.SocketIdentity{
		Type:      "server",
		Transport: cfg.Host.Transport,
		LocalAddr: cfg.Host.LocalAddr,
		Started:   time.Now(),
	})

	if cfg.Host.TLSCertFile != "" {
		fingerprint, err := service.CertificateFingerprint(cfg.Host.TLSCertFile)
		if err != nil {
			return nil, closeKey, err
		}
		registry.Set(service.FingerprintAttribute, attr.Binary(fingerprint[:]))
	}

	if cfg.Host.TLSKeyFile != "" {
		key, err := secret.ReadKeyFile(cfg.Host.TLSKeyFile)
		if err != nil {
			return nil, closeKey, err
		}
		service.RegisterTLSKey(registry, key)
		closeKey = func() { key.Close() }
	}

	if err := service.CheckAttributeCapacity(registry); err != nil {
		closeKey()
		return nil, func() {}, fmt.Errorf("host attributes: %w", err)
	}
	return registry, closeKey, nil
}
