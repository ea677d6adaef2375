// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// osqueryd is the host-monitoring agent daemon: it runs the scheduled
// queries from its configuration file and reports what changed.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Heyvaert/osquery/baseline"
	"github.com/Heyvaert/osquery/core"
	"github.com/Heyvaert/osquery/dispatcher"
	"github.com/Heyvaert/osquery/logger"
	"github.com/Heyvaert/osquery/monitor"
	"github.com/Heyvaert/osquery/schedule"
	"github.com/Heyvaert/osquery/scheduler"
	"github.com/Heyvaert/osquery/storage"
	"github.com/Heyvaert/osquery/tables"
)

var log = loggo.GetLogger("osquery.cmd")

type agentConfig struct {
	configPath      string
	databasePath    string
	logDir          string
	hostIdentifier  string
	loggerEndpoint  string
	metricsAddr     string
	logLevel        string
	splayPercent    int
	scheduleTimeout uint64
	enableMonitor   bool
}

func registerFlags(f *gnuflag.FlagSet, cfg *agentConfig) {
	f.StringVar(&cfg.configPath, "config", "/etc/osquery/osquery.yaml", "path to the schedule configuration file")
	f.StringVar(&cfg.databasePath, "database", "/var/lib/osquery/osquery.db", "path to the agent's state database")
	f.StringVar(&cfg.logDir, "log-dir", "/var/log/osquery", "directory receiving result logs")
	f.StringVar(&cfg.hostIdentifier, "host-identifier", core.IdentifierHostname, "host identifier mode: hostname or uuid")
	f.StringVar(&cfg.loggerEndpoint, "logger-endpoint", "", "optional HTTP endpoint receiving result items")
	f.StringVar(&cfg.metricsAddr, "metrics-addr", "", "optional address serving prometheus metrics")
	f.StringVar(&cfg.logLevel, "log-level", "INFO", "agent log verbosity")
	f.IntVar(&cfg.splayPercent, "schedule-splay-percent", schedule.DefaultSplayPercent, "jitter window applied to query intervals")
	f.Uint64Var(&cfg.scheduleTimeout, "schedule-timeout", 0, "limit the schedule to this many ticks, 0 for no limit")
	f.BoolVar(&cfg.enableMonitor, "enable-monitor", false, "enable the schedule monitor")
}

func main() {
	var cfg agentConfig
	f := gnuflag.NewFlagSet("osqueryd", gnuflag.ExitOnError)
	registerFlags(f, &cfg)
	f.Parse(true, os.Args[1:])

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "osqueryd: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg agentConfig) error {
	if err := loggo.ConfigureLoggers("osquery=" + cfg.logLevel); err != nil {
		return errors.Annotate(err, "configuring loggers")
	}

	backend, err := storage.OpenSQLite(cfg.databasePath)
	if err != nil {
		return errors.Trace(err)
	}
	defer backend.Close()

	hostID, err := core.HostIdentifier(cfg.hostIdentifier, backend)
	if err != nil {
		return errors.Trace(err)
	}
	log.Infof("agent starting as host %q", hostID)

	source, err := schedule.NewFileSource(schedule.FileSourceConfig{
		Path:         cfg.configPath,
		SplayPercent: cfg.splayPercent,
		Clock:        clock.WallClock,
		Logger:       loggo.GetLogger("osquery.schedule"),
	})
	if err != nil {
		return errors.Trace(err)
	}

	registry := tables.NewRegistry(clock.WallClock)
	mon, err := monitor.New(monitor.Config{
		Executor: registry,
		Sampler:  tables.SelfSampler{},
		Recorder: source.Performance(),
		Clock:    clock.WallClock,
	})
	if err != nil {
		return errors.Trace(err)
	}

	sink, closeSinks, err := buildSinks(cfg)
	if err != nil {
		return errors.Trace(err)
	}
	defer closeSinks()

	services := dispatcher.New()
	services.AddService("schedule-source", source)

	_, err = scheduler.Start(services, scheduler.Config{
		Clock:          clock.WallClock,
		Logger:         loggo.GetLogger("osquery.scheduler"),
		Source:         source,
		Executor:       mon,
		Store:          baseline.NewStore(backend),
		Sink:           sink,
		HostIdentifier: hostID,
		EnableMonitor:  cfg.enableMonitor,
		Timeout:        cfg.scheduleTimeout,
	})
	if err != nil {
		return errors.Trace(err)
	}

	if cfg.metricsAddr != "" {
		serveMetrics(cfg.metricsAddr, source.Performance())
	}

	// Stop every service on the first interrupt; a second one kills
	// the process the hard way.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signals
		log.Infof("caught %v, shutting down", sig)
		services.StopServices()
	}()

	return errors.Trace(services.JoinServices())
}

func buildSinks(cfg agentConfig) (logger.ResultSink, func(), error) {
	fsSink, err := logger.NewFilesystemSink(logger.FilesystemSinkConfig{
		Directory: cfg.logDir,
	})
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	closeSinks := func() {
		if err := fsSink.Close(); err != nil {
			log.Warningf("closing result logs: %v", err)
		}
	}
	if cfg.loggerEndpoint == "" {
		return fsSink, closeSinks, nil
	}
	remoteSink, err := logger.NewRemoteSink(cfg.loggerEndpoint, nil)
	if err != nil {
		closeSinks()
		return nil, nil, errors.Trace(err)
	}
	return logger.NewMultiSink(fsSink, remoteSink), closeSinks, nil
}

func serveMetrics(addr string, perf *schedule.Performance) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(perf)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Errorf("metrics endpoint: %v", err)
		}
	}()
}
