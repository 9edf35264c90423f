// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Command ledserver initializes the attached LED interface devices and
// serves them to remote clients over the TCP protocol.
//
// Usage:
//
//	ledserver [port]
//
// The port may also be set with --port. The server accepts one synchronous
// client at a time; when a client disconnects, it waits for the next one.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/danjacques/gopanelpixels/device"
	"github.com/danjacques/gopanelpixels/led"
	"github.com/danjacques/gopanelpixels/replay"
	"github.com/danjacques/gopanelpixels/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	port        = pflag.Int("port", server.DefaultPort, "TCP port to listen on.")
	gamma       = pflag.Float64("gamma", 1.75, "Gamma correction applied to panel data.")
	recordPath  = pflag.String("record", "", "If set, record every committed frame to this stream file.")
	metricsAddr = pflag.String("metrics-addr", "", "If set, serve Prometheus metrics on this address.")
	verbose     = pflag.BoolP("verbose", "v", false, "Enable debug logging.")

	// restartDelay paces the accept loop so a broken listener cannot spin.
	restartDelay = time.Second
)

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "ledserver: %s\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	pflag.Parse()

	// A single positional argument overrides --port.
	if args := pflag.Args(); len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid port %q", args[0])
		}
		*port = v
	}
	if *port <= 0 || *port > 65535 {
		return fmt.Errorf("invalid port %d", *port)
	}

	zcfg := zap.NewProductionConfig()
	if *verbose {
		zcfg = zap.NewDevelopmentConfig()
	}
	zlogger, err := zcfg.Build()
	if err != nil {
		return err
	}
	defer func() { _ = zlogger.Sync() }()
	logger := zlogger.Sugar()

	metrics := prometheus.NewRegistry()
	device.RegisterMonitoring(metrics)
	server.RegisterMonitoring(metrics)
	replay.RegisterMonitoring(metrics)
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Errorf("Metrics server failed: %s", err)
			}
		}()
	}

	displays := &led.Displays{Logger: logger}

	var recorder *replay.Recorder
	if *recordPath != "" {
		sw, err := replay.CreateStream(*recordPath)
		if err != nil {
			return err
		}

		recorder = &replay.Recorder{}
		recorder.Start(sw)
		defer func() {
			if err := recorder.Stop(); err != nil {
				logger.Errorf("Error finalizing recording: %s", err)
			}
		}()
		displays.Recorder = recorder
	}

	logger.Infof("Initializing LED panels...")
	if err := displays.Init(*gamma); err != nil {
		return err
	}
	defer displays.Clear()

	srv := &server.Server{
		Displays: displays,
		Port:     *port,
		Logger:   logger,
	}
	defer func() { _ = srv.Close() }()

	for {
		if err := srv.Start(); err != nil {
			logger.Errorf("Server session failed: %s", err)
			time.Sleep(restartDelay)
		}
	}
}
