// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package diagnostics adds optional performance diagnostics to command line
// tools: a pprof server, CPU profiling, and execution tracing.
package diagnostics

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"runtime"
	rpprof "runtime/pprof"
	"runtime/trace"
	"slices"
	"strings"

	"github.com/urfave/cli/v2"
)

var (
	PortFlag = cli.IntFlag{
		Name:  "diagnostic-port",
		Usage: "enable hosting of a realtime diagnostic server by providing a port",
		Value: 0,
	}
	CpuProfileFlag = cli.StringFlag{
		Name:  "cpuprofile",
		Usage: "sets the target file for storing CPU profiles to, disabled if empty",
		Value: "",
	}
	TraceFlag = cli.StringFlag{
		Name:  "tracefile",
		Usage: "sets the target file for traces to, disabled if empty",
		Value: "",
	}
)

// Flags returns the flags controlling the diagnostics of an application.
func Flags() []cli.Flag {
	return []cli.Flag{&PortFlag, &CpuProfileFlag, &TraceFlag}
}

// AddPerformanceDiagnosticsAction wraps an action such that the diagnostics
// requested by the flags returned by Flags are active while the action runs.
func AddPerformanceDiagnosticsAction(action cli.ActionFunc) cli.ActionFunc {
	return func(context *cli.Context) (err error) {
		var stops []func() error
		defer func() {
			for _, stop := range slices.Backward(stops) {
				err = errors.Join(err, stop())
			}
		}()

		if port := context.Int(PortFlag.Name); port > 0 && port < (1<<16) {
			stop, startErr := startDiagnosticServer(context, port)
			if startErr != nil {
				return startErr
			}
			stops = append(stops, stop)
		}

		if name := strings.TrimSpace(context.String(CpuProfileFlag.Name)); name != "" {
			stop, startErr := startCpuProfiler(name)
			if startErr != nil {
				return startErr
			}
			stops = append(stops, stop)
		}

		if name := strings.TrimSpace(context.String(TraceFlag.Name)); name != "" {
			stop, startErr := startTracer(name)
			if startErr != nil {
				return startErr
			}
			stops = append(stops, stop)
		}

		return action(context)
	}
}

func startDiagnosticServer(context *cli.Context, port int) (func() error, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to start diagnostic server: %w", err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	server := &http.Server{Handler: mux}

	fmt.Fprintf(context.App.ErrWriter, "Starting diagnostic server at http://localhost:%d/debug/pprof/\n", port)
	fmt.Fprintf(context.App.ErrWriter, "Block and mutex sampling rate is set to 100%% for diagnostics, which may impact overall performance\n")
	runtime.SetBlockProfileRate(1)
	runtime.SetMutexProfileFraction(1)

	go func() { _ = server.Serve(listener) }()
	return func() error {
		runtime.SetBlockProfileRate(0)
		runtime.SetMutexProfileFraction(0)
		return server.Close()
	}, nil
}

func startCpuProfiler(filename string) (func() error, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := rpprof.StartCPUProfile(f); err != nil {
		return nil, errors.Join(fmt.Errorf("could not start CPU profile: %w", err), f.Close())
	}
	return func() error {
		rpprof.StopCPUProfile()
		return f.Close()
	}, nil
}

func startTracer(filename string) (func() error, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}
	if err := trace.Start(f); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to start trace: %w", err), f.Close())
	}
	return func() error {
		trace.Stop()
		return f.Close()
	}, nil
}
