// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"slices"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/sirseerhq/crashcache/internal/cache"
	"github.com/sirseerhq/crashcache/internal/config"
	"github.com/sirseerhq/crashcache/internal/crashpath"
	cacheerrors "github.com/sirseerhq/crashcache/internal/errors"
	"github.com/sirseerhq/crashcache/internal/metrics"
	"github.com/sirseerhq/crashcache/internal/output"
)

// maxLineBytes bounds a single stdin command. A breadcrumb can never be
// larger than the cache buffer.
const maxLineBytes = 2 * cache.MaxBufferSize

// raiseTimeout is how long run waits to be terminated after a raise.
const raiseTimeout = 5 * time.Second

type runOptions struct {
	path               string
	maxBreadcrumbs     int
	bufferBytes        int
	lockedMemory       bool
	checkpointInterval time.Duration
	signals            []string
	newSession         bool
	metricsAddr        string
}

func newRunCommand(g *globalOptions) *cobra.Command {
	var o runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Install the crash cache and apply commands read from stdin",
		Long: `Install the crash cache and apply NDJSON commands read from stdin, one per line.
Each command is acknowledged on stdout.

Commands:
  {"cmd":"breadcrumb","value":{...}}
  {"cmd":"context","value":"checkout"}          (null or missing value clears)
  {"cmd":"metadata","tab":"t","key":"k","value":...}   (missing value clears)
  {"cmd":"clear_metadata","tab":"t","key":"k"}
  {"cmd":"user","id":"1","email":"a@b.c","name":null}
  {"cmd":"app"|"device"|"session","value":{...}}  (null or missing value clears)
  {"cmd":"persist"}
  {"cmd":"raise","signal":"SIGABRT"}

On EOF, SIGINT or SIGTERM the document is checkpointed and the cache is
uninstalled. A fatal signal writes the last complete document before the
process terminates.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup(cmd, func(cfg *config.Config) { o.apply(cmd, cfg) })
			if err != nil {
				return err
			}

			crash, err := cfg.Signals()
			if err != nil {
				return fmt.Errorf("%w: %v", cacheerrors.ErrInvalidConfig, err)
			}
			ctx := cmd.Context()
			if shutdown := shutdownSignals(crash); len(shutdown) > 0 {
				var stop context.CancelFunc
				ctx, stop = signal.NotifyContext(ctx, shutdown...)
				defer stop()
			}

			return runCache(ctx, cache.Default(), cfg, o, cmd.InOrStdin(), output.NewWriter(cmd.OutOrStdout()), logger)
		},
	}

	cmd.Flags().StringVar(&o.path, "path", "", "Snapshot file written on checkpoint and crash (overrides config)")
	cmd.Flags().IntVar(&o.maxBreadcrumbs, "max-breadcrumbs", 0, "Maximum number of breadcrumbs kept (0-255)")
	cmd.Flags().IntVar(&o.bufferBytes, "buffer-bytes", 0, "Serialization buffer capacity in bytes")
	cmd.Flags().BoolVar(&o.lockedMemory, "locked-memory", false, "Keep serialization buffers in mlocked memory")
	cmd.Flags().DurationVar(&o.checkpointInterval, "checkpoint-interval", 0, "Periodic checkpoint interval (0 disables)")
	cmd.Flags().StringSliceVar(&o.signals, "signal", nil, "Fatal signal to persist on (repeatable; default SEGV, ABRT, ILL, BUS, FPE, TRAP)")
	cmd.Flags().BoolVar(&o.newSession, "new-session", false, "Start with a fresh session object")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	return cmd
}

// shutdownSignals returns the signals that end run with a checkpoint. A
// signal the crash path persists on is left to it so it still terminates
// the process.
func shutdownSignals(crash []os.Signal) []os.Signal {
	var sigs []os.Signal
	for _, sig := range []os.Signal{os.Interrupt, syscall.SIGTERM} {
		if !slices.Contains(crash, sig) {
			sigs = append(sigs, sig)
		}
	}
	return sigs
}

// apply copies explicitly set flags over the loaded configuration.
func (o *runOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("path") {
		cfg.Cache.Path = o.path
	}
	if flags.Changed("max-breadcrumbs") {
		cfg.Cache.MaxBreadcrumbs = o.maxBreadcrumbs
	}
	if flags.Changed("buffer-bytes") {
		cfg.Cache.BufferBytes = o.bufferBytes
	}
	if flags.Changed("locked-memory") {
		cfg.Cache.LockedMemory = o.lockedMemory
	}
	if flags.Changed("checkpoint-interval") {
		cfg.Checkpoint.Interval = o.checkpointInterval
	}
	if flags.Changed("signal") {
		cfg.Crash.Signals = o.signals
	}
}

// runCache installs c, applies commands from in until EOF or ctx is done,
// then checkpoints and uninstalls.
func runCache(ctx context.Context, c *cache.Controller, cfg *config.Config, o runOptions, in io.Reader, out output.RecordWriter, logger *slog.Logger) error {
	signals, err := cfg.Signals()
	if err != nil {
		return fmt.Errorf("%w: %v", cacheerrors.ErrInvalidConfig, err)
	}

	reg := prometheus.NewRegistry()
	err = c.Install(cache.Options{
		Path:           cfg.Cache.Path,
		MaxBreadcrumbs: uint8(cfg.Cache.MaxBreadcrumbs),
		BufferSize:     cfg.Cache.BufferBytes,
		LockedMemory:   cfg.Cache.LockedMemory,
		Signals:        signals,
		Logger:         logger,
		Metrics:        metrics.New(reg),
	})
	if err != nil {
		return err
	}
	defer c.Uninstall()
	defer c.PersistOnPanic()

	if cfg.Crash.PanicOnFault {
		defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	}

	if o.newSession {
		if err := startSession(c); err != nil {
			return err
		}
	}

	if o.metricsAddr != "" {
		srv, err := serveMetrics(o.metricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = srv.Close() }()
	}

	if cfg.Checkpoint.Interval > 0 {
		checkpointCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() { _ = c.CheckpointEvery(checkpointCtx, cfg.Checkpoint.Interval) }()
	}

	readErr := applyInput(ctx, c, in, out, logger)

	if err := c.PersistToDisk(); err != nil {
		return err
	}
	logger.Info("state checkpointed", "path", c.Path())
	return readErr
}

// applyInput applies every command line until EOF or ctx is done.
func applyInput(ctx context.Context, c *cache.Controller, in io.Reader, out output.RecordWriter, logger *slog.Logger) error {
	lines := readLines(ctx, in)
	seq := 0
	for {
		select {
		case <-ctx.Done():
			logger.Info("interrupted, shutting down")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line.err != nil {
				return fmt.Errorf("failed to read commands: %w", line.err)
			}
			seq++

			cmd, err := parseCommand(line.text)
			if err == nil && cmd.Cmd == cmdRaise {
				return raise(ctx, cmd, seq, out)
			}
			if err == nil {
				err = applyCommand(c, cmd)
			}

			result := ack{Seq: seq, Cmd: cmd.Cmd, OK: err == nil}
			if err != nil {
				result.Error = err.Error()
				logger.Debug("command failed", "seq", seq, "cmd", cmd.Cmd, "error", err)
			}
			if werr := out.Write(result); werr != nil {
				return werr
			}
		}
	}
}

// raise delivers the requested signal to the process and waits to be
// terminated by it.
func raise(ctx context.Context, cmd command, seq int, out output.RecordWriter) error {
	sig, err := raiseSignal(cmd)
	if err != nil {
		return out.Write(ack{Seq: seq, Cmd: cmd.Cmd, Error: err.Error()})
	}
	if err := out.Write(ack{Seq: seq, Cmd: cmd.Cmd, OK: true}); err != nil {
		return err
	}

	if err := crashpath.Send(sig); err != nil {
		return fmt.Errorf("failed to raise %v: %w", sig, err)
	}

	select {
	case <-ctx.Done():
		return nil
	case <-time.After(raiseTimeout):
		return fmt.Errorf("process survived %v", sig)
	}
}

type inputLine struct {
	text string
	err  error
}

// readLines scans non-empty lines from r on a separate goroutine so the
// caller can stop on ctx while a read is blocked.
func readLines(ctx context.Context, r io.Reader) <-chan inputLine {
	ch := make(chan inputLine)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			if len(scanner.Bytes()) == 0 {
				continue
			}
			select {
			case ch <- inputLine{text: scanner.Text()}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case ch <- inputLine{err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return ch
}

// startSession replaces the session object with a fresh one.
func startSession(c *cache.Controller) error {
	session, err := json.Marshal(map[string]any{
		"id":        uuid.NewString(),
		"startedAt": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	text := string(session)
	return c.SetSession(&text)
}

// serveMetrics exposes reg on addr until the returned server is closed.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())
	return srv, nil
}
