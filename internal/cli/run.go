// Copyright (c) 2026 The Disruptor Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/marketpulse/disruptor"
	"github.com/marketpulse/disruptor/pkg/logging"
	"github.com/marketpulse/disruptor/pkg/sink"
	"github.com/marketpulse/disruptor/pkg/wait"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigFile string

	flags BenchConfig
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts, flags: DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Publish synthetic events and report statistics",
		Long: `Build an engine with the requested number of consumers, publish the
requested number of events from one or more producers, stop the engine and
print what every handler processed.

Example:
  disruptor-bench run --capacity 1024 --consumers 3 --events 1000000
  disruptor-bench run --producers 4 --producer-mode multi --format yaml
  disruptor-bench run --config bench.yaml --sink frames.bin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			report, err := RunBench(ctx, cfg, opts.loggingConfig())
			if report != nil {
				if werr := WriteReport(cmd.OutOrStdout(), opts.Format, report); werr != nil {
					err = multierr.Append(err, werr)
				}
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.ConfigFile, "config", "", "YAML file with run parameters, flags take precedence")
	f.StringVar(&opts.flags.Name, "name", opts.flags.Name, "engine name used in logs")
	f.Int64Var(&opts.flags.Capacity, "capacity", opts.flags.Capacity, "ring capacity, a power of two")
	f.IntVar(&opts.flags.Consumers, "consumers", opts.flags.Consumers, "number of consuming handlers")
	f.IntVar(&opts.flags.Events, "events", opts.flags.Events, "number of events to publish")
	f.IntVar(&opts.flags.Producers, "producers", opts.flags.Producers, "number of publishing goroutines")
	f.StringVar(&opts.flags.ProducerMode, "producer-mode", opts.flags.ProducerMode, "claim protocol (single|multi)")
	f.StringVar(&opts.flags.Visibility, "visibility", opts.flags.Visibility, "consumer visibility (independent|lockstep)")
	f.StringVar(&opts.flags.Wait, "wait", opts.flags.Wait, "producer wait strategy (backoff|yield|busy-spin|sleeping)")
	f.StringVar(&opts.flags.Idle, "idle", opts.flags.Idle, "consumer idle strategy (backoff|yield|busy-spin|sleeping)")
	f.BoolVar(&opts.flags.LockOSThread, "lock-os-thread", opts.flags.LockOSThread, "pin consumers to OS threads")
	f.StringVar(&opts.flags.Sink, "sink", opts.flags.Sink, "also write every event as a frame to this file, - discards")

	return cmd
}

// resolve merges the config file and the explicitly set flags.
func (o *RunOptions) resolve(cmd *cobra.Command) (BenchConfig, error) {
	cfg := DefaultConfig()
	if o.ConfigFile != "" {
		var err error
		if cfg, err = LoadConfig(o.ConfigFile); err != nil {
			return cfg, err
		}
	}

	f := cmd.Flags()
	set := func(name string, apply func()) {
		if f.Changed(name) {
			apply()
		}
	}
	set("name", func() { cfg.Name = o.flags.Name })
	set("capacity", func() { cfg.Capacity = o.flags.Capacity })
	set("consumers", func() { cfg.Consumers = o.flags.Consumers })
	set("events", func() { cfg.Events = o.flags.Events })
	set("producers", func() { cfg.Producers = o.flags.Producers })
	set("producer-mode", func() { cfg.ProducerMode = o.flags.ProducerMode })
	set("visibility", func() { cfg.Visibility = o.flags.Visibility })
	set("wait", func() { cfg.Wait = o.flags.Wait })
	set("idle", func() { cfg.Idle = o.flags.Idle })
	set("lock-os-thread", func() { cfg.LockOSThread = o.flags.LockOSThread })
	set("sink", func() { cfg.Sink = o.flags.Sink })

	return cfg, cfg.Validate()
}

func (o *RunOptions) loggingConfig() logging.Config {
	cfg := logging.Config{Level: logging.WarnLevel, File: o.LogFile}
	if o.Verbose {
		cfg.Level = logging.DebugLevel
	}
	return cfg
}

// sequenceChecker counts events and the sequence gaps it observes.
type sequenceChecker struct {
	next  int64
	count uint64
	gaps  uint64
}

func (c *sequenceChecker) OnEvent(ev *disruptor.Event[[]byte]) error {
	if ev.Sequence != c.next {
		c.gaps++
	}
	c.next = ev.Sequence + 1
	c.count++
	return nil
}

// RunBench runs one benchmark described by cfg. A report is returned whenever
// the engine was started, even if the run failed.
func RunBench(ctx context.Context, cfg BenchConfig, logCfg logging.Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, _ := cfg.producerMode()
	visibility, _ := cfg.visibility()
	waitStrategy, _ := wait.Parse(cfg.Wait)
	idleStrategy, _ := wait.Parse(cfg.Idle)

	logger, flush, err := logging.NewLogger(logCfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = flush() }()

	b := disruptor.NewBuilder[[]byte]().
		WithName(cfg.Name).
		WithCapacity(cfg.Capacity).
		WithProducerMode(mode).
		WithVisibility(visibility).
		WithWaitStrategy(waitStrategy).
		WithIdleStrategy(idleStrategy).
		WithLockOSThread(cfg.LockOSThread).
		WithLogger(logger)

	checkers := make([]*sequenceChecker, cfg.Consumers)
	for i := range checkers {
		checkers[i] = &sequenceChecker{}
		b.WithNamedProcessor(fmt.Sprintf("consumer-%d", i), checkers[i])
	}

	var frames *sink.WriterSink
	if cfg.Sink != "" {
		var w io.Writer = io.Discard
		if cfg.Sink != "-" {
			file, err := os.Create(cfg.Sink)
			if err != nil {
				return nil, fmt.Errorf("open sink: %w", err)
			}
			w = file
		}
		frames = sink.NewWriterSink(w)
		b.WithNamedProcessor("sink", frames)
	}

	eng, err := b.Build()
	if err == nil {
		err = eng.Start()
	}
	if err != nil {
		if frames != nil {
			err = multierr.Append(err, frames.Close())
		}
		return nil, err
	}

	began := time.Now()
	published := produce(ctx, eng, cfg, mode)
	elapsed := time.Since(began)

	err = eng.Stop()
	if frames != nil {
		err = multierr.Append(err, frames.Close())
	}
	if published < cfg.Events {
		err = multierr.Append(err, fmt.Errorf("interrupted after %d of %d events: %w", published, cfg.Events, ctx.Err()))
	}

	report := newReport(cfg, eng.Stats(), eng.HandlerStats(), elapsed)
	for i, c := range checkers {
		report.Handlers[i].Gaps = c.gaps
	}
	return report, err
}

// produce publishes cfg.Events payloads and returns how many were published
// before ctx ended. With a single-producer ring and several producers the
// events are funneled through a Publisher.
func produce(ctx context.Context, eng *disruptor.Engine[[]byte], cfg BenchConfig, mode disruptor.ProducerMode) int {
	publish := func(data []byte) { eng.Publish(data, 0) }

	var pub *disruptor.Publisher[[]byte]
	if mode == disruptor.SingleProducer && cfg.Producers > 1 {
		pub = disruptor.NewPublisher(eng, nil)
		publish = func(data []byte) { _ = pub.Submit(data, 0) }
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	share, extra := cfg.Events/cfg.Producers, cfg.Events%cfg.Producers
	for p := 0; p < cfg.Producers; p++ {
		n := share
		if p < extra {
			n++
		}
		wg.Add(1)
		go func(id, n int) {
			defer wg.Done()
			done := 0
			for ; done < n; done++ {
				if done&1023 == 0 && ctx.Err() != nil {
					break
				}
				publish([]byte{byte(id), byte(done), byte(done >> 8), byte(done >> 16)})
			}
			mu.Lock()
			total += done
			mu.Unlock()
		}(p, n)
	}
	wg.Wait()

	if pub != nil {
		_ = pub.Close()
	}
	return total
}
