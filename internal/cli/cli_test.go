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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/marketpulse/disruptor/pkg/logging"
	"github.com/marketpulse/disruptor/pkg/sink"
)

func quietLogging(t *testing.T) logging.Config {
	return logging.Config{Level: logging.ErrorLevel, File: filepath.Join(t.TempDir(), "bench.log")}
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "disruptor-bench", cmd.Use)

	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)
	assert.Equal(t, "run", runCmd.Name())

	for _, name := range []string{"capacity", "consumers", "events", "producers", "producer-mode", "visibility", "wait", "idle", "config", "sink"} {
		assert.NotNil(t, runCmd.Flags().Lookup(name), "flag %s", name)
	}
	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"run", "--format", "json"})
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.Execute()
	assert.ErrorContains(t, err, `invalid format "json"`)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BenchConfig)
		errMsg string
	}{
		{"defaults", func(*BenchConfig) {}, ""},
		{"capacity", func(c *BenchConfig) { c.Capacity = 1000 }, "not a power of two"},
		{"consumers", func(c *BenchConfig) { c.Consumers = 0 }, "consumers"},
		{"producers", func(c *BenchConfig) { c.Producers = 0 }, "producers"},
		{"events", func(c *BenchConfig) { c.Events = -1 }, "events"},
		{"producer mode", func(c *BenchConfig) { c.ProducerMode = "many" }, "producer mode"},
		{"visibility", func(c *BenchConfig) { c.Visibility = "strict" }, "visibility"},
		{"wait", func(c *BenchConfig) { c.Wait = "nap" }, "wait strategy"},
		{"idle", func(c *BenchConfig) { c.Idle = "nap" }, "idle strategy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.errMsg)
			}
		})
	}
}

func TestLoadConfigAndFlagPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capacity: 256\nconsumers: 3\nevents: 10\nvisibility: lockstep\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.EqualValues(t, 256, cfg.Capacity)
	assert.Equal(t, 3, cfg.Consumers)
	assert.Equal(t, "lockstep", cfg.Visibility)
	assert.Equal(t, "backoff", cfg.Wait)

	root := NewRootCommand()
	runCmd, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	require.NoError(t, runCmd.Flags().Parse([]string{"--config", path, "--consumers", "2"}))

	opts := &RunOptions{RootOptions: &RootOptions{}, ConfigFile: path, flags: DefaultConfig()}
	opts.flags.Consumers = 2
	cfg, err = opts.resolve(runCmd)
	require.NoError(t, err)
	assert.EqualValues(t, 256, cfg.Capacity)
	assert.Equal(t, 2, cfg.Consumers)
	assert.Equal(t, 10, cfg.Events)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRunBench(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(*BenchConfig)
	}{
		{"single producer", func(*BenchConfig) {}},
		{"serialized producers", func(c *BenchConfig) { c.Producers = 4 }},
		{"multi producer", func(c *BenchConfig) { c.Producers = 4; c.ProducerMode = "multi" }},
		{"lockstep", func(c *BenchConfig) { c.Visibility = "lockstep"; c.Consumers = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Capacity = 64
			cfg.Consumers = 2
			cfg.Events = 5000
			tt.cfg(&cfg)

			report, err := RunBench(context.Background(), cfg, quietLogging(t))
			require.NoError(t, err)
			assert.EqualValues(t, 5000, report.Published)
			assert.EqualValues(t, 4999, report.Cursor)
			require.Len(t, report.Handlers, cfg.Consumers)
			for _, h := range report.Handlers {
				assert.EqualValues(t, 5000, h.Processed, h.Name)
				assert.Zero(t, h.Gaps, h.Name)
				assert.EqualValues(t, 4999, h.LastSequence, h.Name)
				assert.Equal(t, "stopped", h.State)
			}
		})
	}
}

func TestRunBenchWithSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.bin")
	cfg := DefaultConfig()
	cfg.Capacity = 32
	cfg.Events = 100
	cfg.Sink = path

	report, err := RunBench(context.Background(), cfg, quietLogging(t))
	require.NoError(t, err)
	require.Len(t, report.Handlers, 2)
	assert.Equal(t, "sink", report.Handlers[1].Name)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	r := bytes.NewReader(data)
	for i := 0; i < 100; i++ {
		f, err := sink.DecodeFrame(r)
		require.NoError(t, err)
		assert.EqualValues(t, i, f.Sequence)
	}
}

func TestRunBenchInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultConfig()
	cfg.Capacity = 16
	cfg.Events = 10
	report, err := RunBench(ctx, cfg, quietLogging(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Zero(t, report.Published)
}

func TestRunCommandOutput(t *testing.T) {
	for _, format := range []string{"text", "yaml"} {
		t.Run(format, func(t *testing.T) {
			var out bytes.Buffer
			cmd := NewRootCommand()
			cmd.SetOut(&out)
			cmd.SetArgs([]string{
				"run", "--format", format, "--log-file", filepath.Join(t.TempDir(), "bench.log"),
				"--capacity", "16", "--events", "50", "--consumers", "2",
			})
			require.NoError(t, cmd.Execute())

			if format == "text" {
				assert.Contains(t, out.String(), "published 50 events")
				assert.Contains(t, out.String(), "consumer-1")
				return
			}
			var r Report
			require.NoError(t, yaml.Unmarshal(out.Bytes(), &r))
			assert.EqualValues(t, 50, r.Published)
			assert.Len(t, r.Handlers, 2)
		})
	}
}
