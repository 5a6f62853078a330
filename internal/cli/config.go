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
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/marketpulse/disruptor"
	"github.com/marketpulse/disruptor/pkg/math"
	"github.com/marketpulse/disruptor/pkg/wait"
)

// BenchConfig describes one benchmark run. It can be loaded from YAML and is
// then overridden by explicitly set flags.
type BenchConfig struct {
	Name         string `yaml:"name"`
	Capacity     int64  `yaml:"capacity"`
	Consumers    int    `yaml:"consumers"`
	Events       int    `yaml:"events"`
	Producers    int    `yaml:"producers"`
	ProducerMode string `yaml:"producer_mode"`
	Visibility   string `yaml:"visibility"`
	Wait         string `yaml:"wait"`
	Idle         string `yaml:"idle"`
	LockOSThread bool   `yaml:"lock_os_thread"`
	// Sink, if set, adds a frame sink writing to this path; "-" discards frames.
	Sink string `yaml:"sink"`
}

// DefaultConfig returns the configuration used when neither a file nor flags
// say otherwise.
func DefaultConfig() BenchConfig {
	return BenchConfig{
		Name:         "bench",
		Capacity:     1 << 16,
		Consumers:    1,
		Events:       1_000_000,
		Producers:    1,
		ProducerMode: disruptor.SingleProducer.String(),
		Visibility:   disruptor.VisibilityIndependent.String(),
		Wait:         "backoff",
		Idle:         "yield",
	}
}

// LoadConfig reads path over the defaults.
func LoadConfig(path string) (BenchConfig, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the run parameters.
func (c BenchConfig) Validate() error {
	if !math.IsPowerOfTwo(c.Capacity) {
		return fmt.Errorf("capacity %d is not a power of two", c.Capacity)
	}
	if c.Consumers < 1 {
		return fmt.Errorf("consumers must be at least 1, got %d", c.Consumers)
	}
	if c.Producers < 1 {
		return fmt.Errorf("producers must be at least 1, got %d", c.Producers)
	}
	if c.Events < 0 {
		return fmt.Errorf("events must not be negative, got %d", c.Events)
	}
	if _, err := c.producerMode(); err != nil {
		return err
	}
	if _, err := c.visibility(); err != nil {
		return err
	}
	if _, ok := wait.Parse(c.Wait); !ok {
		return fmt.Errorf("unknown wait strategy %q", c.Wait)
	}
	if _, ok := wait.Parse(c.Idle); !ok {
		return fmt.Errorf("unknown idle strategy %q", c.Idle)
	}
	return nil
}

func (c BenchConfig) producerMode() (disruptor.ProducerMode, error) {
	switch c.ProducerMode {
	case "", "single":
		return disruptor.SingleProducer, nil
	case "multi":
		return disruptor.MultiProducer, nil
	}
	return 0, fmt.Errorf("unknown producer mode %q: must be single or multi", c.ProducerMode)
}

func (c BenchConfig) visibility() (disruptor.Visibility, error) {
	switch c.Visibility {
	case "", "independent":
		return disruptor.VisibilityIndependent, nil
	case "lockstep":
		return disruptor.VisibilityLockstep, nil
	}
	return 0, fmt.Errorf("unknown visibility %q: must be independent or lockstep", c.Visibility)
}
