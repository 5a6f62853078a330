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
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/marketpulse/disruptor"
)

// Report is the outcome of one benchmark run.
type Report struct {
	Engine       string          `yaml:"engine"`
	Capacity     int64           `yaml:"capacity"`
	ProducerMode string          `yaml:"producer_mode"`
	Visibility   string          `yaml:"visibility"`
	Producers    int             `yaml:"producers"`
	Published    uint64          `yaml:"published"`
	Cursor       int64           `yaml:"cursor"`
	Elapsed      string          `yaml:"elapsed"`
	PublishRate  float64         `yaml:"publish_rate"`
	Handlers     []HandlerReport `yaml:"handlers"`
}

// HandlerReport is the outcome of one handler.
type HandlerReport struct {
	ID           int     `yaml:"id"`
	Name         string  `yaml:"name"`
	State        string  `yaml:"state"`
	Processed    uint64  `yaml:"processed"`
	Errors       uint64  `yaml:"errors"`
	LastSequence int64   `yaml:"last_sequence"`
	Throughput   float64 `yaml:"throughput"`
	// Gaps counts non-consecutive sequences seen by a checking consumer.
	Gaps    uint64 `yaml:"gaps"`
	Failure string `yaml:"failure,omitempty"`
}

func newReport(cfg BenchConfig, es disruptor.EngineStats, hs []disruptor.ProcessingStats, elapsed time.Duration) *Report {
	r := &Report{
		Engine:       es.Name,
		Capacity:     es.Capacity,
		ProducerMode: cfg.ProducerMode,
		Visibility:   cfg.Visibility,
		Producers:    cfg.Producers,
		Published:    es.EventsPublished,
		Cursor:       es.Cursor,
		Elapsed:      elapsed.String(),
		Handlers:     make([]HandlerReport, len(hs)),
	}
	if elapsed > 0 {
		r.PublishRate = float64(es.EventsPublished) / elapsed.Seconds()
	}
	for i, s := range hs {
		r.Handlers[i] = HandlerReport{
			ID:           s.ID,
			Name:         s.Name,
			State:        s.State.String(),
			Processed:    s.EventsProcessed,
			Errors:       s.Errors,
			LastSequence: s.LastSequence,
			Throughput:   s.Throughput,
		}
		if s.Failure != nil {
			r.Handlers[i].Failure = s.Failure.Error()
		}
	}
	return r
}

// WriteReport renders r in the given format.
func WriteReport(w io.Writer, format string, r *Report) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}

	fmt.Fprintf(w, "engine %q: capacity %d, %s producer x%d, %s visibility\n",
		r.Engine, r.Capacity, r.ProducerMode, r.Producers, r.Visibility)
	fmt.Fprintf(w, "published %d events in %s (%.0f events/s), cursor %d\n\n",
		r.Published, r.Elapsed, r.PublishRate, r.Cursor)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATE\tPROCESSED\tERRORS\tLAST\tGAPS\tEVENTS/S")
	for _, h := range r.Handlers {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%.0f\n",
			h.ID, h.Name, h.State, h.Processed, h.Errors, h.LastSequence, h.Gaps, h.Throughput)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, h := range r.Handlers {
		if h.Failure != "" {
			fmt.Fprintf(w, "handler %d failed: %s\n", h.ID, h.Failure)
		}
	}
	return nil
}
