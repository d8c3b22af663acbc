// Copyright (c) 2026 The Tinyfix Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reactor

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// Stats holds the counters of one reactor.
type Stats struct {
	set        *metrics.Set
	polls      *metrics.Counter
	dispatches *metrics.Counter
	wakeups    *metrics.Counter
	errors     *metrics.Counter
	stale      *metrics.Counter
}

func newStats() *Stats {
	set := metrics.NewSet()
	return &Stats{
		set:        set,
		polls:      set.NewCounter("tinyfix_reactor_polls_total"),
		dispatches: set.NewCounter("tinyfix_reactor_dispatches_total"),
		wakeups:    set.NewCounter("tinyfix_reactor_wakeups_total"),
		errors:     set.NewCounter("tinyfix_reactor_errors_total"),
		stale:      set.NewCounter("tinyfix_reactor_stale_events_total"),
	}
}

// Polls returns how many waits were performed.
func (s *Stats) Polls() uint64 { return s.polls.Get() }

// Dispatches returns how many callbacks ran.
func (s *Stats) Dispatches() uint64 { return s.dispatches.Get() }

// Wakeups returns how many waits were interrupted by Wake.
func (s *Stats) Wakeups() uint64 { return s.wakeups.Get() }

// Errors returns how many multiplexer calls failed.
func (s *Stats) Errors() uint64 { return s.errors.Get() }

// StaleEvents returns how many events arrived for unregistered descriptors.
func (s *Stats) StaleEvents() uint64 { return s.stale.Get() }

// WritePrometheus writes the counters in Prometheus text format.
func (s *Stats) WritePrometheus(w io.Writer) {
	s.set.WritePrometheus(w)
}
