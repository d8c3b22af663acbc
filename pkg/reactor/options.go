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
	"time"

	"github.com/tinyfix/tinyfix/pkg/logging"
)

const (
	// DefaultEventBatchCap is the number of readiness events fetched by one wait.
	DefaultEventBatchCap = 8
)

// Option is a function that will set up option.
type Option func(opts *Options)

func loadOptions(options ...Option) *Options {
	opts := &Options{
		NonBlock:      true,
		EventBatchCap: DefaultEventBatchCap,
		Interest:      ReadEvents,
	}
	for _, option := range options {
		option(opts)
	}
	if opts.EventBatchCap < 1 {
		opts.EventBatchCap = DefaultEventBatchCap
	}
	if opts.Interest == 0 {
		opts.Interest = ReadEvents
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetDefaultLogger()
	}
	return opts
}

// Options are configurations for a Reactor.
type Options struct {
	// NonBlock makes Poll return at once when nothing is ready,
	// otherwise Poll blocks until a descriptor is ready or the reactor is woken up.
	NonBlock bool

	// WaitTimeout overrides NonBlock when it is not zero,
	// a negative value blocks without a time limit.
	WaitTimeout time.Duration

	// EventBatchCap is the capacity of the event batch filled by one wait.
	EventBatchCap int

	// Interest is the readiness mask every descriptor is registered with.
	Interest IOEvent

	// DispatchFirstOnly makes Poll run only the first ready callback of a batch
	// and leave the others to the next wait, as level-triggered epoll reports them again.
	DispatchFirstOnly bool

	// Logger is the customized logger for logging info, if it is not set,
	// then reactor will use the default logger powered by go.uber.org/zap.
	Logger logging.Logger
}

// WithOptions sets up all options.
func WithOptions(options Options) Option {
	return func(opts *Options) {
		*opts = options
	}
}

// WithNonBlock picks between returning at once and blocking when nothing is ready.
func WithNonBlock(nonBlock bool) Option {
	return func(opts *Options) {
		opts.NonBlock = nonBlock
	}
}

// WithWaitTimeout bounds how long Poll waits.
func WithWaitTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.WaitTimeout = timeout
	}
}

// WithEventBatchCap sets the capacity of the event batch.
func WithEventBatchCap(n int) Option {
	return func(opts *Options) {
		opts.EventBatchCap = n
	}
}

// WithInterest sets the readiness mask descriptors are registered with.
func WithInterest(events IOEvent) Option {
	return func(opts *Options) {
		opts.Interest = events
	}
}

// WithDispatchFirstOnly limits Poll to one callback per batch.
func WithDispatchFirstOnly(firstOnly bool) Option {
	return func(opts *Options) {
		opts.DispatchFirstOnly = firstOnly
	}
}

// WithLogger sets up a customized logger.
func WithLogger(logger logging.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// waitMillis converts the configured wait mode into an epoll timeout.
func waitMillis(nonBlock bool, timeout time.Duration) int {
	switch {
	case timeout < 0:
		return -1
	case timeout > 0:
		if ms := timeout.Milliseconds(); ms > 0 {
			return int(ms)
		}
		return 1
	case nonBlock:
		return 0
	default:
		return -1
	}
}
