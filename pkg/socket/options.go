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

package socket

import "github.com/tinyfix/tinyfix/pkg/logging"

// DefaultRecvBufferSize is the size of the receive region, 4MiB is plenty for
// the largest burst read at once.
const DefaultRecvBufferSize = 4 * 1024 * 1024

// Option is a function that will set up option.
type Option func(opts *Options)

func loadOptions(options ...Option) *Options {
	opts := &Options{RecvBufferSize: DefaultRecvBufferSize}
	for _, option := range options {
		option(opts)
	}
	if opts.RecvBufferSize < 1 {
		opts.RecvBufferSize = DefaultRecvBufferSize
	}
	if opts.NulTerminate && opts.RecvBufferSize < 2 {
		opts.RecvBufferSize = 2
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetDefaultLogger()
	}
	return opts
}

// Options are the components of a socket.
type Options struct {
	// RecvBufferSize is the size of the region Recv and RecvFrom read into.
	RecvBufferSize int

	// NulTerminate writes a zero byte after received data, one byte of the
	// region is kept for it.
	NulTerminate bool

	// Logger is the customized logger for logging info, if it is not set,
	// then socket will use the default logger powered by go.uber.org/zap.
	Logger logging.Logger
}

// WithRecvBufferSize sets the size of the receive region.
func WithRecvBufferSize(size int) Option {
	return func(opts *Options) {
		opts.RecvBufferSize = size
	}
}

// WithNulTerminate enables the zero byte after received data.
func WithNulTerminate(nul bool) Option {
	return func(opts *Options) {
		opts.NulTerminate = nul
	}
}

// WithLogger sets up a customized logger.
func WithLogger(logger logging.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}
