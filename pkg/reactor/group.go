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
	"context"
	"sync"

	"go.uber.org/multierr"

	"github.com/tinyfix/tinyfix/pkg/errors"
	"github.com/tinyfix/tinyfix/pkg/pool/goroutine"
)

// Group runs several reactors, each on its own goroutine of a shared pool.
type Group struct {
	reactors []*Reactor
	pool     *goroutine.Pool
}

// NewGroup opens n reactors configured with opts.
func NewGroup(n int, opts ...Option) (g *Group, err error) {
	if n < 1 {
		return nil, errors.ErrEmptyGroup
	}
	pool, err := goroutine.New(n)
	if err != nil {
		return nil, err
	}
	g = &Group{pool: pool}
	for i := 0; i < n; i++ {
		r, err := Open(opts...)
		if err != nil {
			return nil, multierr.Append(err, g.Release())
		}
		g.reactors = append(g.reactors, r)
	}
	return g, nil
}

// Len returns the number of reactors.
func (g *Group) Len() int {
	return len(g.reactors)
}

// Reactor returns the i-th reactor.
func (g *Group) Reactor(i int) *Reactor {
	return g.reactors[i]
}

// Next picks the reactor for a descriptor, spreading descriptors by value.
func (g *Group) Next(fd int) *Reactor {
	if fd < 0 {
		fd = -fd
	}
	return g.reactors[fd%len(g.reactors)]
}

// Run runs every reactor until ctx is done. The first failing reactor
// stops the others, and all failures are returned together.
func (g *Group) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for _, r := range g.reactors {
		r := r
		wg.Add(1)
		err := g.pool.Submit(func() {
			defer wg.Done()
			if err := r.Run(ctx); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
				cancel()
			}
		})
		if err != nil {
			wg.Done()
			cancel()
			mu.Lock()
			errs = multierr.Append(errs, err)
			mu.Unlock()
		}
	}
	wg.Wait()
	return errs
}

// Release closes every reactor and the goroutine pool.
func (g *Group) Release() (err error) {
	for _, r := range g.reactors {
		err = multierr.Append(err, r.Close())
	}
	g.pool.Release()
	return
}
