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
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/tinyfix/tinyfix/pkg/errors"
	"github.com/tinyfix/tinyfix/pkg/logging"
)

// Callback is run when its descriptor becomes ready.
type Callback func()

// Reactor dispatches readiness of registered descriptors to their callbacks.
type Reactor struct {
	opts    *Options
	logger  logging.Logger
	poller  *poller
	msec    atomic.Int32
	table   *xsync.MapOf[int, *Registration]
	stats   *Stats
	polling atomic.Bool
	closed  atomic.Bool
}

// Open creates a reactor and its multiplexer.
func Open(opts ...Option) (*Reactor, error) {
	options := loadOptions(opts...)
	p, err := openPoller(options.EventBatchCap)
	if err != nil {
		options.Logger.Errorf("failed to open reactor: %v", err)
		return nil, err
	}
	r := &Reactor{
		opts:   options,
		logger: options.Logger,
		poller: p,
		table:  xsync.NewMapOf[int, *Registration](),
		stats:  newStats(),
	}
	r.msec.Store(int32(waitMillis(options.NonBlock, options.WaitTimeout)))
	return r, nil
}

// FD returns the descriptor of the underlying multiplexer.
func (r *Reactor) FD() int {
	return r.poller.fd
}

// Len returns the number of registered descriptors.
func (r *Reactor) Len() int {
	return r.table.Size()
}

// Stats returns the counters of this reactor.
func (r *Reactor) Stats() *Stats {
	return r.stats
}

// SetWaitTimeout changes how long Poll waits: zero returns at once,
// a negative duration blocks until something is ready.
func (r *Reactor) SetWaitTimeout(timeout time.Duration) {
	r.msec.Store(int32(waitMillis(true, timeout)))
}

// Register watches fd and runs cb whenever it is ready. The descriptor is
// either both in the multiplexer and in the callback table, or in neither.
func (r *Reactor) Register(fd int, cb Callback) (*Registration, error) {
	if fd < 0 {
		r.logger.Errorf("reactor register fd error: %d", fd)
		return nil, errors.ErrInvalidDescriptor
	}
	if cb == nil {
		return nil, errors.ErrNilCallback
	}
	if r.closed.Load() {
		return nil, errors.ErrReactorClosed
	}

	reg := &Registration{r: r, fd: fd, cb: cb}
	if _, loaded := r.table.LoadOrStore(fd, reg); loaded {
		return nil, errors.ErrDescriptorRegistered
	}
	if err := r.poller.add(fd, r.opts.Interest); err != nil {
		r.table.Delete(fd)
		r.stats.errors.Inc()
		r.logger.Errorf("reactor add fd failed. fd: %d, error: %v", fd, err)
		return nil, err
	}
	r.logger.Debugf("reactor add fd success. fd: %d", fd)
	return reg, nil
}

// Deregister stops watching fd. When the multiplexer refuses, nothing changes.
func (r *Reactor) Deregister(fd int) error {
	if fd < 0 {
		r.logger.Errorf("reactor deregister fd error: %d", fd)
		return errors.ErrInvalidDescriptor
	}
	if r.closed.Load() {
		return errors.ErrReactorClosed
	}
	if _, ok := r.table.Load(fd); !ok {
		r.stats.errors.Inc()
		r.logger.Errorf("reactor remove fd failed. fd: %d, error: %v", fd, errors.ErrDescriptorNotRegistered)
		return errors.ErrDescriptorNotRegistered
	}
	if err := r.poller.del(fd); err != nil {
		r.stats.errors.Inc()
		r.logger.Errorf("reactor remove fd failed. fd: %d, error: %v", fd, err)
		return err
	}
	if reg, ok := r.table.LoadAndDelete(fd); ok {
		reg.done.Store(true)
	}
	return nil
}

// Poll waits once for readiness and runs the callbacks of the ready
// descriptors, it returns how many callbacks ran.
//
// A timeout or a signal interrupting the wait is not an error and dispatches
// nothing. By default the whole batch is dispatched, see WithDispatchFirstOnly.
func (r *Reactor) Poll() (int, error) {
	if r.closed.Load() {
		return 0, errors.ErrReactorClosed
	}
	if !r.polling.CompareAndSwap(false, true) {
		return 0, errors.ErrReentrantPoll
	}
	defer r.polling.Store(false)

	r.stats.polls.Inc()
	n, err := r.poller.wait(int(r.msec.Load()))
	if err != nil {
		r.stats.errors.Inc()
		r.logger.Errorf("exit from reactor: %v", err)
		return 0, err
	}

	dispatched := 0
	for i := 0; i < n; i++ {
		fd, wakeup := r.poller.event(i)
		if wakeup {
			r.poller.drainWakeup()
			r.stats.wakeups.Inc()
			continue
		}
		reg, ok := r.table.Load(fd)
		if !ok {
			// Deregistered after the wait returned.
			r.stats.stale.Inc()
			r.logger.Debugf("reactor skips event of unknown fd: %d", fd)
			continue
		}
		reg.cb()
		dispatched++
		if r.opts.DispatchFirstOnly {
			break
		}
	}
	r.stats.dispatches.Add(dispatched)
	return dispatched, nil
}

// Wake makes a blocked Poll return, it is safe to call from any goroutine.
func (r *Reactor) Wake() error {
	if r.closed.Load() {
		return errors.ErrReactorClosed
	}
	return r.poller.wakeup()
}

// Run polls until ctx is done or polling fails. Cancelling ctx wakes up a
// blocked wait, so Run also returns promptly in blocking mode.
func (r *Reactor) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = r.Wake()
	})
	defer stop()

	for ctx.Err() == nil {
		if _, err := r.Poll(); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the multiplexer. Registered descriptors are not closed,
// they belong to their sockets.
func (r *Reactor) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.table.Range(func(fd int, reg *Registration) bool {
		reg.done.Store(true)
		return true
	})
	r.table.Clear()
	return r.poller.close()
}

// Registration ties a descriptor to the reactor watching it. Closing it
// deregisters the descriptor, which is why sockets accept it in Track:
// releasing the socket then deregisters before the descriptor is closed.
type Registration struct {
	r    *Reactor
	fd   int
	cb   Callback
	done atomic.Bool
}

// FD returns the registered descriptor.
func (reg *Registration) FD() int {
	return reg.fd
}

// Close deregisters the descriptor, it is idempotent and never removes a
// newer registration of the same descriptor.
func (reg *Registration) Close() error {
	if reg.done.Load() {
		return nil
	}
	if cur, ok := reg.r.table.Load(reg.fd); !ok || cur != reg {
		reg.done.Store(true)
		return nil
	}
	if reg.r.closed.Load() {
		return nil
	}
	return reg.r.Deregister(reg.fd)
}
