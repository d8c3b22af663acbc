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

/*
Package reactor multiplexes readiness notifications over raw file
descriptors and dispatches the callback registered for each ready one.

The Reactor wraps epoll on Linux. It knows nothing about sockets, callers
hand it a descriptor and a zero-argument callback:

	r, err := reactor.Open(reactor.WithNonBlock(false))
	if err != nil {
		// handle error
	}
	defer r.Close()

	reg, err := r.Register(sock.FD(), func() {
		n, _ := sock.Recv()
		// process sock.Buffer()[:n]
	})
	if err != nil {
		// handle error
	}
	sock.Track(reg) // deregistered by sock.Release before the fd is closed

	for {
		if _, err := r.Poll(); err != nil {
			break
		}
	}

Callbacks run synchronously on the polling goroutine. A reactor must be
polled by a single goroutine at a time, Register and Deregister may be
called from anywhere. Several reactors can be driven at once with a Group.
*/
package reactor
