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

//go:build linux

package socket

import (
	"net"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"

	errorx "github.com/tinyfix/tinyfix/pkg/errors"
	bsPool "github.com/tinyfix/tinyfix/pkg/pool/byteslice"
)

// TCPSocket is a stream socket, either listening, connecting or accepted.
type TCPSocket struct {
	Socket
}

// NewTCPSocket returns a TCP socket, call Create to open its descriptor.
func NewTCPSocket(cfg Config, opts ...Option) *TCPSocket {
	return &TCPSocket{Socket: newSocket(unix.SOCK_STREAM, cfg, opts...)}
}

// Create opens the descriptor and applies the reuse-address and no-delay flags
// of the configuration. On failure nothing stays open.
func (t *TCPSocket) Create() error {
	if err := t.create(); err != nil {
		return err
	}
	if t.cfg.ReuseAddr {
		if err := t.SetReuseAddr(); err != nil {
			return multierr.Append(err, t.Release())
		}
	}
	if err := t.SetNoDelay(); err != nil {
		return multierr.Append(err, t.Release())
	}
	return nil
}

// SetNoDelay disables Nagle's algorithm when the configuration asks for it.
func (t *TCPSocket) SetNoDelay() error {
	if t.fd < 0 {
		return errorx.ErrSocketNotCreated
	}
	if !t.cfg.NoDelay {
		return nil
	}
	if err := setNoDelay(t.fd, true); err != nil {
		return t.fail("setsockopt", err)
	}
	return nil
}

// Listen marks the bound socket as accepting connections.
func (t *TCPSocket) Listen() error {
	if t.fd < 0 {
		return errorx.ErrSocketNotCreated
	}
	if err := unix.Listen(t.fd, t.cfg.Backlog); err != nil {
		return t.fail("listen", err)
	}
	return nil
}

// Connect connects to the configured address. A non-blocking connect that is
// still in progress is not an error, the descriptor turns writable once done.
func (t *TCPSocket) Connect() error {
	if t.fd < 0 {
		return errorx.ErrSocketNotCreated
	}
	if err := unix.Connect(t.fd, t.addr); err != nil && err != unix.EINPROGRESS {
		return t.fail("connect", err)
	}
	return nil
}

func (t *TCPSocket) accept() (int, unix.Sockaddr, error) {
	if t.fd < 0 {
		return -1, nil, errorx.ErrSocketNotCreated
	}
	flags := unix.SOCK_CLOEXEC
	if t.cfg.NonBlock {
		flags |= unix.SOCK_NONBLOCK
	}
	nfd, sa, err := unix.Accept4(t.fd, flags)
	if err != nil {
		if transient(err) {
			return -1, nil, nil
		}
		return -1, nil, t.fail("accept", err)
	}
	return nfd, sa, nil
}

// Accept takes a pending connection and returns its descriptor, which the
// caller owns. No pending connection on a non-blocking socket returns -1 and
// no error. Accepted descriptors inherit the non-blocking flag of the configuration.
func (t *TCPSocket) Accept() (int, error) {
	nfd, _, err := t.accept()
	return nfd, err
}

// AcceptAddr is Accept that also stores the address of the peer in peer.
func (t *TCPSocket) AcceptAddr(peer *net.TCPAddr) (int, error) {
	nfd, sa, err := t.accept()
	if nfd >= 0 && peer != nil {
		if addr := SockaddrToTCPAddr(sa); addr != nil {
			*peer = *addr
		}
	}
	return nfd, err
}

// AcceptSocket takes a pending connection and wraps it in a socket sharing the
// configuration and options of t. It returns nil and no error when no
// connection is pending.
func (t *TCPSocket) AcceptSocket() (*TCPSocket, error) {
	nfd, sa, err := t.accept()
	if nfd < 0 {
		return nil, err
	}
	child := &TCPSocket{Socket: Socket{
		fd:     nfd,
		sotype: unix.SOCK_STREAM,
		cfg:    t.cfg,
		opts:   t.opts,
		logger: t.logger,
		buf:    bsPool.Get(t.opts.RecvBufferSize),
	}}
	if sa4, ok := sa.(*unix.SockaddrInet4); ok {
		child.addr = sa4
	}
	if err := child.SetNoDelay(); err != nil {
		return nil, multierr.Append(err, child.Release())
	}
	return child, nil
}
