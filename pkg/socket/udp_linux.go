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
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"

	errorx "github.com/tinyfix/tinyfix/pkg/errors"
)

// UDPSocket is a datagram socket.
type UDPSocket struct {
	Socket
}

// NewUDPSocket returns a UDP socket, call Create to open its descriptor.
func NewUDPSocket(cfg Config, opts ...Option) *UDPSocket {
	return &UDPSocket{Socket: newSocket(unix.SOCK_DGRAM, cfg, opts...)}
}

// Create opens the descriptor and sets SO_REUSEADDR when the configuration
// asks for it. On failure nothing stays open.
func (u *UDPSocket) Create() error {
	if err := u.create(); err != nil {
		return err
	}
	if u.cfg.ReuseAddr {
		if err := u.SetReuseAddr(); err != nil {
			return multierr.Append(err, u.Release())
		}
	}
	return nil
}

// SendTo sends p as one datagram to sa. A full send buffer of a non-blocking
// socket returns 0 and no error.
func (u *UDPSocket) SendTo(sa unix.Sockaddr, p []byte) (int, error) {
	if u.fd < 0 {
		return 0, errorx.ErrSocketNotCreated
	}
	n, err := unix.SendmsgN(u.fd, p, nil, sa, 0)
	if err != nil {
		if transient(err) {
			return 0, nil
		}
		return 0, u.fail("sendto", err)
	}
	return n, nil
}

// RecvFrom reads one datagram into the receive region and returns its length
// and sender. Empty datagrams are valid and return 0 with the sender set.
// Nothing to read on a non-blocking socket returns 0, a nil sender and no error.
func (u *UDPSocket) RecvFrom() (int, unix.Sockaddr, error) {
	if u.fd < 0 {
		return 0, nil, errorx.ErrSocketNotCreated
	}
	n, from, err := unix.Recvfrom(u.fd, u.window(), 0)
	if err != nil {
		from = nil
	}
	n, err = u.received(n, err)
	return n, from, err
}
