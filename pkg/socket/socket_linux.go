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
	"errors"
	"io"
	"os"

	"github.com/bassosimone/errclass"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"

	errorx "github.com/tinyfix/tinyfix/pkg/errors"
	"github.com/tinyfix/tinyfix/pkg/logging"
	bsPool "github.com/tinyfix/tinyfix/pkg/pool/byteslice"
)

// Socket is the part shared by every socket kind: the descriptor, its
// address, the receive region and the resources released with it.
type Socket struct {
	fd      int
	sotype  int
	cfg     Config
	addr    *unix.SockaddrInet4
	opts    *Options
	logger  logging.Logger
	buf     []byte
	tracked []io.Closer
}

func newSocket(sotype int, cfg Config, opts ...Option) Socket {
	options := loadOptions(opts...)
	return Socket{fd: -1, sotype: sotype, cfg: cfg, opts: options, logger: options.Logger}
}

// FD returns the descriptor, -1 when the socket is not created.
func (s *Socket) FD() int {
	return s.fd
}

// Config returns the configuration of the socket.
func (s *Socket) Config() Config {
	return s.cfg
}

// Addr returns the address the socket binds or connects to, nil before Create.
func (s *Socket) Addr() *unix.SockaddrInet4 {
	return s.addr
}

// Buffer returns the receive region, data read by Recv starts at index 0.
func (s *Socket) Buffer() []byte {
	return s.buf
}

// create opens the descriptor and allocates the receive region.
func (s *Socket) create() error {
	if s.fd >= 0 {
		return errorx.ErrSocketCreated
	}
	addr, err := s.cfg.sockaddr()
	if err != nil {
		s.logger.Errorf("inet_pton error for %q: %v", s.cfg.IP, err)
		return err
	}
	fd, err := unix.Socket(unix.AF_INET, s.sotype|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return s.fail("socket", err)
	}
	s.fd, s.addr = fd, addr
	if s.buf == nil {
		s.buf = bsPool.Get(s.opts.RecvBufferSize)
	}
	return nil
}

// fail wraps and logs a failed system call.
func (s *Socket) fail(op string, err error) error {
	var se *os.SyscallError
	if !errors.As(err, &se) {
		err = os.NewSyscallError(op, err)
	}
	var errno unix.Errno
	errors.As(err, &errno)
	s.logger.Errorf("%s error: %v. (fd: %d, errno: %d, class: %s)", op, err, s.fd, int(errno), errclass.New(err))
	return err
}

// transient reports the errors that mean "try again later".
func transient(err error) bool {
	return err == unix.EAGAIN || err == unix.EINTR
}

// Bind binds the socket to its configured address.
func (s *Socket) Bind() error {
	if s.fd < 0 {
		return errorx.ErrSocketNotCreated
	}
	if err := unix.Bind(s.fd, s.addr); err != nil {
		return s.fail("bind", err)
	}
	return nil
}

// SetNonBlock puts the descriptor in non-blocking mode when the configuration
// asks for it. On failure the socket is released.
func (s *Socket) SetNonBlock() error {
	if s.fd < 0 {
		return errorx.ErrSocketNotCreated
	}
	if !s.cfg.NonBlock {
		return nil
	}
	if err := unix.SetNonblock(s.fd, true); err != nil {
		err = s.fail("fcntl", err)
		return multierr.Append(err, s.Release())
	}
	return nil
}

// SetReuseAddr lets the address be bound again right after the socket is closed.
func (s *Socket) SetReuseAddr() error {
	if s.fd < 0 {
		return errorx.ErrSocketNotCreated
	}
	if err := setReuseAddr(s.fd, true); err != nil {
		return s.fail("setsockopt", err)
	}
	return nil
}

// SetLinger sets what happens to unsent data on close, zero resets the
// connection instead of waiting in TIME_WAIT.
func (s *Socket) SetLinger(sec int) error {
	if s.fd < 0 {
		return errorx.ErrSocketNotCreated
	}
	if err := setLinger(s.fd, sec); err != nil {
		return s.fail("setsockopt", err)
	}
	return nil
}

// Send writes p to the connected peer. A full send buffer of a non-blocking
// socket returns 0 and no error.
func (s *Socket) Send(p []byte) (int, error) {
	if s.fd < 0 {
		return 0, errorx.ErrSocketNotCreated
	}
	n, err := unix.SendmsgN(s.fd, p, nil, nil, unix.MSG_NOSIGNAL)
	if err != nil {
		if transient(err) {
			return 0, nil
		}
		return 0, s.fail("send", err)
	}
	return n, nil
}

// Recv reads into the receive region and returns how many bytes were read.
// Nothing to read on a non-blocking socket returns 0 and no error, an
// orderly shutdown of a stream peer returns io.EOF.
func (s *Socket) Recv() (int, error) {
	if s.fd < 0 {
		return 0, errorx.ErrSocketNotCreated
	}
	n, _, err := unix.Recvfrom(s.fd, s.window(), 0)
	return s.received(n, err)
}

func (s *Socket) window() []byte {
	if s.opts.NulTerminate {
		return s.buf[:len(s.buf)-1]
	}
	return s.buf
}

func (s *Socket) received(n int, err error) (int, error) {
	if err != nil {
		if transient(err) {
			return 0, nil
		}
		return 0, s.fail("recv", err)
	}
	if n == 0 && s.sotype == unix.SOCK_STREAM {
		s.logger.Warnf("recv error: connection closed by peer. (fd: %d)", s.fd)
		return 0, io.EOF
	}
	if s.opts.NulTerminate {
		s.buf[n] = 0
	}
	return n, nil
}

// Track hands c to the socket, it is closed by Release before the descriptor.
// Pass the reactor registration of the descriptor here.
func (s *Socket) Track(c io.Closer) {
	s.tracked = append(s.tracked, c)
}

func (s *Socket) untrack(c io.Closer) {
	for i := range s.tracked {
		if s.tracked[i] == c {
			s.tracked = append(s.tracked[:i], s.tracked[i+1:]...)
			return
		}
	}
}

// Release closes tracked resources, shuts the descriptor down and closes it,
// then returns the receive region to the pool. Releasing twice is a no-op.
func (s *Socket) Release() (err error) {
	for i := len(s.tracked) - 1; i >= 0; i-- {
		err = multierr.Append(err, s.tracked[i].Close())
	}
	s.tracked = nil
	if s.fd >= 0 {
		_ = unix.Shutdown(s.fd, unix.SHUT_RDWR)
		if e := unix.Close(s.fd); e != nil {
			err = multierr.Append(err, s.fail("close", e))
		}
		s.fd = -1
	}
	if s.buf != nil {
		bsPool.Put(s.buf)
		s.buf = nil
	}
	return
}
