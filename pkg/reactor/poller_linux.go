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

package reactor

import (
	"encoding/binary"
	"os"

	"golang.org/x/sys/unix"
)

// IOEvent is the readiness interest of registered descriptors.
type IOEvent = uint32

const (
	// ReadEvents are the events of a readable descriptor.
	ReadEvents IOEvent = unix.EPOLLIN | unix.EPOLLPRI
	// WriteEvents are the events of a writable descriptor.
	WriteEvents IOEvent = unix.EPOLLOUT
	// ErrEvents are reported whatever the interest.
	ErrEvents IOEvent = unix.EPOLLERR | unix.EPOLLHUP | unix.EPOLLRDHUP
)

// poller is a thin epoll wrapper with an eventfd used to interrupt waits.
type poller struct {
	fd     int
	wfd    int
	wbuf   [8]byte
	rbuf   [8]byte
	events []unix.EpollEvent
}

func openPoller(batchCap int) (p *poller, err error) {
	p = &poller{wfd: -1, events: make([]unix.EpollEvent, batchCap)}
	if p.fd, err = unix.EpollCreate1(unix.EPOLL_CLOEXEC); err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}
	if p.wfd, err = unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC); err != nil {
		_ = unix.Close(p.fd)
		return nil, os.NewSyscallError("eventfd", err)
	}
	if err = unix.EpollCtl(p.fd, unix.EPOLL_CTL_ADD, p.wfd,
		&unix.EpollEvent{Fd: int32(p.wfd), Events: unix.EPOLLIN}); err != nil {
		_ = unix.Close(p.wfd)
		_ = unix.Close(p.fd)
		return nil, os.NewSyscallError("epoll_ctl add", err)
	}
	binary.NativeEndian.PutUint64(p.wbuf[:], 1)
	return p, nil
}

func (p *poller) add(fd int, ev IOEvent) error {
	return os.NewSyscallError("epoll_ctl add",
		unix.EpollCtl(p.fd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{Fd: int32(fd), Events: ev}))
}

func (p *poller) del(fd int) error {
	return os.NewSyscallError("epoll_ctl del", unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, nil))
}

// wait returns the number of ready events, an interrupted wait reports none.
func (p *poller) wait(msec int) (int, error) {
	n, err := unix.EpollWait(p.fd, p.events, msec)
	if err == unix.EINTR {
		return 0, nil
	}
	if err != nil {
		return 0, os.NewSyscallError("epoll_wait", err)
	}
	return n, nil
}

func (p *poller) event(i int) (fd int, wakeup bool) {
	fd = int(p.events[i].Fd)
	return fd, fd == p.wfd
}

func (p *poller) wakeup() error {
	if _, err := unix.Write(p.wfd, p.wbuf[:]); err != nil && err != unix.EAGAIN {
		return os.NewSyscallError("write", err)
	}
	return nil
}

func (p *poller) drainWakeup() {
	_, _ = unix.Read(p.wfd, p.rbuf[:])
}

func (p *poller) close() error {
	if err := os.NewSyscallError("close", unix.Close(p.fd)); err != nil {
		return err
	}
	return os.NewSyscallError("close", unix.Close(p.wfd))
}
