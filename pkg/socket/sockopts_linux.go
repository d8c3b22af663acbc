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
	"net/netip"
	"os"

	"golang.org/x/sys/unix"
)

func boolint(b bool) int {
	if b {
		return 1
	}
	return 0
}

// setNoDelay turns Nagle's algorithm off (on == true) or back on.
func setNoDelay(fd int, on bool) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, boolint(on)))
}

// setReuseAddr toggles SO_REUSEADDR.
func setReuseAddr(fd int, on bool) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, boolint(on)))
}

// setLinger sets the behavior of close on unsent data.
//
// If sec < 0, close returns at once and the data is sent in the background.
//
// If sec == 0, close discards unsent data and resets the connection,
// so the local end never lingers in TIME_WAIT.
//
// If sec > 0, close waits up to sec seconds for the data to be sent.
func setLinger(fd, sec int) error {
	var l unix.Linger
	if sec >= 0 {
		l.Onoff = 1
		l.Linger = int32(sec)
	}
	return os.NewSyscallError("setsockopt", unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, &l))
}

// setNonblock toggles O_NONBLOCK.
func setNonblock(fd int, on bool) error {
	return os.NewSyscallError("fcntl", unix.SetNonblock(fd, on))
}

// setMembership adds (join == true) or drops an any-source membership of group on the
// interface owning iface.
func setMembership(fd int, group, iface netip.Addr, join bool) error {
	opt := unix.IP_DROP_MEMBERSHIP
	if join {
		opt = unix.IP_ADD_MEMBERSHIP
	}
	mreq := &unix.IPMreq{Multiaddr: group.As4(), Interface: iface.As4()}
	return os.NewSyscallError("setsockopt", unix.SetsockoptIPMreq(fd, unix.IPPROTO_IP, opt, mreq))
}
