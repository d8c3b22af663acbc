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
	"net/netip"
	"os"

	"go.uber.org/multierr"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	errorx "github.com/tinyfix/tinyfix/pkg/errors"
)

// MulticastSocket is a UDP socket receiving a multicast group, optionally
// from a single source.
type MulticastSocket struct {
	UDPSocket
	mcfg MulticastConfig

	joined bool
	group  netip.Addr
	source netip.Addr
	iface  netip.Addr
	// pc holds the membership of a source-filtered join.
	pc *ipv4.PacketConn
}

// NewMulticastSocket returns a multicast socket, call Create to open its descriptor.
func NewMulticastSocket(cfg MulticastConfig, opts ...Option) *MulticastSocket {
	return &MulticastSocket{
		UDPSocket: UDPSocket{Socket: newSocket(unix.SOCK_DGRAM, cfg.Config, opts...)},
		mcfg:      cfg,
	}
}

// MulticastConfig returns the configuration of the socket.
func (m *MulticastSocket) MulticastConfig() MulticastConfig {
	return m.mcfg
}

// Create opens the descriptor with SO_REUSEADDR set, so several receivers can
// bind the group port. On failure nothing stays open.
func (m *MulticastSocket) Create() error {
	m.joined, m.pc = false, nil
	if err := m.create(); err != nil {
		return err
	}
	if err := m.SetReuseAddr(); err != nil {
		return multierr.Append(err, m.Release())
	}
	return nil
}

// JoinMulticastGroup joins the configured group, from any source (IGMPv2) when
// no source is configured, from that source only (IGMPv3) otherwise. On
// failure the socket is released.
func (m *MulticastSocket) JoinMulticastGroup() (err error) {
	if m.fd < 0 {
		return errorx.ErrSocketNotCreated
	}
	if m.joined {
		return nil
	}
	defer func() {
		if err != nil {
			m.logger.Errorf("join multicast group failed: %v. (group: %s, source: %s, interface: %s)",
				err, m.mcfg.Group(), m.mcfg.SourceIP, m.mcfg.InterfaceIP)
			err = multierr.Append(err, m.Release())
		}
	}()

	if m.group, err = parseIPv4(m.mcfg.Group()); err != nil {
		return err
	}
	if !m.group.IsMulticast() {
		return errorx.ErrNotMulticastGroup
	}
	if m.iface, err = parseIPv4(m.mcfg.InterfaceIP); err != nil {
		return err
	}
	if m.mcfg.SourceIP == "" {
		m.logger.Debugf("fd %d joins %s from any source (IGMPv2)", m.fd, m.group)
		if err = setMembership(m.fd, m.group, m.iface, true); err != nil {
			return err
		}
	} else {
		if m.source, err = parseIPv4(m.mcfg.SourceIP); err != nil {
			return err
		}
		m.logger.Debugf("fd %d joins %s from %s (IGMPv3)", m.fd, m.group, m.source)
		if err = m.joinSource(); err != nil {
			return err
		}
	}
	m.joined = true
	m.logger.Infof("%d: add membership: %s port: %d", m.fd, m.group, m.cfg.Port)
	return nil
}

// joinSource joins through a duplicate of the descriptor: the membership
// belongs to the socket, so it holds for every descriptor of it.
func (m *MulticastSocket) joinSource() error {
	var ifi *net.Interface
	if !m.iface.IsUnspecified() {
		var err error
		if ifi, err = interfaceByIP(m.iface); err != nil {
			return err
		}
	}
	dup, err := unix.FcntlInt(uintptr(m.fd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return os.NewSyscallError("fcntl", err)
	}
	f := os.NewFile(uintptr(dup), "multicast")
	c, err := net.FilePacketConn(f)
	_ = f.Close()
	if err != nil {
		return err
	}
	pc := ipv4.NewPacketConn(c)
	group := &net.UDPAddr{IP: m.group.AsSlice()}
	source := &net.UDPAddr{IP: m.source.AsSlice()}
	if err = pc.JoinSourceSpecificGroup(ifi, group, source); err != nil {
		_ = pc.Close()
		return err
	}
	// The runtime made the shared file description non-blocking.
	if !m.cfg.NonBlock {
		if err = setNonblock(m.fd, false); err != nil {
			_ = pc.Close()
			return err
		}
	}
	m.pc = pc
	m.Track(pc)
	return nil
}

// LeaveMulticastGroup drops the membership taken by JoinMulticastGroup.
func (m *MulticastSocket) LeaveMulticastGroup() error {
	if m.fd < 0 {
		return errorx.ErrSocketNotCreated
	}
	if !m.joined {
		return errorx.ErrNoMulticastMembership
	}
	var err error
	if m.pc != nil {
		var ifi *net.Interface
		if !m.iface.IsUnspecified() {
			ifi, _ = interfaceByIP(m.iface)
		}
		err = m.pc.LeaveSourceSpecificGroup(ifi,
			&net.UDPAddr{IP: m.group.AsSlice()}, &net.UDPAddr{IP: m.source.AsSlice()})
		m.untrack(m.pc)
		err = multierr.Append(err, m.pc.Close())
		m.pc = nil
	} else {
		err = setMembership(m.fd, m.group, m.iface, false)
	}
	m.joined = false
	if err != nil {
		return m.fail("setsockopt", err)
	}
	m.logger.Infof("%d: drop membership: %s port: %d", m.fd, m.group, m.cfg.Port)
	return nil
}

// Release drops any membership and releases the socket.
func (m *MulticastSocket) Release() error {
	m.joined = false
	m.pc = nil
	return m.UDPSocket.Release()
}
