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

	"golang.org/x/sys/unix"

	errorx "github.com/tinyfix/tinyfix/pkg/errors"
)

// sockaddr resolves the address a socket of this configuration binds or connects to.
func (c Config) sockaddr() (*unix.SockaddrInet4, error) {
	addr, err := parseIPv4(c.IP)
	if err != nil {
		return nil, err
	}
	return &unix.SockaddrInet4{Port: c.Port, Addr: addr.As4()}, nil
}

// TCPAddrToSockaddr converts an IPv4 net.TCPAddr to a Sockaddr.
// Returns nil if the address is not IPv4.
func TCPAddrToSockaddr(addr *net.TCPAddr) *unix.SockaddrInet4 {
	return ipToSockaddr(addr.IP, addr.Port)
}

// UDPAddrToSockaddr converts an IPv4 net.UDPAddr to a Sockaddr.
// Returns nil if the address is not IPv4.
func UDPAddrToSockaddr(addr *net.UDPAddr) *unix.SockaddrInet4 {
	return ipToSockaddr(addr.IP, addr.Port)
}

func ipToSockaddr(ip net.IP, port int) *unix.SockaddrInet4 {
	if ip == nil {
		return &unix.SockaddrInet4{Port: port}
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil
	}
	sa := &unix.SockaddrInet4{Port: port}
	copy(sa.Addr[:], ip4)
	return sa
}

// SockaddrToTCPAddr converts a unix.Sockaddr to a net.TCPAddr.
// Returns nil if conversion fails.
func SockaddrToTCPAddr(sa unix.Sockaddr) *net.TCPAddr {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IP(sa.Addr[:]).To16(), Port: sa.Port}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: net.IP(sa.Addr[:]), Port: sa.Port}
	}
	return nil
}

// SockaddrToUDPAddr converts a unix.Sockaddr to a net.UDPAddr.
// Returns nil if conversion fails.
func SockaddrToUDPAddr(sa unix.Sockaddr) *net.UDPAddr {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.UDPAddr{IP: net.IP(sa.Addr[:]).To16(), Port: sa.Port}
	case *unix.SockaddrInet6:
		return &net.UDPAddr{IP: net.IP(sa.Addr[:]), Port: sa.Port}
	}
	return nil
}

// interfaceByIP returns the interface owning ip.
func interfaceByIP(ip netip.Addr) (*net.Interface, error) {
	ifis, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for i := range ifis {
		addrs, err := ifis[i].Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			if got, ok := netip.AddrFromSlice(ipnet.IP); ok && got.Unmap() == ip {
				return &ifis[i], nil
			}
		}
	}
	return nil, errorx.ErrNoInterfaceForIP
}
