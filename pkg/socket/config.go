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

package socket

import (
	"net/netip"

	errorx "github.com/tinyfix/tinyfix/pkg/errors"
)

const (
	// DefaultPort is the port of DefaultConfig.
	DefaultPort = 13898
	// DefaultIP is the address of DefaultConfig.
	DefaultIP = "127.0.0.1"
	// DefaultBacklog is the listen backlog of the default configurations.
	DefaultBacklog = 4

	// DefaultMulticastPort is the port of DefaultMulticastConfig.
	DefaultMulticastPort = 4000
	// DefaultMulticastGroup is the group of DefaultMulticastConfig.
	DefaultMulticastGroup = "224.0.0.100"
)

// Config is the immutable configuration of a socket.
type Config struct {
	// Port to bind to or connect to.
	Port int
	// IP to bind to or connect to, empty means any address.
	IP string
	// NoDelay disables Nagle's algorithm on TCP sockets.
	NoDelay bool
	// NonBlock puts the descriptor in non-blocking mode.
	NonBlock bool
	// ReuseAddr sets SO_REUSEADDR so the address can be bound again right after close.
	ReuseAddr bool
	// Backlog of pending connections of a listening socket.
	Backlog int
}

// DefaultConfig returns a loopback configuration with every flag off.
func DefaultConfig() Config {
	return Config{
		Port:    DefaultPort,
		IP:      DefaultIP,
		Backlog: DefaultBacklog,
	}
}

// MulticastConfig configures a multicast receiver.
type MulticastConfig struct {
	Config
	// GroupIP is the multicast group to join, Config.IP is used when empty.
	GroupIP string
	// SourceIP restricts the membership to one sender, empty joins any source.
	SourceIP string
	// InterfaceIP selects the local interface of the membership.
	InterfaceIP string
}

// DefaultMulticastConfig returns the configuration of a receiver of the
// default group on the interface owning interfaceIP.
func DefaultMulticastConfig(interfaceIP string) MulticastConfig {
	return MulticastConfig{
		Config: Config{
			Port:      DefaultMulticastPort,
			IP:        DefaultMulticastGroup,
			NoDelay:   true,
			NonBlock:  true,
			ReuseAddr: true,
			Backlog:   DefaultBacklog,
		},
		GroupIP:     DefaultMulticastGroup,
		InterfaceIP: interfaceIP,
	}
}

// Group returns the group to join.
func (c MulticastConfig) Group() string {
	if c.GroupIP == "" {
		return c.IP
	}
	return c.GroupIP
}

// parseIPv4 parses a dotted IPv4 address, empty means the unspecified address.
func parseIPv4(ip string) (netip.Addr, error) {
	if ip == "" {
		return netip.IPv4Unspecified(), nil
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.Is4() {
		return netip.Addr{}, errorx.ErrInvalidIPv4Address
	}
	return addr, nil
}
