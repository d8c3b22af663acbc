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

// Package errors defines common errors for tinyfix.
package errors

import "errors"

var (
	// ErrInvalidDescriptor occurs when a negative file descriptor is handed to the reactor.
	ErrInvalidDescriptor = errors.New("tinyfix: invalid file descriptor")
	// ErrNilCallback occurs when registering a descriptor without a callback.
	ErrNilCallback = errors.New("tinyfix: nil callback is not allowed")
	// ErrDescriptorRegistered occurs when a descriptor is registered twice with the same reactor.
	ErrDescriptorRegistered = errors.New("tinyfix: file descriptor is already registered")
	// ErrDescriptorNotRegistered occurs when removing a descriptor the reactor does not know about.
	ErrDescriptorNotRegistered = errors.New("tinyfix: file descriptor is not registered")
	// ErrReactorClosed occurs when using a reactor after Close.
	ErrReactorClosed = errors.New("tinyfix: reactor is closed")
	// ErrReentrantPoll occurs when a callback polls the reactor that is dispatching it.
	ErrReentrantPoll = errors.New("tinyfix: reactor polled from within one of its callbacks")
	// ErrEmptyGroup occurs when running a reactor group without reactors.
	ErrEmptyGroup = errors.New("tinyfix: reactor group is empty")
	// ErrUnsupportedPlatform occurs when the readiness multiplexer is not available on this OS.
	ErrUnsupportedPlatform = errors.New("tinyfix: readiness multiplexing is only supported on linux")

	// ErrSocketNotCreated occurs when operating on a socket whose descriptor is not open.
	ErrSocketNotCreated = errors.New("tinyfix: socket is not created")
	// ErrSocketCreated occurs when creating a socket that already owns a descriptor.
	ErrSocketCreated = errors.New("tinyfix: socket is already created")
	// ErrInvalidIPv4Address occurs when a configured IP is not a valid IPv4 address.
	ErrInvalidIPv4Address = errors.New("tinyfix: invalid IPv4 address")
	// ErrNotMulticastGroup occurs when the configured group IP is not a multicast address.
	ErrNotMulticastGroup = errors.New("tinyfix: group IP is not a multicast address")
	// ErrNoInterfaceForIP occurs when no local interface owns the configured interface IP.
	ErrNoInterfaceForIP = errors.New("tinyfix: no interface owns the given IP")
	// ErrNoMulticastMembership occurs when leaving a group that was never joined.
	ErrNoMulticastMembership = errors.New("tinyfix: socket has not joined a multicast group")

	// ErrNegativeSize occurs when trying to pass a negative size to a buffer.
	ErrNegativeSize = errors.New("tinyfix: negative size is not allowed")
)
