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

//go:build !linux

package reactor

import "github.com/tinyfix/tinyfix/pkg/errors"

// IOEvent is the readiness interest of registered descriptors.
type IOEvent = uint32

// Event masks, meaningful on linux only.
const (
	ReadEvents  IOEvent = 0x1
	WriteEvents IOEvent = 0x4
	ErrEvents   IOEvent = 0x8
)

type poller struct {
	fd int
}

func openPoller(int) (*poller, error) {
	return nil, errors.ErrUnsupportedPlatform
}

func (*poller) add(int, IOEvent) error { return errors.ErrUnsupportedPlatform }
func (*poller) del(int) error          { return errors.ErrUnsupportedPlatform }
func (*poller) wait(int) (int, error)  { return 0, errors.ErrUnsupportedPlatform }
func (*poller) event(int) (int, bool)  { return -1, false }
func (*poller) wakeup() error          { return errors.ErrUnsupportedPlatform }
func (*poller) drainWakeup()           {}
func (*poller) close() error           { return nil }
