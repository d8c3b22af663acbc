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

// Package socket wraps raw IPv4 TCP, UDP and multicast descriptors.
//
// Sockets hand out their descriptor through FD so that it can be registered
// with a reactor, and own a receive region that Recv and RecvFrom fill in
// place. A socket is not safe for concurrent use, it is meant to be driven by
// the goroutine polling its reactor.
//
//	sock := socket.NewTCPSocket(socket.DefaultConfig())
//	if err := sock.Create(); err != nil {
//		return err
//	}
//	defer sock.Release()
//	if err := sock.Connect(); err != nil {
//		return err
//	}
//	n, err := sock.Recv()
//	process(sock.Buffer()[:n])
package socket
