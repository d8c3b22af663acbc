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
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	errorx "github.com/tinyfix/tinyfix/pkg/errors"
	"github.com/tinyfix/tinyfix/pkg/logging"
	"github.com/tinyfix/tinyfix/pkg/reactor"
)

type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *captureLogger) record(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+" "+fmt.Sprintf(format, args...))
}

func (l *captureLogger) Debugf(format string, args ...any) { l.record("DEBUG", format, args...) }
func (l *captureLogger) Infof(format string, args ...any)  { l.record("INFO", format, args...) }
func (l *captureLogger) Warnf(format string, args ...any)  { l.record("WARN", format, args...) }
func (l *captureLogger) Errorf(format string, args ...any) { l.record("ERROR", format, args...) }
func (l *captureLogger) Fatalf(format string, args ...any) { l.record("FATAL", format, args...) }

func (l *captureLogger) contains(sub string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}

func (l *captureLogger) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

var _ logging.Logger = (*captureLogger)(nil)

func loopback(port int) Config {
	cfg := DefaultConfig()
	cfg.Port = port
	cfg.ReuseAddr = true
	return cfg
}

func localPort(t *testing.T, fd int) int {
	t.Helper()
	sa, err := unix.Getsockname(fd)
	require.NoError(t, err)
	return sa.(*unix.SockaddrInet4).Port
}

func quiet() Option {
	return WithLogger(logging.NopLogger())
}

func TestDefaultConfigs(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, Config{Port: 13898, IP: "127.0.0.1", Backlog: 4}, cfg)

	mcfg := DefaultMulticastConfig("10.1.2.3")
	assert.Equal(t, 4000, mcfg.Port)
	assert.Equal(t, "224.0.0.100", mcfg.Group())
	assert.Equal(t, "10.1.2.3", mcfg.InterfaceIP)
	assert.Empty(t, mcfg.SourceIP)
	assert.True(t, mcfg.NoDelay)
	assert.True(t, mcfg.NonBlock)
	assert.True(t, mcfg.ReuseAddr)
	assert.Equal(t, 4, mcfg.Backlog)

	mcfg.GroupIP = ""
	mcfg.IP = "239.1.1.1"
	assert.Equal(t, "239.1.1.1", mcfg.Group())
}

func TestSockaddr(t *testing.T) {
	sa, err := Config{IP: "", Port: 80}.sockaddr()
	require.NoError(t, err)
	assert.Equal(t, [4]byte{}, sa.Addr)

	sa, err = Config{IP: "10.0.0.7", Port: 80}.sockaddr()
	require.NoError(t, err)
	assert.Equal(t, [4]byte{10, 0, 0, 7}, sa.Addr)
	assert.Equal(t, 80, sa.Port)

	for _, ip := range []string{"localhost", "::1", "10.0.0.256"} {
		_, err = Config{IP: ip}.sockaddr()
		assert.ErrorIs(t, err, errorx.ErrInvalidIPv4Address, ip)
	}

	tcp := TCPAddrToSockaddr(&net.TCPAddr{IP: net.IPv4(192, 168, 0, 1), Port: 9})
	require.NotNil(t, tcp)
	assert.Equal(t, [4]byte{192, 168, 0, 1}, tcp.Addr)
	assert.Nil(t, UDPAddrToSockaddr(&net.UDPAddr{IP: net.IPv6loopback}))

	udp := SockaddrToUDPAddr(&unix.SockaddrInet4{Port: 7, Addr: [4]byte{127, 0, 0, 1}})
	assert.Equal(t, "127.0.0.1:7", udp.String())
	assert.Equal(t, "127.0.0.1:7", SockaddrToTCPAddr(tcpSockaddr(7)).String())
}

func tcpSockaddr(port int) unix.Sockaddr {
	return &unix.SockaddrInet4{Port: port, Addr: [4]byte{127, 0, 0, 1}}
}

func TestCreateAndRelease(t *testing.T) {
	sock := NewUDPSocket(loopback(0), quiet(), WithRecvBufferSize(1024))
	assert.Equal(t, -1, sock.FD())
	assert.Nil(t, sock.Buffer())
	_, err := sock.Recv()
	assert.ErrorIs(t, err, errorx.ErrSocketNotCreated)
	assert.ErrorIs(t, sock.Bind(), errorx.ErrSocketNotCreated)

	require.NoError(t, sock.Create())
	assert.GreaterOrEqual(t, sock.FD(), 0)
	assert.Len(t, sock.Buffer(), 1024)
	assert.Equal(t, [4]byte{127, 0, 0, 1}, sock.Addr().Addr)
	assert.ErrorIs(t, sock.Create(), errorx.ErrSocketCreated)

	require.NoError(t, sock.Release())
	assert.Equal(t, -1, sock.FD())
	assert.Nil(t, sock.Buffer())
	require.NoError(t, sock.Release())
	_, _, err = sock.RecvFrom()
	assert.ErrorIs(t, err, errorx.ErrSocketNotCreated)
}

func TestCreateRejectsInvalidIP(t *testing.T) {
	logger := &captureLogger{}
	cfg := DefaultConfig()
	cfg.IP = "not-an-ip"
	sock := NewTCPSocket(cfg, WithLogger(logger))
	assert.ErrorIs(t, sock.Create(), errorx.ErrInvalidIPv4Address)
	assert.Equal(t, -1, sock.FD())
	assert.True(t, logger.contains("not-an-ip"))
}

func TestSetNonBlock(t *testing.T) {
	cfg := loopback(0)
	sock := NewUDPSocket(cfg, quiet())
	require.NoError(t, sock.Create())
	defer sock.Release()

	nonblocking := func() bool {
		flags, err := unix.FcntlInt(uintptr(sock.FD()), unix.F_GETFL, 0)
		require.NoError(t, err)
		return flags&unix.O_NONBLOCK != 0
	}
	require.NoError(t, sock.SetNonBlock())
	assert.False(t, nonblocking())

	cfg.NonBlock = true
	sock2 := NewUDPSocket(cfg, quiet())
	require.NoError(t, sock2.Create())
	defer sock2.Release()
	require.NoError(t, sock2.SetNonBlock())
	flags, err := unix.FcntlInt(uintptr(sock2.FD()), unix.F_GETFL, 0)
	require.NoError(t, err)
	assert.NotZero(t, flags&unix.O_NONBLOCK)
}

func TestUDPRecvFromNothingIsSilent(t *testing.T) {
	logger := &captureLogger{}
	cfg := loopback(0)
	cfg.NonBlock = true
	sock := NewUDPSocket(cfg, WithLogger(logger))
	require.NoError(t, sock.Create())
	defer sock.Release()
	require.NoError(t, sock.Bind())
	require.NoError(t, sock.SetNonBlock())

	n, from, err := sock.RecvFrom()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Nil(t, from)
	n, err = sock.Recv()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, logger.len())
}

func TestUDPSendRecv(t *testing.T) {
	recv := NewUDPSocket(loopback(0), quiet(), WithNulTerminate(true), WithRecvBufferSize(64))
	require.NoError(t, recv.Create())
	defer recv.Release()
	require.NoError(t, recv.Bind())
	port := localPort(t, recv.FD())

	send := NewUDPSocket(loopback(port), quiet())
	require.NoError(t, send.Create())
	defer send.Release()

	msg := []byte("8=FIX.4.2\x0135=0\x01")
	n, err := send.SendTo(send.Addr(), msg)
	require.NoError(t, err)
	assert.Equal(t, len(msg), n)

	n, from, err := recv.RecvFrom()
	require.NoError(t, err)
	assert.Equal(t, msg, recv.Buffer()[:n])
	assert.Zero(t, recv.Buffer()[n])
	require.IsType(t, &unix.SockaddrInet4{}, from)
	assert.Equal(t, localPort(t, send.FD()), from.(*unix.SockaddrInet4).Port)

	// An empty datagram is data, not a closed peer.
	n, err = send.SendTo(send.Addr(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, from, err = recv.RecvFrom()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NotNil(t, from)
}

func TestNulTerminateKeepsOneByte(t *testing.T) {
	recv := NewUDPSocket(loopback(0), quiet(), WithNulTerminate(true), WithRecvBufferSize(4))
	require.NoError(t, recv.Create())
	defer recv.Release()
	require.NoError(t, recv.Bind())

	send := NewUDPSocket(loopback(localPort(t, recv.FD())), quiet())
	require.NoError(t, send.Create())
	defer send.Release()
	_, err := send.SendTo(send.Addr(), []byte("abcdef"))
	require.NoError(t, err)

	n, _, err := recv.RecvFrom()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte("abc\x00"), recv.Buffer())
}

func listen(t *testing.T, cfg Config, opts ...Option) (*TCPSocket, int) {
	t.Helper()
	ln := NewTCPSocket(cfg, opts...)
	require.NoError(t, ln.Create())
	t.Cleanup(func() { _ = ln.Release() })
	require.NoError(t, ln.Bind())
	require.NoError(t, ln.Listen())
	return ln, localPort(t, ln.FD())
}

func TestTCPExchange(t *testing.T) {
	logger := &captureLogger{}
	ln, port := listen(t, loopback(0), WithLogger(logger))

	cfg := loopback(port)
	cfg.NoDelay = true
	client := NewTCPSocket(cfg, quiet())
	require.NoError(t, client.Create())
	defer client.Release()

	var eg errgroup.Group
	eg.Go(func() error {
		child, err := ln.AcceptSocket()
		if err != nil {
			return err
		}
		defer child.Release()
		n, err := child.Recv()
		if err != nil {
			return err
		}
		if _, err = child.Send(child.Buffer()[:n]); err != nil {
			return err
		}
		_, err = child.Recv()
		if err != io.EOF {
			return fmt.Errorf("expected EOF, got %v", err)
		}
		return nil
	})

	require.NoError(t, client.Connect())
	msg := []byte("35=A\x01108=30\x01")
	n, err := client.Send(msg)
	require.NoError(t, err)
	assert.Equal(t, len(msg), n)

	n, err = client.Recv()
	require.NoError(t, err)
	assert.Equal(t, msg, client.Buffer()[:n])

	require.NoError(t, client.Release())
	require.NoError(t, eg.Wait())
	assert.True(t, logger.contains("connection closed by peer"))
}

func TestTCPAcceptAddr(t *testing.T) {
	ln, port := listen(t, loopback(0), quiet())

	client := NewTCPSocket(loopback(port), quiet())
	require.NoError(t, client.Create())
	defer client.Release()
	require.NoError(t, client.SetLinger(0))
	require.NoError(t, client.SetLinger(-1))
	require.NoError(t, client.Connect())

	var peer net.TCPAddr
	nfd, err := ln.AcceptAddr(&peer)
	require.NoError(t, err)
	defer unix.Close(nfd)
	assert.GreaterOrEqual(t, nfd, 0)
	assert.Equal(t, "127.0.0.1", peer.IP.String())
	assert.Equal(t, localPort(t, client.FD()), peer.Port)
}

func TestTCPAcceptNothingPending(t *testing.T) {
	cfg := loopback(0)
	cfg.NonBlock = true
	logger := &captureLogger{}
	ln, _ := listen(t, cfg, WithLogger(logger))
	require.NoError(t, ln.SetNonBlock())

	nfd, err := ln.Accept()
	require.NoError(t, err)
	assert.Equal(t, -1, nfd)
	child, err := ln.AcceptSocket()
	require.NoError(t, err)
	assert.Nil(t, child)
	assert.Zero(t, logger.len())
}

func TestReleaseClosesTrackedRegistration(t *testing.T) {
	r, err := reactor.Open(reactor.WithLogger(logging.NopLogger()))
	require.NoError(t, err)
	defer r.Close()

	sock := NewUDPSocket(loopback(0), quiet())
	require.NoError(t, sock.Create())
	require.NoError(t, sock.Bind())

	reg, err := r.Register(sock.FD(), func() { _, _, _ = sock.RecvFrom() })
	require.NoError(t, err)
	sock.Track(reg)
	assert.Equal(t, 1, r.Len())

	require.NoError(t, sock.Release())
	assert.Zero(t, r.Len())
	assert.Equal(t, -1, sock.FD())
}

func TestReactorDrivesUDPSocket(t *testing.T) {
	r, err := reactor.Open(reactor.WithLogger(logging.NopLogger()))
	require.NoError(t, err)
	defer r.Close()

	cfg := loopback(0)
	cfg.NonBlock = true
	recv := NewUDPSocket(cfg, quiet())
	require.NoError(t, recv.Create())
	defer recv.Release()
	require.NoError(t, recv.Bind())
	require.NoError(t, recv.SetNonBlock())

	var got []string
	reg, err := r.Register(recv.FD(), func() {
		n, _, err := recv.RecvFrom()
		require.NoError(t, err)
		got = append(got, string(recv.Buffer()[:n]))
	})
	require.NoError(t, err)
	recv.Track(reg)

	send := NewUDPSocket(loopback(localPort(t, recv.FD())), quiet())
	require.NoError(t, send.Create())
	defer send.Release()
	_, err = send.SendTo(send.Addr(), []byte("35=0\x01"))
	require.NoError(t, err)

	r.SetWaitTimeout(-1)
	n, err := r.Poll()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"35=0\x01"}, got)
}

func TestMulticastRejectsUnicastGroup(t *testing.T) {
	logger := &captureLogger{}
	cfg := DefaultMulticastConfig("127.0.0.1")
	cfg.Port = 0
	cfg.GroupIP = "10.0.0.1"
	sock := NewMulticastSocket(cfg, WithLogger(logger))
	require.NoError(t, sock.Create())

	assert.ErrorIs(t, sock.JoinMulticastGroup(), errorx.ErrNotMulticastGroup)
	assert.Equal(t, -1, sock.FD())
	assert.True(t, logger.contains("group: 10.0.0.1, source: , interface: 127.0.0.1"))
	assert.ErrorIs(t, sock.JoinMulticastGroup(), errorx.ErrSocketNotCreated)
}

func TestMulticastLeaveWithoutJoin(t *testing.T) {
	sock := NewMulticastSocket(DefaultMulticastConfig(""), quiet())
	assert.ErrorIs(t, sock.LeaveMulticastGroup(), errorx.ErrSocketNotCreated)
	require.NoError(t, sock.Create())
	defer sock.Release()
	assert.ErrorIs(t, sock.LeaveMulticastGroup(), errorx.ErrNoMulticastMembership)
}

func TestMulticastJoinAndLeave(t *testing.T) {
	cases := []struct {
		name   string
		source string
	}{
		{"any source", ""},
		{"single source", "127.0.0.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultMulticastConfig("127.0.0.1")
			cfg.Port = 0
			cfg.IP = ""
			cfg.NonBlock = false
			cfg.SourceIP = tc.source
			sock := NewMulticastSocket(cfg, quiet())
			require.NoError(t, sock.Create())
			defer sock.Release()
			require.NoError(t, sock.Bind())

			if err := sock.JoinMulticastGroup(); err != nil {
				t.Skipf("multicast membership unavailable: %v", err)
			}
			require.NoError(t, sock.JoinMulticastGroup())
			assert.Equal(t, "224.0.0.100", sock.MulticastConfig().Group())

			flags, err := unix.FcntlInt(uintptr(sock.FD()), unix.F_GETFL, 0)
			require.NoError(t, err)
			assert.Zero(t, flags&unix.O_NONBLOCK)

			require.NoError(t, sock.LeaveMulticastGroup())
			assert.ErrorIs(t, sock.LeaveMulticastGroup(), errorx.ErrNoMulticastMembership)
		})
	}
}
