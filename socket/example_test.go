/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package socket_test

import (
	"time"

	"github.com/nabbar/nbsocket/addr"
	"github.com/nabbar/nbsocket/reactor"
	"github.com/nabbar/nbsocket/socket"
	"github.com/nabbar/nbsocket/socket/errkind"
)

// ExampleOpen shows the intended call sequence for a TCP listener: open,
// bind, listen, install an ACCEPT handler, enable it, then drive the
// reactor's Poll loop. Not run as a doctest (no Output:) since it depends on
// real socket readiness timing.
func ExampleOpen() {
	r, err := reactor.New()
	if err != nil {
		panic(err)
	}
	defer r.Close()

	ln, k := socket.Open(r, socket.DomainV4, socket.STREAM, nil)
	if k != errkind.NONE {
		panic(k)
	}
	defer ln.Close()

	if k := ln.Bind(addr.NewV4([4]byte{127, 0, 0, 1}, 0)); k != errkind.NONE {
		panic(k)
	}
	if k := ln.Listen(-1); k != errkind.NONE {
		panic(k)
	}

	ln.InstallEventHandler(socket.EventAccept, func(s *socket.Socket) {
		conn, _, k := s.Accept(true)
		if k == errkind.NONE && conn != nil {
			_ = conn.Close()
		}
	})
	ln.EnableEvent(socket.EventAccept)

	for i := 0; i < 3; i++ {
		_, _ = r.Poll(10 * time.Millisecond)
	}
}

// ExampleSocket_Connect shows the non-blocking connect handshake: Connect
// returns false with error IN_PROGRESS, the caller enables CONNECT, and the
// eventual handler reads the outcome via GetConnectResult.
func ExampleSocket_Connect() {
	r, err := reactor.New()
	if err != nil {
		panic(err)
	}
	defer r.Close()

	cli, k := socket.Open(r, socket.DomainV4, socket.STREAM, nil)
	if k != errkind.NONE {
		panic(k)
	}
	defer cli.Close()

	cli.InstallEventHandler(socket.EventConnect, func(s *socket.Socket) {
		_ = s.GetConnectResult()
	})

	target := addr.NewV4([4]byte{127, 0, 0, 1}, 1)
	if cli.Connect(target) {
		return
	}
	cli.EnableEvent(socket.EventConnect)

	for i := 0; i < 3; i++ {
		_, _ = r.Poll(10 * time.Millisecond)
	}
}
