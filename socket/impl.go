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

package socket

import (
	"github.com/nabbar/nbsocket/addr"
	"github.com/nabbar/nbsocket/socket/errkind"
)

// impl is the backend adapter contract a platform file (socket_posix.go,
// socket_windows.go) must satisfy. Socket holds exactly one impl and never
// branches on platform itself; every OS difference lives behind this
// boundary, mirroring how the reactor package hides epoll vs WSAEventSelect.
type impl interface {
	// bindSocket finishes wiring a backend created by accept(): it records
	// the owning *Socket for dispatch translation and registers the new
	// fd/handle with the reactor, now that the wrapper Socket exists.
	bindSocket(s *Socket) error

	setMask(e Event) error

	connect(a addr.Addr) errkind.Kind
	connectResult() errkind.Kind

	bind(a addr.Addr, kind Kind) errkind.Kind
	listen(backlog int) errkind.Kind
	accept(createSocket bool) (impl, addr.Addr, errkind.Kind)

	send(buf []byte) (int, errkind.Kind)
	recv(buf []byte) (int, errkind.Kind)

	sendTo(a addr.Addr, buf []byte) (int, errkind.Kind)
	recvFrom(buf []byte) (int, addr.Addr, errkind.Kind)

	sendToFrom(remoteAddr addr.Addr, localHint addr.IPAddr, buf []byte) (int, errkind.Kind)
	recvFromTo(buf []byte) (int, addr.Addr, addr.IPAddr, errkind.Kind)

	localAddr() (addr.Addr, error)

	close() error
}
