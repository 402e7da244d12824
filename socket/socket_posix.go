//go:build !windows

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
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/nabbar/nbsocket/addr"
	"github.com/nabbar/nbsocket/internal/initsys"
	"github.com/nabbar/nbsocket/logger"
	"github.com/nabbar/nbsocket/reactor"
	"github.com/nabbar/nbsocket/socket/errkind"
	"github.com/nabbar/nbsocket/socket/pktinfo"
)

// Open creates a non-blocking socket of the given domain and kind, registers
// it with r, and returns it ready for Bind/Connect. For DGRAM sockets,
// PKTINFO delivery is enabled best-effort; HavePktinfo reports the outcome.
// log may be nil, in which case best-effort failures are silently dropped.
func Open(r *reactor.Reactor, dom Domain, kind Kind, log logger.FuncLog) (*Socket, errkind.Kind) {
	_ = initsys.Acquire()

	fam := unix.AF_INET
	if dom == DomainV6 {
		fam = unix.AF_INET6
	}
	typ := unix.SOCK_STREAM
	if kind == DGRAM {
		typ = unix.SOCK_DGRAM
	}

	fd, err := unix.Socket(fam, typ, 0)
	if err != nil {
		return nil, errkind.FromErrno(errkind.OpOpen, kind == DGRAM, err)
	}
	if err = unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, errkind.FromErrno(errkind.OpOpen, kind == DGRAM, err)
	}

	pf := pktinfo.FamilyV4
	if dom == DomainV6 {
		pf = pktinfo.FamilyV6
	}

	s := &Socket{
		id:      uuid.New(),
		kind:    kind,
		recvMax: -1,
		alive:   &atomic.Bool{},
	}
	s.alive.Store(true)

	pi := &posixImpl{fd: fd, dom: dom, kind: kind, pf: pf, r: r, log: log}
	if kind == DGRAM {
		pi.havePktinfo = pktinfo.Enable(fd, pf)
		if !pi.havePktinfo {
			logBestEffort(log, s.id, "datagram socket opened without PKTINFO support")
		}
	}
	s.impl = pi
	s.havePktinfo = pi.havePktinfo

	if berr := pi.bindSocket(s); berr != nil {
		_ = unix.Close(fd)
		return nil, errkind.UNKNOWN
	}

	return s, errkind.NONE
}

func logBestEffort(log logger.FuncLog, id uuid.UUID, msg string) {
	if log == nil {
		return
	}
	l := log()
	if l == nil {
		return
	}
	l.Entry(logger.WarnLevel, msg).FieldAdd("socket_id", id.String()).Log()
}

// bindSocket records the owning Socket and registers fd with the reactor.
func (p *posixImpl) bindSocket(s *Socket) error {
	p.sock = s
	p.id = s.id
	return p.r.AddFD(p.fd, 0, p.onReady)
}

type posixImpl struct {
	fd          int
	dom         Domain
	kind        Kind
	pf          pktinfo.Family
	r           *reactor.Reactor
	log         logger.FuncLog
	id          uuid.UUID
	sock        *Socket
	havePktinfo bool
}

// onReady is the reactor's FDHandler. It translates raw readiness into the
// logical event set the socket is currently waiting on and dispatches it.
func (p *posixImpl) onReady(fd int, ready reactor.Mask) {
	var events Event

	if p.sock.connectState == ConnectInProgress && ready&reactor.WriteReady != 0 {
		p.sock.onConnectWritable()
		events |= EventConnect
	} else {
		if p.sock.waitEvents.has(EventAccept) && ready&reactor.ReadReady != 0 {
			events |= EventAccept
		}
		if p.sock.waitEvents.has(EventRead) && ready&reactor.ReadReady != 0 {
			events |= EventRead
		}
		if p.sock.waitEvents.has(EventWrite) && ready&reactor.WriteReady != 0 {
			events |= EventWrite
		}
	}

	if events != 0 {
		p.sock.Dispatch(events)
	}
}

func (p *posixImpl) setMask(e Event) error {
	var m reactor.Mask
	if e.has(EventRead) || e.has(EventAccept) {
		m |= reactor.ReadReady
	}
	if e.has(EventWrite) || e.has(EventConnect) {
		m |= reactor.WriteReady
	}
	return p.r.SetFDEvents(p.fd, m)
}

func (p *posixImpl) connect(a addr.Addr) errkind.Kind {
	err := unix.Connect(p.fd, addr.ToOS(a))
	return errkind.FromErrno(errkind.OpConnect, p.kind == DGRAM, err)
}

func (p *posixImpl) connectResult() errkind.Kind {
	errno, gerr := unix.GetsockoptInt(p.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if gerr != nil {
		return errkind.UNKNOWN
	}
	if errno == 0 {
		return errkind.NONE
	}
	return errkind.FromErrno(errkind.OpConnect, p.kind == DGRAM, unix.Errno(errno))
}

func (p *posixImpl) bind(a addr.Addr, kind Kind) errkind.Kind {
	if kind == STREAM {
		if err := unix.SetsockoptInt(p.fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			logBestEffort(p.log, p.id, "SO_REUSEADDR failed before bind: "+err.Error())
		}
	}
	err := unix.Bind(p.fd, addr.ToOS(a))
	return errkind.FromErrno(errkind.OpBind, kind == DGRAM, err)
}

func (p *posixImpl) listen(backlog int) errkind.Kind {
	if backlog < 0 {
		backlog = unix.SOMAXCONN
	}
	err := unix.Listen(p.fd, backlog)
	return errkind.FromErrno(errkind.OpListen, false, err)
}

func (p *posixImpl) accept(createSocket bool) (impl, addr.Addr, errkind.Kind) {
	nfd, sa, err := unix.Accept4(p.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return nil, addr.Addr{}, errkind.FromErrno(errkind.OpAccept, false, err)
	}

	peer, cerr := addr.FromOS(sa)
	if cerr != nil {
		_ = unix.Close(nfd)
		return nil, addr.Addr{}, errkind.UNKNOWN
	}

	if !createSocket {
		_ = unix.Close(nfd)
		return nil, peer, errkind.NONE
	}

	_ = initsys.Acquire()
	child := &posixImpl{fd: nfd, dom: p.dom, kind: STREAM, pf: p.pf, r: p.r, log: p.log}
	return child, peer, errkind.NONE
}

// send uses SendmsgN rather than the plain Send wrapper: Send only reports
// an error, never the actual byte count, so a short write on a non-blocking
// socket would otherwise be misreported as a full transfer.
func (p *posixImpl) send(buf []byte) (int, errkind.Kind) {
	n, err := unix.SendmsgN(p.fd, buf, nil, nil, unix.MSG_NOSIGNAL)
	return n, errkind.FromErrno(errkind.OpSend, false, err)
}

func (p *posixImpl) recv(buf []byte) (int, errkind.Kind) {
	n, err := unix.Read(p.fd, buf)
	return n, errkind.FromErrno(errkind.OpRecv, false, err)
}

// sendTo uses SendmsgN for the same reason send does: Sendto only reports an
// error, never the real byte count.
func (p *posixImpl) sendTo(a addr.Addr, buf []byte) (int, errkind.Kind) {
	n, err := unix.SendmsgN(p.fd, buf, nil, addr.ToOS(a), unix.MSG_NOSIGNAL)
	return n, errkind.FromErrno(errkind.OpSend, true, err)
}

func (p *posixImpl) recvFrom(buf []byte) (int, addr.Addr, errkind.Kind) {
	n, sa, err := unix.Recvfrom(p.fd, buf, 0)
	if err != nil {
		return 0, addr.Addr{}, errkind.FromErrno(errkind.OpRecv, true, err)
	}
	from, cerr := addr.FromOS(sa)
	if cerr != nil {
		return n, addr.Addr{}, errkind.UNKNOWN
	}
	return n, from, errkind.NONE
}

func (p *posixImpl) sendToFrom(remoteAddr addr.Addr, localHint addr.IPAddr, buf []byte) (int, errkind.Kind) {
	n, err := pktinfo.SendToFrom(p.fd, addr.ToOS(remoteAddr), p.pf, localHint, buf)
	return n, errkind.FromErrno(errkind.OpSend, true, err)
}

func (p *posixImpl) recvFromTo(buf []byte) (int, addr.Addr, addr.IPAddr, errkind.Kind) {
	n, sa, local, err := pktinfo.RecvFromTo(p.fd, p.pf, buf)
	if err != nil {
		return 0, addr.Addr{}, addr.InitNone(), errkind.FromErrno(errkind.OpRecv, true, err)
	}
	from, cerr := addr.FromOS(sa)
	if cerr != nil {
		return n, addr.Addr{}, local, errkind.UNKNOWN
	}
	return n, from, local, errkind.NONE
}

func (p *posixImpl) localAddr() (addr.Addr, error) {
	sa, err := unix.Getsockname(p.fd)
	if err != nil {
		return addr.Addr{}, err
	}
	return addr.FromOS(sa)
}

// close releases the matching initsys.Acquire taken at Open/Accept time, in
// addition to unregistering from the reactor and closing the fd.
func (p *posixImpl) close() error {
	initsys.Release()
	_ = p.r.RemoveFD(p.fd)
	return unix.Close(p.fd)
}
