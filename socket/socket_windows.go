//go:build windows

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
	"unsafe"

	"github.com/google/uuid"
	"golang.org/x/sys/windows"

	"github.com/nabbar/nbsocket/addr"
	"github.com/nabbar/nbsocket/internal/initsys"
	"github.com/nabbar/nbsocket/logger"
	"github.com/nabbar/nbsocket/reactor"
	"github.com/nabbar/nbsocket/socket/errkind"
	"github.com/nabbar/nbsocket/socket/pktinfo"
)

// FD_* bits and their WSANETWORKEVENTS.iErrorCode slot, ws2def.h /
// winsock2.h values. golang.org/x/sys/windows does not export these: they
// only come into play through WSAEventSelect/WSAEnumNetworkEvents, which
// this file reaches directly via the ws2_32.dll procs below.
const (
	fdRead    = 0x01
	fdWrite   = 0x02
	fdAccept  = 0x08
	fdConnect = 0x10
	fdClose   = 0x20
)

const (
	bitRead = iota
	bitWrite
	_
	bitAccept
	bitConnect
	bitClose
)

var (
	modws2_32               = windows.NewLazySystemDLL("ws2_32.dll")
	procWSAEventSelect      = modws2_32.NewProc("WSAEventSelect")
	procWSAEnumNetworkEvent = modws2_32.NewProc("WSAEnumNetworkEvents")
	procIoctlsocket         = modws2_32.NewProc("ioctlsocket")
	procSend                = modws2_32.NewProc("send")
	procRecv                = modws2_32.NewProc("recv")
)

const fionbio = 0x8004667e // FIONBIO, winsock2.h

// wsaNetworkEvents mirrors WSANETWORKEVENTS from winsock2.h.
type wsaNetworkEvents struct {
	NetworkEvents uint32
	ErrorCode     [10]int32
}

func setNonblocking(h windows.Handle) error {
	mode := uint32(1)
	r1, _, e1 := procIoctlsocket.Call(uintptr(h), uintptr(fionbio), uintptr(unsafe.Pointer(&mode)))
	if r1 != 0 {
		return e1
	}
	return nil
}

func wsaEventSelect(h windows.Handle, ev windows.Handle, mask uint32) error {
	r1, _, e1 := procWSAEventSelect.Call(uintptr(h), uintptr(ev), uintptr(mask))
	if r1 != 0 {
		return e1
	}
	return nil
}

func wsaEnumNetworkEvents(h windows.Handle, ev windows.Handle, out *wsaNetworkEvents) error {
	r1, _, e1 := procWSAEnumNetworkEvent.Call(uintptr(h), uintptr(ev), uintptr(unsafe.Pointer(out)))
	if r1 != 0 {
		return e1
	}
	return nil
}

func winSend(h windows.Handle, buf []byte) (int, error) {
	var p *byte
	if len(buf) > 0 {
		p = &buf[0]
	}
	r1, _, e1 := procSend.Call(uintptr(h), uintptr(unsafe.Pointer(p)), uintptr(len(buf)), 0)
	n := int(int32(r1))
	if n < 0 {
		return 0, e1
	}
	return n, nil
}

func winRecv(h windows.Handle, buf []byte) (int, error) {
	var p *byte
	if len(buf) > 0 {
		p = &buf[0]
	}
	r1, _, e1 := procRecv.Call(uintptr(h), uintptr(unsafe.Pointer(p)), uintptr(len(buf)), 0)
	n := int(int32(r1))
	if n < 0 {
		return 0, e1
	}
	return n, nil
}

// Open creates a non-blocking socket of the given domain and kind, registers
// its event object with r, and returns it ready for Bind/Connect. For DGRAM
// sockets, PKTINFO delivery is enabled best-effort; HavePktinfo reports the
// outcome. log may be nil, in which case best-effort failures are dropped.
func Open(r *reactor.Reactor, dom Domain, kind Kind, log logger.FuncLog) (*Socket, errkind.Kind) {
	_ = initsys.Acquire()

	fam := windows.AF_INET
	if dom == DomainV6 {
		fam = windows.AF_INET6
	}
	typ := windows.SOCK_STREAM
	if kind == DGRAM {
		typ = windows.SOCK_DGRAM
	}

	h, err := windows.Socket(fam, typ, 0)
	if err != nil {
		return nil, errkind.FromWindowsError(errkind.OpOpen, kind == DGRAM, err)
	}
	if err = setNonblocking(h); err != nil {
		_ = windows.Closesocket(h)
		return nil, errkind.FromWindowsError(errkind.OpOpen, kind == DGRAM, err)
	}

	ev, err := windows.WSACreateEvent()
	if err != nil {
		_ = windows.Closesocket(h)
		return nil, errkind.UNKNOWN
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

	wi := &winImpl{handle: h, event: ev, dom: dom, kind: kind, pf: pf, r: r, log: log}
	if kind == DGRAM {
		wi.havePktinfo = pktinfo.Enable(h, pf)
		if !wi.havePktinfo {
			logBestEffort(log, s.id, "datagram socket opened without PKTINFO support")
		}
	}
	s.impl = wi
	s.havePktinfo = wi.havePktinfo

	if berr := wi.bindSocket(s); berr != nil {
		_ = windows.CloseHandle(ev)
		_ = windows.Closesocket(h)
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

// bindSocket records the owning Socket and registers the event object with
// the reactor.
func (w *winImpl) bindSocket(s *Socket) error {
	w.sock = s
	w.id = s.id
	return w.r.AddHandle(w.event, w.onSignal)
}

type winImpl struct {
	handle windows.Handle
	event  windows.Handle
	dom    Domain
	kind   Kind
	pf     pktinfo.Family
	r      *reactor.Reactor
	log    logger.FuncLog
	id     uuid.UUID
	sock   *Socket

	havePktinfo bool
	lastConnRes errkind.Kind
}

// onSignal is the reactor's HandleHandler: invoked when this socket's event
// object is signaled. WSAEnumNetworkEvents reports which FD_* bits fired
// (and resets the event object), which this translates to logical events
// masked by wait_events, completing a pending connect if CONNECT fired.
func (w *winImpl) onSignal() {
	var ne wsaNetworkEvents
	if err := wsaEnumNetworkEvents(w.handle, w.event, &ne); err != nil {
		return
	}

	var events Event

	if ne.NetworkEvents&fdConnect != 0 && w.sock.connectState == ConnectInProgress {
		w.lastConnRes = errkind.FromWindowsError(errkind.OpConnect, w.kind == DGRAM, winErrno(ne.ErrorCode[bitConnect]))
		w.sock.onConnectWritable()
		events |= EventConnect
	}
	if ne.NetworkEvents&fdAccept != 0 && w.sock.waitEvents.has(EventAccept) {
		events |= EventAccept
	}
	if ne.NetworkEvents&(fdRead|fdClose) != 0 && w.sock.waitEvents.has(EventRead) {
		events |= EventRead
	}
	if ne.NetworkEvents&(fdWrite|fdClose) != 0 && w.sock.waitEvents.has(EventWrite) {
		events |= EventWrite
	}

	if events != 0 {
		w.sock.Dispatch(events)
	}
}

// winErrno adapts a WSANETWORKEVENTS per-event error code (0 on success)
// into an error errkind.FromWindowsError can classify.
func winErrno(code int32) error {
	if code == 0 {
		return nil
	}
	return windows.Errno(code)
}

func (w *winImpl) setMask(e Event) error {
	var m uint32
	if e.has(EventRead) {
		m |= fdRead | fdClose
	}
	if e.has(EventWrite) {
		m |= fdWrite | fdClose
	}
	if e.has(EventAccept) {
		m |= fdAccept
	}
	if e.has(EventConnect) {
		m |= fdConnect
	}
	return wsaEventSelect(w.handle, w.event, m)
}

func (w *winImpl) connect(a addr.Addr) errkind.Kind {
	err := windows.Connect(w.handle, addr.ToOS(a))
	return errkind.FromWindowsError(errkind.OpConnect, w.kind == DGRAM, err)
}

// connectResult returns the error extracted from the FD_CONNECT
// notification by onSignal; unlike POSIX there is no SO_ERROR re-read here.
func (w *winImpl) connectResult() errkind.Kind {
	return w.lastConnRes
}

func (w *winImpl) bind(a addr.Addr, kind Kind) errkind.Kind {
	if kind == STREAM {
		one := int32(1)
		if err := windows.Setsockopt(w.handle, windows.SOL_SOCKET, windows.SO_REUSEADDR,
			(*byte)(unsafe.Pointer(&one)), 4); err != nil {
			logBestEffort(w.log, w.id, "SO_REUSEADDR failed before bind: "+err.Error())
		}
	}
	err := windows.Bind(w.handle, addr.ToOS(a))
	return errkind.FromWindowsError(errkind.OpBind, kind == DGRAM, err)
}

func (w *winImpl) listen(backlog int) errkind.Kind {
	if backlog < 0 {
		backlog = windows.SOMAXCONN
	}
	err := windows.Listen(w.handle, backlog)
	return errkind.FromWindowsError(errkind.OpListen, false, err)
}

func (w *winImpl) accept(createSocket bool) (impl, addr.Addr, errkind.Kind) {
	nh, sa, err := windows.Accept(w.handle)
	if err != nil {
		return nil, addr.Addr{}, errkind.FromWindowsError(errkind.OpAccept, false, err)
	}

	peer, cerr := addr.FromOS(sa)
	if cerr != nil {
		_ = windows.Closesocket(nh)
		return nil, addr.Addr{}, errkind.UNKNOWN
	}

	if !createSocket {
		_ = windows.Closesocket(nh)
		return nil, peer, errkind.NONE
	}

	if err = setNonblocking(nh); err != nil {
		_ = windows.Closesocket(nh)
		return nil, addr.Addr{}, errkind.UNKNOWN
	}

	ev, everr := windows.WSACreateEvent()
	if everr != nil {
		_ = windows.Closesocket(nh)
		return nil, addr.Addr{}, errkind.UNKNOWN
	}

	_ = initsys.Acquire()
	child := &winImpl{handle: nh, event: ev, dom: w.dom, kind: STREAM, pf: w.pf, r: w.r, log: w.log}
	return child, peer, errkind.NONE
}

func (w *winImpl) send(buf []byte) (int, errkind.Kind) {
	n, err := winSend(w.handle, buf)
	return n, errkind.FromWindowsError(errkind.OpSend, false, err)
}

func (w *winImpl) recv(buf []byte) (int, errkind.Kind) {
	n, err := winRecv(w.handle, buf)
	return n, errkind.FromWindowsError(errkind.OpRecv, false, err)
}

// sendTo routes through pktinfo.SendToFrom with a IPAddrNone hint rather
// than windows.Sendto directly: the windows.Sendto wrapper of WSASendTo
// only ever reports an error and never the actual byte count, so a short
// write would be silently reported as a full transfer. pktinfo.SendToFrom already goes through WSASendMsg for a real
// transferred-byte count, and with no local hint it submits a zero-length
// control buffer, making it an exact substitute for a plain send-to.
func (w *winImpl) sendTo(a addr.Addr, buf []byte) (int, errkind.Kind) {
	n, err := pktinfo.SendToFrom(w.handle, a, w.pf, addr.InitNone(), buf)
	return n, errkind.FromWindowsError(errkind.OpSend, true, err)
}

func (w *winImpl) recvFrom(buf []byte) (int, addr.Addr, errkind.Kind) {
	n, sa, err := windows.Recvfrom(w.handle, buf, 0)
	if err != nil {
		return 0, addr.Addr{}, errkind.FromWindowsError(errkind.OpRecv, true, err)
	}
	from, cerr := addr.FromOS(sa)
	if cerr != nil {
		return n, addr.Addr{}, errkind.UNKNOWN
	}
	return n, from, errkind.NONE
}

func (w *winImpl) sendToFrom(remoteAddr addr.Addr, localHint addr.IPAddr, buf []byte) (int, errkind.Kind) {
	n, err := pktinfo.SendToFrom(w.handle, remoteAddr, w.pf, localHint, buf)
	return n, errkind.FromWindowsError(errkind.OpSend, true, err)
}

func (w *winImpl) recvFromTo(buf []byte) (int, addr.Addr, addr.IPAddr, errkind.Kind) {
	n, from, local, err := pktinfo.RecvFromTo(w.handle, w.pf, buf)
	if err != nil {
		return 0, addr.Addr{}, addr.InitNone(), errkind.FromWindowsError(errkind.OpRecv, true, err)
	}
	return n, from, local, errkind.NONE
}

func (w *winImpl) localAddr() (addr.Addr, error) {
	sa, err := windows.Getsockname(w.handle)
	if err != nil {
		return addr.Addr{}, err
	}
	return addr.FromOS(sa)
}

// close releases the matching initsys.Acquire taken at Open/Accept time, in
// addition to unregistering from the reactor and closing the event/socket.
func (w *winImpl) close() error {
	initsys.Release()
	_ = w.r.RemoveHandle(w.event)
	_ = windows.CloseHandle(w.event)
	return windows.Closesocket(w.handle)
}
