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

// Package socket is a non-blocking socket abstraction integrated with the
// reactor package's event loop. It exposes stream and datagram sockets with
// asynchronous connect/accept/send/recv, and datagram send-with-source /
// receive-with-destination via PKTINFO ancillary messages. Every operation
// is non-blocking and returns promptly; progress between calls happens only
// when the reactor dispatches readiness to a socket.
//
// Sockets, their handler tables and the reactor they are registered with are
// only safe to use from the single goroutine driving that reactor's Poll
// loop: there is no internal locking for the fast path.
package socket

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/nabbar/nbsocket/addr"
	"github.com/nabbar/nbsocket/socket/errkind"
)

// Kind distinguishes connection-oriented from connectionless sockets.
type Kind uint8

const (
	STREAM Kind = iota
	DGRAM
)

// Domain selects the IP family a socket is opened with.
type Domain uint8

const (
	DomainV4 Domain = iota
	DomainV6
)

// Event is one of the four logical events a socket can wait for. READ/WRITE
// are mutually exclusive with ACCEPT and CONNECT; ACCEPT and CONNECT are
// mutually exclusive with each other.
type Event uint8

const (
	EventRead Event = 1 << iota
	EventWrite
	EventAccept
	EventConnect
)

// fixedOrder is the dispatch order required when per-event handlers (not a
// global handler) are installed.
var fixedOrder = [...]Event{EventRead, EventWrite, EventAccept, EventConnect}

func (e Event) has(o Event) bool { return e&o != 0 }

// HandlerFunc is a per-event handler: it is invoked with only the socket,
// not the event set, because the event it fires for is already known from
// how it was installed.
type HandlerFunc func(s *Socket)

// GlobalHandlerFunc is invoked once per dispatch with the full set of events
// that became ready.
type GlobalHandlerFunc func(s *Socket, events Event)

// ConnectState is the three-state progression of a non-blocking connect.
type ConnectState uint8

const (
	ConnectIdle ConnectState = iota
	ConnectInProgress
	ConnectCompleted
)

// Socket is a single non-blocking, reactor-registered socket. The zero value
// is not usable; construct one with Open or via Accept.
type Socket struct {
	impl impl

	id uuid.UUID

	kind         Kind
	havePktinfo  bool
	waitEvents   Event
	recvMax      int
	recvNum      int
	connectState ConnectState
	connectRes   errkind.Kind
	lastErr      errkind.Kind

	global HandlerFunc2
	perEvt [4]HandlerFunc // indexed by eventIndex()

	alive *atomic.Bool
}

// HandlerFunc2 is kept distinct from HandlerFunc so a global handler can be
// told the whole returned event set, matching install_global_handler's
// contract; the numeric suffix avoids a name collision with GlobalHandlerFunc
// while keeping both names meaningful at call sites.
type HandlerFunc2 = GlobalHandlerFunc

func eventIndex(e Event) int {
	switch e {
	case EventRead:
		return 0
	case EventWrite:
		return 1
	case EventAccept:
		return 2
	case EventConnect:
		return 3
	default:
		return -1
	}
}

// Kind returns whether this socket is STREAM or DGRAM.
func (s *Socket) Kind() Kind { return s.kind }

// ID returns the identifier assigned to this socket at Open/Accept time, for
// correlating log entries across a connection's lifetime.
func (s *Socket) ID() uuid.UUID { return s.id }

// HavePktinfo reports whether PKTINFO ancillary delivery was successfully
// enabled at open time (always false for STREAM sockets).
func (s *Socket) HavePktinfo() bool { return s.havePktinfo }

// Error returns the last error Kind recorded by any operation; NONE if the
// most recent fallible call succeeded.
func (s *Socket) Error() errkind.Kind { return s.lastErr }

// LivenessAlive reports whether this socket has not yet been closed. Used by
// the dispatcher to detect in-handler destruction; exported so custom
// dispatch loops built on top of this package can honor the same contract.
func (s *Socket) LivenessAlive() bool { return s.alive.Load() }

// SetRecvMax caps the number of receive calls (recv/recv_from/recv_from_to)
// dispatched per readiness notification. n == -1 disables the cap; n == 0
// means no receives are allowed until the next dispatch resets the quota.
func (s *Socket) SetRecvMax(n int) {
	s.recvMax = n
}

func (s *Socket) recvQuotaExceeded() bool {
	if s.recvMax < 0 {
		return false
	}
	return s.recvNum >= s.recvMax
}

// InstallGlobalHandler installs a single handler receiving the full event
// bitset for each dispatch. It must not be combined with per-event handlers.
func (s *Socket) InstallGlobalHandler(fn GlobalHandlerFunc) {
	if s.perEvt[0] != nil || s.perEvt[1] != nil || s.perEvt[2] != nil || s.perEvt[3] != nil {
		panic("socket: cannot install a global handler while per-event handlers exist")
	}
	s.global = fn
}

// RemoveGlobalHandler removes the global handler and clears every enabled
// wait bit, reprogramming the backend so a stale mask cannot later deliver
// an event to a socket with nothing to call.
func (s *Socket) RemoveGlobalHandler() {
	s.global = nil
	s.waitEvents = 0
	_ = s.impl.setMask(0)
}

// InstallEventHandler installs a handler for a single logical event. It must
// not be combined with a global handler.
func (s *Socket) InstallEventHandler(e Event, fn HandlerFunc) {
	if s.global != nil {
		panic("socket: cannot install a per-event handler while a global handler exists")
	}
	idx := eventIndex(e)
	if idx < 0 {
		panic("socket: InstallEventHandler requires exactly one event bit")
	}
	s.perEvt[idx] = fn
}

// RemoveEventHandler removes the handler for a single event, auto-disabling
// that event if it was enabled.
func (s *Socket) RemoveEventHandler(e Event) {
	idx := eventIndex(e)
	if idx < 0 {
		return
	}
	s.perEvt[idx] = nil
	if s.waitEvents.has(e) {
		s.disableLocked(e)
	}
}

// SetGlobalEvents reprograms which events the global handler receives. Valid
// only when a global handler is installed.
func (s *Socket) SetGlobalEvents(mask Event) {
	if s.global == nil {
		panic("socket: SetGlobalEvents requires a global handler")
	}
	assertMaskCompatible(mask)
	s.waitEvents = mask
	_ = s.impl.setMask(mask)
}

// assertCompatible enforces invariant 3: READ/WRITE are mutually exclusive
// with ACCEPT and with CONNECT; ACCEPT and CONNECT are mutually exclusive.
func assertCompatible(existing, add Event) {
	rw := EventRead | EventWrite
	if add&(EventAccept) != 0 && existing&(rw|EventConnect) != 0 {
		panic("socket: ACCEPT is incompatible with READ/WRITE/CONNECT")
	}
	if add&(EventConnect) != 0 && existing&(rw|EventAccept) != 0 {
		panic("socket: CONNECT is incompatible with READ/WRITE/ACCEPT")
	}
	if add&rw != 0 && existing&(EventAccept|EventConnect) != 0 {
		panic("socket: READ/WRITE is incompatible with ACCEPT/CONNECT")
	}
}

// assertMaskCompatible enforces invariant 3 against a whole mask at once,
// unlike assertCompatible (which only compares an already-enabled set
// against one new bit being added). SetGlobalEvents replaces the entire
// wait set in a single call, so a mask combining e.g. READ and ACCEPT has to
// be rejected even though neither bit was "existing" before the call.
func assertMaskCompatible(mask Event) {
	groups := 0
	if mask&(EventRead|EventWrite) != 0 {
		groups++
	}
	if mask&EventAccept != 0 {
		groups++
	}
	if mask&EventConnect != 0 {
		groups++
	}
	if groups > 1 {
		panic("socket: mask combines incompatible READ/WRITE, ACCEPT and CONNECT events")
	}
}

// EnableEvent turns on delivery for a logical event. A handler (global or
// per-event) must already exist for it.
func (s *Socket) EnableEvent(e Event) {
	if s.global == nil {
		idx := eventIndex(e)
		if idx < 0 || s.perEvt[idx] == nil {
			panic("socket: EnableEvent requires an installed handler")
		}
	}
	assertCompatible(s.waitEvents, e)

	s.waitEvents |= e
	_ = s.impl.setMask(s.waitEvents)
}

// DisableEvent turns off delivery for a logical event.
func (s *Socket) DisableEvent(e Event) {
	s.disableLocked(e)
}

func (s *Socket) disableLocked(e Event) {
	s.waitEvents &^= e
	_ = s.impl.setMask(s.waitEvents)
}

// Dispatch is called by the reactor backend when readiness/signal arrives
// for this socket's registration. events is already masked by wait_events
// and translated from the OS-specific notification. It resets recv_num,
// then invokes handlers per §4.4: a global handler once with the whole set,
// or per-event handlers in fixed order READ, WRITE, ACCEPT, CONNECT,
// stopping immediately if the socket is destroyed mid-dispatch.
func (s *Socket) Dispatch(events Event) {
	s.recvNum = 0

	if s.global != nil {
		token := s.alive
		s.global(s, events)
		if !token.Load() {
			return
		}
		return
	}

	for _, e := range fixedOrder {
		if !events.has(e) {
			continue
		}
		idx := eventIndex(e)
		fn := s.perEvt[idx]
		if fn == nil {
			continue
		}

		token := s.alive
		fn(s)
		if !token.Load() {
			return
		}
	}
}

// Connect starts a non-blocking connect. Requires ConnectState == Idle. On
// synchronous success, records NONE and returns true. On a pending connect,
// records IN_PROGRESS, moves to ConnectInProgress, and returns false; the
// caller must then EnableEvent(EventConnect) and call GetConnectResult once
// notified.
func (s *Socket) Connect(a addr.Addr) bool {
	if s.connectState != ConnectIdle {
		panic("socket: Connect requires ConnectState == Idle")
	}

	k := s.impl.connect(a)
	s.lastErr = k

	switch k {
	case errkind.NONE:
		return true
	case errkind.IN_PROGRESS:
		s.connectState = ConnectInProgress
		return false
	default:
		return false
	}
}

// GetConnectResult returns the outcome of a completed connect and resets the
// state machine to Idle. Requires ConnectState == Completed.
func (s *Socket) GetConnectResult() errkind.Kind {
	if s.connectState != ConnectCompleted {
		panic("socket: GetConnectResult requires ConnectState == Completed")
	}
	r := s.connectRes
	s.connectState = ConnectIdle
	return r
}

// onConnectWritable is invoked by the platform backend when writability
// fires while a connect is in progress; it pulls SO_ERROR (POSIX) or the
// per-event notification error (Windows) and completes the state machine.
func (s *Socket) onConnectWritable() {
	if s.connectState != ConnectInProgress {
		return
	}
	s.connectRes = s.impl.connectResult()
	s.connectState = ConnectCompleted
}

// Bind binds the socket to addr. For STREAM sockets SO_REUSEADDR is set
// first, best-effort.
func (s *Socket) Bind(a addr.Addr) errkind.Kind {
	k := s.impl.bind(a, s.kind)
	s.lastErr = k
	return k
}

// Listen marks the socket as accepting connections. backlog < 0 uses an
// implementation default.
func (s *Socket) Listen(backlog int) errkind.Kind {
	k := s.impl.listen(backlog)
	s.lastErr = k
	return k
}

// Accept accepts a pending connection, non-blocking. If createSocket is
// true, a new registered, non-blocking Socket of the same STREAM kind
// (without PKTINFO) is returned; otherwise the accepted fd/handle is closed
// immediately (drain/reject). Returns (nil, addr.Addr{}, LATER) on would-block.
func (s *Socket) Accept(createSocket bool) (*Socket, addr.Addr, errkind.Kind) {
	ns, peer, k := s.impl.accept(createSocket)
	s.lastErr = k
	if k != errkind.NONE || ns == nil {
		return nil, peer, k
	}

	child := &Socket{
		impl:    ns,
		id:      uuid.New(),
		kind:    STREAM,
		recvMax: -1,
		alive:   &atomic.Bool{},
	}
	child.alive.Store(true)
	if berr := ns.bindSocket(child); berr != nil {
		_ = ns.close()
		s.lastErr = errkind.UNKNOWN
		return nil, peer, errkind.UNKNOWN
	}
	return child, peer, errkind.NONE
}

// Send writes buf to the connected peer.
func (s *Socket) Send(buf []byte) (int, errkind.Kind) {
	n, k := s.impl.send(buf)
	s.lastErr = k
	return n, k
}

// Recv reads into buf from the connected peer, honoring the recv quota.
func (s *Socket) Recv(buf []byte) (int, errkind.Kind) {
	if s.recvQuotaExceeded() {
		s.lastErr = errkind.LATER
		return 0, errkind.LATER
	}
	s.recvNum++

	n, k := s.impl.recv(buf)
	s.lastErr = k
	return n, k
}

// SendTo writes buf to addr on a datagram socket.
func (s *Socket) SendTo(a addr.Addr, buf []byte) (int, errkind.Kind) {
	n, k := s.impl.sendTo(a, buf)
	s.lastErr = k
	return n, k
}

// RecvFrom reads a datagram into buf, reporting its source address.
func (s *Socket) RecvFrom(buf []byte) (int, addr.Addr, errkind.Kind) {
	if s.recvQuotaExceeded() {
		s.lastErr = errkind.LATER
		return 0, addr.Addr{}, errkind.LATER
	}
	s.recvNum++

	n, from, k := s.impl.recvFrom(buf)
	s.lastErr = k
	return n, from, k
}

// SendToFrom writes buf to remoteAddr, requesting the kernel select
// localHint as the packet's source address via PKTINFO. Degrades to SendTo
// when PKTINFO is unavailable.
func (s *Socket) SendToFrom(remoteAddr addr.Addr, localHint addr.IPAddr, buf []byte) (int, errkind.Kind) {
	if !s.havePktinfo {
		return s.SendTo(remoteAddr, buf)
	}

	n, k := s.impl.sendToFrom(remoteAddr, localHint, buf)
	s.lastErr = k
	return n, k
}

// RecvFromTo reads a datagram into buf, reporting both its source address
// and the local (destination) address it was sent to, via PKTINFO. Degrades
// to RecvFrom with localIP == IPAddrNone when PKTINFO is unavailable.
func (s *Socket) RecvFromTo(buf []byte) (int, addr.Addr, addr.IPAddr, errkind.Kind) {
	if !s.havePktinfo {
		n, from, k := s.RecvFrom(buf)
		return n, from, addr.InitNone(), k
	}

	if s.recvQuotaExceeded() {
		s.lastErr = errkind.LATER
		return 0, addr.Addr{}, addr.InitNone(), errkind.LATER
	}
	s.recvNum++

	n, from, local, k := s.impl.recvFromTo(buf)
	s.lastErr = k
	return n, from, local, k
}

// LocalAddr reports the address the socket is currently bound to, reading it
// back from the OS since Bind with port 0 leaves the kernel-assigned port
// otherwise unknown to the caller. false if the backend cannot report it.
func (s *Socket) LocalAddr() (addr.Addr, bool) {
	a, err := s.impl.localAddr()
	if err != nil {
		return addr.Addr{}, false
	}
	return a, true
}

// Close unregisters from the reactor, closes the OS handle, and marks the
// liveness token dead so an in-flight dispatcher can unwind safely. Calling
// Close twice is not guaranteed to be safe.
func (s *Socket) Close() error {
	s.alive.Store(false)
	return s.impl.close()
}
