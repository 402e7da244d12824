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

package reactor

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/windows"
)

// maxWaitHandles mirrors WSA_MAXIMUM_WAIT_EVENTS: WSAWaitForMultipleEvents
// accepts at most this many event objects in one call.
const maxWaitHandles = 64

// HandleHandler is invoked when its associated event object is signaled. It
// receives no event bits: the caller owns the socket handle and is expected
// to call WSAEnumNetworkEvents itself to learn which FD_* bits fired and to
// reset the event object.
type HandleHandler func()

// Reactor is the Windows network-event-object-based loop. One Reactor polls
// up to maxWaitHandles event objects per WSAWaitForMultipleEvents call;
// AddHandle rejects registrations beyond that with an error.
type Reactor struct {
	mu      sync.Mutex
	handles []windows.Handle
	entries []HandleHandler
	closed  bool
}

// New creates an empty Windows event-object Reactor.
func New() (*Reactor, error) {
	return &Reactor{}, nil
}

// AddHandle registers an event object and the handler to invoke when it is
// signaled. The caller is responsible for associating the event object with
// a socket via WSAEventSelect before or after this call.
func (r *Reactor) AddHandle(eventObj windows.Handle, handler HandleHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("reactor: closed")
	}
	if len(r.handles) >= maxWaitHandles {
		return fmt.Errorf("reactor: maximum of %d registered handles reached", maxWaitHandles)
	}

	r.handles = append(r.handles, eventObj)
	r.entries = append(r.entries, handler)
	return nil
}

// EnableHandle is a no-op acknowledgement hook: on this backend, which FD_*
// bits are delivered is controlled entirely by the WSAEventSelect call the
// socket backend adapter issues directly on the OS handle, not by the
// reactor's registration.
func (r *Reactor) EnableHandle(windows.Handle) error {
	return nil
}

// RemoveHandle unregisters a previously added event object.
func (r *Reactor) RemoveHandle(eventObj windows.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, h := range r.handles {
		if h == eventObj {
			r.handles = append(r.handles[:i], r.handles[i+1:]...)
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

// Poll waits up to timeout (negative means forever) for any registered event
// object to be signaled, then invokes that one handler. It returns true if a
// handler was dispatched, false on timeout.
func (r *Reactor) Poll(timeout time.Duration) (bool, error) {
	r.mu.Lock()
	handles := make([]windows.Handle, len(r.handles))
	copy(handles, r.handles)
	entries := make([]HandleHandler, len(r.entries))
	copy(entries, r.entries)
	r.mu.Unlock()

	if len(handles) == 0 {
		return false, nil
	}

	ms := uint32(windows.WSA_INFINITE)
	if timeout >= 0 {
		ms = uint32(timeout / time.Millisecond)
	}

	idx, err := windows.WSAWaitForMultipleEvents(uint32(len(handles)), &handles[0], false, ms, false)
	if err != nil {
		return false, fmt.Errorf("reactor: WSAWaitForMultipleEvents: %w", err)
	}
	if idx == windows.WSA_WAIT_TIMEOUT {
		return false, nil
	}

	i := int(idx - windows.WSA_WAIT_EVENT_0)
	if i < 0 || i >= len(entries) {
		return false, fmt.Errorf("reactor: signaled index %d out of range", i)
	}

	entries[i]()
	return true, nil
}

// Close releases the Reactor. Event objects themselves are owned and closed
// by the sockets that created them.
func (r *Reactor) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.handles = nil
	r.entries = nil
	return nil
}
