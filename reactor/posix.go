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

package reactor

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Reactor is the POSIX readiness-based event loop. One Reactor owns one
// epoll instance; AddFD/SetFDEvents/RemoveFD may be called from within a
// dispatched handler (Poll is re-entrant with respect to registration, not
// with respect to being driven from two goroutines at once).
type Reactor struct {
	epfd int

	mu      sync.Mutex
	entries map[int]*entry
	closed  bool
}

type entry struct {
	mask    Mask
	handler FDHandler
}

// New creates a Reactor backed by a fresh epoll instance.
func New() (*Reactor, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("reactor: epoll_create1: %w", err)
	}
	return &Reactor{epfd: fd, entries: make(map[int]*entry)}, nil
}

func toEpollEvents(m Mask) uint32 {
	var ev uint32
	if m&ReadReady != 0 {
		ev |= unix.EPOLLIN
	}
	if m&WriteReady != 0 {
		ev |= unix.EPOLLOUT
	}
	return ev
}

func fromEpollEvents(ev uint32) Mask {
	var m Mask
	if ev&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		m |= ReadReady
	}
	if ev&(unix.EPOLLOUT|unix.EPOLLERR) != 0 {
		m |= WriteReady
	}
	return m
}

// AddFD registers fd with the given initial mask and handler.
func (r *Reactor) AddFD(fd int, mask Mask, handler FDHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("reactor: closed")
	}
	if _, ok := r.entries[fd]; ok {
		return fmt.Errorf("reactor: fd %d already registered", fd)
	}

	ev := &unix.EpollEvent{Events: toEpollEvents(mask), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		return fmt.Errorf("reactor: epoll_ctl add fd %d: %w", fd, err)
	}

	r.entries[fd] = &entry{mask: mask, handler: handler}
	return nil
}

// SetFDEvents reprograms the mask epoll watches for fd.
func (r *Reactor) SetFDEvents(fd int, mask Mask) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[fd]
	if !ok {
		return fmt.Errorf("reactor: fd %d not registered", fd)
	}

	ev := &unix.EpollEvent{Events: toEpollEvents(mask), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, ev); err != nil {
		return fmt.Errorf("reactor: epoll_ctl mod fd %d: %w", fd, err)
	}

	e.mask = mask
	return nil
}

// RemoveFD unregisters fd. It is not an error to remove an fd that was
// already closed out from under the reactor (EBADF is swallowed) since close
// order between the socket and the reactor is the caller's responsibility.
func (r *Reactor) RemoveFD(fd int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[fd]; !ok {
		return nil
	}
	delete(r.entries, fd)

	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil && err != unix.EBADF {
		return fmt.Errorf("reactor: epoll_ctl del fd %d: %w", fd, err)
	}
	return nil
}

// Poll blocks for up to timeout (negative means forever) waiting for
// readiness, then dispatches every ready fd's handler once, masked by its
// currently registered mask. It returns the number of fds dispatched.
func (r *Reactor) Poll(timeout time.Duration) (int, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}

	events := make([]unix.EpollEvent, 128)
	n, err := unix.EpollWait(r.epfd, events, ms)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("reactor: epoll_wait: %w", err)
	}

	dispatched := 0
	for i := 0; i < n; i++ {
		fd := int(events[i].Fd)

		r.mu.Lock()
		e, ok := r.entries[fd]
		r.mu.Unlock()
		if !ok {
			continue
		}

		ready := fromEpollEvents(events[i].Events) & e.mask
		if ready == 0 {
			continue
		}

		e.handler(fd, ready)
		dispatched++
	}

	return dispatched, nil
}

// Close releases the underlying epoll instance. Registered fds are not
// closed; that remains the owning socket's responsibility.
func (r *Reactor) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return unix.Close(r.epfd)
}
