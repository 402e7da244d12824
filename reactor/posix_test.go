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

package reactor_test

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nabbar/nbsocket/reactor"
)

func TestReactorDispatchesReadReady(t *testing.T) {
	fds := make([]int, 2)
	if err := unix.Pipe(fds); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	r, err := reactor.New()
	if err != nil {
		t.Fatalf("reactor.New: %v", err)
	}
	defer r.Close()

	dispatched := make(chan reactor.Mask, 1)
	if err := r.AddFD(fds[0], reactor.ReadReady, func(fd int, ready reactor.Mask) {
		dispatched <- ready
	}); err != nil {
		t.Fatalf("AddFD: %v", err)
	}

	if _, err := unix.Write(fds[1], []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}

	n, err := r.Poll(time.Second)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 dispatched fd, got %d", n)
	}

	select {
	case m := <-dispatched:
		if m&reactor.ReadReady == 0 {
			t.Fatalf("expected ReadReady bit set, got %v", m)
		}
	default:
		t.Fatal("handler was not invoked")
	}
}

func TestReactorRemoveFD(t *testing.T) {
	fds := make([]int, 2)
	if err := unix.Pipe(fds); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	r, err := reactor.New()
	if err != nil {
		t.Fatalf("reactor.New: %v", err)
	}
	defer r.Close()

	if err := r.AddFD(fds[0], reactor.ReadReady, func(int, reactor.Mask) {}); err != nil {
		t.Fatalf("AddFD: %v", err)
	}
	if err := r.RemoveFD(fds[0]); err != nil {
		t.Fatalf("RemoveFD: %v", err)
	}
	if err := r.RemoveFD(fds[0]); err != nil {
		t.Fatalf("RemoveFD should be idempotent: %v", err)
	}
}
