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

//go:build !windows

package reactor_test

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nabbar/nbsocket/reactor"
)

// ExampleReactor shows the minimal registration/poll cycle a backend adapter
// drives: register an fd with an initial mask, wait for readiness, then
// react to whichever bits came back.
func ExampleReactor() {
	fds := make([]int, 2)
	if err := unix.Pipe(fds); err != nil {
		panic(err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	r, err := reactor.New()
	if err != nil {
		panic(err)
	}
	defer r.Close()

	done := make(chan struct{})
	if err := r.AddFD(fds[0], reactor.ReadReady, func(fd int, ready reactor.Mask) {
		if ready&reactor.ReadReady != 0 {
			fmt.Println("readable")
		}
		close(done)
	}); err != nil {
		panic(err)
	}

	if _, err := unix.Write(fds[1], []byte("x")); err != nil {
		panic(err)
	}

	for {
		if _, err := r.Poll(10 * time.Millisecond); err != nil {
			panic(err)
		}
		select {
		case <-done:
			return
		default:
		}
	}

	// Output:
	// readable
}
