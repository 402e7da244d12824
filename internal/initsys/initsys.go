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

// Package initsys is the one-time process startup hook the socket package
// calls before opening its first socket: on POSIX it does nothing, on
// Windows it requests Winsock v2.2 via WSAStartup. It is modeled as a scoped
// acquisition with a paired Release rather than a bare init() so a caller
// embedding this module inside a longer-lived process can still account for
// the reference.
package initsys

import "sync"

var (
	once    sync.Once
	initErr error
	refs    int
	mu      sync.Mutex
)

// Acquire performs process-wide socket subsystem startup exactly once,
// regardless of how many times or from how many goroutines it is called; the
// first call's result is cached and replayed to every caller. Each
// successful Acquire should be paired with a Release.
func Acquire() error {
	once.Do(func() {
		initErr = platformInit()
	})
	if initErr == nil {
		mu.Lock()
		refs++
		mu.Unlock()
	}
	return initErr
}

// Release drops one reference acquired by Acquire. It never tears down the
// underlying platform subsystem while sockets opened through this package
// might still be alive elsewhere in the process; callers that need a hard
// WSACleanup at process exit should call platform APIs directly.
func Release() {
	mu.Lock()
	defer mu.Unlock()
	if refs > 0 {
		refs--
	}
}

// Refs reports the current outstanding acquisition count.
func Refs() int {
	mu.Lock()
	defer mu.Unlock()
	return refs
}
