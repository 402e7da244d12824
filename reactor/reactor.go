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

// Package reactor implements the single-threaded, cooperative event loop the
// socket package registers with. Two concrete backends exist behind the same
// shape: a POSIX variant driven by epoll readiness, and a Windows variant
// driven by WSAEventSelect signaling; the socket package's backend adapter
// picks one at compile time via build tags and never sees the difference.
package reactor

// Mask is a bitset of raw readiness conditions a POSIX reactor watches for.
// It is deliberately smaller than the socket package's logical event set:
// ACCEPT and CONNECT both ride on WriteReady/ReadReady at this layer.
type Mask uint8

const (
	ReadReady Mask = 1 << iota
	WriteReady
)

// FDHandler is invoked by the POSIX reactor with the subset of the
// registered mask that became ready.
type FDHandler func(fd int, ready Mask)
