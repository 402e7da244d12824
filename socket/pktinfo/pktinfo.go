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

// Package pktinfo is the ancillary-control-message engine behind datagram
// send-with-source and receive-with-destination. It is the part of this
// module with the least portable OS surface: IP_PKTINFO / IPV6_PKTINFO on
// POSIX, and the same PKTINFO control messages carried through
// WSASendMsg/WSARecvMsg on Windows. Callers
// that cannot enable it are expected to fall back to a plain send_to/recv_from
// with no local address reported, never to fail the socket outright.
package pktinfo

// Family selects which PKTINFO structure (IPv4 or IPv6) a call builds.
type Family uint8

const (
	FamilyV4 Family = iota
	FamilyV6
)
