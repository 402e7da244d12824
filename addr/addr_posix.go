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

package addr

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ErrUnsupportedFamily is returned by FromOS when the sockaddr is neither
// AF_INET nor AF_INET6.
var ErrUnsupportedFamily = errors.New("addr: unsupported address family")

// ToOS converts a portable Addr into the unix.Sockaddr union accepted by
// golang.org/x/sys/unix syscalls (bind, connect, sendmsg...). IPv6 scope_id
// and flow info are always zero: this module does not support scoped
// addresses.
func ToOS(a Addr) unix.Sockaddr {
	if a.Family == FamilyV4 {
		return &unix.SockaddrInet4{Port: int(a.Port), Addr: a.V4}
	}
	return &unix.SockaddrInet6{Port: int(a.Port), Addr: a.V6}
}

// FromOS converts a unix.Sockaddr (as returned by Accept4/Getpeername/
// Getsockname/Recvmsg) back into a portable Addr. Families other than
// AF_INET/AF_INET6 are rejected.
func FromOS(sa unix.Sockaddr) (Addr, error) {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return NewV4(v.Addr, uint16(v.Port)), nil
	case *unix.SockaddrInet6:
		return NewV6(v.Addr, uint16(v.Port)), nil
	default:
		return Addr{}, ErrUnsupportedFamily
	}
}
