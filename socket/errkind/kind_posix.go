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

package errkind

import (
	"errors"

	"golang.org/x/sys/unix"
)

// FromErrno maps a POSIX errno (as returned by golang.org/x/sys/unix syscalls)
// to the stable Kind taxonomy, per operation family. isDatagram selects the
// DGRAM connection-reset-becomes-refused substitution rule for send/recv.
func FromErrno(op Op, isDatagram bool, err error) Kind {
	if err == nil {
		return NONE
	}

	var errno unix.Errno
	if !errors.As(err, &errno) {
		return UNKNOWN
	}

	switch op {
	case OpConnect:
		switch errno {
		case unix.EINPROGRESS, unix.EALREADY:
			return IN_PROGRESS
		case 0:
			return NONE
		case unix.ETIMEDOUT:
			return CONNECTION_TIMED_OUT
		case unix.ECONNREFUSED:
			return CONNECTION_REFUSED
		default:
			return UNKNOWN
		}

	case OpBind:
		switch errno {
		case unix.EADDRNOTAVAIL:
			return ADDRESS_NOT_AVAILABLE
		case unix.EADDRINUSE:
			return ADDRESS_IN_USE
		case unix.EACCES, unix.EPERM:
			return ACCESS_DENIED
		default:
			return UNKNOWN
		}

	case OpListen:
		switch errno {
		case unix.EADDRINUSE:
			return ADDRESS_IN_USE
		default:
			return UNKNOWN
		}

	case OpAccept, OpSend, OpRecv:
		switch errno {
		case unix.EAGAIN, unix.EWOULDBLOCK:
			return LATER
		case unix.ECONNRESET:
			if isDatagram {
				return CONNECTION_REFUSED
			}
			return CONNECTION_RESET
		case unix.ECONNREFUSED:
			return CONNECTION_REFUSED
		default:
			return UNKNOWN
		}
	}

	return UNKNOWN
}
