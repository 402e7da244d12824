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

// Package errkind maps the OS-specific errors produced by socket syscalls
// (POSIX errno, Windows Winsock error codes) onto a single stable taxonomy,
// so that nothing above the reactor/socket boundary ever has to switch on an
// OS-specific error value.
package errkind

import (
	"fmt"

	liberr "github.com/nabbar/nbsocket/errors"
)

// Kind is the stable, OS-independent error taxonomy every fallible socket
// operation reports through.
type Kind uint8

const (
	NONE Kind = iota
	IN_PROGRESS
	LATER
	ADDRESS_NOT_AVAILABLE
	ADDRESS_IN_USE
	ACCESS_DENIED
	CONNECTION_REFUSED
	CONNECTION_RESET
	CONNECTION_TIMED_OUT
	UNKNOWN
)

const (
	// CodeBase is the liberr.CodeError registered for this taxonomy; a Kind's
	// message is looked up as CodeBase+Kind.
	CodeBase liberr.CodeError = liberr.MinPkgErrKind
)

func init() {
	if liberr.ExistInMapMessage(CodeBase) {
		panic(fmt.Errorf("error code collision with package socket/errkind"))
	}
	liberr.RegisterIdFctMessage(CodeBase, getMessage)
}

func getMessage(code liberr.CodeError) string {
	k := Kind(code - CodeBase)
	if int(k) >= len(names) {
		return liberr.NullMessage
	}
	return names[k]
}

var names = [...]string{
	NONE:                  "success",
	IN_PROGRESS:           "operation in progress",
	LATER:                 "operation would block, retry later",
	ADDRESS_NOT_AVAILABLE: "address not available",
	ADDRESS_IN_USE:        "address already in use",
	ACCESS_DENIED:         "access denied",
	CONNECTION_REFUSED:    "connection refused",
	CONNECTION_RESET:      "connection reset by peer",
	CONNECTION_TIMED_OUT:  "connection timed out",
	UNKNOWN:               "unknown error",
}

// String renders the Kind's taxonomy name.
func (k Kind) String() string {
	if int(k) >= len(names) {
		return names[UNKNOWN]
	}
	return names[k]
}

// Error implements the error interface so a Kind can be returned/compared
// directly wherever a plain error is expected.
func (k Kind) Error() string {
	return k.String()
}

// CodeError returns the liberr.CodeError registered for this Kind, for
// callers that want the module's structured Error type instead of a bare Kind.
func (k Kind) CodeError() liberr.CodeError {
	return CodeBase + liberr.CodeError(k)
}

// Terminal reports whether this Kind represents a final outcome, as opposed
// to IN_PROGRESS/LATER which tell the caller to wait for reactor readiness
// and retry.
func (k Kind) Terminal() bool {
	return k != IN_PROGRESS && k != LATER
}
