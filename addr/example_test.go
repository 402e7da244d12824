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

package addr_test

import (
	"fmt"

	"github.com/nabbar/nbsocket/addr"
)

// ExampleNewV4 builds a portable Addr and renders it the same way
// net.JoinHostPort would.
func ExampleNewV4() {
	a := addr.NewV4([4]byte{127, 0, 0, 1}, 53)
	fmt.Println(a.String())
	// Output:
	// 127.0.0.1:53
}

// ExampleIPAddr shows the three states a local-address hint can carry: no
// hint, or an IPv4/IPv6 source/destination IP without a port.
func ExampleIPAddr() {
	none := addr.InitNone()
	v4 := addr.InitV4([4]byte{192, 168, 1, 1})

	fmt.Println(none.IP())
	fmt.Println(v4.IP())
	// Output:
	// <nil>
	// 192.168.1.1
}
