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
	"net"
	"testing"

	"github.com/nabbar/nbsocket/addr"
)

func TestFromOSToOSRoundTripV4(t *testing.T) {
	want := addr.NewV4([4]byte{127, 0, 0, 1}, 4242)
	got, err := addr.FromOS(addr.ToOS(want))
	if err != nil {
		t.Fatalf("FromOS: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestFromOSToOSRoundTripV6(t *testing.T) {
	want := addr.NewV6([16]byte{0: 0x20, 1: 0x01, 15: 0x01}, 53)
	got, err := addr.FromOS(addr.ToOS(want))
	if err != nil {
		t.Fatalf("FromOS: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestFromNetAddr(t *testing.T) {
	a, ok := addr.FromNetAddr(net.ParseIP("192.168.1.1"), 80)
	if !ok {
		t.Fatal("expected ok for valid IPv4")
	}
	if a.Family != addr.FamilyV4 || a.Port != 80 {
		t.Fatalf("unexpected result: %+v", a)
	}
}

func TestIPAddrHints(t *testing.T) {
	if addr.InitNone().IP() != nil {
		t.Fatal("InitNone should carry no IP")
	}
	v4 := addr.InitV4([4]byte{10, 0, 0, 1})
	if v4.IP().String() != "10.0.0.1" {
		t.Fatalf("unexpected IPv4 hint: %v", v4.IP())
	}
}
