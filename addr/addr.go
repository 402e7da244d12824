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

// Package addr translates between the portable Addr/IPAddr value types used
// by the socket and pktinfo packages and the OS-specific sockaddr
// representations, which diverge between POSIX and Windows. PKTINFO control
// messages are built and parsed by the pktinfo package.
package addr

import (
	"net"
	"strconv"
)

// Family distinguishes the two address families this package understands.
type Family uint8

const (
	FamilyV4 Family = iota
	FamilyV6
)

// Addr is a portable tagged-union socket address: either an IPv4 or an IPv6
// endpoint, never both. Port is host-order; callers never see network byte
// order, that conversion is internal to the OS-specific translators.
type Addr struct {
	Family Family
	V4     [4]byte
	V6     [16]byte
	Port   uint16
}

// NewV4 builds an Addr from a 4-byte IPv4 address and a port.
func NewV4(ip [4]byte, port uint16) Addr {
	return Addr{Family: FamilyV4, V4: ip, Port: port}
}

// NewV6 builds an Addr from a 16-byte IPv6 address and a port.
func NewV6(ip [16]byte, port uint16) Addr {
	return Addr{Family: FamilyV6, V6: ip, Port: port}
}

// FromNetAddr converts a net.IP/port pair into an Addr, selecting the family
// from the IP's 4-in-6 representation. Returns false if ip is neither a valid
// IPv4 nor IPv6 address.
func FromNetAddr(ip net.IP, port int) (Addr, bool) {
	if v4 := ip.To4(); v4 != nil {
		var a [4]byte
		copy(a[:], v4)
		return NewV4(a, uint16(port)), true
	}
	if v6 := ip.To16(); v6 != nil {
		var a [16]byte
		copy(a[:], v6)
		return NewV6(a, uint16(port)), true
	}
	return Addr{}, false
}

// IP returns the net.IP representation of this Addr.
func (a Addr) IP() net.IP {
	if a.Family == FamilyV4 {
		return net.IPv4(a.V4[0], a.V4[1], a.V4[2], a.V4[3])
	}
	b := make(net.IP, 16)
	copy(b, a.V6[:])
	return b
}

// String renders the Addr as "ip:port", matching net.JoinHostPort output.
func (a Addr) String() string {
	return net.JoinHostPort(a.IP().String(), strconv.Itoa(int(a.Port)))
}

// IPAddrKind tags the variant carried by an IPAddr hint.
type IPAddrKind uint8

const (
	IPAddrNone IPAddrKind = iota
	IPAddrV4
	IPAddrV6
)

// IPAddr is a local-address hint carrying only an IP (no port), used by
// send_to_from / recv_from_to to request or report a packet's source or
// destination address.
type IPAddr struct {
	Kind IPAddrKind
	V4   [4]byte
	V6   [16]byte
}

// InitNone returns the "no hint" IPAddr.
func InitNone() IPAddr {
	return IPAddr{Kind: IPAddrNone}
}

// InitV4 returns an IPAddr hint carrying an IPv4 address.
func InitV4(ip [4]byte) IPAddr {
	return IPAddr{Kind: IPAddrV4, V4: ip}
}

// InitV6 returns an IPAddr hint carrying an IPv6 address.
func InitV6(ip [16]byte) IPAddr {
	return IPAddr{Kind: IPAddrV6, V6: ip}
}

// IP returns the net.IP representation, or nil for IPAddrNone.
func (a IPAddr) IP() net.IP {
	switch a.Kind {
	case IPAddrV4:
		return net.IPv4(a.V4[0], a.V4[1], a.V4[2], a.V4[3])
	case IPAddrV6:
		b := make(net.IP, 16)
		copy(b, a.V6[:])
		return b
	default:
		return nil
	}
}
