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

package pktinfo

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/nabbar/nbsocket/addr"
)

const (
	v4PktinfoSize = int(unsafe.Sizeof(unix.Inet4Pktinfo{}))
	v6PktinfoSize = int(unsafe.Sizeof(unix.Inet6Pktinfo{}))
)

// Enable turns on kernel delivery of PKTINFO ancillary data for every
// datagram received on fd. It is best-effort: a failure here means the
// caller should proceed without PKTINFO rather than fail socket open.
func Enable(fd int, fam Family) bool {
	switch fam {
	case FamilyV4:
		return unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_PKTINFO, 1) == nil
	case FamilyV6:
		return unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_RECVPKTINFO, 1) == nil
	default:
		return false
	}
}

// SendToFrom sends buf to, requesting the kernel pick localHint as the
// packet's source address via a PKTINFO control message riding on sendmsg.
func SendToFrom(fd int, to unix.Sockaddr, fam Family, localHint addr.IPAddr, buf []byte) (int, error) {
	oob, err := buildOutboundPktinfo(fam, localHint)
	if err != nil {
		return 0, err
	}
	return unix.SendmsgN(fd, buf, oob, to, unix.MSG_NOSIGNAL)
}

func buildOutboundPktinfo(fam Family, hint addr.IPAddr) ([]byte, error) {
	if hint.Kind == addr.IPAddrNone {
		return nil, nil
	}

	switch fam {
	case FamilyV4:
		oob := make([]byte, unix.CmsgSpace(v4PktinfoSize))
		h := (*unix.Cmsghdr)(unsafe.Pointer(&oob[0]))
		h.Level = unix.IPPROTO_IP
		h.Type = unix.IP_PKTINFO
		h.SetLen(unix.CmsgLen(v4PktinfoSize))

		pi := (*unix.Inet4Pktinfo)(unsafe.Pointer(&oob[unix.CmsgLen(0)]))
		if hint.Kind == addr.IPAddrV4 {
			pi.Spec_dst = hint.V4
		}
		return oob, nil

	case FamilyV6:
		oob := make([]byte, unix.CmsgSpace(v6PktinfoSize))
		h := (*unix.Cmsghdr)(unsafe.Pointer(&oob[0]))
		h.Level = unix.IPPROTO_IPV6
		h.Type = unix.IPV6_PKTINFO
		h.SetLen(unix.CmsgLen(v6PktinfoSize))

		pi := (*unix.Inet6Pktinfo)(unsafe.Pointer(&oob[unix.CmsgLen(0)]))
		if hint.Kind == addr.IPAddrV6 {
			pi.Addr = hint.V6
		}
		return oob, nil

	default:
		return nil, nil
	}
}

// RecvFromTo receives one datagram into buf, reporting both its peer address
// and the local (destination) address reported via PKTINFO, when the kernel
// included it.
func RecvFromTo(fd int, fam Family, buf []byte) (n int, from unix.Sockaddr, local addr.IPAddr, err error) {
	oobSize := unix.CmsgSpace(v4PktinfoSize)
	if fam == FamilyV6 {
		oobSize = unix.CmsgSpace(v6PktinfoSize)
	}
	oob := make([]byte, oobSize)

	n, oobn, _, from, err := unix.Recvmsg(fd, buf, oob, 0)
	if err != nil {
		return n, from, addr.InitNone(), err
	}

	local = addr.InitNone()
	if oobn == 0 {
		return n, from, local, nil
	}

	scms, perr := unix.ParseSocketControlMessage(oob[:oobn])
	if perr != nil {
		return n, from, local, nil
	}

	for _, scm := range scms {
		switch {
		case fam == FamilyV4 && scm.Header.Level == unix.IPPROTO_IP && scm.Header.Type == unix.IP_PKTINFO:
			if len(scm.Data) >= v4PktinfoSize {
				pi := (*unix.Inet4Pktinfo)(unsafe.Pointer(&scm.Data[0]))
				local = addr.InitV4(pi.Addr)
			}
		case fam == FamilyV6 && scm.Header.Level == unix.IPPROTO_IPV6 && scm.Header.Type == unix.IPV6_PKTINFO:
			if len(scm.Data) >= v6PktinfoSize {
				pi := (*unix.Inet6Pktinfo)(unsafe.Pointer(&scm.Data[0]))
				local = addr.InitV6(pi.Addr)
			}
		}
	}

	return n, from, local, nil
}
