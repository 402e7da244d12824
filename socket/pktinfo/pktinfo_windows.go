//go:build windows

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
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/nabbar/nbsocket/addr"
)

// Windows exposes PKTINFO only through WSASendMsg/WSARecvMsg, which are not
// ordinary exported symbols but extension functions fetched via
// WSAIoctl(SIO_GET_EXTENSION_FUNCTION_POINTER, <guid>); this package fetches
// them once per process, through the first socket that needs them. This mirrors how
// ConnectEx/AcceptEx are obtained on this platform.
const (
	ipProtoIP   = 0
	ipProtoIPV6 = 41

	ipPktinfo   = 19 // IP_PKTINFO, ws2ipdef.h
	ipv6Pktinfo = 19 // IPV6_PKTINFO, ws2ipdef.h

	sioGetExtensionFunctionPointer = 0xC8000006
)

var wsaidRecvMsg = windows.GUID{
	Data1: 0xf689d7c8,
	Data2: 0x6f1f,
	Data3: 0x436b,
	Data4: [8]byte{0x8a, 0x53, 0xe5, 0x4f, 0xe3, 0x51, 0xc3, 0x22},
}

var wsaidSendMsg = windows.GUID{
	Data1: 0xa441e712,
	Data2: 0x754f,
	Data3: 0x43ca,
	Data4: [8]byte{0x84, 0xa7, 0x0d, 0xee, 0x44, 0xcf, 0x60, 0x6d},
}

type wsaBuf struct {
	Len uint32
	Buf *byte
}

// wsaMsg mirrors the WSAMSG struct WSASendMsg/WSARecvMsg take, laid out for
// amd64/arm64 Windows (Namelen is a 32-bit int regardless of pointer width).
type wsaMsg struct {
	Name          *windows.RawSockaddrAny
	Namelen       int32
	Buffers       *wsaBuf
	BufferCount   uint32
	Control       wsaBuf
	Flags         uint32
}

type cmsghdr struct {
	Len   uintptr
	Level int32
	Type  int32
}

func cmsgSpace(dataLen int) int {
	align := func(n int) int { return (n + 7) &^ 7 }
	return align(int(unsafe.Sizeof(cmsghdr{}))) + align(dataLen)
}

func cmsgData(h *cmsghdr) unsafe.Pointer {
	align := func(n int) int { return (n + 7) &^ 7 }
	base := uintptr(unsafe.Pointer(h))
	return unsafe.Pointer(base + uintptr(align(int(unsafe.Sizeof(cmsghdr{})))))
}

type inPktinfo struct {
	Addr    [4]byte
	Ifindex uint32
}

type in6Pktinfo struct {
	Addr    [16]byte
	Ifindex uint32
}

var (
	fnOnce     sync.Once
	fnRecvMsg  uintptr
	fnSendMsg  uintptr
	fnErr      error
)

func loadExtensionFns(fd windows.Handle) error {
	fnOnce.Do(func() {
		fnRecvMsg, fnErr = getExtensionFn(fd, wsaidRecvMsg)
		if fnErr != nil {
			return
		}
		fnSendMsg, fnErr = getExtensionFn(fd, wsaidSendMsg)
	})
	return fnErr
}

func getExtensionFn(fd windows.Handle, guid windows.GUID) (uintptr, error) {
	var fn uintptr
	var bytes uint32
	err := windows.WSAIoctl(fd, sioGetExtensionFunctionPointer,
		(*byte)(unsafe.Pointer(&guid)), uint32(unsafe.Sizeof(guid)),
		(*byte)(unsafe.Pointer(&fn)), uint32(unsafe.Sizeof(fn)),
		&bytes, nil, 0)
	if err != nil {
		return 0, err
	}
	return fn, nil
}

// syscallN invokes a raw Winsock extension-function pointer fetched via
// WSAIoctl; these are not declared in x/sys/windows so they must be called
// through the generic trampoline instead of a typed wrapper.
func syscallN(trampoline uintptr, args ...uintptr) (r1, r2 uintptr, err error) {
	return syscall.SyscallN(trampoline, args...)
}

// Enable turns on kernel delivery of PKTINFO ancillary data for fd.
func Enable(fd windows.Handle, fam Family) bool {
	var level, opt int32 = ipProtoIP, ipPktinfo
	if fam == FamilyV6 {
		level, opt = ipProtoIPV6, ipv6Pktinfo
	}
	one := int32(1)
	return windows.Setsockopt(fd, level, opt, (*byte)(unsafe.Pointer(&one)), int32(unsafe.Sizeof(one))) == nil
}

// rawSockaddrInet4/6 mirror ws2def.h layout; used instead of the unexported
// conversion methods on windows.Sockaddr, which this package cannot reach
// from outside the windows package.
type rawSockaddrInet4 struct {
	Family uint16
	Port   uint16
	Addr   [4]byte
	Zero   [8]byte
}

type rawSockaddrInet6 struct {
	Family   uint16
	Port     uint16
	Flowinfo uint32
	Addr     [16]byte
	ScopeID  uint32
}

func addrToRaw(a addr.Addr) (windows.RawSockaddrAny, int32) {
	var rsa windows.RawSockaddrAny

	if a.Family == addr.FamilyV4 {
		sin := (*rawSockaddrInet4)(unsafe.Pointer(&rsa))
		sin.Family = windows.AF_INET
		sin.Port = hton16(a.Port)
		sin.Addr = a.V4
		return rsa, int32(unsafe.Sizeof(rawSockaddrInet4{}))
	}

	sin6 := (*rawSockaddrInet6)(unsafe.Pointer(&rsa))
	sin6.Family = windows.AF_INET6
	sin6.Port = hton16(a.Port)
	sin6.Addr = a.V6
	return rsa, int32(unsafe.Sizeof(rawSockaddrInet6{}))
}

func rawToAddr(rsa *windows.RawSockaddrAny, salen int32) addr.Addr {
	fam := *(*uint16)(unsafe.Pointer(rsa))
	if fam == windows.AF_INET6 {
		sin6 := (*rawSockaddrInet6)(unsafe.Pointer(rsa))
		return addr.NewV6(sin6.Addr, ntoh16(sin6.Port))
	}
	sin := (*rawSockaddrInet4)(unsafe.Pointer(rsa))
	return addr.NewV4(sin.Addr, ntoh16(sin.Port))
}

func hton16(v uint16) uint16 { return v<<8 | v>>8 }
func ntoh16(v uint16) uint16 { return v<<8 | v>>8 }

// SendToFrom sends buf to, requesting localHint as the packet's source
// address, via WSASendMsg with a PKTINFO control message.
func SendToFrom(fd windows.Handle, to addr.Addr, fam Family, localHint addr.IPAddr, buf []byte) (int, error) {
	if err := loadExtensionFns(fd); err != nil {
		return 0, err
	}

	rsa, salen := addrToRaw(to)

	oob := buildOutboundControl(fam, localHint)
	wbuf := wsaBuf{Len: uint32(len(buf))}
	if len(buf) > 0 {
		wbuf.Buf = &buf[0]
	}

	msg := wsaMsg{
		Name:        &rsa,
		Namelen:     salen,
		Buffers:     &wbuf,
		BufferCount: 1,
	}
	if len(oob) > 0 {
		msg.Control = wsaBuf{Len: uint32(len(oob)), Buf: &oob[0]}
	}

	var sent uint32
	r1, _, e1 := syscallN(fnSendMsg, uintptr(fd), uintptr(unsafe.Pointer(&msg)), 0,
		uintptr(unsafe.Pointer(&sent)), 0, 0)
	if r1 != 0 {
		return 0, e1
	}
	return int(sent), nil
}

func buildOutboundControl(fam Family, hint addr.IPAddr) []byte {
	if hint.Kind == addr.IPAddrNone {
		return nil
	}

	switch fam {
	case FamilyV4:
		size := int(unsafe.Sizeof(inPktinfo{}))
		oob := make([]byte, cmsgSpace(size))
		h := (*cmsghdr)(unsafe.Pointer(&oob[0]))
		h.Level = ipProtoIP
		h.Type = ipPktinfo
		h.Len = uintptr(cmsgSpace(size))
		pi := (*inPktinfo)(cmsgData(h))
		if hint.Kind == addr.IPAddrV4 {
			pi.Addr = hint.V4
		}
		return oob
	case FamilyV6:
		size := int(unsafe.Sizeof(in6Pktinfo{}))
		oob := make([]byte, cmsgSpace(size))
		h := (*cmsghdr)(unsafe.Pointer(&oob[0]))
		h.Level = ipProtoIPV6
		h.Type = ipv6Pktinfo
		h.Len = uintptr(cmsgSpace(size))
		pi := (*in6Pktinfo)(cmsgData(h))
		if hint.Kind == addr.IPAddrV6 {
			pi.Addr = hint.V6
		}
		return oob
	default:
		return nil
	}
}

// RecvFromTo receives one datagram into buf via WSARecvMsg, reporting both
// its peer address and the PKTINFO-reported local address, when present.
func RecvFromTo(fd windows.Handle, fam Family, buf []byte) (n int, from addr.Addr, local addr.IPAddr, err error) {
	local = addr.InitNone()

	if err = loadExtensionFns(fd); err != nil {
		return 0, from, local, err
	}

	ctrlSize := cmsgSpace(int(unsafe.Sizeof(inPktinfo{})))
	if fam == FamilyV6 {
		ctrlSize = cmsgSpace(int(unsafe.Sizeof(in6Pktinfo{})))
	}
	oob := make([]byte, ctrlSize)

	var rsa windows.RawSockaddrAny
	wbuf := wsaBuf{Len: uint32(len(buf))}
	if len(buf) > 0 {
		wbuf.Buf = &buf[0]
	}

	msg := wsaMsg{
		Name:        &rsa,
		Namelen:     int32(unsafe.Sizeof(rsa)),
		Buffers:     &wbuf,
		BufferCount: 1,
		Control:     wsaBuf{Len: uint32(len(oob)), Buf: &oob[0]},
	}

	var received uint32
	r1, _, e1 := syscallN(fnRecvMsg, uintptr(fd), uintptr(unsafe.Pointer(&msg)),
		uintptr(unsafe.Pointer(&received)), 0, 0)
	if r1 != 0 {
		return 0, from, local, e1
	}

	from = rawToAddr(&rsa, msg.Namelen)
	local = parseInboundControl(fam, oob)
	return int(received), from, local, nil
}

func parseInboundControl(fam Family, oob []byte) addr.IPAddr {
	if len(oob) < int(unsafe.Sizeof(cmsghdr{})) {
		return addr.InitNone()
	}
	h := (*cmsghdr)(unsafe.Pointer(&oob[0]))

	switch fam {
	case FamilyV4:
		if h.Level == ipProtoIP && h.Type == ipPktinfo {
			pi := (*inPktinfo)(cmsgData(h))
			return addr.InitV4(pi.Addr)
		}
	case FamilyV6:
		if h.Level == ipProtoIPV6 && h.Type == ipv6Pktinfo {
			pi := (*in6Pktinfo)(cmsgData(h))
			return addr.InitV6(pi.Addr)
		}
	}
	return addr.InitNone()
}
