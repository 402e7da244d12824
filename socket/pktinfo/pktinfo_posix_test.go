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
	"testing"

	"golang.org/x/sys/unix"

	"github.com/nabbar/nbsocket/addr"
)

// TestBuildOutboundPktinfoNoneIsEmpty pins down spec.md §4.6: "None → no
// ancillary records; control length is 0." A zeroed-but-present PKTINFO
// record is not the same thing — the kernel would honor it as an explicit
// request to use 0.0.0.0/:: as the packet's source, overriding normal
// routing-table source selection.
func TestBuildOutboundPktinfoNoneIsEmpty(t *testing.T) {
	for _, fam := range []Family{FamilyV4, FamilyV6} {
		oob, err := buildOutboundPktinfo(fam, addr.InitNone())
		if err != nil {
			t.Fatalf("family %v: unexpected error: %v", fam, err)
		}
		if len(oob) != 0 {
			t.Fatalf("family %v: expected empty control buffer for IPAddrNone, got %d bytes", fam, len(oob))
		}
	}
}

// TestBuildOutboundPktinfoHintProducesOneRecord is the complementary case:
// an explicit hint still produces exactly one CMSG_SPACE-sized record.
func TestBuildOutboundPktinfoHintProducesOneRecord(t *testing.T) {
	oob, err := buildOutboundPktinfo(FamilyV4, addr.InitV4([4]byte{127, 0, 0, 1}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := unix.CmsgSpace(v4PktinfoSize); len(oob) != want {
		t.Fatalf("expected %d bytes, got %d", want, len(oob))
	}

	oob, err = buildOutboundPktinfo(FamilyV6, addr.InitV6([16]byte{0: 0x20, 15: 1}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := unix.CmsgSpace(v6PktinfoSize); len(oob) != want {
		t.Fatalf("expected %d bytes, got %d", want, len(oob))
	}
}
