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

package initsys

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// wantVersion requests Winsock v2.2, matching every production Windows
// socket application since XP; nothing in this module speaks an older wire
// version.
const wantVersion = 0x0202

// platformInit calls WSAStartup requesting v2.2 and verifies the version the
// DLL actually negotiated, the one part of this sequence WSAStartup does not
// enforce itself.
func platformInit() error {
	var data windows.WSAData
	if err := windows.WSAStartup(wantVersion, &data); err != nil {
		return fmt.Errorf("initsys: WSAStartup: %w", err)
	}
	if data.Version != wantVersion {
		_ = windows.WSACleanup()
		return fmt.Errorf("initsys: negotiated Winsock version %#x, want %#x", data.Version, wantVersion)
	}
	return nil
}
