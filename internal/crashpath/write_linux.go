// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build linux

package crashpath

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

const openFlags = unix.O_WRONLY | unix.O_CREAT | unix.O_TRUNC | unix.O_CLOEXEC

// atFDCWD is a variable so it can be converted to uintptr.
var atFDCWD = unix.AT_FDCWD

// write issues openat directly on the prepared path bytes, avoiding the
// string conversion unix.Open performs.
func (f *File) write(b []byte) error {
	r, _, errno := unix.Syscall6(unix.SYS_OPENAT,
		uintptr(atFDCWD),
		uintptr(unsafe.Pointer(&f.pathz[0])),
		uintptr(openFlags),
		uintptr(fileMode),
		0, 0)
	if errno != 0 {
		return errno
	}
	fd := int(r)

	err := writeAll(fd, b)
	if cerr := unix.Close(fd); err == nil {
		err = cerr
	}
	return err
}
