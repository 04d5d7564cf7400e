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


//go:build linux && !mips && !mipsle && !mips64 && !mips64le

package crashpath

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// kernelSigaction matches the layout rt_sigaction reads. The zero value is
// SIG_DFL with no flags and an empty mask.
type kernelSigaction struct {
	handler  uintptr
	flags    uintptr
	restorer uintptr
	mask     uint64
}

// setDefault installs SIG_DFL for sig below the Go runtime, so the next
// delivery takes the kernel's default action.
func setDefault(sig syscall.Signal) error {
	var sa kernelSigaction
	_, _, errno := unix.RawSyscall6(unix.SYS_RT_SIGACTION,
		uintptr(sig),
		uintptr(unsafe.Pointer(&sa)),
		0,
		unsafe.Sizeof(sa.mask),
		0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}
