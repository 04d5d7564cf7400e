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


//go:build unix

package crashpath

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"golang.org/x/sys/unix"
)

// Raise re-delivers sig to the current process with its default action, so
// the process terminates by sig the way it would have without a handler.
// A signal that is ignored is not raised.
func Raise(sig os.Signal) {
	s, ok := sig.(syscall.Signal)
	if !ok || signal.Ignored(sig) {
		return
	}
	// Without SIG_DFL the runtime's own handler receives the signal. Crash
	// traceback makes it end by SIGABRT instead of exit(2).
	debug.SetTraceback("crash")
	_ = setDefault(s)
	_ = unix.Kill(unix.Getpid(), s)
}

// Send delivers sig to the current process through whatever handles it now,
// including an installed Handler.
func Send(sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return fmt.Errorf("unsupported signal %v", sig)
	}
	return unix.Kill(unix.Getpid(), s)
}
