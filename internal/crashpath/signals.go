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

package crashpath

import (
	"fmt"
	"os"
	"strings"
	"syscall"
)

// DefaultSignals is the fatal signal set handled when none is configured.
var DefaultSignals = []os.Signal{
	syscall.SIGSEGV,
	syscall.SIGABRT,
	syscall.SIGILL,
	syscall.SIGBUS,
	syscall.SIGFPE,
	syscall.SIGTRAP,
}

var signalNames = map[string]syscall.Signal{
	"SIGSEGV": syscall.SIGSEGV,
	"SIGABRT": syscall.SIGABRT,
	"SIGILL":  syscall.SIGILL,
	"SIGBUS":  syscall.SIGBUS,
	"SIGFPE":  syscall.SIGFPE,
	"SIGTRAP": syscall.SIGTRAP,
	"SIGQUIT": syscall.SIGQUIT,
	"SIGTERM": syscall.SIGTERM,
}

// ParseSignal resolves a signal name such as "SIGABRT" or "abrt".
func ParseSignal(name string) (os.Signal, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasPrefix(key, "SIG") {
		key = "SIG" + key
	}
	sig, ok := signalNames[key]
	if !ok {
		return nil, fmt.Errorf("unsupported signal %q", name)
	}
	return sig, nil
}

// ParseSignals resolves a list of names. An empty list yields DefaultSignals.
func ParseSignals(names []string) ([]os.Signal, error) {
	if len(names) == 0 {
		return DefaultSignals, nil
	}
	sigs := make([]os.Signal, 0, len(names))
	for _, name := range names {
		sig, err := ParseSignal(name)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}
