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

package cache

import (
	"golang.org/x/sys/unix"
)

// mlockSufficient reports whether the RLIMIT_MEMLOCK soft limit can hold
// need bytes plus memguard's guard pages. limitKB is -1 when unlimited.
func mlockSufficient(need int) (ok bool, limitKB int64) {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_MEMLOCK, &rlimit); err != nil {
		return false, 0
	}
	if rlimit.Cur == unix.RLIM_INFINITY {
		return true, -1
	}
	// Each buffer adds two guard pages and a canary page.
	overhead := uint64(6 * unix.Getpagesize())
	cur := uint64(rlimit.Cur)
	return cur >= uint64(need)+overhead, int64(cur / 1024)
}
