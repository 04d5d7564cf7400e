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


//go:build unix && (!linux || mips || mipsle || mips64 || mips64le)

package crashpath

import (
	"errors"
	"syscall"
)

// setDefault is only implemented where the rt_sigaction layout is fixed.
// Elsewhere Raise relies on the runtime's crash traceback.
func setDefault(syscall.Signal) error {
	return errors.ErrUnsupported
}
