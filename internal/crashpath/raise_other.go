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

//go:build !unix

package crashpath

import (
	"os"
)

// Raise re-delivers sig to the current process. Without POSIX signals the
// closest equivalent is terminating the process.
func Raise(sig os.Signal) {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		os.Exit(2)
	}
	if err := p.Signal(sig); err != nil {
		os.Exit(2)
	}
}

// Send delivers sig to the current process.
func Send(sig os.Signal) error {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return err
	}
	return p.Signal(sig)
}
