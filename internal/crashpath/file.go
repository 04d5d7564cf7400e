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
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// fileMode is the permission used when the crash file is created.
const fileMode = 0o644

// File is a write target prepared for crash context.
type File struct {
	path  string
	pathz []byte
}

// NewFile prepares path for crash-context writes. The path is made absolute
// so a later chdir cannot redirect the write.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("crash file path is empty")
	}
	if strings.IndexByte(path, 0) >= 0 {
		return nil, fmt.Errorf("crash file path %q contains NUL", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve crash file path: %w", err)
	}
	pathz := make([]byte, len(abs)+1)
	copy(pathz, abs)
	return &File{path: abs, pathz: pathz}, nil
}

// Path returns the absolute file path.
func (f *File) Path() string { return f.path }

// WriteFile replaces the file contents with b using open(O_TRUNC|O_CREAT),
// write and close. It is safe to call from crash context.
func (f *File) WriteFile(b []byte) error {
	return f.write(b)
}
