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

// Package errors defines sentinel errors for consistent error handling across crashcache.
// The cache core never aborts the host process; callers inspect these with errors.Is,
// and the CLI maps them to exit codes for scripting support.
package errors

import "errors"

// Malformed input. Operations returning these leave all state unchanged.
var (
	// ErrInvalidJSON indicates input text is not a single syntactically valid JSON value.
	ErrInvalidJSON = errors.New("invalid json")

	// ErrNotObject indicates input parsed as JSON but is not an object where one is required.
	ErrNotObject = errors.New("json value is not an object")

	// ErrInvalidPath indicates an empty metadata tab or key.
	ErrInvalidPath = errors.New("invalid metadata path")

	// ErrPathConflict indicates a path walk hit a non-object intermediate node.
	ErrPathConflict = errors.New("path crosses a non-object value")
)

// Capacity.
var (
	// ErrCapacityExceeded indicates the serialized document does not fit the fixed buffer.
	// The mutation that caused it is rolled back.
	ErrCapacityExceeded = errors.New("serialized document exceeds buffer capacity")
)

// Lifecycle.
var (
	// ErrNotInstalled indicates an operation on a cache that has not been installed.
	ErrNotInstalled = errors.New("cache not installed")

	// ErrAlreadyInstalled indicates a second crash handler was requested in the same process.
	ErrAlreadyInstalled = errors.New("crash handler already installed")
)

// Configuration. Maps to exit code 2.
var (
	// ErrInvalidConfig indicates an invalid configuration file, environment override or flag.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Recovery of persisted snapshots. Maps to exit code 3.
var (
	// ErrSnapshotNotFound indicates no persisted snapshot exists at the given path.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrSnapshotCorrupt indicates a persisted snapshot is not a valid cache document.
	ErrSnapshotCorrupt = errors.New("snapshot is corrupted")
)
