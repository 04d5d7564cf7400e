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

package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	cacheerrors "github.com/sirseerhq/crashcache/internal/errors"
)

// requiredKeys are present in every document the cache writes.
var requiredKeys = []string{"breadcrumbs", "metadata", "user"}

// Load reads and validates the snapshot at path. A missing file yields
// ErrSnapshotNotFound; anything that is not a cache document yields
// ErrSnapshotCorrupt.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", cacheerrors.ErrSnapshotNotFound, path)
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	snap, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// Parse validates data as a cache document.
func Parse(data []byte) (*Snapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, corrupt("invalid JSON: %v", err)
	}
	if fields == nil {
		return nil, corrupt("document is not an object")
	}
	for _, key := range requiredKeys {
		if _, ok := fields[key]; !ok {
			return nil, corrupt("missing %q", key)
		}
	}

	var snap Snapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&snap); err != nil {
		return nil, corrupt("unexpected document shape: %v", err)
	}

	if snap.Breadcrumbs == nil {
		return nil, corrupt("breadcrumbs is not an array")
	}
	for i, crumb := range snap.Breadcrumbs {
		if crumb == nil {
			return nil, corrupt("breadcrumb %d is not an object", i)
		}
	}
	if snap.Metadata == nil {
		return nil, corrupt("metadata is not an object")
	}
	for tab, section := range snap.Metadata {
		if section == nil {
			return nil, corrupt("metadata tab %q is not an object", tab)
		}
	}

	snap.raw = append([]byte(nil), data...)
	return &snap, nil
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", cacheerrors.ErrSnapshotCorrupt, fmt.Sprintf(format, args...))
}
