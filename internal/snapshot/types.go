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
	"encoding/json"
	"time"
)

// CurrentVersion is the archive record schema version.
// Increment this when making breaking changes to the Record structure.
const CurrentVersion = 1

// Snapshot is a validated cache document.
type Snapshot struct {
	// Breadcrumbs are the recorded breadcrumbs, oldest first.
	Breadcrumbs []map[string]any `json:"breadcrumbs"`

	// Context is nil when no context was set.
	Context *string `json:"context,omitempty"`

	// Metadata maps tab names to key/value sections.
	Metadata map[string]map[string]any `json:"metadata"`

	User User `json:"user"`

	App     map[string]any `json:"app,omitempty"`
	Device  map[string]any `json:"device,omitempty"`
	Session map[string]any `json:"session,omitempty"`

	raw []byte
}

// Raw returns the file contents the snapshot was parsed from.
func (s *Snapshot) Raw() []byte { return s.raw }

// User holds the optional user fields.
type User struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Record is an archived snapshot. It is designed to be forward-compatible
// through versioning and includes integrity validation through checksums.
type Record struct {
	// Version indicates the schema version of this record.
	Version int `json:"version"`

	// Checksum is the hex SHA256 of Snapshot exactly as stored: compact
	// JSON without HTML escaping.
	Checksum string `json:"checksum"`

	// ID is the UUID the record is archived under.
	ID string `json:"id"`

	// Source is the absolute path the snapshot was recovered from.
	Source string `json:"source"`

	// RecoveredAt records when the snapshot was archived.
	RecoveredAt time.Time `json:"recovered_at"`

	// Snapshot is the recovered document.
	Snapshot json.RawMessage `json:"snapshot"`
}
