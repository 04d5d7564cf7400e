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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Recover archives the snapshot at path into archiveDir and deletes the
// original. The snapshot is validated first; a corrupt or missing snapshot
// is left where it is. It returns the record and the path it was saved to.
func Recover(path, archiveDir string) (*Record, string, error) {
	snap, err := Load(path)
	if err != nil {
		return nil, "", err
	}

	source, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve snapshot path: %w", err)
	}

	rec := &Record{
		ID:          uuid.NewString(),
		Source:      source,
		RecoveredAt: time.Now().UTC(),
		Snapshot:    json.RawMessage(snap.Raw()),
	}
	archived := filepath.Join(archiveDir, rec.ID+".json")
	if err := SaveRecord(rec, archived); err != nil {
		return nil, "", err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return rec, archived, fmt.Errorf("archived to %s but failed to delete snapshot: %w", archived, err)
	}
	return rec, archived, nil
}

// SaveRecord atomically saves rec to file with integrity validation.
// It uses a write-to-temp-and-rename pattern to ensure atomicity.
func SaveRecord(rec *Record, file string) error {
	rec.Version = CurrentVersion

	var compact bytes.Buffer
	if err := json.Compact(&compact, rec.Snapshot); err != nil {
		return corrupt("record snapshot is not valid JSON: %v", err)
	}
	rec.Snapshot = json.RawMessage(compact.Bytes())
	rec.Checksum = calculateChecksum(rec.Snapshot)

	if mkdirErr := os.MkdirAll(filepath.Dir(file), 0o755); mkdirErr != nil {
		return fmt.Errorf("failed to create archive directory: %w", mkdirErr)
	}

	tempFile := file + ".tmp"

	// The snapshot must be written byte for byte as hashed; Marshal would
	// HTML-escape it.
	var data bytes.Buffer
	enc := json.NewEncoder(&data)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if writeErr := os.WriteFile(tempFile, data.Bytes(), 0o600); writeErr != nil {
		return fmt.Errorf("failed to write temporary record file: %w", writeErr)
	}

	f, err := os.Open(tempFile)
	if err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to open temp file for sync: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempFile, file); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// LoadRecord reads an archived record and verifies its checksum and
// version.
func LoadRecord(file string) (*Record, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", file, err)
	}

	var rec Record
	if unmarshalErr := json.Unmarshal(data, &rec); unmarshalErr != nil {
		return nil, corrupt("record %s is not valid JSON: %v", file, unmarshalErr)
	}

	if rec.Version != CurrentVersion {
		return nil, fmt.Errorf("record version (%d) is incompatible with current version (%d)",
			rec.Version, CurrentVersion)
	}

	if rec.Checksum != calculateChecksum(rec.Snapshot) {
		return nil, corrupt("record %s checksum mismatch", file)
	}

	return &rec, nil
}

// calculateChecksum returns the hex SHA256 of the snapshot bytes.
func calculateChecksum(snapshot []byte) string {
	hash := sha256.Sum256(snapshot)
	return hex.EncodeToString(hash[:])
}
