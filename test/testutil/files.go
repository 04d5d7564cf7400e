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

package testutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// InitialDocument is the snapshot a freshly installed cache writes.
const InitialDocument = `{"breadcrumbs":[],"metadata":{},"user":{}}`

// EmptyConfig writes an empty configuration file so tests never pick up a
// developer's ~/.crashcache/config.yaml.
func EmptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

// WriteSnapshot writes doc as a snapshot file named name inside dir.
func WriteSnapshot(t *testing.T, dir, name, doc string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("Failed to write snapshot: %v", err)
	}
	return path
}

// ReadJSON reads JSON from a file into v, keeping numbers as json.Number.
func ReadJSON(t *testing.T, path string, v any) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		t.Fatalf("Failed to unmarshal JSON from %s: %v\n%s", path, err, data)
	}
}

// ParseNDJSON decodes every non-empty line of text as a JSON object.
func ParseNDJSON(t *testing.T, text string) []map[string]any {
	t.Helper()

	var records []map[string]any
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for line := 1; scanner.Scan(); line++ {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		var record map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("Line %d: invalid JSON: %v\n%s", line, err, scanner.Text())
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("Failed to scan NDJSON: %v", err)
	}
	return records
}

// BreadcrumbNames returns the "name" of every breadcrumb in a snapshot
// file, oldest first.
func BreadcrumbNames(t *testing.T, path string) []string {
	t.Helper()

	var doc struct {
		Breadcrumbs []struct {
			Name string `json:"name"`
		} `json:"breadcrumbs"`
	}
	ReadJSON(t, path, &doc)

	names := make([]string, len(doc.Breadcrumbs))
	for i, crumb := range doc.Breadcrumbs {
		names[i] = crumb.Name
	}
	return names
}

// AssertFileExists checks that a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks that a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("Expected file to not exist: %s", path)
	}
}

// AssertFileContains checks that a file holds exactly the expected content
func AssertFileContains(t *testing.T, path, expected string) {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	if string(content) != expected {
		t.Errorf("File content mismatch\nGot:\n%s\nWant:\n%s", content, expected)
	}
}
