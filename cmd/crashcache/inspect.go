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

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cacheerrors "github.com/sirseerhq/crashcache/internal/errors"
	"github.com/sirseerhq/crashcache/internal/output"
	"github.com/sirseerhq/crashcache/internal/snapshot"
)

func newInspectCommand(g *globalOptions) *cobra.Command {
	var (
		asJSON bool
		record bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Validate a persisted snapshot and summarize it",
		Long: `Load a snapshot written by the crash cache, validate its structure and print
a summary. With --json the document itself is written as a single NDJSON line.
With --record the file is an archive record written by recover; its checksum
is verified before the archived snapshot is summarized.

Exits with code 3 if the file is missing or is not a valid snapshot.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := g.setup(cmd, nil); err != nil {
				return err
			}

			var (
				snap *snapshot.Snapshot
				rec  *snapshot.Record
				err  error
			)
			if record {
				rec, snap, err = loadRecord(args[0])
			} else {
				snap, err = snapshot.Load(args[0])
			}
			if err != nil {
				return err
			}

			if asJSON {
				return output.NewWriter(cmd.OutOrStdout()).Write(json.RawMessage(snap.Raw()))
			}
			if rec != nil {
				if err := printRecord(cmd.OutOrStdout(), rec); err != nil {
					return err
				}
			}
			return printSummary(cmd.OutOrStdout(), args[0], snap)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Write the snapshot as NDJSON instead of a summary")
	cmd.Flags().BoolVar(&record, "record", false, "The file is an archive record written by recover")

	return cmd
}

// loadRecord reads an archive record and validates the snapshot inside it.
func loadRecord(path string) (*snapshot.Record, *snapshot.Snapshot, error) {
	rec, err := snapshot.LoadRecord(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", cacheerrors.ErrSnapshotNotFound, path)
		}
		return nil, nil, err
	}
	snap, err := snapshot.Parse(rec.Snapshot)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, snap, nil
}

func printRecord(w io.Writer, rec *snapshot.Record) error {
	_, err := fmt.Fprintf(w, "Record:       %s\nSource:       %s\nRecovered:    %s\n",
		rec.ID, rec.Source, rec.RecoveredAt.Format(time.RFC3339))
	return err
}

func printSummary(w io.Writer, path string, snap *snapshot.Snapshot) error {
	var b strings.Builder

	fmt.Fprintf(&b, "File:         %s (%d bytes)\n", path, len(snap.Raw()))

	fmt.Fprintf(&b, "Breadcrumbs:  %d", len(snap.Breadcrumbs))
	if n := len(snap.Breadcrumbs); n > 0 {
		if name, ok := snap.Breadcrumbs[n-1]["name"].(string); ok {
			fmt.Fprintf(&b, " (last: %q)", name)
		}
	}
	b.WriteString("\n")

	if snap.Context != nil {
		fmt.Fprintf(&b, "Context:      %q\n", *snap.Context)
	} else {
		b.WriteString("Context:      (none)\n")
	}

	tabs := make([]string, 0, len(snap.Metadata))
	for tab := range snap.Metadata {
		tabs = append(tabs, fmt.Sprintf("%s (%d)", tab, len(snap.Metadata[tab])))
	}
	sort.Strings(tabs)
	if len(tabs) == 0 {
		b.WriteString("Metadata:     (none)\n")
	} else {
		fmt.Fprintf(&b, "Metadata:     %s\n", strings.Join(tabs, ", "))
	}

	fmt.Fprintf(&b, "User:         %s\n", describeUser(snap.User))

	sections := []struct {
		name string
		set  bool
	}{
		{"app", snap.App != nil},
		{"device", snap.Device != nil},
		{"session", snap.Session != nil},
	}
	var set []string
	for _, s := range sections {
		if s.set {
			set = append(set, s.name)
		}
	}
	if len(set) == 0 {
		b.WriteString("Sections:     (none)\n")
	} else {
		fmt.Fprintf(&b, "Sections:     %s\n", strings.Join(set, ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func describeUser(u snapshot.User) string {
	var parts []string
	if u.ID != "" {
		parts = append(parts, "id="+u.ID)
	}
	if u.Email != "" {
		parts = append(parts, "email="+u.Email)
	}
	if u.Name != "" {
		parts = append(parts, "name="+u.Name)
	}
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, " ")
}
