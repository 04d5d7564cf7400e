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
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/crashcache/internal/output"
	"github.com/sirseerhq/crashcache/internal/snapshot"
)

// recoverResult is written to stdout after a successful recovery.
type recoverResult struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Archive     string    `json:"archive"`
	RecoveredAt time.Time `json:"recovered_at"`
}

func newRecoverCommand(g *globalOptions) *cobra.Command {
	var archiveDir string

	cmd := &cobra.Command{
		Use:   "recover <file>",
		Short: "Archive the snapshot left by a crashed process",
		Long: `Validate the snapshot at <file>, save it atomically into the archive directory
under a new UUID with a checksum, and delete the original so the next run
starts clean. Invalid snapshots are left in place.

Exits with code 3 if there is nothing to recover or the snapshot is corrupt.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := g.setup(cmd, nil)
			if err != nil {
				return err
			}

			dir := archiveDir
			if dir == "" {
				dir = filepath.Join(filepath.Dir(args[0]), "archive")
			}

			rec, archived, err := snapshot.Recover(args[0], dir)
			if err != nil {
				return err
			}
			logger.Info("snapshot recovered", "id", rec.ID, "archive", archived)

			return output.NewWriter(cmd.OutOrStdout()).Write(recoverResult{
				ID:          rec.ID,
				Source:      rec.Source,
				Archive:     archived,
				RecoveredAt: rec.RecoveredAt,
			})
		},
	}

	cmd.Flags().StringVar(&archiveDir, "archive", "", "Archive directory (default: <dir of file>/archive)")

	return cmd
}
