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
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/crashcache/internal/output"
	"github.com/sirseerhq/crashcache/internal/snapshot"
)

// watchEvent is one line of the watch stream.
type watchEvent struct {
	Time        time.Time       `json:"time"`
	Path        string          `json:"path"`
	Breadcrumbs int             `json:"breadcrumbs"`
	Snapshot    json.RawMessage `json:"snapshot"`
}

func newWatchCommand(g *globalOptions) *cobra.Command {
	var (
		count   int
		outFile string
	)

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Stream a snapshot file as NDJSON while it changes",
		Long: `Watch a snapshot file and write one NDJSON line each time a new valid version
appears, until interrupted. The file does not need to exist yet.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := g.setup(cmd, nil)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			w := output.NewWriter(cmd.OutOrStdout())
			if outFile != "" {
				fw, err := output.NewFileWriter(outFile)
				if err != nil {
					return err
				}
				defer fw.Close()
				w = fw
			}
			path := args[0]
			err = snapshot.Watch(ctx, path, func(snap *snapshot.Snapshot, err error) {
				if err != nil {
					// A checkpoint in progress reads as a truncated file.
					logger.Debug("snapshot unreadable", "path", path, "error", err)
					return
				}
				event := watchEvent{
					Time:        time.Now().UTC(),
					Path:        path,
					Breadcrumbs: len(snap.Breadcrumbs),
					Snapshot:    json.RawMessage(snap.Raw()),
				}
				if werr := w.Write(event); werr != nil {
					logger.Warn("failed to write event", "error", werr)
					cancel()
					return
				}
				if count > 0 && w.Count() >= count {
					cancel()
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many snapshots (0 watches until interrupted)")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Write events to this file instead of stdout")

	return cmd
}
