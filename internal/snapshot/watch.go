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
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	cacheerrors "github.com/sirseerhq/crashcache/internal/errors"
)

// Watch calls fn with the snapshot at path each time its contents change,
// until ctx is done. The parent directory is watched so the file may be
// created, truncated or replaced. Load errors other than a missing file
// are passed to fn; a checkpoint in progress can briefly look corrupt.
func Watch(ctx context.Context, path string, fn func(*Snapshot, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve snapshot path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	var last []byte
	emit := func() {
		snap, err := Load(abs)
		switch {
		case errors.Is(err, cacheerrors.ErrSnapshotNotFound):
			return
		case err != nil:
			fn(nil, err)
		case !bytes.Equal(snap.Raw(), last):
			last = snap.Raw()
			fn(snap, nil)
		}
	}

	emit()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				emit()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", abs, err)
		}
	}
}
