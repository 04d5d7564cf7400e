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

// Package snapshot reads what the crash cache left on disk.
//
// A snapshot is the JSON document the cache writes on checkpoint and on
// crash. On the next launch the host loads it with Load, which validates
// the document shape, and then calls Recover to move it into an archive
// directory as a checksummed Record under a fresh UUID. Watch follows a
// snapshot file while another process keeps rewriting it.
//
// Records are written with a write-to-temp-and-rename pattern so a crash
// during recovery never leaves a partial archive entry behind.
//
// Example usage:
//
//	rec, archived, err := snapshot.Recover(cfg.Cache.Path, archiveDir)
//	if errors.Is(err, cacheerrors.ErrSnapshotNotFound) {
//	    // clean shutdown last time
//	}
package snapshot
