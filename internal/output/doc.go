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

// Package output writes NDJSON (Newline Delimited JSON) streams.
//
// The crashcache CLI uses it for every machine-readable stream it produces:
// command acknowledgements from run, snapshots from inspect --json and the
// change feed from watch. Each record is encoded and flushed on its own line,
// so a consumer can follow the stream while the producer is still running.
//
// Example usage:
//
//	w := output.NewWriter(os.Stdout)
//	defer w.Close()
//
//	if err := w.Write(event); err != nil {
//	    return err
//	}
package output
