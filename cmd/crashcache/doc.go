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

// Package main implements the crashcache command-line interface.
// It hosts the crash cache in a process driven by NDJSON commands on stdin
// and provides the next-launch tooling for the snapshots it leaves behind.
//
// Commands:
//   - run: install the cache and apply breadcrumb, context, metadata and
//     user commands read from stdin, checkpointing on exit
//   - inspect: validate a persisted snapshot and summarize it
//   - watch: stream a snapshot file as NDJSON while it is rewritten
//   - recover: archive a snapshot under a UUID and delete the original
//
// Usage:
//
//	crashcache run --path /var/lib/app/state.json < commands.ndjson
//	crashcache inspect /var/lib/app/state.json
//	crashcache recover /var/lib/app/state.json --archive /var/lib/app/crashes
//
// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Configuration or usage error
//   - 3: Snapshot missing or corrupt
package main
