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

// Package document implements the in-memory JSON document cached by crashcache.
//
// The document is a tree of Values rooted at an object with four permanent
// children: breadcrumbs (a bounded array), context (an optional string),
// metadata (tab -> key -> any JSON value) and user (id/email/name). The
// optional app, device and session objects are stored alongside them while set.
//
// The package is a pure data structure. It performs no I/O and no locking;
// the cache package owns synchronization. Two properties matter to callers:
//
//   - Every mutation either succeeds completely or leaves the Store untouched,
//     and on success returns an undo function that restores the previous
//     state exactly (including object key positions).
//   - Serialize encodes into a caller-provided buffer and never grows it. When
//     the encoding does not fit it returns ErrCapacityExceeded.
//
// Object keys keep first-insertion order, and numbers keep their literal text,
// so a value set from JSON text serializes back to equivalent text.
package document
