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

// Package cache is the synchronized front end of the crash-resilient state
// cache.
//
// A single process-wide Controller, returned by Default, owns the document
// store and two fixed-capacity serialization frames. Its lifecycle is
// explicit:
//
//	Install   -> document created, initial serialization published,
//	             crash path registered
//	mutations -> lock, mutate, re-serialize into the back frame, publish
//	Uninstall -> crash path removed, document and frames released
//
// Install while installed is a no-op, and so is Uninstall while uninstalled.
//
// # Execution contexts
//
// Controller methods run in synchronous context: they allocate and take the
// controller lock, and must never be called from a signal handler. The crash
// path calls persistCrash, which never locks or allocates; it writes the most
// recently published frame.
//
// # Publication
//
// Each mutation serializes the whole document into the frame that is not
// currently published and then swaps the published pointer atomically, so a
// crash write always sees a complete serialization. When a crash write
// starts it raises a flag that stops later mutations from re-serializing,
// which keeps the frame being written stable for the rest of the process
// lifetime. A mutation whose serialization does not fit the frame is rolled
// back and returns ErrCapacityExceeded.
//
// Invalid input never changes state: the mutation returns a sentinel error
// from internal/errors and the caller may ignore it.
package cache
