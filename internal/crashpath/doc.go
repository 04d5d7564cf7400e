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

// Package crashpath persists already-serialized bytes when the process
// receives a fatal signal, then hands the signal back to whatever handled it
// before.
//
// A Handler moves through three states:
//
//	uninstalled -> installed -> persisting -> uninstalled
//
// Install records each signal's previous disposition and registers a
// dedicated channel with os/signal. A single goroutine waits on that channel.
// When a signal arrives it runs the persist callback, restores the previous
// dispositions, and re-raises the same signal so core dumps and OS crash
// reporters still see it. On linux Raise installs SIG_DFL beneath the Go
// runtime first, so the process dies by the original signal. Elsewhere the
// runtime handles the re-raised signal with crash traceback and the process
// dies by SIGABRT. A signal that was ignored before Install is not raised.
//
// Every os/signal channel registered for a signal receives it. Code that also
// calls signal.Notify or signal.NotifyContext for a crash signal (SIGTERM is
// the usual case) races the re-raise; leave such signals to the Handler.
//
// # Crash context
//
// The persist callback and File.WriteFile run in crash context: the rest of
// the process may be frozen mid-operation, so they must not allocate, must
// not take locks that ordinary code holds, and may only touch pre-sized
// buffers and raw file descriptors. File prepares everything it needs (an
// absolute, NUL-terminated path) when it is created so that the write itself
// is a bare open/write/close sequence.
//
// # Limits
//
// The Go runtime turns faults raised by Go code into panics rather than
// notifiable signals. Those crashes are covered by the cache's panic guard;
// this package covers signals delivered asynchronously, including those
// raised by C code, abort(3), or another process.
package crashpath
