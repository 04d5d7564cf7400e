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

package crashpath

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"

	cacheerrors "github.com/sirseerhq/crashcache/internal/errors"
)

// State is the lifecycle state of a Handler.
type State int32

const (
	StateUninstalled State = iota
	StateInstalled
	StatePersisting
)

func (s State) String() string {
	switch s {
	case StateUninstalled:
		return "uninstalled"
	case StateInstalled:
		return "installed"
	case StatePersisting:
		return "persisting"
	default:
		return "unknown"
	}
}

// active is the handler currently registered in this process.
var active atomic.Pointer[Handler]

// disposition is what a signal did before Install.
type disposition struct {
	sig     os.Signal
	ignored bool
}

// Handler owns the fatal-signal registration.
type Handler struct {
	persist func(os.Signal)
	raise   func(os.Signal)

	ch   chan os.Signal
	stop chan struct{}
	done chan struct{}
	prev []disposition

	state       atomic.Int32
	stopOnce    sync.Once
	restoreOnce sync.Once
}

// Install registers persist for signals. Only one Handler may be installed
// per process; a second Install returns ErrAlreadyInstalled until the first
// is uninstalled.
//
// persist runs in crash context and receives the delivered signal.
func Install(signals []os.Signal, persist func(os.Signal)) (*Handler, error) {
	return install(signals, persist, Raise)
}

func install(signals []os.Signal, persist, raise func(os.Signal)) (*Handler, error) {
	if len(signals) == 0 {
		signals = DefaultSignals
	}
	h := &Handler{
		persist: persist,
		raise:   raise,
		ch:      make(chan os.Signal, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		prev:    make([]disposition, 0, len(signals)),
	}
	if !active.CompareAndSwap(nil, h) {
		return nil, cacheerrors.ErrAlreadyInstalled
	}

	for _, sig := range signals {
		h.prev = append(h.prev, disposition{sig: sig, ignored: signal.Ignored(sig)})
	}
	h.state.Store(int32(StateInstalled))
	signal.Notify(h.ch, signals...)

	go h.wait()
	return h, nil
}

func (h *Handler) wait() {
	defer close(h.done)

	select {
	case sig := <-h.ch:
		h.state.Store(int32(StatePersisting))
		h.persist(sig)
		h.restore()
		h.raise(sig)
	case <-h.stop:
	}
}

// restore stops notification and puts back signals that were ignored.
func (h *Handler) restore() {
	h.restoreOnce.Do(func() {
		signal.Stop(h.ch)
		for _, d := range h.prev {
			if d.ignored {
				signal.Ignore(d.sig)
			}
		}
		h.state.Store(int32(StateUninstalled))
		active.CompareAndSwap(h, nil)
	})
}

// Uninstall restores previous dispositions. It is safe to call more than once
// and after a signal has already been handled. If a signal is being handled,
// Uninstall waits for the handler to finish.
func (h *Handler) Uninstall() {
	if h == nil {
		return
	}
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
	h.restore()
}

// State reports the current lifecycle state.
func (h *Handler) State() State {
	return State(h.state.Load())
}

// Done is closed once the handler goroutine has exited, either because a
// signal was handled or because Uninstall was called.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
