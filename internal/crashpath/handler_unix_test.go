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

//go:build unix

package crashpath

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"

	cacheerrors "github.com/sirseerhq/crashcache/internal/errors"
)

// recorder captures persist and raise calls without re-delivering signals.
type recorder struct {
	persisted chan os.Signal
	raised    chan os.Signal
}

func newRecorder() *recorder {
	return &recorder{
		persisted: make(chan os.Signal, 1),
		raised:    make(chan os.Signal, 1),
	}
}

func (r *recorder) persist(sig os.Signal) { r.persisted <- sig }
func (r *recorder) raise(sig os.Signal)   { r.raised <- sig }

func receive(t *testing.T, ch <-chan os.Signal, what string) os.Signal {
	t.Helper()
	select {
	case sig := <-ch:
		return sig
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		return nil
	}
}

func TestHandler_PersistRestoreRaise(t *testing.T) {
	rec := newRecorder()
	h, err := install([]os.Signal{syscall.SIGUSR1}, rec.persist, rec.raise)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Uninstall)

	if h.State() != StateInstalled {
		t.Errorf("State() = %v, want installed", h.State())
	}

	if err := Send(syscall.SIGUSR1); err != nil {
		t.Fatal(err)
	}

	if sig := receive(t, rec.persisted, "persist"); sig != syscall.SIGUSR1 {
		t.Errorf("persist got %v, want SIGUSR1", sig)
	}
	if sig := receive(t, rec.raised, "raise"); sig != syscall.SIGUSR1 {
		t.Errorf("raise got %v, want SIGUSR1", sig)
	}

	<-h.Done()
	if h.State() != StateUninstalled {
		t.Errorf("State() after crash = %v, want uninstalled", h.State())
	}

	// The slot is free again once the handler restored itself.
	h2, err := install([]os.Signal{syscall.SIGUSR1}, rec.persist, rec.raise)
	if err != nil {
		t.Fatalf("reinstall failed: %v", err)
	}
	h2.Uninstall()
}

func TestHandler_SingleInstall(t *testing.T) {
	rec := newRecorder()
	h, err := install([]os.Signal{syscall.SIGUSR1}, rec.persist, rec.raise)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Uninstall()

	if _, err := install([]os.Signal{syscall.SIGUSR1}, rec.persist, rec.raise); !errors.Is(err, cacheerrors.ErrAlreadyInstalled) {
		t.Errorf("second install error = %v, want ErrAlreadyInstalled", err)
	}
}

func TestHandler_UninstallIdempotent(t *testing.T) {
	rec := newRecorder()
	h, err := install([]os.Signal{syscall.SIGUSR1}, rec.persist, rec.raise)
	if err != nil {
		t.Fatal(err)
	}

	h.Uninstall()
	h.Uninstall()

	if h.State() != StateUninstalled {
		t.Errorf("State() = %v, want uninstalled", h.State())
	}
	select {
	case sig := <-rec.persisted:
		t.Errorf("persist called unexpectedly with %v", sig)
	default:
	}

	var nilHandler *Handler
	nilHandler.Uninstall()
}

func TestHandler_RestoresIgnoredDisposition(t *testing.T) {
	signal.Ignore(syscall.SIGUSR2)
	t.Cleanup(func() { signal.Reset(syscall.SIGUSR2) })

	rec := newRecorder()
	h, err := install([]os.Signal{syscall.SIGUSR2}, rec.persist, rec.raise)
	if err != nil {
		t.Fatal(err)
	}
	h.Uninstall()

	if !signal.Ignored(syscall.SIGUSR2) {
		t.Error("SIGUSR2 should be ignored again after Uninstall")
	}
}
