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

package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/sirseerhq/crashcache/internal/crashpath"
	"github.com/sirseerhq/crashcache/internal/document"
	cacheerrors "github.com/sirseerhq/crashcache/internal/errors"
	"github.com/sirseerhq/crashcache/internal/metrics"
)

// MaxBufferSize is the capacity of each serialization frame and the largest
// document the cache can hold.
const MaxBufferSize = 1 << 20

// Operation names used in logs and metrics.
const (
	OpInstall       = "install"
	OpAddBreadcrumb = "add_breadcrumb"
	OpSetContext    = "set_context"
	OpSetMetadata   = "set_metadata"
	OpClearMetadata = "clear_metadata"
	OpSetUser       = "set_user"
	OpSetApp        = "set_app"
	OpSetDevice     = "set_device"
	OpSetSession    = "set_session"
)

// Options configure Install.
type Options struct {
	// Path is the file written on checkpoint and crash.
	Path string

	// MaxBreadcrumbs bounds the breadcrumb list. Zero keeps none.
	MaxBreadcrumbs uint8

	// BufferSize is the frame capacity in bytes. Zero means MaxBufferSize;
	// larger values are rejected.
	BufferSize int

	// LockedMemory places frames in mlocked memguard buffers when the
	// RLIMIT_MEMLOCK allows it.
	LockedMemory bool

	// Signals overrides crashpath.DefaultSignals.
	Signals []os.Signal

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Controller serializes access to the cached document and keeps a complete
// serialization published for the crash path.
type Controller struct {
	mu        sync.Mutex
	installed bool
	maxCrumbs uint8
	doc       *document.Store
	frames    [2]*frame
	handler   *crashpath.Handler
	logger    *slog.Logger
	metrics   *metrics.Metrics

	// Read without mu by the crash path.
	file        atomic.Pointer[crashpath.File]
	published   atomic.Pointer[frame]
	crashWrites atomic.Int32
}

var defaultController Controller

// Default returns the process-wide Controller.
func Default() *Controller {
	return &defaultController
}

// Install creates the document and frames, publishes the initial
// serialization and registers the crash path. Calling Install on an
// installed Controller does nothing, even with different options.
func (c *Controller) Install(opts Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.installed {
		return nil
	}

	size := opts.BufferSize
	if size == 0 {
		size = MaxBufferSize
	}
	if size < 0 || size > MaxBufferSize {
		return fmt.Errorf("buffer size %d outside (0, %d]", size, MaxBufferSize)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	file, err := crashpath.NewFile(opts.Path)
	if err != nil {
		return fmt.Errorf("failed to prepare crash file: %w", err)
	}

	doc := document.New()
	frames := newFrames(size, opts.LockedMemory, logger)
	n, err := doc.Serialize(frames[0].buf)
	if err != nil {
		frames[0].release()
		frames[1].release()
		return fmt.Errorf("failed to serialize initial document: %w", err)
	}
	frames[0].n = n

	c.doc = doc
	c.frames = frames
	c.maxCrumbs = opts.MaxBreadcrumbs
	c.logger = logger
	c.metrics = opts.Metrics
	c.file.Store(file)
	c.published.Store(frames[0])

	handler, err := crashpath.Install(opts.Signals, c.onSignal)
	if err != nil {
		c.teardown()
		return fmt.Errorf("failed to install crash handler: %w", err)
	}
	c.handler = handler
	c.installed = true

	c.metrics.Mutation(OpInstall, n, 0)
	logger.Info("crash cache installed",
		"path", file.Path(),
		"max_breadcrumbs", opts.MaxBreadcrumbs,
		"buffer_bytes", size,
		"locked_memory", frames[0].locked != nil,
	)
	return nil
}

// Uninstall removes the crash path and releases the document and frames.
// Calling it on an uninstalled Controller does nothing.
func (c *Controller) Uninstall() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.installed {
		return
	}
	c.handler.Uninstall()
	c.handler = nil
	c.teardown()
	c.installed = false

	c.metrics.Reset()
	c.logger.Info("crash cache uninstalled")
}

// teardown releases everything Install created. Caller holds mu.
func (c *Controller) teardown() {
	c.file.Store(nil)
	c.published.Store(nil)
	// Locked frames are unmapped on release; leave them alone if a crash
	// write still references one.
	if c.crashWrites.Load() == 0 {
		for _, f := range c.frames {
			if f != nil {
				f.release()
			}
		}
	}
	c.frames = [2]*frame{}
	c.doc = nil
}

// Path returns the absolute persistence path, or "" when not installed.
func (c *Controller) Path() string {
	if f := c.file.Load(); f != nil {
		return f.Path()
	}
	return ""
}

// AddBreadcrumb appends the JSON object in text, evicting the oldest
// breadcrumbs beyond the configured maximum.
func (c *Controller) AddBreadcrumb(text string) error {
	return c.mutate(OpAddBreadcrumb, func(doc *document.Store) (document.Undo, error) {
		return doc.AddBreadcrumb(text, c.maxCrumbs)
	})
}

// SetContext sets the context string, or clears it when text is nil.
func (c *Controller) SetContext(text *string) error {
	return c.mutate(OpSetContext, func(doc *document.Store) (document.Undo, error) {
		return doc.SetContext(text)
	})
}

// SetMetadata stores the JSON value in value under metadata.tab.key, or
// removes the key when value is nil.
func (c *Controller) SetMetadata(tab, key string, value *string) error {
	return c.mutate(OpSetMetadata, func(doc *document.Store) (document.Undo, error) {
		return doc.SetMetadata(tab, key, value)
	})
}

// ClearMetadata removes metadata.tab.key.
func (c *Controller) ClearMetadata(tab, key string) error {
	return c.mutate(OpClearMetadata, func(doc *document.Store) (document.Undo, error) {
		return doc.SetMetadata(tab, key, nil)
	})
}

// SetUser sets or clears each user field independently.
func (c *Controller) SetUser(id, email, name *string) error {
	return c.mutate(OpSetUser, func(doc *document.Store) (document.Undo, error) {
		return doc.SetUser(id, email, name)
	})
}

// SetApp replaces the app object, or clears it when text is nil.
func (c *Controller) SetApp(text *string) error {
	return c.mutate(OpSetApp, func(doc *document.Store) (document.Undo, error) {
		return doc.SetApp(text)
	})
}

// SetDevice replaces the device object, or clears it when text is nil.
func (c *Controller) SetDevice(text *string) error {
	return c.mutate(OpSetDevice, func(doc *document.Store) (document.Undo, error) {
		return doc.SetDevice(text)
	})
}

// SetSession replaces the session object, or clears it when text is nil.
func (c *Controller) SetSession(text *string) error {
	return c.mutate(OpSetSession, func(doc *document.Store) (document.Undo, error) {
		return doc.SetSession(text)
	})
}

// mutate applies fn and republishes the document under the lock. If the new
// document does not fit a frame, fn is undone.
func (c *Controller) mutate(op string, fn func(*document.Store) (document.Undo, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.installed {
		c.metrics.Rejected(op, reason(cacheerrors.ErrNotInstalled))
		return cacheerrors.ErrNotInstalled
	}

	undo, err := fn(c.doc)
	if err != nil {
		c.reject(op, err)
		return err
	}

	n, err := c.publish()
	if err != nil {
		undo()
		c.reject(op, err)
		return fmt.Errorf("%s: %w", op, err)
	}

	c.metrics.Mutation(op, n, c.doc.Breadcrumbs())
	return nil
}

// publish serializes the document into the unpublished frame and swaps it
// in. Caller holds mu.
func (c *Controller) publish() (int, error) {
	// The back frame must not be the one a crash write is reading.
	for c.crashWrites.Load() > 0 {
		runtime.Gosched()
	}

	back := c.frames[0]
	if c.published.Load() == back {
		back = c.frames[1]
	}
	n, err := c.doc.Serialize(back.buf)
	if err != nil {
		return 0, err
	}
	back.n = n
	c.published.Store(back)
	return n, nil
}

func (c *Controller) reject(op string, err error) {
	c.metrics.Rejected(op, reason(err))
	c.logger.Debug("mutation rejected", "op", op, "error", err)
}

// reason maps an error to a metric label.
func reason(err error) string {
	switch {
	case errors.Is(err, cacheerrors.ErrNotInstalled):
		return "not_installed"
	case errors.Is(err, cacheerrors.ErrInvalidJSON):
		return "invalid_json"
	case errors.Is(err, cacheerrors.ErrNotObject):
		return "not_object"
	case errors.Is(err, cacheerrors.ErrInvalidPath):
		return "invalid_path"
	case errors.Is(err, cacheerrors.ErrPathConflict):
		return "path_conflict"
	case errors.Is(err, cacheerrors.ErrCapacityExceeded):
		return "capacity_exceeded"
	default:
		return "other"
	}
}

// Snapshot returns a copy of the published serialization, or nil when not
// installed.
func (c *Controller) Snapshot() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := c.published.Load()
	if f == nil {
		return nil
	}
	out := make([]byte, f.n)
	copy(out, f.bytes())
	return out
}
