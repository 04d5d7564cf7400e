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
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	cacheerrors "github.com/sirseerhq/crashcache/internal/errors"
)

// PersistToDisk writes the published serialization to the configured path,
// replacing its contents. It is a best-effort checkpoint: the error is
// returned for logging, and the cache state is unaffected either way.
func (c *Controller) PersistToDisk() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.installed {
		return cacheerrors.ErrNotInstalled
	}

	err := c.writePublished()
	c.metrics.Checkpoint(err)
	if err != nil {
		c.logger.Warn("checkpoint failed", "path", c.Path(), "error", err)
		return fmt.Errorf("checkpoint %s: %w", c.Path(), err)
	}
	return nil
}

// onSignal is the crash handler callback.
func (c *Controller) onSignal(os.Signal) {
	c.persistCrash()
}

// persistCrash writes the published frame without taking mu. It runs in
// crash context: no allocation, no locks, no logging.
func (c *Controller) persistCrash() {
	c.crashWrites.Add(1)
	_ = c.writePublished()
	c.crashWrites.Add(-1)
}

func (c *Controller) writePublished() error {
	file := c.file.Load()
	f := c.published.Load()
	if file == nil || f == nil {
		return cacheerrors.ErrNotInstalled
	}
	return file.WriteFile(f.bytes())
}

// PersistOnPanic persists the published serialization if the calling
// goroutine is panicking, then continues the panic. Use it as
//
//	defer cache.Default().PersistOnPanic()
//
// at the top of goroutines whose crashes should be captured.
func (c *Controller) PersistOnPanic() {
	if r := recover(); r != nil {
		c.persistCrash()
		c.metrics.CrashWrite()
		panic(r)
	}
}

// CheckpointEvery calls PersistToDisk every interval until ctx is done or
// the Controller is uninstalled. Failed writes are retried on the next tick.
func (c *Controller) CheckpointEvery(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("checkpoint interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.PersistToDisk(); errors.Is(err, cacheerrors.ErrNotInstalled) {
				return err
			}
		}
	}
}
