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
	"log/slog"

	"github.com/awnumar/memguard"
)

// frame is one pre-sized serialization buffer. n is only written while the
// frame is unpublished and is read after loading the published pointer.
type frame struct {
	buf    []byte
	n      int
	locked *memguard.LockedBuffer
}

// bytes returns the serialized document held by the frame.
func (f *frame) bytes() []byte {
	return f.buf[:f.n]
}

// newFrames allocates the two frames. With locked set, the frames live in
// memguard buffers outside the Go heap, pinned in RAM so a crash write never
// waits on a page fault; if the mlock limit cannot hold both, heap memory is
// used instead.
func newFrames(size int, locked bool, logger *slog.Logger) [2]*frame {
	if locked {
		ok, limitKB := mlockSufficient(2 * size)
		if ok {
			a := memguard.NewBuffer(size)
			b := memguard.NewBuffer(size)
			return [2]*frame{
				{buf: a.Bytes(), locked: a},
				{buf: b.Bytes(), locked: b},
			}
		}
		logger.Warn("mlock limit too low for locked frames, using heap memory",
			"limit_kb", limitKB,
			"required_kb", 2*size/1024,
		)
	}
	return [2]*frame{
		{buf: make([]byte, size)},
		{buf: make([]byte, size)},
	}
}

// release wipes locked frames. Heap frames are left to the collector.
func (f *frame) release() {
	if f.locked != nil {
		f.locked.Destroy()
		f.locked = nil
	}
	f.buf = nil
	f.n = 0
}
