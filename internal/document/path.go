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

package document

import (
	cacheerrors "github.com/sirseerhq/crashcache/internal/errors"
)

// Undo reverts the mutation that returned it. It must be called at most
// once, before any later mutation of the same Store.
type Undo func()

func noUndo() {}

// SetPath stores v at path, walking object nodes from the root and creating
// missing intermediate objects. An existing intermediate that is not an
// object yields ErrPathConflict and no change.
func (s *Store) SetPath(path []string, v *Value) (Undo, error) {
	if err := validPath(path); err != nil {
		return nil, err
	}

	m := s.root.obj
	var (
		createdIn  *Map
		createdKey string
	)
	for _, seg := range path[:len(path)-1] {
		child, ok := m.Get(seg)
		if !ok {
			child = NewObject()
			m.Set(seg, child)
			if createdIn == nil {
				createdIn, createdKey = m, seg
			}
		} else if child.kind != Object {
			return nil, cacheerrors.ErrPathConflict
		}
		m = child.obj
	}

	last := path[len(path)-1]
	prev, existed := m.Set(last, v)

	if createdIn != nil {
		return func() { createdIn.Delete(createdKey) }, nil
	}
	if existed {
		return func() { m.Set(last, prev) }, nil
	}
	return func() { m.Delete(last) }, nil
}

// RemovePath deletes exactly the node at path. A missing node, or a walk
// that crosses a non-object, is a no-op.
func (s *Store) RemovePath(path []string) (Undo, error) {
	if err := validPath(path); err != nil {
		return nil, err
	}

	m := s.root.obj
	for _, seg := range path[:len(path)-1] {
		child, ok := m.Get(seg)
		if !ok || child.kind != Object {
			return noUndo, nil
		}
		m = child.obj
	}

	last := path[len(path)-1]
	prev, pos := m.Delete(last)
	if pos < 0 {
		return noUndo, nil
	}
	return func() { m.insertAt(pos, last, prev) }, nil
}

func validPath(path []string) error {
	if len(path) == 0 {
		return cacheerrors.ErrInvalidPath
	}
	for _, seg := range path {
		if seg == "" {
			return cacheerrors.ErrInvalidPath
		}
	}
	return nil
}

// chain returns an Undo running each undo in reverse order.
func chain(undos ...Undo) Undo {
	return func() {
		for i := len(undos) - 1; i >= 0; i-- {
			undos[i]()
		}
	}
}
