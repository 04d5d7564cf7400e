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
	"fmt"
)

// Top-level field names of the cached document.
const (
	KeyBreadcrumbs = "breadcrumbs"
	KeyContext     = "context"
	KeyMetadata    = "metadata"
	KeyUser        = "user"
	KeyApp         = "app"
	KeyDevice      = "device"
	KeySession     = "session"
)

// User field names.
const (
	UserID    = "id"
	UserEmail = "email"
	UserName  = "name"
)

// Store holds the cached document. It is not safe for concurrent use.
type Store struct {
	root *Value
}

// New returns a Store holding {"breadcrumbs":[],"metadata":{},"user":{}}.
func New() *Store {
	root := NewObject()
	root.obj.Set(KeyBreadcrumbs, NewArray())
	root.obj.Set(KeyMetadata, NewObject())
	root.obj.Set(KeyUser, NewObject())
	return &Store{root: root}
}

// Serialize encodes the whole document into dst without growing it.
func (s *Store) Serialize(dst []byte) (int, error) {
	return s.root.Serialize(dst)
}

// Breadcrumbs returns the number of stored breadcrumbs.
func (s *Store) Breadcrumbs() int {
	crumbs, _ := s.root.obj.Get(KeyBreadcrumbs)
	return crumbs.Len()
}

// AddBreadcrumb appends the JSON object in text and evicts the oldest
// breadcrumbs until at most limit remain.
func (s *Store) AddBreadcrumb(text string, limit uint8) (Undo, error) {
	crumb, err := ParseObject(text)
	if err != nil {
		return nil, fmt.Errorf("breadcrumb: %w", err)
	}

	crumbs, _ := s.root.obj.Get(KeyBreadcrumbs)
	before := crumbs.items
	items := make([]*Value, 0, len(before)+1)
	items = append(items, before...)
	items = append(items, crumb)
	if over := len(items) - int(limit); over > 0 {
		items = items[over:]
	}
	crumbs.items = items

	return func() { crumbs.items = before }, nil
}

// SetContext sets the context string, or removes it when text is nil.
func (s *Store) SetContext(text *string) (Undo, error) {
	if text == nil {
		return s.RemovePath([]string{KeyContext})
	}
	return s.SetPath([]string{KeyContext}, NewString(*text))
}

// SetMetadata stores the JSON value in text under metadata.tab.key, or
// removes that key when text is nil. The tab object is created on demand and
// is left in place when its last key is removed.
func (s *Store) SetMetadata(tab, key string, text *string) (Undo, error) {
	path := []string{KeyMetadata, tab, key}
	if err := validPath(path); err != nil {
		return nil, err
	}
	if text == nil {
		return s.RemovePath(path)
	}
	v, err := Parse(*text)
	if err != nil {
		return nil, fmt.Errorf("metadata %s.%s: %w", tab, key, err)
	}
	return s.SetPath(path, v)
}

// SetUser sets or removes each user field independently.
func (s *Store) SetUser(id, email, name *string) (Undo, error) {
	fields := []struct {
		key string
		val *string
	}{
		{UserID, id},
		{UserEmail, email},
		{UserName, name},
	}

	undos := make([]Undo, 0, len(fields))
	for _, f := range fields {
		var (
			u   Undo
			err error
		)
		path := []string{KeyUser, f.key}
		if f.val == nil {
			u, err = s.RemovePath(path)
		} else {
			u, err = s.SetPath(path, NewString(*f.val))
		}
		if err != nil {
			chain(undos...)()
			return nil, err
		}
		undos = append(undos, u)
	}
	return chain(undos...), nil
}

// SetApp replaces the app object, or removes it when text is nil.
func (s *Store) SetApp(text *string) (Undo, error) {
	return s.setSection(KeyApp, text)
}

// SetDevice replaces the device object, or removes it when text is nil.
func (s *Store) SetDevice(text *string) (Undo, error) {
	return s.setSection(KeyDevice, text)
}

// SetSession replaces the session object, or removes it when text is nil.
func (s *Store) SetSession(text *string) (Undo, error) {
	return s.setSection(KeySession, text)
}

func (s *Store) setSection(key string, text *string) (Undo, error) {
	if text == nil {
		return s.RemovePath([]string{key})
	}
	v, err := ParseObject(*text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return s.SetPath([]string{key}, v)
}
