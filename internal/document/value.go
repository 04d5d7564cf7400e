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

// Kind identifies the JSON type of a Value.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a node in the document tree.
// Number values hold their literal text in text; String values hold the
// decoded string.
type Value struct {
	kind  Kind
	b     bool
	text  string
	items []*Value
	obj   *Map
}

// NewNull returns a JSON null.
func NewNull() *Value { return &Value{kind: Null} }

// NewBool returns a JSON boolean.
func NewBool(b bool) *Value { return &Value{kind: Bool, b: b} }

// NewString returns a JSON string.
func NewString(s string) *Value { return &Value{kind: String, text: s} }

// NewNumber returns a JSON number from its literal text. The caller must
// pass a valid JSON number literal.
func NewNumber(literal string) *Value { return &Value{kind: Number, text: literal} }

// NewArray returns an empty JSON array.
func NewArray() *Value { return &Value{kind: Array} }

// NewObject returns an empty JSON object.
func NewObject() *Value { return &Value{kind: Object, obj: newMap()} }

// Len returns the number of array items or object keys.
func (v *Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.items)
	case Object:
		return len(v.obj.keys)
	default:
		return 0
	}
}

// Map is an insertion-ordered string-keyed map of Values.
type Map struct {
	keys []string
	vals map[string]*Value
}

func newMap() *Map {
	return &Map{vals: make(map[string]*Value)}
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (*Value, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Set stores v under key, keeping the key's position if it already exists.
// It returns the value it replaced, if any.
func (m *Map) Set(key string, v *Value) (prev *Value, existed bool) {
	prev, existed = m.vals[key]
	if !existed {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
	return prev, existed
}

// Delete removes key and returns the removed value and the position it held.
// pos is -1 when the key was absent.
func (m *Map) Delete(key string) (prev *Value, pos int) {
	prev, ok := m.vals[key]
	if !ok {
		return nil, -1
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			pos = i
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return prev, pos
}

// insertAt restores key at position pos. Used by undo.
func (m *Map) insertAt(pos int, key string, v *Value) {
	if _, ok := m.vals[key]; ok {
		m.vals[key] = v
		return
	}
	if pos < 0 || pos > len(m.keys) {
		pos = len(m.keys)
	}
	m.keys = append(m.keys, "")
	copy(m.keys[pos+1:], m.keys[pos:])
	m.keys[pos] = key
	m.vals[key] = v
}
