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
	"unicode/utf8"

	cacheerrors "github.com/sirseerhq/crashcache/internal/errors"
)

const hexDigits = "0123456789abcdef"

// encoder writes JSON into a fixed slice. Once a write does not fit, full is
// set and all further writes are dropped.
type encoder struct {
	buf  []byte
	n    int
	full bool
}

// Serialize encodes v into dst and returns the number of bytes written.
// dst is never grown: if the encoding needs more than len(dst) bytes, it
// returns ErrCapacityExceeded and the contents of dst are unspecified.
func (v *Value) Serialize(dst []byte) (int, error) {
	e := encoder{buf: dst}
	e.value(v)
	if e.full {
		return 0, cacheerrors.ErrCapacityExceeded
	}
	return e.n, nil
}

func (e *encoder) writeByte(c byte) {
	if e.full {
		return
	}
	if e.n >= len(e.buf) {
		e.full = true
		return
	}
	e.buf[e.n] = c
	e.n++
}

func (e *encoder) writeString(s string) {
	if e.full {
		return
	}
	if e.n+len(s) > len(e.buf) {
		e.full = true
		return
	}
	e.n += copy(e.buf[e.n:], s)
}

func (e *encoder) value(v *Value) {
	switch v.kind {
	case Null:
		e.writeString("null")
	case Bool:
		if v.b {
			e.writeString("true")
		} else {
			e.writeString("false")
		}
	case Number:
		e.writeString(v.text)
	case String:
		e.str(v.text)
	case Array:
		e.writeByte('[')
		for i, item := range v.items {
			if i > 0 {
				e.writeByte(',')
			}
			e.value(item)
		}
		e.writeByte(']')
	case Object:
		e.writeByte('{')
		for i, k := range v.obj.keys {
			if i > 0 {
				e.writeByte(',')
			}
			e.str(k)
			e.writeByte(':')
			e.value(v.obj.vals[k])
		}
		e.writeByte('}')
	}
}

// str writes s as a JSON string using the same escaping as encoding/json
// with HTML escaping disabled.
func (e *encoder) str(s string) {
	e.writeByte('"')
	start := 0
	for i := 0; i < len(s); {
		if b := s[i]; b < utf8.RuneSelf {
			if b >= 0x20 && b != '"' && b != '\\' {
				i++
				continue
			}
			e.writeString(s[start:i])
			switch b {
			case '\\', '"':
				e.writeByte('\\')
				e.writeByte(b)
			case '\n':
				e.writeString(`\n`)
			case '\r':
				e.writeString(`\r`)
			case '\t':
				e.writeString(`\t`)
			default:
				e.writeString(`\u00`)
				e.writeByte(hexDigits[b>>4])
				e.writeByte(hexDigits[b&0xF])
			}
			i++
			start = i
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			e.writeString(s[start:i])
			e.writeString(`\ufffd`)
			i += size
			start = i
			continue
		}
		if r == '\u2028' || r == '\u2029' {
			e.writeString(s[start:i])
			e.writeString(`\u202`)
			e.writeByte(hexDigits[r&0xF])
			i += size
			start = i
			continue
		}
		i += size
	}
	e.writeString(s[start:])
	e.writeByte('"')
}
