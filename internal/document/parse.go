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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	cacheerrors "github.com/sirseerhq/crashcache/internal/errors"
)

// maxDepth bounds nesting so hostile input cannot exhaust the stack.
const maxDepth = 512

// Parse decodes text as exactly one JSON value. Trailing data, empty input
// and nesting deeper than maxDepth are rejected with ErrInvalidJSON.
func Parse(text string) (*Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	v, err := parseValue(dec, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cacheerrors.ErrInvalidJSON, err)
	}
	if tok, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = fmt.Errorf("unexpected trailing token %v", tok)
		}
		return nil, fmt.Errorf("%w: %v", cacheerrors.ErrInvalidJSON, err)
	}
	return v, nil
}

// ParseObject is Parse restricted to JSON objects.
func ParseObject(text string) (*Value, error) {
	v, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if v.kind != Object {
		return nil, fmt.Errorf("%w: got %s", cacheerrors.ErrNotObject, v.kind)
	}
	return v, nil
}

func parseValue(dec *json.Decoder, depth int) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		if depth >= maxDepth {
			return nil, fmt.Errorf("nesting exceeds %d levels", maxDepth)
		}
		switch t {
		case '{':
			return parseObject(dec, depth)
		case '[':
			return parseArray(dec, depth)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return NewString(t), nil
	case json.Number:
		return NewNumber(t.String()), nil
	case bool:
		return NewBool(t), nil
	case nil:
		return NewNull(), nil
	default:
		return nil, fmt.Errorf("unexpected token %T", tok)
	}
}

func parseObject(dec *json.Decoder, depth int) (*Value, error) {
	obj := NewObject()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is %T, not string", tok)
		}
		val, err := parseValue(dec, depth+1)
		if err != nil {
			return nil, err
		}
		obj.obj.Set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func parseArray(dec *json.Decoder, depth int) (*Value, error) {
	arr := NewArray()
	for dec.More() {
		val, err := parseValue(dec, depth+1)
		if err != nil {
			return nil, err
		}
		arr.items = append(arr.items, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}
