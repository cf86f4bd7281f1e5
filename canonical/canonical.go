// Copyright 2026 Sengol AI
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package canonical produces deterministic byte encodings of ledger entry
// content for use as hash preimages. Object keys are sorted recursively at
// every depth and the full value tree is serialized; nothing is filtered by
// key name, so any change to any field at any nesting depth of the payload
// changes the encoding. The package is pure: no I/O, no logging, no clock
// access.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"
	"unicode/utf8"
)

// hashDomainPrefix provides domain separation so an entry hash can never
// collide with a hash of the same bytes computed for another purpose.
const hashDomainPrefix = "conclave/ledger-entry/v1\n"

// TimestampFormat is the fixed-precision RFC 3339 UTC form used for entry
// timestamps. Fixed microsecond precision keeps the encoding stable across
// storage backends that round sub-microsecond fractions differently.
const TimestampFormat = "2006-01-02T15:04:05.000000Z"

// EntryContent is the full logical content of a ledger entry covered by the
// hash: assessment id, entry type, complete payload tree, previous entry
// hash and creation timestamp.
type EntryContent struct {
	AssessmentID string
	EntryType    string
	Payload      json.RawMessage
	PrevHash     *string
	Timestamp    time.Time
}

var errUnsupportedValue = errors.New("unsupported value in canonical encoding")

// EncodeEntry serializes entry content as canonical JSON.
func EncodeEntry(content EntryContent) ([]byte, error) {
	if content.AssessmentID == "" {
		return nil, errors.New("canonical: empty assessment id")
	}
	if content.EntryType == "" {
		return nil, errors.New("canonical: empty entry type")
	}
	var payload any
	if len(content.Payload) > 0 {
		if err := json.Unmarshal(content.Payload, &payload); err != nil {
			return nil, fmt.Errorf("canonical: invalid payload: %w", err)
		}
	}
	var prevHash any
	if content.PrevHash != nil {
		prevHash = *content.PrevHash
	}
	// The entry fields form the top-level object; the alphabetic key order
	// here matches what the recursive encoder would produce
	entry := map[string]any{
		"assessmentId": content.AssessmentID,
		"entryType":    content.EntryType,
		"payload":      payload,
		"prevHash":     prevHash,
		"timestamp":    content.Timestamp.UTC().Format(TimestampFormat),
	}
	return appendValue(nil, entry)
}

// HashEntry returns the lowercase hex SHA-256 of the domain separation
// prefix plus the canonical encoding of the entry content.
func HashEntry(content EntryContent) (string, error) {
	encoded, err := EncodeEntry(content)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(hashDomainPrefix))
	h.Write(encoded)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Canonicalize returns the canonical JSON encoding of an arbitrary value.
// Go structs and typed values are normalized through encoding/json first so
// that struct tags and custom marshalers apply before canonical ordering.
func Canonicalize(v any) ([]byte, error) {
	normalized, err := normalize(v)
	if err != nil {
		return nil, err
	}
	return appendValue(nil, normalized)
}

func normalize(v any) (any, error) {
	switch v.(type) {
	case nil, bool, string, float64, []any, map[string]any:
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("canonical: %w", err)
	}
	return decoded, nil
}

func appendValue(buf []byte, v any) ([]byte, error) {
	switch tv := v.(type) {
	case nil:
		return append(buf, "null"...), nil
	case bool:
		if tv {
			return append(buf, "true"...), nil
		}
		return append(buf, "false"...), nil
	case string:
		return appendString(buf, tv), nil
	case float64:
		return appendNumber(buf, tv)
	case json.Number:
		f, err := tv.Float64()
		if err != nil {
			return nil, fmt.Errorf("canonical: bad number %q: %w", tv, err)
		}
		return appendNumber(buf, f)
	case []any:
		buf = append(buf, '[')
		for i, item := range tv {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			buf, err = appendValue(buf, item)
			if err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil
	case map[string]any:
		keys := make([]string, 0, len(tv))
		for k := range tv {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		buf = append(buf, '{')
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendString(buf, k)
			buf = append(buf, ':')
			var err error
			buf, err = appendValue(buf, tv[k])
			if err != nil {
				return nil, err
			}
		}
		return append(buf, '}'), nil
	default:
		return nil, fmt.Errorf("%w: %T", errUnsupportedValue, v)
	}
}

// appendNumber writes the shortest decimal form that round-trips to the
// same float64. NaN and infinities have no JSON representation and are
// rejected.
func appendNumber(buf []byte, f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: non-finite number", errUnsupportedValue)
	}
	if f == 0 {
		// Avoid "-0"
		return append(buf, '0'), nil
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.AppendFloat(buf, f, 'f', -1, 64), nil
	}
	return strconv.AppendFloat(buf, f, 'g', -1, 64), nil
}

// appendString writes a JSON string with minimal escaping: only the quote,
// backslash and control characters are escaped, leaving the encoding
// byte-stable for any valid UTF-8 input.
func appendString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for _, r := range s {
		switch r {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\b':
			buf = append(buf, '\\', 'b')
		case '\f':
			buf = append(buf, '\\', 'f')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		default:
			if r < 0x20 {
				buf = append(
					buf,
					fmt.Sprintf("\\u%04x", r)...,
				)
			} else {
				buf = utf8.AppendRune(buf, r)
			}
		}
	}
	return append(buf, '"')
}
