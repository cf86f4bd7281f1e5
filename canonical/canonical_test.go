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

package canonical

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContent() EntryContent {
	prevHash := "abc123"
	return EntryContent{
		AssessmentID: "assess-1",
		EntryType:    "APPROVAL",
		Payload: json.RawMessage(
			`{"step":"final-review","notes":"ok","reasonCodes":["R1","R2"]}`,
		),
		PrevHash:  &prevHash,
		Timestamp: time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC),
	}
}

func TestEncodeEntryDeterministic(t *testing.T) {
	first, err := EncodeEntry(testContent())
	require.NoError(t, err)
	second, err := EncodeEntry(testContent())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEncodeEntryKeyOrderIndependence(t *testing.T) {
	contentA := testContent()
	contentA.Payload = json.RawMessage(`{"a":1,"b":{"x":true,"y":null}}`)
	contentB := testContent()
	contentB.Payload = json.RawMessage(`{"b":{"y":null,"x":true},"a":1}`)

	encodedA, err := EncodeEntry(contentA)
	require.NoError(t, err)
	encodedB, err := EncodeEntry(contentB)
	require.NoError(t, err)
	assert.Equal(t, encodedA, encodedB)
}

func TestEncodeEntryNestedPayloadSensitivity(t *testing.T) {
	contentA := testContent()
	contentA.Payload = json.RawMessage(`{"outer":{"inner":{"deep":"original"}}}`)
	contentB := testContent()
	contentB.Payload = json.RawMessage(`{"outer":{"inner":{"deep":"tampered"}}}`)

	encodedA, err := EncodeEntry(contentA)
	require.NoError(t, err)
	encodedB, err := EncodeEntry(contentB)
	require.NoError(t, err)
	assert.NotEqual(t, encodedA, encodedB)
}

func TestEncodeEntryTimestampSensitivity(t *testing.T) {
	contentA := testContent()
	contentB := testContent()
	contentB.Timestamp = contentB.Timestamp.Add(time.Microsecond)

	encodedA, err := EncodeEntry(contentA)
	require.NoError(t, err)
	encodedB, err := EncodeEntry(contentB)
	require.NoError(t, err)
	assert.NotEqual(t, encodedA, encodedB)
}

func TestEncodeEntryTimestampFixedPrecision(t *testing.T) {
	// Sub-microsecond fractions are below the encoding precision and must
	// not change the bytes
	contentA := testContent()
	contentB := testContent()
	contentB.Timestamp = contentB.Timestamp.Add(100 * time.Nanosecond)

	encodedA, err := EncodeEntry(contentA)
	require.NoError(t, err)
	encodedB, err := EncodeEntry(contentB)
	require.NoError(t, err)
	assert.Equal(t, encodedA, encodedB)
}

func TestEncodeEntryPrevHashSensitivity(t *testing.T) {
	contentA := testContent()
	contentB := testContent()
	contentB.PrevHash = nil

	encodedA, err := EncodeEntry(contentA)
	require.NoError(t, err)
	encodedB, err := EncodeEntry(contentB)
	require.NoError(t, err)
	assert.NotEqual(t, encodedA, encodedB)
}

func TestEncodeEntryEmptyPayload(t *testing.T) {
	content := testContent()
	content.Payload = nil
	encoded, err := EncodeEntry(content)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"payload":null`)
}

func TestEncodeEntryValidation(t *testing.T) {
	content := testContent()
	content.AssessmentID = ""
	_, err := EncodeEntry(content)
	require.Error(t, err)

	content = testContent()
	content.EntryType = ""
	_, err = EncodeEntry(content)
	require.Error(t, err)

	content = testContent()
	content.Payload = json.RawMessage(`{not json`)
	_, err = EncodeEntry(content)
	require.Error(t, err)
}

func TestHashEntryHexForm(t *testing.T) {
	hash, err := HashEntry(testContent())
	require.NoError(t, err)
	assert.Len(t, hash, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", hash)
}

func TestCanonicalizeForms(t *testing.T) {
	testDefs := []struct {
		name     string
		input    any
		expected string
	}{
		{"null", nil, `null`},
		{"bool", true, `true`},
		{"string", "hello", `"hello"`},
		{"integer", float64(42), `42`},
		{"negativeZero", math.Copysign(0, -1), `0`},
		{"fraction", 0.5, `0.5`},
		{"array", []any{float64(1), "two", nil}, `[1,"two",null]`},
		{
			"objectSortedKeys",
			map[string]any{"b": float64(2), "a": float64(1)},
			`{"a":1,"b":2}`,
		},
		{
			"escapes",
			"line\nbreak\ttab\"quote",
			`"line\nbreak\ttab\"quote"`,
		},
		{
			"controlChar",
			"\x01",
			`"\u0001"`,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			encoded, err := Canonicalize(testDef.input)
			require.NoError(t, err)
			assert.Equal(t, testDef.expected, string(encoded))
		})
	}
}

func TestCanonicalizeStruct(t *testing.T) {
	type payload struct {
		Step  string   `json:"step"`
		Codes []string `json:"codes"`
	}
	encoded, err := Canonicalize(payload{Step: "review", Codes: []string{"R1"}})
	require.NoError(t, err)
	assert.Equal(t, `{"codes":["R1"],"step":"review"}`, string(encoded))
}

func TestCanonicalizeRejectsNonFinite(t *testing.T) {
	_, err := Canonicalize(math.NaN())
	require.Error(t, err)
	_, err = Canonicalize(math.Inf(1))
	require.Error(t, err)
}
