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

package types

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvidenceSnapshotKey(t *testing.T) {
	assert.Equal(
		t,
		[]byte("evidence/snap-1"),
		EvidenceSnapshotKey("snap-1"),
	)
}

func TestCanonicalArchiveKey(t *testing.T) {
	key := CanonicalArchiveKey("assess-1", "entry-1")
	assert.Equal(t, []byte("canonical/assess-1/entry-1"), key)
	// Key must fall under the assessment's archive prefix
	assert.True(
		t,
		bytes.HasPrefix(key, CanonicalArchivePrefix("assess-1")),
	)
}
