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

const (
	EvidenceSnapshotKeyPrefix = "evidence/"
	CanonicalArchiveKeyPrefix = "canonical/"
)

// EvidenceSnapshotKey builds the blob key for a vote's evidence snapshot
// document.
func EvidenceSnapshotKey(snapshotId string) []byte {
	return []byte(EvidenceSnapshotKeyPrefix + snapshotId)
}

// CanonicalArchiveKey builds the blob key for the archived canonical
// encoding of one ledger entry.
func CanonicalArchiveKey(assessmentId, entryId string) []byte {
	key := []byte(CanonicalArchiveKeyPrefix)
	key = append(key, []byte(assessmentId)...)
	key = append(key, '/')
	key = append(key, []byte(entryId)...)
	return key
}

// CanonicalArchivePrefix builds the blob key prefix covering every archived
// canonical encoding for one assessment, for use with blob iterators.
func CanonicalArchivePrefix(assessmentId string) []byte {
	key := []byte(CanonicalArchiveKeyPrefix)
	key = append(key, []byte(assessmentId)...)
	key = append(key, '/')
	return key
}
