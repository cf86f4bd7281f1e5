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

package database

import (
	"github.com/sengol-ai/conclave/database/types"
)

// SetEvidenceSnapshot stores an evidence snapshot document in the blob
// store under its snapshot id
func (d *Database) SetEvidenceSnapshot(
	snapshotId string,
	data []byte,
	txn *Txn,
) error {
	return d.blob.Set(blobTxn(txn), types.EvidenceSnapshotKey(snapshotId), data)
}

// GetEvidenceSnapshot fetches an evidence snapshot document by snapshot id.
// Returns types.ErrBlobKeyNotFound when no snapshot exists.
func (d *Database) GetEvidenceSnapshot(
	snapshotId string,
	txn *Txn,
) ([]byte, error) {
	return d.blob.Get(blobTxn(txn), types.EvidenceSnapshotKey(snapshotId))
}

// SetCanonicalArchive stores the canonical encoding of a ledger entry in
// the blob store
func (d *Database) SetCanonicalArchive(
	assessmentId string,
	entryId string,
	data []byte,
	txn *Txn,
) error {
	return d.blob.Set(
		blobTxn(txn),
		types.CanonicalArchiveKey(assessmentId, entryId),
		data,
	)
}

// GetCanonicalArchive fetches the archived canonical encoding of a ledger
// entry. Returns types.ErrBlobKeyNotFound when no archive exists.
func (d *Database) GetCanonicalArchive(
	assessmentId string,
	entryId string,
	txn *Txn,
) ([]byte, error) {
	return d.blob.Get(
		blobTxn(txn),
		types.CanonicalArchiveKey(assessmentId, entryId),
	)
}
