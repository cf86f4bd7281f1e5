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
	"github.com/sengol-ai/conclave/database/models"
	"github.com/sengol-ai/conclave/database/types"
)

// metadataTxn unwraps the metadata side of an optional facade transaction
func metadataTxn(txn *Txn) types.Txn {
	if txn == nil {
		return nil
	}
	return txn.Metadata()
}

// blobTxn unwraps the blob side of an optional facade transaction
func blobTxn(txn *Txn) types.Txn {
	if txn == nil {
		return nil
	}
	return txn.Blob()
}

// AddLedgerEntry inserts a ledger entry
func (d *Database) AddLedgerEntry(
	entry *models.LedgerEntry,
	txn *Txn,
) error {
	return d.metadata.AddLedgerEntry(entry, metadataTxn(txn))
}

// GetLedgerEntries lists an assessment's entries in chain order with
// optional entry type filter and paging
func (d *Database) GetLedgerEntries(
	assessmentId string,
	entryType string,
	offset int,
	limit int,
	txn *Txn,
) ([]models.LedgerEntry, error) {
	return d.metadata.GetLedgerEntries(
		assessmentId,
		entryType,
		offset,
		limit,
		metadataTxn(txn),
	)
}

// GetLedgerEntriesAfter lists entries with sequence greater than seq in
// chain order
func (d *Database) GetLedgerEntriesAfter(
	assessmentId string,
	seq uint64,
	limit int,
	txn *Txn,
) ([]models.LedgerEntry, error) {
	return d.metadata.GetLedgerEntriesAfter(
		assessmentId,
		seq,
		limit,
		metadataTxn(txn),
	)
}

// GetLedgerEntryCount counts an assessment's entries
func (d *Database) GetLedgerEntryCount(
	assessmentId string,
	txn *Txn,
) (int64, error) {
	return d.metadata.GetLedgerEntryCount(assessmentId, metadataTxn(txn))
}

// GetLedgerTail gets the last entry of an assessment's chain
func (d *Database) GetLedgerTail(
	assessmentId string,
	txn *Txn,
) (*models.LedgerEntry, error) {
	return d.metadata.GetLedgerTail(assessmentId, metadataTxn(txn))
}

// LockLedgerTip claims the chain head row for an assessment inside txn,
// inserting it if the chain is empty, so the tip and tail reads that follow
// run under the row lock on stores that support it
func (d *Database) LockLedgerTip(
	assessmentId string,
	txn *Txn,
) error {
	return d.metadata.LockLedgerTip(assessmentId, metadataTxn(txn))
}

// GetLedgerTip gets the chain head row for an assessment
func (d *Database) GetLedgerTip(
	assessmentId string,
	txn *Txn,
) (*models.LedgerTip, error) {
	return d.metadata.GetLedgerTip(assessmentId, metadataTxn(txn))
}

// SetLedgerTip upserts the chain head row for an assessment
func (d *Database) SetLedgerTip(
	tip *models.LedgerTip,
	txn *Txn,
) error {
	return d.metadata.SetLedgerTip(tip, metadataTxn(txn))
}
