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

package postgres

import (
	"errors"
	"time"

	"github.com/sengol-ai/conclave/database/models"
	"github.com/sengol-ai/conclave/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddLedgerEntry inserts a ledger entry. Entries are immutable: there is
// no update or delete operation on this table.
func (d *MetadataStorePostgres) AddLedgerEntry(
	entry *models.LedgerEntry,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(entry); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetLedgerEntries lists an assessment's entries in chain order
// (created_at, id), optionally filtered by entry type, with offset/limit
// paging. A limit <= 0 returns everything from offset on.
func (d *MetadataStorePostgres) GetLedgerEntries(
	assessmentId string,
	entryType string,
	offset int,
	limit int,
	txn types.Txn,
) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	db = db.Where("assessment_id = ?", assessmentId)
	if entryType != "" {
		db = db.Where("entry_type = ?", entryType)
	}
	db = db.Order("created_at").Order("id")
	if offset > 0 {
		db = db.Offset(offset)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}
	if result := db.Find(&entries); result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

// GetLedgerEntriesAfter lists entries with id greater than seq in chain
// order, used by forward iterators
func (d *MetadataStorePostgres) GetLedgerEntriesAfter(
	assessmentId string,
	seq uint64,
	limit int,
	txn types.Txn,
) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	db = db.Where("assessment_id = ? AND id > ?", assessmentId, seq).
		Order("created_at").
		Order("id")
	if limit > 0 {
		db = db.Limit(limit)
	}
	if result := db.Find(&entries); result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

// GetLedgerEntryCount counts an assessment's entries
func (d *MetadataStorePostgres) GetLedgerEntryCount(
	assessmentId string,
	txn types.Txn,
) (int64, error) {
	var count int64
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	result := db.Model(&models.LedgerEntry{}).
		Where("assessment_id = ?", assessmentId).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// GetLedgerTail gets the last entry of an assessment's chain. Returns nil
// without error for an empty chain.
func (d *MetadataStorePostgres) GetLedgerTail(
	assessmentId string,
	txn types.Txn,
) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	result := db.Where("assessment_id = ?", assessmentId).
		Order("created_at DESC").
		Order("id DESC").
		First(&entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &entry, nil
}

// LockLedgerTip claims the assessment's tip row. The insert blocks behind
// a concurrent claimer's uncommitted row, and the locked read that follows
// takes FOR UPDATE on whichever row survives. This serializes
// same-assessment appends across processes even before the first entry
// exists, where FOR UPDATE alone would find nothing to lock.
func (d *MetadataStorePostgres) LockLedgerTip(
	assessmentId string,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.LedgerTip{
			AssessmentID: assessmentId,
			UpdatedAt:    time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	var tip models.LedgerTip
	result = db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&tip, "assessment_id = ?", assessmentId)
	return result.Error
}

// GetLedgerTip gets the chain head row for an assessment. Returns nil
// without error when no tip exists yet. When called inside a transaction
// the row is read with SELECT FOR UPDATE so concurrent appends to the same
// assessment serialize at the database, even across processes.
func (d *MetadataStorePostgres) GetLedgerTip(
	assessmentId string,
	txn types.Txn,
) (*models.LedgerTip, error) {
	var tip models.LedgerTip
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if txn != nil {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	result := db.First(&tip, "assessment_id = ?", assessmentId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &tip, nil
}

// SetLedgerTip upserts the chain head row for an assessment
func (d *MetadataStorePostgres) SetLedgerTip(
	tip *models.LedgerTip,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "assessment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"entry_id",
			"hash",
			"entry_count",
			"updated_at",
		}),
	}
	if result := db.Clauses(onConflict).Create(tip); result.Error != nil {
		return result.Error
	}
	return nil
}
