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

package sqlite

import (
	"errors"

	"github.com/sengol-ai/conclave/database/models"
	"github.com/sengol-ai/conclave/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetCouncil gets a council by id. Returns nil without error when the
// council does not exist.
func (d *MetadataStoreSqlite) GetCouncil(
	councilId string,
	txn types.Txn,
) (*models.Council, error) {
	var council models.Council
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.First(&council, "id = ?", councilId); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &council, nil
}

// GetCouncils lists councils, optionally including archived ones, in
// creation order
func (d *MetadataStoreSqlite) GetCouncils(
	includeArchived bool,
	txn types.Txn,
) ([]models.Council, error) {
	var councils []models.Council
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if !includeArchived {
		db = db.Where("status = ?", models.CouncilStatusActive)
	}
	if result := db.Order("created_at").Find(&councils); result.Error != nil {
		return nil, result.Error
	}
	return councils, nil
}

// SetCouncil upserts a council row
func (d *MetadataStoreSqlite) SetCouncil(
	council *models.Council,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"status",
			"quorum",
			"require_unanimous",
			"approval_policy",
			"updated_at",
			"archived_at",
		}),
	}
	if result := db.Clauses(onConflict).Create(council); result.Error != nil {
		return result.Error
	}
	return nil
}
