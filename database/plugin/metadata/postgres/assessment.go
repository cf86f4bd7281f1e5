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

	"github.com/sengol-ai/conclave/database/models"
	"github.com/sengol-ai/conclave/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetAssessment gets an assessment registry row. Returns nil without
// error when the assessment is unknown.
func (d *MetadataStorePostgres) GetAssessment(
	assessmentId string,
	txn types.Txn,
) (*models.Assessment, error) {
	var assessment models.Assessment
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	result := db.First(&assessment, "id = ?", assessmentId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &assessment, nil
}

// SetAssessment upserts an assessment row, including clearing the council
// pointer when CouncilID is nil
func (d *MetadataStorePostgres) SetAssessment(
	assessment *models.Assessment,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"council_id",
			"updated_at",
		}),
	}
	if result := db.Clauses(onConflict).Create(assessment); result.Error != nil {
		return result.Error
	}
	return nil
}
