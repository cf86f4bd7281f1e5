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

// GetMembership gets the membership row for a (council, user) pair
// regardless of status. Returns nil without error when no row exists.
func (d *MetadataStoreSqlite) GetMembership(
	councilId string,
	userId string,
	txn types.Txn,
) (*models.Membership, error) {
	var membership models.Membership
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	result := db.First(
		&membership,
		"council_id = ? AND user_id = ?",
		councilId,
		userId,
	)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &membership, nil
}

// GetMembershipById gets a membership by its id
func (d *MetadataStoreSqlite) GetMembershipById(
	membershipId string,
	txn types.Txn,
) (*models.Membership, error) {
	var membership models.Membership
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	result := db.First(&membership, "id = ?", membershipId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &membership, nil
}

// GetMemberships lists a council's memberships, optionally filtered by
// status, in creation order
func (d *MetadataStoreSqlite) GetMemberships(
	councilId string,
	status string,
	txn types.Txn,
) ([]models.Membership, error) {
	var memberships []models.Membership
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	db = db.Where("council_id = ?", councilId)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if result := db.Order("created_at").Find(&memberships); result.Error != nil {
		return nil, result.Error
	}
	return memberships, nil
}

// SetMembership upserts a membership row keyed on the (council, user)
// unique index, so re-adding a revoked member updates in place
func (d *MetadataStoreSqlite) SetMembership(
	membership *models.Membership,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	onConflict := clause.OnConflict{
		Columns: []clause.Column{
			{Name: "council_id"},
			{Name: "user_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"role",
			"status",
			"updated_at",
			"revoked_at",
		}),
	}
	if result := db.Clauses(onConflict).Create(membership); result.Error != nil {
		return result.Error
	}
	return nil
}
