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
	"github.com/sengol-ai/conclave/database/models"
	"github.com/sengol-ai/conclave/database/types"
)

// AddApproval inserts an approval row. Approvals are append-only: there is
// deliberately no update or delete operation.
func (d *MetadataStorePostgres) AddApproval(
	approval *models.Approval,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(approval); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetApprovalsByAssessment lists all approvals for an assessment in
// creation order
func (d *MetadataStorePostgres) GetApprovalsByAssessment(
	assessmentId string,
	txn types.Txn,
) ([]models.Approval, error) {
	var approvals []models.Approval
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	result := db.Where("assessment_id = ?", assessmentId).
		Order("created_at").
		Order("id").
		Find(&approvals)
	if result.Error != nil {
		return nil, result.Error
	}
	return approvals, nil
}
