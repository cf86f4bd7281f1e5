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
)

// AddApproval inserts an approval row
func (d *Database) AddApproval(
	approval *models.Approval,
	txn *Txn,
) error {
	return d.metadata.AddApproval(approval, metadataTxn(txn))
}

// GetApprovalsByAssessment lists all approvals for an assessment in
// creation order
func (d *Database) GetApprovalsByAssessment(
	assessmentId string,
	txn *Txn,
) ([]models.Approval, error) {
	return d.metadata.GetApprovalsByAssessment(assessmentId, metadataTxn(txn))
}
