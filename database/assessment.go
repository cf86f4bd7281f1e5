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

// GetAssessment gets an assessment registry row
func (d *Database) GetAssessment(
	assessmentId string,
	txn *Txn,
) (*models.Assessment, error) {
	return d.metadata.GetAssessment(assessmentId, metadataTxn(txn))
}

// SetAssessment upserts an assessment row
func (d *Database) SetAssessment(
	assessment *models.Assessment,
	txn *Txn,
) error {
	return d.metadata.SetAssessment(assessment, metadataTxn(txn))
}
