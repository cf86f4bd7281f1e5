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

// GetCouncil gets a council by id
func (d *Database) GetCouncil(
	councilId string,
	txn *Txn,
) (*models.Council, error) {
	return d.metadata.GetCouncil(councilId, metadataTxn(txn))
}

// GetCouncils lists councils, optionally including archived ones
func (d *Database) GetCouncils(
	includeArchived bool,
	txn *Txn,
) ([]models.Council, error) {
	return d.metadata.GetCouncils(includeArchived, metadataTxn(txn))
}

// SetCouncil upserts a council row
func (d *Database) SetCouncil(
	council *models.Council,
	txn *Txn,
) error {
	return d.metadata.SetCouncil(council, metadataTxn(txn))
}
