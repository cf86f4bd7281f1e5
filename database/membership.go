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

// GetMembership gets the membership row for a (council, user) pair
func (d *Database) GetMembership(
	councilId string,
	userId string,
	txn *Txn,
) (*models.Membership, error) {
	return d.metadata.GetMembership(councilId, userId, metadataTxn(txn))
}

// GetMembershipById gets a membership by its id
func (d *Database) GetMembershipById(
	membershipId string,
	txn *Txn,
) (*models.Membership, error) {
	return d.metadata.GetMembershipById(membershipId, metadataTxn(txn))
}

// GetMemberships lists a council's memberships with optional status filter
func (d *Database) GetMemberships(
	councilId string,
	status string,
	txn *Txn,
) ([]models.Membership, error) {
	return d.metadata.GetMemberships(councilId, status, metadataTxn(txn))
}

// SetMembership upserts a membership row
func (d *Database) SetMembership(
	membership *models.Membership,
	txn *Txn,
) error {
	return d.metadata.SetMembership(membership, metadataTxn(txn))
}
