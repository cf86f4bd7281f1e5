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

package models

import "time"

// Membership status constants. A revoked membership can be reactivated
// by re-adding the same user to the same council.
const (
	MembershipStatusActive  = "ACTIVE"
	MembershipStatusRevoked = "REVOKED"
)

// Membership binds a user to a council with a role. There is at most one
// row per (council, user) pair; re-adding a revoked user flips the existing
// row back to ACTIVE rather than inserting a duplicate. Only ACTIVE
// memberships count toward quorum.
type Membership struct {
	ID        string `gorm:"primaryKey;size:36"`
	CouncilID string `gorm:"uniqueIndex:council_user;size:36;not null"`
	UserID    string `gorm:"uniqueIndex:council_user;size:128;not null"`
	Role      string `gorm:"size:64"`
	Status    string `gorm:"index;size:16;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// TableName returns the table name
func (Membership) TableName() string {
	return "membership"
}
