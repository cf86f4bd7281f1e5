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

// Council status constants. The only legal transition is ACTIVE to
// ARCHIVED, and ARCHIVED is terminal.
const (
	CouncilStatusActive   = "ACTIVE"
	CouncilStatusArchived = "ARCHIVED"
)

// Council represents a governance body that reviews risk assessments.
// Quorum is the minimum number of decisive (approve/reject) votes required
// before a verdict can be reached. ApprovalPolicy is an opaque JSON document
// owned by the surrounding platform.
type Council struct {
	ID               string `gorm:"primaryKey;size:36"`
	Name             string `gorm:"size:255;not null"`
	Status           string `gorm:"index;size:16;not null"`
	Quorum           uint   `gorm:"not null"`
	RequireUnanimous bool   `gorm:"not null"`
	ApprovalPolicy   []byte `gorm:"type:text"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ArchivedAt       *time.Time
}

// TableName returns the table name
func (Council) TableName() string {
	return "council"
}
