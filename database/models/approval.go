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

// Approval status constants
const (
	ApprovalStatusApproved = "APPROVED"
	ApprovalStatusRejected = "REJECTED"
	ApprovalStatusPending  = "PENDING"
)

// Approval is one decision by one membership on one assessment at a named
// workflow step. Rows are immutable once created; corrections are recorded
// as new votes. The store exposes create and list operations only.
type Approval struct {
	ID                 string `gorm:"primaryKey;size:36"`
	AssessmentID       string `gorm:"index:approval_assessment;size:128;not null"`
	CouncilID          string `gorm:"size:36;not null"`
	MembershipID       string `gorm:"size:36;not null"`
	PartnerID          string `gorm:"size:128"`
	Step               string `gorm:"size:128;not null"`
	Status             string `gorm:"size:16;not null"`
	DecisionNotes      string `gorm:"type:text"`
	ReasonCodes        string `gorm:"type:text"` // JSON string array
	EvidenceSnapshotID string `gorm:"size:128"`
	CreatedAt          time.Time
}

// TableName returns the table name
func (Approval) TableName() string {
	return "approval"
}
