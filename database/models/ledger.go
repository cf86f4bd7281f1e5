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

// Ledger entry type constants. Decision entries map from vote status;
// COUNCIL_ASSIGNED/COUNCIL_UNASSIGNED record non-vote governance events on
// the same chain.
const (
	LedgerEntryTypeSubmission        = "SUBMISSION"
	LedgerEntryTypeApproval          = "APPROVAL"
	LedgerEntryTypeRejection         = "REJECTION"
	LedgerEntryTypeCouncilAssigned   = "COUNCIL_ASSIGNED"
	LedgerEntryTypeCouncilUnassigned = "COUNCIL_UNASSIGNED"
)

// LedgerEntry is one record in an assessment's evidence chain. Entries are
// totally ordered within an assessment by (created_at, id) and are never
// mutated or deleted. PrevHash is nil for the first entry of a chain.
type LedgerEntry struct {
	ID           uint64  `gorm:"primaryKey;autoIncrement"`
	EntryID      string  `gorm:"uniqueIndex;size:36;not null"`
	AssessmentID string  `gorm:"index:ledger_assessment_order,priority:1;size:128;not null"`
	CouncilID    string  `gorm:"size:36"`
	MembershipID string  `gorm:"size:36"`
	ApprovalID   string  `gorm:"size:36"`
	ActorID      string  `gorm:"size:128;not null"`
	ActorRole    string  `gorm:"size:64"`
	EntryType    string  `gorm:"index;size:32;not null"`
	Payload      []byte  `gorm:"type:text"`
	Hash         string  `gorm:"size:64;not null"`
	PrevHash     *string `gorm:"size:64"`
	CreatedAt    time.Time `gorm:"index:ledger_assessment_order,priority:2"`
}

// TableName returns the table name
func (LedgerEntry) TableName() string {
	return "ledger_entry"
}

// LedgerTip is the chain head for one assessment. Appenders read this row
// with a row lock inside the append transaction so same-assessment appends
// serialize at the database even across processes.
type LedgerTip struct {
	AssessmentID string `gorm:"primaryKey;size:128"`
	EntryID      uint64 `gorm:"not null"`
	Hash         string `gorm:"size:64;not null"`
	EntryCount   uint64 `gorm:"not null"`
	UpdatedAt    time.Time
}

// TableName returns the table name
func (LedgerTip) TableName() string {
	return "ledger_tip"
}
