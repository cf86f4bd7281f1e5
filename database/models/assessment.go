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

// Assessment is the registry row binding an externally owned risk
// assessment to at most one council. CouncilID is the assessment's
// *current* council pointer; historical ledger entries keep whichever
// council id was recorded when the action happened.
type Assessment struct {
	ID        string  `gorm:"primaryKey;size:128"`
	CouncilID *string `gorm:"index;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name
func (Assessment) TableName() string {
	return "assessment"
}
