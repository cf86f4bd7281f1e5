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

import "errors"

var (
	// ErrCouncilNotFound is returned when a council lookup finds no row
	ErrCouncilNotFound = errors.New("council not found")

	// ErrMembershipNotFound is returned when a membership lookup finds no row
	ErrMembershipNotFound = errors.New("membership not found")

	// ErrAssessmentNotFound is returned when an assessment lookup finds no row
	ErrAssessmentNotFound = errors.New("assessment not found")

	// ErrLedgerEntryNotFound is returned when a ledger entry lookup finds no row
	ErrLedgerEntryNotFound = errors.New("ledger entry not found")
)
