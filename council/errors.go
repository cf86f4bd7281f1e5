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

package council

import (
	"errors"
	"fmt"
)

var (
	// ErrCouncilArchived is returned for mutations on an archived council
	ErrCouncilArchived = errors.New("council is archived")

	// ErrMembershipRevoked is returned when an operation requires an active
	// membership but the membership is revoked
	ErrMembershipRevoked = errors.New("membership is revoked")

	// ErrMembershipWrongCouncil is returned when a vote's membership belongs
	// to a different council than the assessment's
	ErrMembershipWrongCouncil = errors.New(
		"membership does not belong to the assessment's council",
	)

	// ErrAssessmentUnassigned is returned when an assessment has no council
	// assignment
	ErrAssessmentUnassigned = errors.New(
		"assessment is not assigned to a council",
	)
)

// ValidationError describes rejected lifecycle or decision input.
// Validation failures happen before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) ValidationError {
	return ValidationError{Field: field, Reason: reason}
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// FieldName returns the offending input field
func (e ValidationError) FieldName() string {
	return e.Field
}
