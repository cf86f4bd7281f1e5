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

package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrIteratorAtTip is returned by a non-blocking iterator Next when the
	// chain has no further entries
	ErrIteratorAtTip = errors.New("iterator at chain tip")

	// ErrIteratorClosed is returned when using an iterator after Close
	ErrIteratorClosed = errors.New("iterator closed")
)

// ValidationError describes a rejected entry draft. Validation failures
// happen before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) ValidationError {
	return ValidationError{Field: field, Reason: reason}
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid ledger entry: %s: %s", e.Field, e.Reason)
}

// FieldName returns the offending draft field
func (e ValidationError) FieldName() string {
	return e.Field
}
