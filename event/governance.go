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

package event

const (
	LedgerEntryEventType          EventType = "ledger.entry.appended"
	DecisionEventType             EventType = "decision.submitted"
	CouncilCreatedEventType       EventType = "council.created"
	CouncilArchivedEventType      EventType = "council.archived"
	MembershipAddedEventType      EventType = "membership.added"
	MembershipRevokedEventType    EventType = "membership.revoked"
	AssessmentAssignedEventType   EventType = "assessment.assigned"
	AssessmentUnassignedEventType EventType = "assessment.unassigned"
)

// LedgerEntryEvent fires after a ledger append commits. Seq is the
// database sequence of the new entry, used by iterators to resume.
type LedgerEntryEvent struct {
	AssessmentId string
	EntryId      string
	EntryType    string
	Hash         string
	Seq          uint64
}

// DecisionEvent fires after a vote and its ledger entry commit together
type DecisionEvent struct {
	AssessmentId string
	CouncilId    string
	ApprovalId   string
	MembershipId string
	Status       string
	Step         string
}

// CouncilEvent fires on council lifecycle changes
type CouncilEvent struct {
	CouncilId string
	Name      string
}

// MembershipEvent fires on membership lifecycle changes
type MembershipEvent struct {
	CouncilId    string
	MembershipId string
	UserId       string
	Role         string
}

// AssessmentEvent fires when an assessment is bound to or released from a
// council
type AssessmentEvent struct {
	AssessmentId string
	CouncilId    string
}
