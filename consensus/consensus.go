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

// Package consensus converts a set of council member votes on an assessment
// into an approved/rejected/pending verdict under either majority-quorum or
// unanimous policy. Evaluate is pure and total: no I/O, no clock access, no
// randomness.
package consensus

// Vote status constants, matching the approval record store
const (
	VoteStatusApproved = "APPROVED"
	VoteStatusRejected = "REJECTED"
	VoteStatusPending  = "PENDING"
)

// Policy is the council's consensus configuration. Quorum is the minimum
// number of decisive (approve/reject) votes before a verdict can be
// reached; councils are validated at creation so Quorum >= 1 here.
type Policy struct {
	Quorum           uint
	RequireUnanimous bool
}

// Vote is one active-member decision on an assessment. Votes from revoked
// memberships are excluded by the caller before evaluation.
type Vote struct {
	MembershipID string
	Status       string
}

// Verdict is the computed consensus outcome. Exactly one of Approved,
// Rejected and Pending is true.
type Verdict struct {
	Approved          bool
	Rejected          bool
	Pending           bool
	QuorumMet         bool
	TotalApprovals    int
	TotalRejections   int
	TotalPending      int
	RequiredQuorum    uint
	RequiresUnanimous bool
}

// Evaluate computes the verdict for the given votes under the given policy.
//
// Under unanimous policy a single rejection rejects immediately, regardless
// of quorum. Under majority policy approval is sticky: once approvals reach
// quorum the verdict is approved and later rejections cannot flip it; a
// rejection only rejects while approvals are still below quorum.
func Evaluate(policy Policy, votes []Vote) Verdict {
	var approvals, rejections, pending int
	for _, vote := range votes {
		switch vote.Status {
		case VoteStatusApproved:
			approvals++
		case VoteStatusRejected:
			rejections++
		default:
			pending++
		}
	}
	quorum := int(policy.Quorum) //nolint:gosec
	quorumMet := approvals+rejections >= quorum

	var approved, rejected bool
	if policy.RequireUnanimous {
		approved = quorumMet && rejections == 0 && approvals >= quorum
		rejected = rejections > 0
	} else {
		approved = approvals >= quorum
		rejected = rejections > 0 && approvals < quorum
	}

	return Verdict{
		Approved:          approved,
		Rejected:          rejected,
		Pending:           !approved && !rejected,
		QuorumMet:         quorumMet,
		TotalApprovals:    approvals,
		TotalRejections:   rejections,
		TotalPending:      pending,
		RequiredQuorum:    policy.Quorum,
		RequiresUnanimous: policy.RequireUnanimous,
	}
}
