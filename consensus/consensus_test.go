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

package consensus

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeVotes(approvals, rejections, pending int) []Vote {
	votes := []Vote{}
	for i := range approvals {
		votes = append(votes, Vote{
			MembershipID: fmt.Sprintf("approve-%d", i),
			Status:       VoteStatusApproved,
		})
	}
	for i := range rejections {
		votes = append(votes, Vote{
			MembershipID: fmt.Sprintf("reject-%d", i),
			Status:       VoteStatusRejected,
		})
	}
	for i := range pending {
		votes = append(votes, Vote{
			MembershipID: fmt.Sprintf("pending-%d", i),
			Status:       VoteStatusPending,
		})
	}
	return votes
}

func TestEvaluateMajorityQuorum(t *testing.T) {
	policy := Policy{Quorum: 3}

	testDefs := []struct {
		name       string
		approvals  int
		rejections int
		pending    int
		approved   bool
		rejected   bool
		quorumMet  bool
	}{
		{"noVotes", 0, 0, 0, false, false, false},
		{"belowQuorum", 2, 0, 0, false, false, false},
		{"atQuorum", 3, 0, 0, true, false, true},
		{"aboveQuorum", 4, 0, 1, true, false, true},
		{"rejectionsBeforeQuorum", 2, 2, 0, false, true, true},
		{"singleRejection", 0, 1, 0, false, true, false},
		{"stickyApproval", 3, 2, 0, true, false, true},
		{"pendingOnly", 0, 0, 3, false, false, false},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			verdict := Evaluate(
				policy,
				makeVotes(
					testDef.approvals,
					testDef.rejections,
					testDef.pending,
				),
			)
			assert.Equal(t, testDef.approved, verdict.Approved, "approved")
			assert.Equal(t, testDef.rejected, verdict.Rejected, "rejected")
			assert.Equal(
				t,
				!testDef.approved && !testDef.rejected,
				verdict.Pending,
				"pending",
			)
			assert.Equal(t, testDef.quorumMet, verdict.QuorumMet, "quorumMet")
			assert.Equal(t, testDef.approvals, verdict.TotalApprovals)
			assert.Equal(t, testDef.rejections, verdict.TotalRejections)
			assert.Equal(t, testDef.pending, verdict.TotalPending)
		})
	}
}

func TestEvaluateUnanimous(t *testing.T) {
	policy := Policy{Quorum: 2, RequireUnanimous: true}

	testDefs := []struct {
		name       string
		approvals  int
		rejections int
		approved   bool
		rejected   bool
	}{
		{"allApprove", 2, 0, true, false},
		{"singleApproval", 1, 0, false, false},
		// A single rejection rejects even though the decisive vote count
		// meets quorum
		{"splitAtQuorum", 1, 1, false, true},
		{"rejectionBelowQuorum", 0, 1, false, true},
		{"rejectionAboveQuorum", 3, 1, false, true},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			verdict := Evaluate(
				policy,
				makeVotes(testDef.approvals, testDef.rejections, 0),
			)
			assert.Equal(t, testDef.approved, verdict.Approved, "approved")
			assert.Equal(t, testDef.rejected, verdict.Rejected, "rejected")
		})
	}
}

func TestEvaluateVerdictExclusive(t *testing.T) {
	// Exactly one of approved/rejected/pending must hold for any input
	for _, unanimous := range []bool{false, true} {
		for quorum := uint(1); quorum <= 4; quorum++ {
			for approvals := range 5 {
				for rejections := range 5 {
					verdict := Evaluate(
						Policy{Quorum: quorum, RequireUnanimous: unanimous},
						makeVotes(approvals, rejections, 1),
					)
					count := 0
					for _, flag := range []bool{
						verdict.Approved,
						verdict.Rejected,
						verdict.Pending,
					} {
						if flag {
							count++
						}
					}
					assert.Equal(
						t,
						1,
						count,
						"unanimous=%v quorum=%d approvals=%d rejections=%d",
						unanimous,
						quorum,
						approvals,
						rejections,
					)
				}
			}
		}
	}
}

func TestEvaluatePolicyEcho(t *testing.T) {
	verdict := Evaluate(Policy{Quorum: 5, RequireUnanimous: true}, nil)
	assert.Equal(t, uint(5), verdict.RequiredQuorum)
	assert.True(t, verdict.RequiresUnanimous)
}
