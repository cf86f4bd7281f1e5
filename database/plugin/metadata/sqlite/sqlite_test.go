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

package sqlite

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sengol-ai/conclave/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *MetadataStoreSqlite {
	t.Helper()
	store, err := New(t.TempDir(), nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close() //nolint:errcheck
	})
	return store
}

func TestCouncilRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	council := &models.Council{
		ID:        uuid.NewString(),
		Name:      "model safety council",
		Status:    models.CouncilStatusActive,
		Quorum:    3,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.SetCouncil(council, nil))

	fetched, err := store.GetCouncil(council.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, council.Name, fetched.Name)
	assert.Equal(t, uint(3), fetched.Quorum)

	// Unknown id returns nil, nil
	missing, err := store.GetCouncil(uuid.NewString(), nil)
	require.NoError(t, err)
	assert.Nil(t, missing)

	// Upsert updates in place
	council.Name = "model safety council (renamed)"
	council.Quorum = 5
	require.NoError(t, store.SetCouncil(council, nil))
	fetched, err = store.GetCouncil(council.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "model safety council (renamed)", fetched.Name)
	assert.Equal(t, uint(5), fetched.Quorum)
}

func TestCouncilListFiltersArchived(t *testing.T) {
	store := setupTestStore(t)

	active := &models.Council{
		ID:     uuid.NewString(),
		Name:   "active",
		Status: models.CouncilStatusActive,
		Quorum: 1,
	}
	archivedAt := time.Now().UTC()
	archived := &models.Council{
		ID:         uuid.NewString(),
		Name:       "archived",
		Status:     models.CouncilStatusArchived,
		Quorum:     1,
		ArchivedAt: &archivedAt,
	}
	require.NoError(t, store.SetCouncil(active, nil))
	require.NoError(t, store.SetCouncil(archived, nil))

	councils, err := store.GetCouncils(false, nil)
	require.NoError(t, err)
	require.Len(t, councils, 1)
	assert.Equal(t, active.ID, councils[0].ID)

	councils, err = store.GetCouncils(true, nil)
	require.NoError(t, err)
	assert.Len(t, councils, 2)
}

func TestMembershipReactivation(t *testing.T) {
	store := setupTestStore(t)

	councilId := uuid.NewString()
	membership := &models.Membership{
		ID:        uuid.NewString(),
		CouncilID: councilId,
		UserID:    "reviewer-1",
		Role:      "reviewer",
		Status:    models.MembershipStatusActive,
	}
	require.NoError(t, store.SetMembership(membership, nil))

	// Revoke
	revokedAt := time.Now().UTC()
	membership.Status = models.MembershipStatusRevoked
	membership.RevokedAt = &revokedAt
	require.NoError(t, store.SetMembership(membership, nil))

	fetched, err := store.GetMembership(councilId, "reviewer-1", nil)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, models.MembershipStatusRevoked, fetched.Status)

	// Re-adding flips the same row back instead of inserting a duplicate
	readd := &models.Membership{
		ID:        uuid.NewString(),
		CouncilID: councilId,
		UserID:    "reviewer-1",
		Role:      "lead",
		Status:    models.MembershipStatusActive,
	}
	require.NoError(t, store.SetMembership(readd, nil))

	memberships, err := store.GetMemberships(councilId, "", nil)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, membership.ID, memberships[0].ID)
	assert.Equal(t, "lead", memberships[0].Role)
	assert.Equal(t, models.MembershipStatusActive, memberships[0].Status)
	assert.Nil(t, memberships[0].RevokedAt)
}

func TestMembershipStatusFilter(t *testing.T) {
	store := setupTestStore(t)

	councilId := uuid.NewString()
	revokedAt := time.Now().UTC()
	for _, m := range []*models.Membership{
		{
			ID:        uuid.NewString(),
			CouncilID: councilId,
			UserID:    "active-user",
			Status:    models.MembershipStatusActive,
		},
		{
			ID:        uuid.NewString(),
			CouncilID: councilId,
			UserID:    "revoked-user",
			Status:    models.MembershipStatusRevoked,
			RevokedAt: &revokedAt,
		},
	} {
		require.NoError(t, store.SetMembership(m, nil))
	}

	active, err := store.GetMemberships(
		councilId,
		models.MembershipStatusActive,
		nil,
	)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "active-user", active[0].UserID)
}

func TestApprovalsOrdered(t *testing.T) {
	store := setupTestStore(t)

	assessmentId := "assess-ordered"
	base := time.Now().UTC().Add(-time.Hour)
	for i, status := range []string{
		models.ApprovalStatusApproved,
		models.ApprovalStatusRejected,
		models.ApprovalStatusApproved,
	} {
		approval := &models.Approval{
			ID:           uuid.NewString(),
			AssessmentID: assessmentId,
			CouncilID:    uuid.NewString(),
			MembershipID: uuid.NewString(),
			Step:         "final-review",
			Status:       status,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.AddApproval(approval, nil))
	}

	approvals, err := store.GetApprovalsByAssessment(assessmentId, nil)
	require.NoError(t, err)
	require.Len(t, approvals, 3)
	assert.Equal(t, models.ApprovalStatusApproved, approvals[0].Status)
	assert.Equal(t, models.ApprovalStatusRejected, approvals[1].Status)
	assert.True(t, approvals[0].CreatedAt.Before(approvals[2].CreatedAt))
}

func TestLedgerEntriesAndTail(t *testing.T) {
	store := setupTestStore(t)

	assessmentId := "assess-chain"
	base := time.Now().UTC().Add(-time.Hour)
	var prevHash *string
	for i := range 3 {
		hash := uuid.NewString()
		entry := &models.LedgerEntry{
			EntryID:      uuid.NewString(),
			AssessmentID: assessmentId,
			ActorID:      "reviewer-1",
			EntryType:    models.LedgerEntryTypeApproval,
			Payload:      []byte(`{}`),
			Hash:         hash,
			PrevHash:     prevHash,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.AddLedgerEntry(entry, nil))
		prevHash = &hash
	}

	entries, err := store.GetLedgerEntries(assessmentId, "", 0, 0, nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Nil(t, entries[0].PrevHash)
	require.NotNil(t, entries[1].PrevHash)
	assert.Equal(t, entries[0].Hash, *entries[1].PrevHash)

	tail, err := store.GetLedgerTail(assessmentId, nil)
	require.NoError(t, err)
	require.NotNil(t, tail)
	assert.Equal(t, entries[2].EntryID, tail.EntryID)

	count, err := store.GetLedgerEntryCount(assessmentId, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// Empty chain
	tail, err = store.GetLedgerTail("assess-empty", nil)
	require.NoError(t, err)
	assert.Nil(t, tail)

	// Paging
	page, err := store.GetLedgerEntries(assessmentId, "", 1, 1, nil)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, entries[1].EntryID, page[0].EntryID)

	// After-seq fetch for iterators
	after, err := store.GetLedgerEntriesAfter(
		assessmentId,
		entries[0].ID,
		0,
		nil,
	)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, entries[1].EntryID, after[0].EntryID)
}

func TestLedgerEntryTypeFilter(t *testing.T) {
	store := setupTestStore(t)

	assessmentId := "assess-filter"
	base := time.Now().UTC().Add(-time.Hour)
	for i, entryType := range []string{
		models.LedgerEntryTypeSubmission,
		models.LedgerEntryTypeApproval,
		models.LedgerEntryTypeApproval,
	} {
		entry := &models.LedgerEntry{
			EntryID:      uuid.NewString(),
			AssessmentID: assessmentId,
			ActorID:      "reviewer-1",
			EntryType:    entryType,
			Payload:      []byte(`{}`),
			Hash:         uuid.NewString(),
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.AddLedgerEntry(entry, nil))
	}

	approvals, err := store.GetLedgerEntries(
		assessmentId,
		models.LedgerEntryTypeApproval,
		0,
		0,
		nil,
	)
	require.NoError(t, err)
	assert.Len(t, approvals, 2)
}

func TestLedgerTipUpsert(t *testing.T) {
	store := setupTestStore(t)

	assessmentId := "assess-tip"
	tip, err := store.GetLedgerTip(assessmentId, nil)
	require.NoError(t, err)
	assert.Nil(t, tip)

	require.NoError(t, store.SetLedgerTip(&models.LedgerTip{
		AssessmentID: assessmentId,
		EntryID:      1,
		Hash:         "hash-1",
		EntryCount:   1,
		UpdatedAt:    time.Now().UTC(),
	}, nil))
	require.NoError(t, store.SetLedgerTip(&models.LedgerTip{
		AssessmentID: assessmentId,
		EntryID:      2,
		Hash:         "hash-2",
		EntryCount:   2,
		UpdatedAt:    time.Now().UTC(),
	}, nil))

	tip, err = store.GetLedgerTip(assessmentId, nil)
	require.NoError(t, err)
	require.NotNil(t, tip)
	assert.Equal(t, uint64(2), tip.EntryID)
	assert.Equal(t, "hash-2", tip.Hash)
	assert.Equal(t, uint64(2), tip.EntryCount)
}

func TestAssessmentCouncilPointer(t *testing.T) {
	store := setupTestStore(t)

	councilId := uuid.NewString()
	assessment := &models.Assessment{
		ID:        "assess-pointer",
		CouncilID: &councilId,
	}
	require.NoError(t, store.SetAssessment(assessment, nil))

	fetched, err := store.GetAssessment("assess-pointer", nil)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	require.NotNil(t, fetched.CouncilID)
	assert.Equal(t, councilId, *fetched.CouncilID)

	// Clear the pointer
	assessment.CouncilID = nil
	require.NoError(t, store.SetAssessment(assessment, nil))
	fetched, err = store.GetAssessment("assess-pointer", nil)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Nil(t, fetched.CouncilID)
}

func TestTransactionRollback(t *testing.T) {
	store := setupTestStore(t)

	txn := store.Transaction()
	council := &models.Council{
		ID:     uuid.NewString(),
		Name:   "rolled back",
		Status: models.CouncilStatusActive,
		Quorum: 1,
	}
	require.NoError(t, store.SetCouncil(council, txn))
	require.NoError(t, txn.Rollback())

	fetched, err := store.GetCouncil(council.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, fetched)
}

func TestCommitTimestamp(t *testing.T) {
	store := setupTestStore(t)

	// No row yet
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts)

	require.NoError(t, store.SetCommitTimestamp(42, nil))
	require.NoError(t, store.SetCommitTimestamp(43, nil))

	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(43), ts)
}
