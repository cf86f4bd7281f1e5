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

package api

import (
	"encoding/json"
	"time"

	"github.com/sengol-ai/conclave/consensus"
	"github.com/sengol-ai/conclave/database/models"
	"github.com/sengol-ai/conclave/ledger"
)

// ErrorResponse is the error body returned for all non-2xx responses.
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// SubmitDecisionRequest is the body for POST
// /assessments/{assessmentId}/decisions.
type SubmitDecisionRequest struct {
	CouncilID          string          `json:"councilId"`
	MembershipID       string          `json:"membershipId"       validate:"required"`
	PartnerID          string          `json:"partnerId"`
	Step               string          `json:"step"               validate:"required"`
	Status             string          `json:"status"             validate:"required,oneof=APPROVED REJECTED PENDING"`
	DecisionNotes      string          `json:"decisionNotes"`
	ReasonCodes        []string        `json:"reasonCodes"`
	EvidenceSnapshotID string          `json:"evidenceSnapshotId"`
	EvidenceSnapshot   json.RawMessage `json:"evidenceSnapshot"`
	ActorID            string          `json:"actorId"            validate:"required"`
	ActorRole          string          `json:"actorRole"`
}

// CreateCouncilRequest is the body for POST /councils.
type CreateCouncilRequest struct {
	Name             string          `json:"name"             validate:"required"`
	Quorum           uint            `json:"quorum"           validate:"required,min=1"`
	RequireUnanimous bool            `json:"requireUnanimous"`
	ApprovalPolicy   json.RawMessage `json:"approvalPolicy"`
}

// UpdateCouncilRequest is the body for PATCH /councils/{councilId}.
// Omitted fields are left unchanged.
type UpdateCouncilRequest struct {
	Name             *string         `json:"name"             validate:"omitempty,min=1"`
	Quorum           *uint           `json:"quorum"           validate:"omitempty,min=1"`
	RequireUnanimous *bool           `json:"requireUnanimous"`
	ApprovalPolicy   json.RawMessage `json:"approvalPolicy"`
}

// AddMemberRequest is the body for POST /councils/{councilId}/members.
type AddMemberRequest struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role"`
}

// AssignCouncilRequest is the body for PUT
// /assessments/{assessmentId}/council.
type AssignCouncilRequest struct {
	CouncilID string `json:"councilId" validate:"required"`
	ActorID   string `json:"actorId"`
}

// UnassignCouncilRequest is the optional body for DELETE
// /assessments/{assessmentId}/council.
type UnassignCouncilRequest struct {
	ActorID string `json:"actorId"`
}

// CouncilResponse represents a council.
type CouncilResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Status           string          `json:"status"`
	Quorum           uint            `json:"quorum"`
	RequireUnanimous bool            `json:"requireUnanimous"`
	ApprovalPolicy   json.RawMessage `json:"approvalPolicy,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	ArchivedAt       *time.Time      `json:"archivedAt,omitempty"`
}

func newCouncilResponse(council *models.Council) CouncilResponse {
	return CouncilResponse{
		ID:               council.ID,
		Name:             council.Name,
		Status:           council.Status,
		Quorum:           council.Quorum,
		RequireUnanimous: council.RequireUnanimous,
		ApprovalPolicy:   json.RawMessage(council.ApprovalPolicy),
		CreatedAt:        council.CreatedAt,
		UpdatedAt:        council.UpdatedAt,
		ArchivedAt:       council.ArchivedAt,
	}
}

// MembershipResponse represents a council membership.
type MembershipResponse struct {
	ID        string     `json:"id"`
	CouncilID string     `json:"councilId"`
	UserID    string     `json:"userId"`
	Role      string     `json:"role,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
}

func newMembershipResponse(
	membership *models.Membership,
) MembershipResponse {
	return MembershipResponse{
		ID:        membership.ID,
		CouncilID: membership.CouncilID,
		UserID:    membership.UserID,
		Role:      membership.Role,
		Status:    membership.Status,
		CreatedAt: membership.CreatedAt,
		UpdatedAt: membership.UpdatedAt,
		RevokedAt: membership.RevokedAt,
	}
}

// LedgerEntryResponse represents one entry of an assessment's chain.
type LedgerEntryResponse struct {
	EntryID      string          `json:"entryId"`
	AssessmentID string          `json:"assessmentId"`
	CouncilID    string          `json:"councilId,omitempty"`
	MembershipID string          `json:"membershipId,omitempty"`
	ApprovalID   string          `json:"approvalId,omitempty"`
	ActorID      string          `json:"actorId"`
	ActorRole    string          `json:"actorRole,omitempty"`
	EntryType    string          `json:"entryType"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Hash         string          `json:"hash"`
	PrevHash     *string         `json:"prevHash"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func newLedgerEntryResponse(
	entry *models.LedgerEntry,
) LedgerEntryResponse {
	return LedgerEntryResponse{
		EntryID:      entry.EntryID,
		AssessmentID: entry.AssessmentID,
		CouncilID:    entry.CouncilID,
		MembershipID: entry.MembershipID,
		ApprovalID:   entry.ApprovalID,
		ActorID:      entry.ActorID,
		ActorRole:    entry.ActorRole,
		EntryType:    entry.EntryType,
		Payload:      json.RawMessage(entry.Payload),
		Hash:         entry.Hash,
		PrevHash:     entry.PrevHash,
		CreatedAt:    entry.CreatedAt,
	}
}

// ApprovalResponse represents one stored vote.
type ApprovalResponse struct {
	ID                 string    `json:"id"`
	AssessmentID       string    `json:"assessmentId"`
	CouncilID          string    `json:"councilId"`
	MembershipID       string    `json:"membershipId"`
	PartnerID          string    `json:"partnerId,omitempty"`
	Step               string    `json:"step"`
	Status             string    `json:"status"`
	DecisionNotes      string    `json:"decisionNotes,omitempty"`
	ReasonCodes        []string  `json:"reasonCodes,omitempty"`
	EvidenceSnapshotID string    `json:"evidenceSnapshotId,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

func newApprovalResponse(approval *models.Approval) ApprovalResponse {
	var reasonCodes []string
	if approval.ReasonCodes != "" {
		//nolint:errcheck
		json.Unmarshal([]byte(approval.ReasonCodes), &reasonCodes)
	}
	return ApprovalResponse{
		ID:                 approval.ID,
		AssessmentID:       approval.AssessmentID,
		CouncilID:          approval.CouncilID,
		MembershipID:       approval.MembershipID,
		PartnerID:          approval.PartnerID,
		Step:               approval.Step,
		Status:             approval.Status,
		DecisionNotes:      approval.DecisionNotes,
		ReasonCodes:        reasonCodes,
		EvidenceSnapshotID: approval.EvidenceSnapshotID,
		CreatedAt:          approval.CreatedAt,
	}
}

// DecisionResponse couples the stored vote with its ledger entry.
type DecisionResponse struct {
	Approval    ApprovalResponse    `json:"approval"`
	LedgerEntry LedgerEntryResponse `json:"ledgerEntry"`
}

// VerificationResponse reports the outcome of a full chain walk.
type VerificationResponse struct {
	Verified     bool   `json:"verified"`
	EntryCount   int    `json:"entryCount"`
	FailureIndex int    `json:"failureIndex"`
	ExpectedHash string `json:"expectedHash,omitempty"`
	ActualHash   string `json:"actualHash,omitempty"`
}

func newVerificationResponse(
	result *ledger.VerificationResult,
) VerificationResponse {
	return VerificationResponse{
		Verified:     result.Verified,
		EntryCount:   result.EntryCount,
		FailureIndex: result.FailureIndex,
		ExpectedHash: result.ExpectedHash,
		ActualHash:   result.ActualHash,
	}
}

// VerdictResponse is the consensus verdict for an assessment.
type VerdictResponse struct {
	Approved          bool   `json:"approved"`
	Rejected          bool   `json:"rejected"`
	Pending           bool   `json:"pending"`
	QuorumMet         bool   `json:"quorumMet"`
	TotalApprovals    int    `json:"totalApprovals"`
	TotalRejections   int    `json:"totalRejections"`
	TotalPending      int    `json:"totalPending"`
	RequiredQuorum    uint   `json:"requiredQuorum"`
	RequiresUnanimous bool   `json:"requiresUnanimous"`
	Status            string `json:"status"`
}

func newVerdictResponse(verdict *consensus.Verdict) VerdictResponse {
	status := "PENDING"
	switch {
	case verdict.Approved:
		status = "APPROVED"
	case verdict.Rejected:
		status = "REJECTED"
	}
	return VerdictResponse{
		Approved:          verdict.Approved,
		Rejected:          verdict.Rejected,
		Pending:           verdict.Pending,
		QuorumMet:         verdict.QuorumMet,
		TotalApprovals:    verdict.TotalApprovals,
		TotalRejections:   verdict.TotalRejections,
		TotalPending:      verdict.TotalPending,
		RequiredQuorum:    verdict.RequiredQuorum,
		RequiresUnanimous: verdict.RequiresUnanimous,
		Status:            status,
	}
}
