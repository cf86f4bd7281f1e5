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

// Package council owns council and membership lifecycle plus the decision
// flow that writes a vote and its ledger entry in one transaction.
package council

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sengol-ai/conclave/consensus"
	"github.com/sengol-ai/conclave/database"
	"github.com/sengol-ai/conclave/database/models"
	"github.com/sengol-ai/conclave/event"
	"github.com/sengol-ai/conclave/ledger"
)

// statusEntryTypes maps vote status to the ledger entry type recorded for
// the decision
var statusEntryTypes = map[string]string{
	models.ApprovalStatusApproved: models.LedgerEntryTypeApproval,
	models.ApprovalStatusRejected: models.LedgerEntryTypeRejection,
	models.ApprovalStatusPending:  models.LedgerEntryTypeSubmission,
}

// CouncilInput is the input for creating a council
type CouncilInput struct {
	Name             string
	Quorum           uint
	RequireUnanimous bool
	ApprovalPolicy   json.RawMessage
}

// CouncilUpdate mutates an active council. Nil fields are left unchanged.
type CouncilUpdate struct {
	Name             *string
	Quorum           *uint
	RequireUnanimous *bool
	ApprovalPolicy   json.RawMessage
}

// DecisionInput is the input for submitting one member's decision on an
// assessment
type DecisionInput struct {
	AssessmentID       string
	CouncilID          string
	MembershipID       string
	PartnerID          string
	Step               string
	Status             string
	DecisionNotes      string
	ReasonCodes        []string
	EvidenceSnapshotID string
	EvidenceSnapshot   json.RawMessage
	ActorID            string
	ActorRole          string
}

// DecisionResult couples the stored vote with its ledger entry
type DecisionResult struct {
	Approval    *models.Approval
	LedgerEntry *models.LedgerEntry
}

// decisionPayload is the ledger entry payload recorded for a vote
type decisionPayload struct {
	Step               string   `json:"step"`
	Status             string   `json:"status"`
	DecisionNotes      string   `json:"decisionNotes,omitempty"`
	ReasonCodes        []string `json:"reasonCodes,omitempty"`
	EvidenceSnapshotID string   `json:"evidenceSnapshotId,omitempty"`
	PartnerID          string   `json:"partnerId,omitempty"`
}

// assignmentPayload is the ledger entry payload recorded for council
// assignment changes
type assignmentPayload struct {
	CouncilID string `json:"councilId,omitempty"`
}

type councilMetrics struct {
	decisions *prometheus.CounterVec
}

// Manager coordinates council lifecycle and decision submission
type Manager struct {
	db       *database.Database
	ledger   *ledger.Manager
	eventBus *event.EventBus
	logger   *slog.Logger
	metrics  *councilMetrics
}

// NewManager creates a council manager
func NewManager(
	db *database.Database,
	ledgerManager *ledger.Manager,
	eventBus *event.EventBus,
	logger *slog.Logger,
) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Manager{
		db:       db,
		ledger:   ledgerManager,
		eventBus: eventBus,
		logger:   logger.With("component", "council"),
	}
}

// RegisterMetrics installs prometheus metrics on the given registry
func (m *Manager) RegisterMetrics(registry prometheus.Registerer) {
	if registry == nil {
		return
	}
	m.metrics = &councilMetrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "council_decisions_total",
				Help: "Total decisions submitted, by vote status",
			},
			[]string{"status"},
		),
	}
	registry.MustRegister(m.metrics.decisions)
}

func (m *Manager) publish(eventType event.EventType, data any) {
	if m.eventBus == nil {
		return
	}
	m.eventBus.Publish(eventType, event.NewEvent(eventType, data))
}

// CreateCouncil validates and inserts a new active council
func (m *Manager) CreateCouncil(
	ctx context.Context,
	input CouncilInput,
) (*models.Council, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, NewValidationError("name", "must not be empty")
	}
	if input.Quorum < 1 {
		return nil, NewValidationError("quorum", "must be at least 1")
	}
	if len(input.ApprovalPolicy) > 0 && !json.Valid(input.ApprovalPolicy) {
		return nil, NewValidationError("approvalPolicy", "must be valid JSON")
	}
	now := time.Now().UTC()
	council := &models.Council{
		ID:               uuid.NewString(),
		Name:             input.Name,
		Status:           models.CouncilStatusActive,
		Quorum:           input.Quorum,
		RequireUnanimous: input.RequireUnanimous,
		ApprovalPolicy:   input.ApprovalPolicy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := m.db.SetCouncil(council, nil); err != nil {
		return nil, fmt.Errorf("council insert: %w", err)
	}
	m.publish(event.CouncilCreatedEventType, event.CouncilEvent{
		CouncilId: council.ID,
		Name:      council.Name,
	})
	m.logger.Info(
		"created council",
		"council_id", council.ID,
		"name", council.Name,
	)
	return council, nil
}

// GetCouncil fetches a council by id
func (m *Manager) GetCouncil(
	ctx context.Context,
	councilId string,
) (*models.Council, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	council, err := m.db.GetCouncil(councilId, nil)
	if err != nil {
		return nil, fmt.Errorf("council read: %w", err)
	}
	if council == nil {
		return nil, models.ErrCouncilNotFound
	}
	return council, nil
}

// Councils lists councils, optionally including archived ones
func (m *Manager) Councils(
	ctx context.Context,
	includeArchived bool,
) ([]models.Council, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.db.GetCouncils(includeArchived, nil)
}

// UpdateCouncil mutates an active council. Archived councils reject
// updates.
func (m *Manager) UpdateCouncil(
	ctx context.Context,
	councilId string,
	update CouncilUpdate,
) (*models.Council, error) {
	council, err := m.GetCouncil(ctx, councilId)
	if err != nil {
		return nil, err
	}
	if council.Status != models.CouncilStatusActive {
		return nil, ErrCouncilArchived
	}
	if update.Name != nil {
		if *update.Name == "" {
			return nil, NewValidationError("name", "must not be empty")
		}
		council.Name = *update.Name
	}
	if update.Quorum != nil {
		if *update.Quorum < 1 {
			return nil, NewValidationError("quorum", "must be at least 1")
		}
		council.Quorum = *update.Quorum
	}
	if update.RequireUnanimous != nil {
		council.RequireUnanimous = *update.RequireUnanimous
	}
	if update.ApprovalPolicy != nil {
		if !json.Valid(update.ApprovalPolicy) {
			return nil, NewValidationError(
				"approvalPolicy",
				"must be valid JSON",
			)
		}
		council.ApprovalPolicy = update.ApprovalPolicy
	}
	council.UpdatedAt = time.Now().UTC()
	if err := m.db.SetCouncil(council, nil); err != nil {
		return nil, fmt.Errorf("council update: %w", err)
	}
	return council, nil
}

// ArchiveCouncil transitions a council to its terminal archived state
func (m *Manager) ArchiveCouncil(
	ctx context.Context,
	councilId string,
) (*models.Council, error) {
	council, err := m.GetCouncil(ctx, councilId)
	if err != nil {
		return nil, err
	}
	if council.Status == models.CouncilStatusArchived {
		return nil, ErrCouncilArchived
	}
	now := time.Now().UTC()
	council.Status = models.CouncilStatusArchived
	council.ArchivedAt = &now
	council.UpdatedAt = now
	if err := m.db.SetCouncil(council, nil); err != nil {
		return nil, fmt.Errorf("council archive: %w", err)
	}
	m.publish(event.CouncilArchivedEventType, event.CouncilEvent{
		CouncilId: council.ID,
		Name:      council.Name,
	})
	m.logger.Info("archived council", "council_id", council.ID)
	return council, nil
}

// AddMember adds a user to a council, or reactivates their revoked
// membership. Exactly one membership row ever exists per (council, user).
func (m *Manager) AddMember(
	ctx context.Context,
	councilId string,
	userId string,
	role string,
) (*models.Membership, error) {
	if userId == "" {
		return nil, NewValidationError("userId", "must not be empty")
	}
	council, err := m.GetCouncil(ctx, councilId)
	if err != nil {
		return nil, err
	}
	if council.Status != models.CouncilStatusActive {
		return nil, ErrCouncilArchived
	}
	now := time.Now().UTC()
	membership, err := m.db.GetMembership(councilId, userId, nil)
	if err != nil {
		return nil, fmt.Errorf("membership read: %w", err)
	}
	if membership == nil {
		membership = &models.Membership{
			ID:        uuid.NewString(),
			CouncilID: councilId,
			UserID:    userId,
			CreatedAt: now,
		}
	}
	// Reactivation flips the existing row back instead of inserting a
	// duplicate
	membership.Role = role
	membership.Status = models.MembershipStatusActive
	membership.RevokedAt = nil
	membership.UpdatedAt = now
	if err := m.db.SetMembership(membership, nil); err != nil {
		return nil, fmt.Errorf("membership write: %w", err)
	}
	m.publish(event.MembershipAddedEventType, event.MembershipEvent{
		CouncilId:    councilId,
		MembershipId: membership.ID,
		UserId:       userId,
		Role:         role,
	})
	return membership, nil
}

// RevokeMember revokes a user's active council membership
func (m *Manager) RevokeMember(
	ctx context.Context,
	councilId string,
	userId string,
) (*models.Membership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	membership, err := m.db.GetMembership(councilId, userId, nil)
	if err != nil {
		return nil, fmt.Errorf("membership read: %w", err)
	}
	if membership == nil {
		return nil, models.ErrMembershipNotFound
	}
	if membership.Status == models.MembershipStatusRevoked {
		return nil, ErrMembershipRevoked
	}
	now := time.Now().UTC()
	membership.Status = models.MembershipStatusRevoked
	membership.RevokedAt = &now
	membership.UpdatedAt = now
	if err := m.db.SetMembership(membership, nil); err != nil {
		return nil, fmt.Errorf("membership write: %w", err)
	}
	m.publish(event.MembershipRevokedEventType, event.MembershipEvent{
		CouncilId:    councilId,
		MembershipId: membership.ID,
		UserId:       userId,
		Role:         membership.Role,
	})
	return membership, nil
}

// Members lists a council's memberships with optional status filter
func (m *Manager) Members(
	ctx context.Context,
	councilId string,
	statusFilter string,
) ([]models.Membership, error) {
	if _, err := m.GetCouncil(ctx, councilId); err != nil {
		return nil, err
	}
	return m.db.GetMemberships(councilId, statusFilter, nil)
}

// AssignAssessment binds an assessment to a council, overwriting any
// previous assignment, and records the change on the assessment's chain in
// the same transaction
func (m *Manager) AssignAssessment(
	ctx context.Context,
	assessmentId string,
	councilId string,
	actorId string,
) (*models.LedgerEntry, error) {
	if assessmentId == "" {
		return nil, NewValidationError("assessmentId", "must not be empty")
	}
	council, err := m.GetCouncil(ctx, councilId)
	if err != nil {
		return nil, err
	}
	if council.Status != models.CouncilStatusActive {
		return nil, ErrCouncilArchived
	}
	if actorId == "" {
		actorId = "system"
	}
	payload, err := json.Marshal(assignmentPayload{CouncilID: councilId})
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	var entry *models.LedgerEntry
	// The assessment lock spans the whole transaction, commit included, so
	// a concurrent first append cannot read the same empty chain
	err = m.ledger.WithAssessmentLock(assessmentId, func() error {
		txn := m.db.Transaction(true)
		return txn.Do(func(txn *database.Txn) error {
			assessment, err := m.db.GetAssessment(assessmentId, txn)
			if err != nil {
				return fmt.Errorf("assessment read: %w", err)
			}
			if assessment == nil {
				assessment = &models.Assessment{
					ID:        assessmentId,
					CreatedAt: now,
				}
			}
			assessment.CouncilID = &councilId
			assessment.UpdatedAt = now
			if err := m.db.SetAssessment(assessment, txn); err != nil {
				return fmt.Errorf("assessment write: %w", err)
			}
			entry, err = m.ledger.Append(ctx, ledger.EntryDraft{
				AssessmentID: assessmentId,
				CouncilID:    councilId,
				ActorID:      actorId,
				EntryType:    models.LedgerEntryTypeCouncilAssigned,
				Payload:      payload,
			}, txn)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	m.ledger.PublishAppended(entry)
	m.publish(event.AssessmentAssignedEventType, event.AssessmentEvent{
		AssessmentId: assessmentId,
		CouncilId:    councilId,
	})
	return entry, nil
}

// UnassignAssessment clears an assessment's council pointer and records the
// change on the assessment's chain in the same transaction. Historical
// entries keep the council id recorded when they were appended.
func (m *Manager) UnassignAssessment(
	ctx context.Context,
	assessmentId string,
	actorId string,
) (*models.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if actorId == "" {
		actorId = "system"
	}
	assessment, err := m.db.GetAssessment(assessmentId, nil)
	if err != nil {
		return nil, fmt.Errorf("assessment read: %w", err)
	}
	if assessment == nil || assessment.CouncilID == nil {
		return nil, ErrAssessmentUnassigned
	}
	previousCouncilId := *assessment.CouncilID
	payload, err := json.Marshal(assignmentPayload{
		CouncilID: previousCouncilId,
	})
	if err != nil {
		return nil, err
	}
	var entry *models.LedgerEntry
	err = m.ledger.WithAssessmentLock(assessmentId, func() error {
		txn := m.db.Transaction(true)
		return txn.Do(func(txn *database.Txn) error {
			assessment.CouncilID = nil
			assessment.UpdatedAt = time.Now().UTC()
			if err := m.db.SetAssessment(assessment, txn); err != nil {
				return fmt.Errorf("assessment write: %w", err)
			}
			entry, err = m.ledger.Append(ctx, ledger.EntryDraft{
				AssessmentID: assessmentId,
				CouncilID:    previousCouncilId,
				ActorID:      actorId,
				EntryType:    models.LedgerEntryTypeCouncilUnassigned,
				Payload:      payload,
			}, txn)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	m.ledger.PublishAppended(entry)
	m.publish(event.AssessmentUnassignedEventType, event.AssessmentEvent{
		AssessmentId: assessmentId,
		CouncilId:    previousCouncilId,
	})
	return entry, nil
}

// SubmitDecision validates a member's vote and then writes the approval
// row, the decision ledger entry, and the optional evidence snapshot in one
// transaction. Both records commit or neither does.
func (m *Manager) SubmitDecision(
	ctx context.Context,
	input DecisionInput,
) (*DecisionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Validation first; no writes on failure
	entryType, ok := statusEntryTypes[input.Status]
	if !ok {
		return nil, NewValidationError(
			"status",
			fmt.Sprintf("unknown vote status %q", input.Status),
		)
	}
	if input.AssessmentID == "" {
		return nil, NewValidationError("assessmentId", "must not be empty")
	}
	if input.MembershipID == "" {
		return nil, NewValidationError("membershipId", "must not be empty")
	}
	if input.Step == "" {
		return nil, NewValidationError("step", "must not be empty")
	}
	if input.ActorID == "" {
		return nil, NewValidationError("actorId", "must not be empty")
	}
	if len(input.EvidenceSnapshot) > 0 && input.EvidenceSnapshotID == "" {
		return nil, NewValidationError(
			"evidenceSnapshotId",
			"required when an evidence snapshot document is supplied",
		)
	}
	assessment, err := m.db.GetAssessment(input.AssessmentID, nil)
	if err != nil {
		return nil, fmt.Errorf("assessment read: %w", err)
	}
	if assessment == nil || assessment.CouncilID == nil {
		return nil, ErrAssessmentUnassigned
	}
	councilId := *assessment.CouncilID
	if input.CouncilID != "" && input.CouncilID != councilId {
		return nil, NewValidationError(
			"councilId",
			"does not match the assessment's council",
		)
	}
	membership, err := m.db.GetMembershipById(input.MembershipID, nil)
	if err != nil {
		return nil, fmt.Errorf("membership read: %w", err)
	}
	if membership == nil {
		return nil, models.ErrMembershipNotFound
	}
	if membership.CouncilID != councilId {
		return nil, ErrMembershipWrongCouncil
	}
	if membership.Status != models.MembershipStatusActive {
		return nil, ErrMembershipRevoked
	}

	reasonCodes, err := json.Marshal(input.ReasonCodes)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(decisionPayload{
		Step:               input.Step,
		Status:             input.Status,
		DecisionNotes:      input.DecisionNotes,
		ReasonCodes:        input.ReasonCodes,
		EvidenceSnapshotID: input.EvidenceSnapshotID,
		PartnerID:          input.PartnerID,
	})
	if err != nil {
		return nil, err
	}
	approval := &models.Approval{
		ID:                 uuid.NewString(),
		AssessmentID:       input.AssessmentID,
		CouncilID:          councilId,
		MembershipID:       membership.ID,
		PartnerID:          input.PartnerID,
		Step:               input.Step,
		Status:             input.Status,
		DecisionNotes:      input.DecisionNotes,
		ReasonCodes:        string(reasonCodes),
		EvidenceSnapshotID: input.EvidenceSnapshotID,
		CreatedAt:          time.Now().UTC(),
	}
	var entry *models.LedgerEntry
	// The assessment lock spans the whole transaction, commit included, so
	// concurrent decisions on one assessment serialize in-process
	err = m.ledger.WithAssessmentLock(input.AssessmentID, func() error {
		txn := m.db.Transaction(true)
		return txn.Do(func(txn *database.Txn) error {
			if err := m.db.AddApproval(approval, txn); err != nil {
				return fmt.Errorf("approval insert: %w", err)
			}
			if len(input.EvidenceSnapshot) > 0 {
				if err := m.db.SetEvidenceSnapshot(
					input.EvidenceSnapshotID,
					input.EvidenceSnapshot,
					txn,
				); err != nil {
					return fmt.Errorf("evidence snapshot write: %w", err)
				}
			}
			entry, err = m.ledger.Append(ctx, ledger.EntryDraft{
				AssessmentID: input.AssessmentID,
				CouncilID:    councilId,
				MembershipID: membership.ID,
				ApprovalID:   approval.ID,
				ActorID:      input.ActorID,
				ActorRole:    input.ActorRole,
				EntryType:    entryType,
				Payload:      payload,
			}, txn)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	if m.metrics != nil {
		m.metrics.decisions.WithLabelValues(input.Status).Inc()
	}
	m.ledger.PublishAppended(entry)
	m.publish(event.DecisionEventType, event.DecisionEvent{
		AssessmentId: input.AssessmentID,
		CouncilId:    councilId,
		ApprovalId:   approval.ID,
		MembershipId: membership.ID,
		Status:       input.Status,
		Step:         input.Step,
	})
	m.logger.Info(
		"decision submitted",
		"assessment_id", input.AssessmentID,
		"approval_id", approval.ID,
		"status", input.Status,
	)
	return &DecisionResult{Approval: approval, LedgerEntry: entry}, nil
}

// ApprovalStatus computes the live consensus verdict for an assessment.
// Votes from currently revoked memberships are excluded from the count;
// their ledger entries stay in place and remain verifiable.
func (m *Manager) ApprovalStatus(
	ctx context.Context,
	assessmentId string,
) (*consensus.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	assessment, err := m.db.GetAssessment(assessmentId, nil)
	if err != nil {
		return nil, fmt.Errorf("assessment read: %w", err)
	}
	if assessment == nil || assessment.CouncilID == nil {
		return nil, ErrAssessmentUnassigned
	}
	council, err := m.db.GetCouncil(*assessment.CouncilID, nil)
	if err != nil {
		return nil, fmt.Errorf("council read: %w", err)
	}
	if council == nil {
		return nil, models.ErrCouncilNotFound
	}
	activeMemberships, err := m.db.GetMemberships(
		council.ID,
		models.MembershipStatusActive,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("membership read: %w", err)
	}
	activeIds := make(map[string]bool, len(activeMemberships))
	for _, membership := range activeMemberships {
		activeIds[membership.ID] = true
	}
	approvals, err := m.db.GetApprovalsByAssessment(assessmentId, nil)
	if err != nil {
		return nil, fmt.Errorf("approval read: %w", err)
	}
	var votes []consensus.Vote
	for _, approval := range approvals {
		if !activeIds[approval.MembershipID] {
			continue
		}
		votes = append(votes, consensus.Vote{
			MembershipID: approval.MembershipID,
			Status:       approval.Status,
		})
	}
	verdict := consensus.Evaluate(
		consensus.Policy{
			Quorum:           council.Quorum,
			RequireUnanimous: council.RequireUnanimous,
		},
		votes,
	)
	return &verdict, nil
}
