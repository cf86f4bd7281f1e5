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

// Package ledger owns the per-assessment hash-chained evidence trail.
// Appends serialize per assessment: an in-process mutex stripe plus the
// tip-row read inside the append transaction guarantee each new entry links
// to the real tail even under concurrent writers.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sengol-ai/conclave/canonical"
	"github.com/sengol-ai/conclave/database"
	"github.com/sengol-ai/conclave/database/models"
	"github.com/sengol-ai/conclave/event"
)

const appendMutexStripes = 64

// validEntryTypes is the closed set of chain entry types
var validEntryTypes = map[string]bool{
	models.LedgerEntryTypeSubmission:        true,
	models.LedgerEntryTypeApproval:          true,
	models.LedgerEntryTypeRejection:         true,
	models.LedgerEntryTypeCouncilAssigned:   true,
	models.LedgerEntryTypeCouncilUnassigned: true,
}

// EntryDraft is the caller-supplied content for a new ledger entry. Hash,
// PrevHash, EntryID, and CreatedAt are computed by Append.
type EntryDraft struct {
	AssessmentID string
	CouncilID    string
	MembershipID string
	ApprovalID   string
	ActorID      string
	ActorRole    string
	EntryType    string
	Payload      json.RawMessage
}

// EntryFilter selects a page of chain entries
type EntryFilter struct {
	EntryType string
	Count     int
	Page      int
}

// VerificationResult reports the outcome of a full chain walk. A broken
// chain sets Verified false with the first violation's position; it is a
// structured result, not an error.
type VerificationResult struct {
	Verified     bool
	EntryCount   int
	FailureIndex int
	ExpectedHash string
	ActualHash   string
}

type ledgerMetrics struct {
	appends        *prometheus.CounterVec
	verifications  *prometheus.CounterVec
	appendDuration prometheus.Histogram
}

// Manager coordinates appends, reads, and verification for every
// assessment chain
type Manager struct {
	db          *database.Database
	eventBus    *event.EventBus
	logger      *slog.Logger
	metrics     *ledgerMetrics
	appendLocks [appendMutexStripes]sync.Mutex
}

// NewManager creates a ledger manager
func NewManager(
	db *database.Database,
	eventBus *event.EventBus,
	logger *slog.Logger,
) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Manager{
		db:       db,
		eventBus: eventBus,
		logger:   logger.With("component", "ledger"),
	}
}

// RegisterMetrics installs prometheus metrics on the given registry
func (m *Manager) RegisterMetrics(registry prometheus.Registerer) {
	if registry == nil {
		return
	}
	m.metrics = &ledgerMetrics{
		appends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_appends_total",
				Help: "Total ledger entries appended, by entry type",
			},
			[]string{"entry_type"},
		),
		verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_verifications_total",
				Help: "Total chain verifications, by outcome",
			},
			[]string{"outcome"},
		),
		appendDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ledger_append_duration_seconds",
				Help:    "Ledger append latency",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	registry.MustRegister(
		m.metrics.appends,
		m.metrics.verifications,
		m.metrics.appendDuration,
	)
}

// appendLock returns the mutex stripe for an assessment id. Different
// assessments normally map to different stripes and never contend.
func (m *Manager) appendLock(assessmentId string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(assessmentId))
	return &m.appendLocks[h.Sum32()%appendMutexStripes]
}

func validateDraft(draft EntryDraft) error {
	if draft.AssessmentID == "" {
		return NewValidationError("assessmentId", "must not be empty")
	}
	if draft.ActorID == "" {
		return NewValidationError("actorId", "must not be empty")
	}
	if !validEntryTypes[draft.EntryType] {
		return NewValidationError(
			"entryType",
			fmt.Sprintf("unknown entry type %q", draft.EntryType),
		)
	}
	if len(draft.Payload) > 0 && !json.Valid(draft.Payload) {
		return NewValidationError("payload", "must be valid JSON")
	}
	return nil
}

// WithAssessmentLock runs fn while holding the assessment's append lock.
// Callers that append inside their own transaction wrap the full
// transaction in fn, commit included, so the in-process serialization
// covers the window between the tail read and the commit.
func (m *Manager) WithAssessmentLock(
	assessmentId string,
	fn func() error,
) error {
	lock := m.appendLock(assessmentId)
	lock.Lock()
	defer lock.Unlock()
	return fn()
}

// Append validates the draft and adds it to the assessment's chain. When
// txn is nil a fresh read-write transaction is opened here and the
// assessment's append lock is held across its commit; the append event
// fires after commit. With a caller-owned transaction the caller wraps the
// whole transaction in WithAssessmentLock and publishes after its own
// commit via PublishAppended.
func (m *Manager) Append(
	ctx context.Context,
	draft EntryDraft,
	txn *database.Txn,
) (*models.LedgerEntry, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}
	if txn != nil {
		return m.appendInTxn(ctx, draft, txn)
	}
	start := time.Now()
	var entry *models.LedgerEntry
	err := m.WithAssessmentLock(draft.AssessmentID, func() error {
		txn := m.db.Transaction(true)
		defer txn.Release()
		var err error
		entry, err = m.appendInTxn(ctx, draft, txn)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("ledger append commit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.PublishAppended(entry)
	if m.metrics != nil {
		m.metrics.appendDuration.Observe(time.Since(start).Seconds())
	}
	return entry, nil
}

func (m *Manager) appendInTxn(
	ctx context.Context,
	draft EntryDraft,
	txn *database.Txn,
) (*models.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Claim the tip row before reading the tail. The claim inserts the row
	// on a fresh chain and blocks behind any concurrent claimer, so
	// same-assessment appends serialize across processes even when no entry
	// exists yet; a plain locked read would find nothing to lock there.
	if err := m.db.LockLedgerTip(draft.AssessmentID, txn); err != nil {
		return nil, fmt.Errorf("ledger tip claim: %w", err)
	}
	tip, err := m.db.GetLedgerTip(draft.AssessmentID, txn)
	if err != nil {
		return nil, fmt.Errorf("ledger tip read: %w", err)
	}
	tail, err := m.db.GetLedgerTail(draft.AssessmentID, txn)
	if err != nil {
		return nil, fmt.Errorf("ledger tail read: %w", err)
	}
	var prevHash *string
	if tail != nil {
		hash := tail.Hash
		prevHash = &hash
	}
	createdAt := time.Now().UTC()
	hash, err := canonical.HashEntry(canonical.EntryContent{
		AssessmentID: draft.AssessmentID,
		EntryType:    draft.EntryType,
		Payload:      draft.Payload,
		PrevHash:     prevHash,
		Timestamp:    createdAt,
	})
	if err != nil {
		return nil, err
	}
	entry := &models.LedgerEntry{
		EntryID:      uuid.NewString(),
		AssessmentID: draft.AssessmentID,
		CouncilID:    draft.CouncilID,
		MembershipID: draft.MembershipID,
		ApprovalID:   draft.ApprovalID,
		ActorID:      draft.ActorID,
		ActorRole:    draft.ActorRole,
		EntryType:    draft.EntryType,
		Payload:      draft.Payload,
		Hash:         hash,
		PrevHash:     prevHash,
		CreatedAt:    createdAt,
	}
	if err := m.db.AddLedgerEntry(entry, txn); err != nil {
		return nil, fmt.Errorf("ledger entry insert: %w", err)
	}
	var entryCount uint64 = 1
	if tip != nil {
		entryCount = tip.EntryCount + 1
	}
	if err := m.db.SetLedgerTip(&models.LedgerTip{
		AssessmentID: draft.AssessmentID,
		EntryID:      entry.ID,
		Hash:         entry.Hash,
		EntryCount:   entryCount,
		UpdatedAt:    createdAt,
	}, txn); err != nil {
		return nil, fmt.Errorf("ledger tip update: %w", err)
	}
	// Archive the canonical encoding alongside the entry so the exact hash
	// preimage survives any future model changes
	encoded, err := canonical.EncodeEntry(canonical.EntryContent{
		AssessmentID: entry.AssessmentID,
		EntryType:    entry.EntryType,
		Payload:      entry.Payload,
		PrevHash:     entry.PrevHash,
		Timestamp:    entry.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	if err := m.db.SetCanonicalArchive(
		entry.AssessmentID,
		entry.EntryID,
		encoded,
		txn,
	); err != nil {
		return nil, fmt.Errorf("canonical archive write: %w", err)
	}
	return entry, nil
}

// PublishAppended records an entry whose transaction has committed: the
// append counter and debug log fire here rather than inside Append, so
// rolled-back entries are never counted, then the append event goes out.
func (m *Manager) PublishAppended(entry *models.LedgerEntry) {
	if m.metrics != nil {
		m.metrics.appends.WithLabelValues(entry.EntryType).Inc()
	}
	m.logger.Debug(
		"appended ledger entry",
		"assessment_id", entry.AssessmentID,
		"entry_id", entry.EntryID,
		"entry_type", entry.EntryType,
	)
	if m.eventBus == nil {
		return
	}
	m.eventBus.Publish(
		event.LedgerEntryEventType,
		event.NewEvent(
			event.LedgerEntryEventType,
			event.LedgerEntryEvent{
				AssessmentId: entry.AssessmentID,
				EntryId:      entry.EntryID,
				EntryType:    entry.EntryType,
				Hash:         entry.Hash,
				Seq:          entry.ID,
			},
		),
	)
}

// Entries returns a creation-ascending page of an assessment's chain
func (m *Manager) Entries(
	ctx context.Context,
	assessmentId string,
	filter EntryFilter,
) ([]models.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if assessmentId == "" {
		return nil, NewValidationError("assessmentId", "must not be empty")
	}
	offset := 0
	if filter.Page > 1 && filter.Count > 0 {
		offset = (filter.Page - 1) * filter.Count
	}
	return m.db.GetLedgerEntries(
		assessmentId,
		filter.EntryType,
		offset,
		filter.Count,
		nil,
	)
}

// EntryCount returns the number of entries in an assessment's chain
func (m *Manager) EntryCount(
	ctx context.Context,
	assessmentId string,
) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return m.db.GetLedgerEntryCount(assessmentId, nil)
}

// Verify walks the full chain, recomputing every entry's hash from its
// stored logical content and checking prev-hash linkage. Corruption is
// reported in the result; the error return is reserved for storage
// failures.
func (m *Manager) Verify(
	ctx context.Context,
	assessmentId string,
) (*VerificationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if assessmentId == "" {
		return nil, NewValidationError("assessmentId", "must not be empty")
	}
	entries, err := m.db.GetLedgerEntries(assessmentId, "", 0, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger read: %w", err)
	}
	result := &VerificationResult{
		Verified:     true,
		EntryCount:   len(entries),
		FailureIndex: -1,
	}
	var prevHash *string
	for i, entry := range entries {
		// Linkage: first entry has null prev hash, later entries carry the
		// previous entry's hash
		if !equalHashPtr(entry.PrevHash, prevHash) {
			result.Verified = false
			result.FailureIndex = i
			result.ExpectedHash = derefHash(prevHash)
			result.ActualHash = derefHash(entry.PrevHash)
			break
		}
		computed, err := canonical.HashEntry(canonical.EntryContent{
			AssessmentID: entry.AssessmentID,
			EntryType:    entry.EntryType,
			Payload:      entry.Payload,
			PrevHash:     entry.PrevHash,
			Timestamp:    entry.CreatedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("hash recompute: %w", err)
		}
		if computed != entry.Hash {
			result.Verified = false
			result.FailureIndex = i
			result.ExpectedHash = computed
			result.ActualHash = entry.Hash
			break
		}
		hash := entry.Hash
		prevHash = &hash
	}
	if m.metrics != nil {
		outcome := "verified"
		if !result.Verified {
			outcome = "failed"
		}
		m.metrics.verifications.WithLabelValues(outcome).Inc()
	}
	if !result.Verified {
		m.logger.Warn(
			"ledger chain verification failed",
			"assessment_id", assessmentId,
			"failure_index", result.FailureIndex,
		)
	}
	return result, nil
}

func equalHashPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func derefHash(h *string) string {
	if h == nil {
		return ""
	}
	return *h
}
