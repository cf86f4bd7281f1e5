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

package metadata

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sengol-ai/conclave/database/models"
	"github.com/sengol-ai/conclave/database/plugin"
	"github.com/sengol-ai/conclave/database/plugin/metadata/sqlite"
	"github.com/sengol-ai/conclave/database/types"

	// Registry-resolved plugins register themselves on import
	_ "github.com/sengol-ai/conclave/database/plugin/metadata/postgres"
	"gorm.io/gorm"
)

// MetadataStore is the relational store for governance state: councils,
// memberships, approvals, assessments, and the hash-chained ledger rows.
// Methods that take a types.Txn tolerate nil on reads and resolve to the
// base handle; writes inside a database.Txn pass the metadata side through.
type MetadataStore interface {
	// Database
	Start() error
	Stop() error
	Close() error
	DB() *gorm.DB
	AutoMigrate(dst ...any) error
	Transaction() types.Txn
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error

	// Councils
	GetCouncil(
		string, // councilId
		types.Txn,
	) (*models.Council, error)
	GetCouncils(
		bool, // includeArchived
		types.Txn,
	) ([]models.Council, error)
	SetCouncil(*models.Council, types.Txn) error

	// Memberships
	GetMembership(
		string, // councilId
		string, // userId
		types.Txn,
	) (*models.Membership, error)
	GetMembershipById(
		string, // membershipId
		types.Txn,
	) (*models.Membership, error)
	GetMemberships(
		string, // councilId
		string, // status filter, empty for all
		types.Txn,
	) ([]models.Membership, error)
	SetMembership(*models.Membership, types.Txn) error

	// Approvals
	AddApproval(*models.Approval, types.Txn) error
	GetApprovalsByAssessment(
		string, // assessmentId
		types.Txn,
	) ([]models.Approval, error)

	// Ledger entries
	AddLedgerEntry(*models.LedgerEntry, types.Txn) error
	GetLedgerEntries(
		string, // assessmentId
		string, // entryType filter, empty for all
		int, // offset
		int, // limit, <=0 for all
		types.Txn,
	) ([]models.LedgerEntry, error)
	GetLedgerEntriesAfter(
		string, // assessmentId
		uint64, // seq (exclusive lower bound on entry id)
		int, // limit, <=0 for all
		types.Txn,
	) ([]models.LedgerEntry, error)
	GetLedgerEntryCount(
		string, // assessmentId
		types.Txn,
	) (int64, error)
	GetLedgerTail(
		string, // assessmentId
		types.Txn,
	) (*models.LedgerEntry, error)

	// Ledger tips. LockLedgerTip claims the tip row inside a read-write
	// transaction, inserting it for a fresh chain, so concurrent appends
	// to one assessment serialize at the store even before the first
	// entry exists. GetLedgerTip takes a row lock when called inside a
	// read-write transaction on stores that support it.
	LockLedgerTip(
		string, // assessmentId
		types.Txn,
	) error
	GetLedgerTip(
		string, // assessmentId
		types.Txn,
	) (*models.LedgerTip, error)
	SetLedgerTip(*models.LedgerTip, types.Txn) error

	// Assessments
	GetAssessment(
		string, // assessmentId
		types.Txn,
	) (*models.Assessment, error)
	SetAssessment(*models.Assessment, types.Txn) error
}

// New returns the started metadata plugin selected by name. The sqlite
// plugin is constructed directly so the caller's data dir, logger, and
// metrics registry carry through; other plugins resolve via the registry
// and are configured through plugin options.
func New(
	pluginName, dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (MetadataStore, error) {
	switch pluginName {
	case "", "sqlite":
		store, err := sqlite.NewWithOptions(
			sqlite.WithDataDir(dataDir),
			sqlite.WithLogger(logger),
			sqlite.WithPromRegistry(promRegistry),
		)
		if err != nil {
			return nil, err
		}
		if err := store.Start(); err != nil {
			return store, err
		}
		return store, nil
	default:
		p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, pluginName)
		if err != nil {
			return nil, err
		}
		metadataStore, ok := p.(MetadataStore)
		if !ok {
			return nil, fmt.Errorf(
				"plugin '%s' does not implement MetadataStore interface",
				pluginName,
			)
		}
		return metadataStore, nil
	}
}
