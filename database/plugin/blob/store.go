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

package blob

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sengol-ai/conclave/database/plugin"
	"github.com/sengol-ai/conclave/database/plugin/blob/badger"
	"github.com/sengol-ai/conclave/database/plugin/blob/gcs"
	"github.com/sengol-ai/conclave/database/types"
)

// BlobStore holds opaque governance objects: evidence snapshots captured at
// decision time and canonical ledger entry archives. All access goes through
// transactions so a snapshot write can share a transaction with the ledger
// append that references it.
type BlobStore interface {
	Start() error
	Stop() error
	Close() error
	NewTransaction(update bool) types.Txn
	Get(txn types.Txn, key []byte) ([]byte, error)
	Set(txn types.Txn, key, val []byte) error
	Delete(txn types.Txn, key []byte) error
	NewIterator(txn types.Txn, opts types.BlobIteratorOptions) types.BlobIterator

	// Commit timestamp used for metadata/blob consistency checks on startup
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(timestamp int64, txn types.Txn) error
}

// New returns the started blob plugin selected by name. The badger and gcs
// plugins are constructed directly so the caller's data dir, logger, and
// metrics registry carry through; other plugins resolve via the registry
// and are configured through plugin options.
func New(
	pluginName, dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (BlobStore, error) {
	switch {
	case pluginName == "gcs" || strings.HasPrefix(dataDir, "gcs://"):
		store, err := gcs.New(dataDir, logger, promRegistry)
		if err != nil {
			return nil, err
		}
		if err := store.Start(); err != nil {
			return store, err
		}
		return store, nil
	case pluginName == "" || pluginName == "badger":
		return badger.New(
			badger.WithDataDir(dataDir),
			badger.WithLogger(logger),
			badger.WithPromRegistry(promRegistry),
		)
	default:
		p, err := plugin.StartPlugin(plugin.PluginTypeBlob, pluginName)
		if err != nil {
			return nil, err
		}
		blobStore, ok := p.(BlobStore)
		if !ok {
			return nil, fmt.Errorf(
				"plugin '%s' does not implement BlobStore interface",
				pluginName,
			)
		}
		return blobStore, nil
	}
}
