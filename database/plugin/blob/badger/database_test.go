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

package badger

import (
	"testing"

	"github.com/sengol-ai/conclave/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *BlobStoreBadger {
	t.Helper()
	// Empty data dir selects the in-memory store
	store, err := New(WithGc(false))
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close() //nolint:errcheck
	})
	return store
}

func TestGetSetDelete(t *testing.T) {
	store := setupTestStore(t)

	txn := store.NewTransaction(true)
	require.NoError(
		t,
		store.Set(txn, []byte("evidence/test-1"), []byte(`{"a":1}`)),
	)
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	val, err := store.Get(txn, []byte("evidence/test-1"))
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), val)
	require.NoError(t, txn.Rollback())

	// Missing key maps to the sentinel error
	txn = store.NewTransaction(false)
	_, err = store.Get(txn, []byte("evidence/missing"))
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.NoError(t, txn.Rollback())

	txn = store.NewTransaction(true)
	require.NoError(t, store.Delete(txn, []byte("evidence/test-1")))
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	_, err = store.Get(txn, []byte("evidence/test-1"))
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.NoError(t, txn.Rollback())
}

func TestRollbackDiscardsWrites(t *testing.T) {
	store := setupTestStore(t)

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("evidence/tmp"), []byte("x")))
	require.NoError(t, txn.Rollback())

	txn = store.NewTransaction(false)
	_, err := store.Get(txn, []byte("evidence/tmp"))
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.NoError(t, txn.Rollback())
}

func TestIteratorPrefix(t *testing.T) {
	store := setupTestStore(t)

	txn := store.NewTransaction(true)
	for _, key := range []string{
		"canonical/assess-1/entry-a",
		"canonical/assess-1/entry-b",
		"canonical/assess-2/entry-c",
	} {
		require.NoError(t, store.Set(txn, []byte(key), []byte(key)))
	}
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	iter := store.NewIterator(txn, types.BlobIteratorOptions{
		Prefix: []byte("canonical/assess-1/"),
	})
	defer iter.Close()

	var keys []string
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Item().Key()))
	}
	require.NoError(t, iter.Err())
	assert.Equal(
		t,
		[]string{"canonical/assess-1/entry-a", "canonical/assess-1/entry-b"},
		keys,
	)
}

func TestTxnWrongStore(t *testing.T) {
	store1 := setupTestStore(t)
	store2 := setupTestStore(t)

	txn := store2.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err := store1.Get(txn, []byte("key"))
	assert.Error(t, err)
}

func TestCommitTimestamp(t *testing.T) {
	store := setupTestStore(t)

	txn := store.NewTransaction(true)
	require.NoError(t, store.SetCommitTimestamp(1234567890, txn))
	require.NoError(t, txn.Commit())

	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1234567890), ts)
}
