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

package gcs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sengol-ai/conclave/database/types"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const opTimeout = 30 * time.Second

// BlobStoreGCS archives evidence snapshots and canonical ledger entries in
// a Google Cloud Storage bucket. GCS has no native transactions, so writes
// are staged in the transaction and flushed object-by-object on Commit.
// Staged writes are not visible to reads or iterators until committed.
type BlobStoreGCS struct {
	promRegistry    prometheus.Registerer
	logger          *GcsLogger
	client          *storage.Client
	bucket          *storage.BucketHandle
	bucketName      string
	credentialsFile string
}

// gcsTxn stages writes and deletes until Commit. Implements types.Txn.
type gcsTxn struct {
	store    *BlobStoreGCS
	writes   map[string][]byte
	deletes  map[string]struct{}
	update   bool
	finished bool
}

func newGcsTxn(store *BlobStoreGCS, update bool) *gcsTxn {
	return &gcsTxn{
		store:   store,
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
		update:  update,
	}
}

func (t *gcsTxn) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if !t.update {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	for key, val := range t.writes {
		w := t.store.bucket.Object(key).NewWriter(ctx)
		if _, err := w.Write(val); err != nil {
			_ = w.Close()
			return fmt.Errorf("gcs blob: failed to write object %s: %w", key, err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("gcs blob: failed to close object %s: %w", key, err)
		}
	}
	for key := range t.deletes {
		err := t.store.bucket.Object(key).Delete(ctx)
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf(
				"gcs blob: failed to delete object %s: %w",
				key,
				err,
			)
		}
	}
	return nil
}

func (t *gcsTxn) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	t.writes = nil
	t.deletes = nil
	return nil
}

// validateTxn validates a types.Txn for this BlobStore and returns the
// underlying *gcsTxn if valid.
func (d *BlobStoreGCS) validateTxn(txn types.Txn) (*gcsTxn, error) {
	if txn == nil {
		return nil, types.ErrNilTxn
	}
	gcsTxn, ok := txn.(*gcsTxn)
	if !ok {
		return nil, types.ErrTxnWrongType
	}
	if gcsTxn.store != d {
		return nil, errors.New("transaction from different store")
	}
	if gcsTxn.finished {
		return nil, errors.New("transaction already finished")
	}
	if d.bucket == nil {
		return nil, types.ErrBlobStoreUnavailable
	}
	return gcsTxn, nil
}

// New creates a new GCS-backed blob store from a gcs://<bucket> data dir
func New(
	dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*BlobStoreGCS, error) {
	bucketName, err := BucketFromDataDir(dataDir)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(
		WithBucket(bucketName),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	)
}

// BucketFromDataDir extracts the bucket name from a gcs://<bucket> data dir
func BucketFromDataDir(dataDir string) (string, error) {
	const prefix = "gcs://"
	var bucketName string
	if after, ok := strings.CutPrefix(dataDir, prefix); ok {
		bucketName = after
	}
	if bucketName == "" {
		return "", errors.New(
			"gcs blob: bucket not set (expected dataDir='gcs://<bucket>')",
		)
	}
	return bucketName, nil
}

// NewWithOptions creates a new GCS-backed blob store using options
func NewWithOptions(opts ...BlobStoreGCSOptionFunc) (*BlobStoreGCS, error) {
	db := &BlobStoreGCS{}

	// Apply options
	for _, opt := range opts {
		opt(db)
	}

	// Set defaults
	if db.logger == nil {
		db.logger = NewGcsLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	}

	return db, nil
}

// validateCredentials checks that a credentials file exists and holds JSON
func validateCredentials(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("gcs blob: failed to read credentials file: %w", err)
	}
	if !json.Valid(data) {
		return errors.New("gcs blob: credentials file is not valid JSON")
	}
	return nil
}

// Start implements the plugin.Plugin interface
func (d *BlobStoreGCS) Start() error {
	// Validate required fields
	if d.bucketName == "" {
		return errors.New("gcs blob: bucket not set")
	}

	// Validate credentials file if specified
	if d.credentialsFile != "" {
		if err := validateCredentials(d.credentialsFile); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var clientOpts []option.ClientOption
	clientOpts = append(clientOpts, storage.WithDisabledClientMetrics())
	if d.credentialsFile != "" {
		clientOpts = append(
			clientOpts,
			option.WithCredentialsFile(d.credentialsFile),
		)
	}

	client, err := storage.NewGRPCClient(
		ctx,
		clientOpts...,
	)
	if err != nil {
		return fmt.Errorf(
			"gcs blob: failed in creating storage client: %w",
			err,
		)
	}

	d.client = client
	d.bucket = client.Bucket(d.bucketName)

	// Configure metrics
	if d.promRegistry != nil {
		d.registerBlobMetrics()
	}
	return nil
}

// Stop implements the plugin.Plugin interface
func (d *BlobStoreGCS) Stop() error {
	return d.Close()
}

// Close closes the GCS client
func (d *BlobStoreGCS) Close() error {
	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	d.bucket = nil
	return err
}

// Client returns the GCS client
func (d *BlobStoreGCS) Client() *storage.Client {
	return d.client
}

// Bucket returns the bucket handle
func (d *BlobStoreGCS) Bucket() *storage.BucketHandle {
	return d.bucket
}

// NewTransaction creates a new staged transaction
func (d *BlobStoreGCS) NewTransaction(update bool) types.Txn {
	return newGcsTxn(d, update)
}

// Get retrieves an object, preferring writes staged in the transaction
func (d *BlobStoreGCS) Get(txn types.Txn, key []byte) ([]byte, error) {
	gcsTxn, err := d.validateTxn(txn)
	if err != nil {
		return nil, err
	}
	keyStr := string(key)
	if val, ok := gcsTxn.writes[keyStr]; ok {
		return bytes.Clone(val), nil
	}
	if _, ok := gcsTxn.deletes[keyStr]; ok {
		return nil, types.ErrBlobKeyNotFound
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	r, err := d.bucket.Object(keyStr).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, types.ErrBlobKeyNotFound
		}
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Set stages an object write in the transaction
func (d *BlobStoreGCS) Set(txn types.Txn, key, val []byte) error {
	gcsTxn, err := d.validateTxn(txn)
	if err != nil {
		return err
	}
	if !gcsTxn.update {
		return errors.New("gcs blob: set on read-only transaction")
	}
	keyStr := string(key)
	delete(gcsTxn.deletes, keyStr)
	gcsTxn.writes[keyStr] = bytes.Clone(val)
	return nil
}

// Delete stages an object delete in the transaction
func (d *BlobStoreGCS) Delete(txn types.Txn, key []byte) error {
	gcsTxn, err := d.validateTxn(txn)
	if err != nil {
		return err
	}
	if !gcsTxn.update {
		return errors.New("gcs blob: delete on read-only transaction")
	}
	keyStr := string(key)
	delete(gcsTxn.writes, keyStr)
	gcsTxn.deletes[keyStr] = struct{}{}
	return nil
}

// NewIterator lists the committed objects under the prefix and iterates
// over them. Values are fetched lazily via Item().ValueCopy().
func (d *BlobStoreGCS) NewIterator(
	txn types.Txn,
	opts types.BlobIteratorOptions,
) types.BlobIterator {
	if _, err := d.validateTxn(txn); err != nil {
		return &errorIterator{err: err}
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	var keys []string
	objIter := d.bucket.Objects(
		ctx,
		&storage.Query{Prefix: string(opts.Prefix)},
	)
	for {
		attrs, err := objIter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return &errorIterator{err: err}
		}
		keys = append(keys, attrs.Name)
	}
	sort.Strings(keys)
	if opts.Reverse {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	return &gcsIterator{store: d, keys: keys, reverse: opts.Reverse}
}

type gcsIterator struct {
	store   *BlobStoreGCS
	keys    []string
	pos     int
	reverse bool
}

func (it *gcsIterator) Rewind() { it.pos = 0 }

// Seek positions the iterator at the first key at or past the given key
// in iteration order
func (it *gcsIterator) Seek(key []byte) {
	keyStr := string(key)
	if it.reverse {
		it.pos = sort.Search(len(it.keys), func(i int) bool {
			return it.keys[i] <= keyStr
		})
	} else {
		it.pos = sort.Search(len(it.keys), func(i int) bool {
			return it.keys[i] >= keyStr
		})
	}
}

func (it *gcsIterator) Valid() bool {
	return it.pos < len(it.keys)
}

func (it *gcsIterator) ValidForPrefix(prefix []byte) bool {
	if !it.Valid() {
		return false
	}
	return bytes.HasPrefix([]byte(it.keys[it.pos]), prefix)
}

func (it *gcsIterator) Next() { it.pos++ }

func (it *gcsIterator) Item() types.BlobItem {
	if !it.Valid() {
		return nil
	}
	return &gcsItem{store: it.store, key: it.keys[it.pos]}
}

func (it *gcsIterator) Close()     {}
func (it *gcsIterator) Err() error { return nil }

type errorIterator struct {
	err error
}

func (it *errorIterator) Rewind()                      {}
func (it *errorIterator) Seek(prefix []byte)           {}
func (it *errorIterator) Valid() bool                  { return false }
func (it *errorIterator) ValidForPrefix(p []byte) bool { return false }
func (it *errorIterator) Next()                        {}
func (it *errorIterator) Item() types.BlobItem         { return nil }
func (it *errorIterator) Close()                       {}
func (it *errorIterator) Err() error                   { return it.err }

type gcsItem struct {
	store *BlobStoreGCS
	key   string
}

func (i *gcsItem) Key() []byte {
	return []byte(i.key)
}

func (i *gcsItem) ValueCopy(dst []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	r, err := i.store.bucket.Object(i.key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, types.ErrBlobKeyNotFound
		}
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
