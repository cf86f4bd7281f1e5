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
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithBucket(t *testing.T) {
	b := &BlobStoreGCS{}
	WithBucket("governance-evidence")(b)
	assert.Equal(t, "governance-evidence", b.bucketName)
}

func TestWithCredentialsFile(t *testing.T) {
	b := &BlobStoreGCS{}
	WithCredentialsFile("/etc/conclave/gcs.json")(b)
	assert.Equal(t, "/etc/conclave/gcs.json", b.credentialsFile)
}

func TestWithLogger(t *testing.T) {
	b := &BlobStoreGCS{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	WithLogger(logger)(b)
	assert.NotNil(t, b.logger)
}

func TestWithPromRegistry(t *testing.T) {
	b := &BlobStoreGCS{}
	registry := prometheus.NewRegistry()
	WithPromRegistry(registry)(b)
	assert.Equal(t, prometheus.Registerer(registry), b.promRegistry)
}

func TestBucketFromDataDir(t *testing.T) {
	bucket, err := BucketFromDataDir("gcs://governance-evidence")
	require.NoError(t, err)
	assert.Equal(t, "governance-evidence", bucket)

	_, err = BucketFromDataDir("/var/lib/conclave")
	assert.Error(t, err)

	_, err = BucketFromDataDir("gcs://")
	assert.Error(t, err)
}

func TestStartWithoutBucket(t *testing.T) {
	b, err := NewWithOptions()
	require.NoError(t, err)
	assert.Error(t, b.Start())
}
