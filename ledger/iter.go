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

package ledger

import (
	"context"
	"sync"

	"github.com/sengol-ai/conclave/database/models"
	"github.com/sengol-ai/conclave/event"
)

// EntryIterator walks one assessment's chain forward from a starting
// sequence. Blocking reads wake on the append event for the chain; events
// only trigger a re-query, so spurious wakeups for other assessments are
// harmless.
type EntryIterator struct {
	manager      *Manager
	assessmentId string
	nextSeq      uint64
	subId        event.EventSubscriberId
	eventCh      <-chan event.Event
	mutex        sync.Mutex
	closed       bool
}

// NewIterator creates an iterator starting after fromSeq. A fromSeq of zero
// iterates from the first entry.
func (m *Manager) NewIterator(
	assessmentId string,
	fromSeq uint64,
) (*EntryIterator, error) {
	if assessmentId == "" {
		return nil, NewValidationError("assessmentId", "must not be empty")
	}
	it := &EntryIterator{
		manager:      m,
		assessmentId: assessmentId,
		nextSeq:      fromSeq,
	}
	if m.eventBus != nil {
		it.subId, it.eventCh = m.eventBus.Subscribe(event.LedgerEntryEventType)
	}
	return it, nil
}

// Next returns the next entry in the chain. At the tip, blocking waits for
// the next append; non-blocking returns ErrIteratorAtTip.
func (it *EntryIterator) Next(
	ctx context.Context,
	blocking bool,
) (*models.LedgerEntry, error) {
	it.mutex.Lock()
	defer it.mutex.Unlock()
	if it.closed {
		return nil, ErrIteratorClosed
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := it.manager.db.GetLedgerEntriesAfter(
			it.assessmentId,
			it.nextSeq,
			1,
			nil,
		)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			entry := entries[0]
			it.nextSeq = entry.ID
			return &entry, nil
		}
		if !blocking || it.eventCh == nil {
			return nil, ErrIteratorAtTip
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case _, ok := <-it.eventCh:
			if !ok {
				return nil, ErrIteratorClosed
			}
		}
	}
}

// Close releases the iterator's event subscription
func (it *EntryIterator) Close() {
	it.mutex.Lock()
	defer it.mutex.Unlock()
	if it.closed {
		return
	}
	it.closed = true
	if it.manager.eventBus != nil {
		it.manager.eventBus.Unsubscribe(
			event.LedgerEntryEventType,
			it.subId,
		)
	}
}
