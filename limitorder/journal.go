// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package limitorder

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
)

// JournalEntry is one persisted notification. Body holds the CBOR encoding
// of the concrete event.
type JournalEntry struct {
	Seq  uint64 `cbor:"seq"`
	Name string `cbor:"name"`
	At   int64  `cbor:"at"`
	Body []byte `cbor:"body"`
}

// JournalEmitter persists every event to the database as a CBOR record,
// sequence-keyed, so off-chain observers can replay notifications. Emission
// is best-effort: a write failure never rejects the operation that produced
// the event.
type JournalEmitter struct {
	db  database.Database
	now func() int64

	seq uint64
	mu  sync.Mutex
}

var _ Emitter = (*JournalEmitter)(nil)

// NewJournalEmitter creates a journal in its own key space of db, resuming
// the sequence after the highest persisted entry.
func NewJournalEmitter(db database.Database) *JournalEmitter {
	j := &JournalEmitter{
		db:  prefixdb.New(journalPrefix, db),
		now: func() int64 { return time.Now().Unix() },
	}

	it := j.db.NewIterator()
	defer it.Release()
	for it.Next() {
		j.seq = binary.BigEndian.Uint64(it.Key()) + 1
	}
	return j
}

func (j *JournalEmitter) Emit(ev Event) {
	j.mu.Lock()
	defer j.mu.Unlock()

	body, err := cbor.Marshal(ev)
	if err != nil {
		return
	}
	entry := JournalEntry{
		Seq:  j.seq,
		Name: ev.Name(),
		At:   j.now(),
		Body: body,
	}
	data, err := cbor.Marshal(entry)
	if err != nil {
		return
	}

	var key [8]byte
	binary.BigEndian.PutUint64(key[:], j.seq)
	if err := j.db.Put(key[:], data); err != nil {
		return
	}
	j.seq++
}

// Entries returns all persisted entries in sequence order.
func (j *JournalEmitter) Entries() ([]JournalEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var entries []JournalEntry
	it := j.db.NewIterator()
	defer it.Release()
	for it.Next() {
		var entry JournalEntry
		if err := cbor.Unmarshal(it.Value(), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, it.Error()
}
