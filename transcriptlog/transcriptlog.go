// Package transcriptlog persists a short-lived history of
// transcriptions so recent utterances can be inspected over the
// control surface.
package transcriptlog

import (
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// entryTTL bounds how long transcripts are retained.
const entryTTL = 24 * time.Hour

const keyPrefix = "transcript:"

// Entry is one recorded transcription.
type Entry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a Badger-backed transcript log.
type Store struct {
	db *badger.DB
}

// Open creates or opens the log at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open transcript log: %w", err)
	}
	return &Store{db: db}, nil
}

// Append records a transcription under the current time.
func (s *Store) Append(text, mode string) (Entry, error) {
	entry := Entry{
		ID:        uuid.NewString(),
		Text:      text,
		Mode:      mode,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal entry: %w", err)
	}

	// Keys sort by timestamp so iteration is chronological.
	key := fmt.Sprintf("%s%019d:%s", keyPrefix, entry.CreatedAt.UnixNano(), entry.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data).WithTTL(entryTTL)
		return txn.SetEntry(e)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("write entry: %w", err)
	}
	return entry, nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts past the end of the prefix range.
		seek := append([]byte(keyPrefix), 0xFF)
		for it.Seek(seek); it.Valid() && len(entries) < n; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var e Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return err
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	return entries, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
