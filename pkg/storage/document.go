package storage

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger/v4"
)

// Document is one stored row: its primary key plus decoded fields.
type Document struct {
	Key    string
	Fields map[string]any
}

// PutDocument inserts or replaces a document. All scalar fields (including
// nested ones, addressed by dotted path) are written to the secondary
// index; string fields are additionally tokenized into the fulltext index.
//
// A replace first removes the previous version's index entries so stale
// values never match.
func (s *Store) PutDocument(table, key string, fields map[string]any) error {
	if table == "" || key == "" {
		return errors.New("storage: table and key must be non-empty")
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return errors.Wrap(err, "encode document")
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := s.dropIndexEntries(txn, table, key); err != nil {
			return err
		}
		if err := txn.Set(documentKey(table, key), payload); err != nil {
			return err
		}
		for _, entry := range indexEntries(table, key, fields) {
			if err := txn.Set(entry, nil); err != nil {
				return err
			}
		}
		for _, entry := range fulltextEntries(table, key, fields) {
			if err := txn.Set(entry, nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetDocument fetches one document by primary key.
// Returns ErrNotFound if it does not exist.
func (s *Store) GetDocument(table, key string) (*Document, error) {
	var doc *Document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(documentKey(table, key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.Wrapf(ErrNotFound, "document %s/%s", table, key)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			doc, err = decodeDocument(key, val)
			return err
		})
	})
	return doc, err
}

// DeleteDocument removes a document and its index entries.
// Deleting a missing document is not an error.
func (s *Store) DeleteDocument(table, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := s.dropIndexEntries(txn, table, key); err != nil {
			return err
		}
		return txn.Delete(documentKey(table, key))
	})
}

// ScanTable returns up to limit documents from a table in primary key
// order. limit <= 0 means no limit.
func (s *Store) ScanTable(table string, limit int) ([]Document, error) {
	var docs []Document
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := tablePrefix(table)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(docs) >= limit {
				break
			}
			item := it.Item()
			key := string(item.Key()[len(prefix):])
			if err := item.Value(func(val []byte) error {
				doc, err := decodeDocument(key, val)
				if err != nil {
					return err
				}
				docs = append(docs, *doc)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return docs, err
}

// fetchDocuments resolves a set of primary keys to documents, skipping
// keys whose document vanished between index scan and fetch.
func (s *Store) fetchDocuments(txn *badger.Txn, table string, keys []string) ([]Document, error) {
	docs := make([]Document, 0, len(keys))
	for _, key := range keys {
		item, err := txn.Get(documentKey(table, key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := item.Value(func(val []byte) error {
			doc, err := decodeDocument(key, val)
			if err != nil {
				return err
			}
			docs = append(docs, *doc)
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// dropIndexEntries removes the secondary and fulltext index entries for
// whatever version of the document is currently stored.
func (s *Store) dropIndexEntries(txn *badger.Txn, table, key string) error {
	item, err := txn.Get(documentKey(table, key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	var old map[string]any
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &old)
	}); err != nil {
		return err
	}
	for _, entry := range indexEntries(table, key, old) {
		if err := txn.Delete(entry); err != nil {
			return err
		}
	}
	for _, entry := range fulltextEntries(table, key, old) {
		if err := txn.Delete(entry); err != nil {
			return err
		}
	}
	return nil
}

func decodeDocument(key string, payload []byte) (*Document, error) {
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, errors.Wrap(err, "decode document")
	}
	return &Document{Key: key, Fields: fields}, nil
}
