package storage

import (
	"sort"
	"strings"
	"unicode"

	"github.com/dgraph-io/badger/v4"
)

// Fulltext indexing: every string field is split into lowercase
// alphanumeric terms, and each (table, column, term, key) tuple becomes
// one index entry. Search tokenizes the query the same way and intersects
// the per-term posting lists, so all query terms must appear.

// tokenizeText splits text into lowercase terms. Anything that is not a
// letter or digit separates terms.
func tokenizeText(text string) []string {
	terms := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// fulltextEntries builds the inverted index keys for a document's string
// fields.
func fulltextEntries(table, key string, fields map[string]any) [][]byte {
	var entries [][]byte
	flattenFields("", fields, func(path string, value any) {
		text, ok := value.(string)
		if !ok {
			return
		}
		for _, term := range tokenizeText(text) {
			entries = append(entries, fulltextKey(table, path, term, key))
		}
	})
	return entries
}

func fulltextKey(table, column, term, key string) []byte {
	return composeKey(prefixFulltext, []byte(table), []byte(column), []byte(term), []byte(key))
}

func fulltextTermPrefix(table, column, term string) []byte {
	return composePrefix(prefixFulltext, []byte(table), []byte(column), []byte(term))
}

// SearchFulltext returns up to limit documents whose column contains every
// term of query, in primary key order. An empty query matches nothing.
func (s *Store) SearchFulltext(table, column, query string, limit int) ([]Document, error) {
	terms := tokenizeText(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var docs []Document
	err := s.db.View(func(txn *badger.Txn) error {
		var matched map[string]struct{}
		for i, term := range terms {
			prefix := fulltextTermPrefix(table, column, term)
			keys, err := scanIndexKeys(txn, prefix, func(k []byte) string {
				return string(k[len(prefix):])
			})
			if err != nil {
				return err
			}
			if i == 0 {
				matched = make(map[string]struct{}, len(keys))
				for _, k := range keys {
					matched[k] = struct{}{}
				}
				continue
			}
			next := make(map[string]struct{}, len(matched))
			for _, k := range keys {
				if _, ok := matched[k]; ok {
					next[k] = struct{}{}
				}
			}
			matched = next
			if len(matched) == 0 {
				return nil
			}
		}

		keys := make([]string, 0, len(matched))
		for k := range matched {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if limit > 0 && len(keys) > limit {
			keys = keys[:limit]
		}
		var err error
		docs, err = s.fetchDocuments(txn, table, keys)
		return err
	})
	return docs, err
}
