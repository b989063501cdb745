package storage

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"

	"github.com/dgraph-io/badger/v4"
)

// Index value encoding. Each encoded value starts with a type tag byte so
// different types never collide, followed by an order-preserving payload:
//
//	'b' + 0x00/0x01   bool
//	'f' + 8 bytes     float64, sign-flipped big-endian (sorts numerically)
//	's' + raw bytes   string
//	'z'               null
//
// All numbers normalize to float64 before encoding, matching what
// encoding/json produces on the read path.

const (
	tagBool   = byte('b')
	tagNumber = byte('f')
	tagString = byte('s')
	tagNull   = byte('z')
)

// encodeIndexValue encodes one field value for index keys. Returns nil for
// values that are not indexable (arrays, nested objects).
func encodeIndexValue(v any) []byte {
	switch x := v.(type) {
	case nil:
		return []byte{tagNull}
	case bool:
		if x {
			return []byte{tagBool, 0x01}
		}
		return []byte{tagBool, 0x00}
	case int:
		return encodeNumber(float64(x))
	case int64:
		return encodeNumber(float64(x))
	case float64:
		return encodeNumber(x)
	case string:
		return append([]byte{tagString}, x...)
	}
	return nil
}

// encodeNumber produces 9 bytes whose lexicographic order matches numeric
// order: positive floats get the sign bit flipped, negative floats get all
// bits flipped.
func encodeNumber(f float64) []byte {
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	out := make([]byte, 9)
	out[0] = tagNumber
	binary.BigEndian.PutUint64(out[1:], bits)
	return out
}

// encodeComparable encodes a predicate value from a logical plan. Plan
// values are the textual literal forms: null, true/false, decimal numbers,
// or a bare string.
func encodeComparable(value string) []byte {
	switch value {
	case "null":
		return []byte{tagNull}
	case "true":
		return encodeIndexValue(true)
	case "false":
		return encodeIndexValue(false)
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return encodeNumber(f)
	}
	return encodeIndexValue(value)
}

// flattenFields walks a decoded document and emits (dottedPath, value)
// pairs for every scalar, descending into nested objects. Arrays are not
// indexed.
func flattenFields(prefix string, fields map[string]any, emit func(path string, value any)) {
	for name, value := range fields {
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		if nested, ok := value.(map[string]any); ok {
			flattenFields(path, nested, emit)
			continue
		}
		if _, ok := value.([]any); ok {
			continue
		}
		emit(path, value)
	}
}

// indexEntries builds the secondary index keys for a document.
func indexEntries(table, key string, fields map[string]any) [][]byte {
	var entries [][]byte
	flattenFields("", fields, func(path string, value any) {
		encoded := encodeIndexValue(value)
		if encoded == nil {
			return
		}
		entries = append(entries, indexKey(table, path, encoded, key))
	})
	return entries
}

func indexKey(table, column string, encoded []byte, key string) []byte {
	return composeKey(prefixIndex, []byte(table), []byte(column), encoded, []byte(key))
}

func indexColumnPrefix(table, column string) []byte {
	return composePrefix(prefixIndex, []byte(table), []byte(column))
}

// LookupEq returns all documents whose column equals value, in primary key
// order. value uses the textual literal form (see encodeComparable).
func (s *Store) LookupEq(table, column, value string) ([]Document, error) {
	encoded := encodeComparable(value)
	prefix := append(indexColumnPrefix(table, column), encoded...)
	prefix = append(prefix, keySeparator)

	var docs []Document
	err := s.db.View(func(txn *badger.Txn) error {
		keys, err := scanIndexKeys(txn, prefix, func(k []byte) string {
			return string(k[len(prefix):])
		})
		if err != nil {
			return err
		}
		docs, err = s.fetchDocuments(txn, table, keys)
		return err
	})
	return docs, err
}

// ScanRange returns all documents whose column falls in [lower, upper],
// where either bound may be nil (unbounded) and each bound is inclusive or
// exclusive per its flag. Bounds use the textual literal form.
//
// Results come back in index order, which is value order within a type.
func (s *Store) ScanRange(table, column string, lower, upper *string, includeLower, includeUpper bool) ([]Document, error) {
	base := indexColumnPrefix(table, column)

	var lowerEnc, upperEnc []byte
	if lower != nil {
		lowerEnc = encodeComparable(*lower)
	}
	if upper != nil {
		upperEnc = encodeComparable(*upper)
	}

	var docs []Document
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = base
		it := txn.NewIterator(opts)
		defer it.Close()

		start := base
		if lowerEnc != nil {
			start = append(append([]byte{}, base...), lowerEnc...)
		}

		var keys []string
		for it.Seek(start); it.ValidForPrefix(base); it.Next() {
			encoded, docKey, ok := splitIndexSuffix(it.Item().Key()[len(base):])
			if !ok {
				continue
			}
			if lowerEnc != nil {
				cmp := bytes.Compare(encoded, lowerEnc)
				if cmp < 0 || (cmp == 0 && !includeLower) {
					continue
				}
			}
			if upperEnc != nil {
				cmp := bytes.Compare(encoded, upperEnc)
				if cmp > 0 {
					break
				}
				if cmp == 0 && !includeUpper {
					continue
				}
			}
			keys = append(keys, docKey)
		}
		var err error
		docs, err = s.fetchDocuments(txn, table, keys)
		return err
	})
	return docs, err
}

// splitIndexSuffix separates the encoded value from the trailing document
// key. The number and bool encodings are fixed-length; strings run to the
// next separator byte.
func splitIndexSuffix(suffix []byte) (encoded []byte, docKey string, ok bool) {
	if len(suffix) == 0 {
		return nil, "", false
	}
	var valueLen int
	switch suffix[0] {
	case tagNull:
		valueLen = 1
	case tagBool:
		valueLen = 2
	case tagNumber:
		valueLen = 9
	case tagString:
		idx := bytes.IndexByte(suffix, keySeparator)
		if idx < 0 {
			return nil, "", false
		}
		valueLen = idx
	default:
		return nil, "", false
	}
	if len(suffix) < valueLen+1 || suffix[valueLen] != keySeparator {
		return nil, "", false
	}
	return suffix[:valueLen], string(suffix[valueLen+1:]), true
}

// scanIndexKeys iterates a prefix and maps each raw key through extract.
func scanIndexKeys(txn *badger.Txn, prefix []byte, extract func([]byte) string) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, extract(it.Item().Key()))
	}
	return keys, nil
}
