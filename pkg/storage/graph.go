package storage

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger/v4"
)

// Direction selects which adjacency lists Neighbors reads.
type Direction int

const (
	DirectionOut Direction = iota
	DirectionIn
	DirectionAny
)

// Edge is one directed, typed edge.
type Edge struct {
	From string
	To   string
	Type string
}

// PutEdge stores a directed edge. Edges are keyed by (from, to, type), so
// storing the same edge twice is idempotent. Vertices are implicit; an
// edge may reference documents that do not exist.
func (s *Store) PutEdge(from, to, edgeType string) error {
	if from == "" || to == "" {
		return errors.New("storage: edge endpoints must be non-empty")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(outEdgeKey(from, to, edgeType), nil); err != nil {
			return err
		}
		return txn.Set(inEdgeKey(from, to, edgeType), nil)
	})
}

// DeleteEdge removes one edge. Removing a missing edge is not an error.
func (s *Store) DeleteEdge(from, to, edgeType string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(outEdgeKey(from, to, edgeType)); err != nil {
			return err
		}
		return txn.Delete(inEdgeKey(from, to, edgeType))
	})
}

// Neighbors returns the edges incident to vertex in the given direction.
// edgeType filters to one type when non-empty. For DirectionAny the
// outgoing list comes first.
func (s *Store) Neighbors(vertex string, dir Direction, edgeType string) ([]Edge, error) {
	var edges []Edge
	err := s.db.View(func(txn *badger.Txn) error {
		if dir == DirectionOut || dir == DirectionAny {
			out, err := scanAdjacency(txn, prefixOutEdge, vertex, edgeType, false)
			if err != nil {
				return err
			}
			edges = append(edges, out...)
		}
		if dir == DirectionIn || dir == DirectionAny {
			in, err := scanAdjacency(txn, prefixInEdge, vertex, edgeType, true)
			if err != nil {
				return err
			}
			edges = append(edges, in...)
		}
		return nil
	})
	return edges, err
}

func outEdgeKey(from, to, edgeType string) []byte {
	return composeKey(prefixOutEdge, []byte(from), []byte(to), []byte(edgeType))
}

func inEdgeKey(from, to, edgeType string) []byte {
	return composeKey(prefixInEdge, []byte(to), []byte(from), []byte(edgeType))
}

// scanAdjacency walks one adjacency list. reversed marks the incoming
// list, whose keys are (to, from, type).
func scanAdjacency(txn *badger.Txn, prefix byte, vertex, edgeType string, reversed bool) ([]Edge, error) {
	keyPrefix := composePrefix(prefix, []byte(vertex))
	opts := badger.DefaultIteratorOptions
	opts.Prefix = keyPrefix
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var edges []Edge
	for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
		suffix := it.Item().Key()[len(keyPrefix):]
		sep := bytes.IndexByte(suffix, keySeparator)
		if sep < 0 {
			continue
		}
		other := string(suffix[:sep])
		typ := string(suffix[sep+1:])
		if edgeType != "" && typ != edgeType {
			continue
		}
		if reversed {
			edges = append(edges, Edge{From: other, To: vertex, Type: typ})
		} else {
			edges = append(edges, Edge{From: vertex, To: other, Type: typ})
		}
	}
	return edges, nil
}
