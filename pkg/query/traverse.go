package query

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/themisdb/themis/pkg/aql"
	"github.com/themisdb/themis/pkg/storage"
)

// Graph traversal: breadth-first from the start vertex, collecting every
// vertex first reached at a depth inside [MinDepth, MaxDepth]. Edge type
// filtering happens per hop. SHORTEST_PATH switches to returning the
// vertices along one minimal-hop path to the target.
//
// Vertex identifiers use the collection/key form; vertices with a stored
// document bind to its fields, bare identifiers bind to {"_id": id}.

func (e *Executor) runTraversal(ctx context.Context, q *aql.Query, p *TraversalQuery) ([]any, error) {
	dir := storageDirection(p.Direction)

	var vertexIDs []string
	var err error
	if p.ShortestPath {
		vertexIDs, err = e.shortestPath(ctx, p, dir)
	} else {
		vertexIDs, err = e.walk(ctx, p, dir)
	}
	if err != nil {
		return nil, err
	}

	rows := make([]row, 0, len(vertexIDs))
	for _, id := range vertexIDs {
		value, err := e.resolveVertex(id)
		if err != nil {
			return nil, err
		}
		ok := true
		for _, f := range q.Filters {
			ok, err = aql.EvaluatePredicate(f.Condition, aql.Bindings{p.Variable: value})
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
		}
		if ok {
			rows = append(rows, row{key: id, value: value})
		}
	}

	if q.Sort != nil {
		orderBy, err := extractOrderBy(q.Sort, q.Limit, e.limits.ScanLimit)
		if err != nil {
			return nil, err
		}
		if rows, err = orderRows(rows, orderBy); err != nil {
			return nil, err
		}
	}
	return e.project(q, p.Variable, rows)
}

// walk is the depth-windowed BFS. Each vertex is reported at most once,
// at its minimal depth.
func (e *Executor) walk(ctx context.Context, p *TraversalQuery, dir storage.Direction) ([]string, error) {
	type frontier struct {
		id    string
		depth int
	}
	visited := map[string]struct{}{p.StartVertex: {}}
	queue := []frontier{{id: p.StartVertex, depth: 0}}
	var out []string

	if p.MinDepth == 0 {
		out = append(out, p.StartVertex)
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue[0]
		queue = queue[1:]
		if current.depth >= p.MaxDepth {
			continue
		}
		edges, err := e.store.Neighbors(current.id, dir, p.EdgeType)
		if err != nil {
			return nil, errors.Wrapf(err, "neighbors of %s", current.id)
		}
		for _, edge := range edges {
			next := edge.To
			if dir == storage.DirectionIn || (dir == storage.DirectionAny && edge.To == current.id) {
				next = edge.From
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			depth := current.depth + 1
			if depth >= p.MinDepth {
				out = append(out, next)
			}
			queue = append(queue, frontier{id: next, depth: depth})
		}
	}
	return out, nil
}

// shortestPath runs BFS with parent tracking and reconstructs the vertex
// sequence from start to target. No path yields an empty result, not an
// error.
func (e *Executor) shortestPath(ctx context.Context, p *TraversalQuery, dir storage.Direction) ([]string, error) {
	if p.StartVertex == p.ShortestPathTarget {
		return []string{p.StartVertex}, nil
	}

	parent := map[string]string{p.StartVertex: ""}
	queue := []string{p.StartVertex}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue[0]
		queue = queue[1:]
		edges, err := e.store.Neighbors(current, dir, p.EdgeType)
		if err != nil {
			return nil, errors.Wrapf(err, "neighbors of %s", current)
		}
		for _, edge := range edges {
			next := edge.To
			if dir == storage.DirectionIn || (dir == storage.DirectionAny && edge.To == current) {
				next = edge.From
			}
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = current
			if next == p.ShortestPathTarget {
				return reconstructPath(parent, next), nil
			}
			queue = append(queue, next)
		}
	}
	return nil, nil
}

func reconstructPath(parent map[string]string, target string) []string {
	var reversed []string
	for v := target; v != ""; v = parent[v] {
		reversed = append(reversed, v)
	}
	path := make([]string, len(reversed))
	for i, v := range reversed {
		path[len(reversed)-1-i] = v
	}
	return path
}

// resolveVertex binds a vertex identifier to its document when one
// exists. The collection/key split follows the _id convention.
func (e *Executor) resolveVertex(id string) (any, error) {
	table, key, found := strings.Cut(id, "/")
	if found {
		doc, err := e.store.GetDocument(table, key)
		if err == nil {
			fields := make(map[string]any, len(doc.Fields)+2)
			for k, v := range doc.Fields {
				fields[k] = v
			}
			fields["_id"] = id
			fields["_key"] = key
			return fields, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}
	return map[string]any{"_id": id}, nil
}

func storageDirection(d aql.Direction) storage.Direction {
	switch d {
	case aql.DirectionInbound:
		return storage.DirectionIn
	case aql.DirectionAny:
		return storage.DirectionAny
	}
	return storage.DirectionOut
}
