// Package query turns parsed AQL into executable logical plans and runs
// them against the storage layer.
//
// The translator produces exactly one of four plan shapes per query:
//
//   - ConjunctiveQuery: single-table scan with AND-only predicates
//   - DisjunctiveQuery: OR-of-ANDs over one table (disjunctive normal form)
//   - JoinQuery: multi-table nested-loop join with LET/COLLECT
//   - TraversalQuery: bounded-depth graph walk from a start vertex
//
// Plans are plain data. Predicate values are carried as strings; index key
// encoding is the storage layer's concern.
package query

import "github.com/themisdb/themis/pkg/aql"

// Plan is the closed set of logical plan shapes.
type Plan interface {
	planShape()
}

// PredicateEq is an equality predicate suitable for a secondary index
// point lookup.
type PredicateEq struct {
	Column string
	Value  string
}

// PredicateRange is a half- or fully-bounded range predicate. A nil bound
// means unbounded on that side.
type PredicateRange struct {
	Column       string
	Lower        *string
	Upper        *string
	IncludeLower bool
	IncludeUpper bool
}

// PredicateFulltext is a full-text search directive keyed by column.
type PredicateFulltext struct {
	Column string
	Query  string
	Limit  int
}

// DefaultFulltextLimit bounds FULLTEXT() results when the query gives no
// explicit limit argument.
const DefaultFulltextLimit = 100

// OrderBy describes single-column ordering. Limit is offset+count
// pre-summed so the executor can over-fetch and slice.
type OrderBy struct {
	Column     string
	Descending bool
	Limit      int
}

// DefaultScanLimit applies when a sorted query has no LIMIT clause.
const DefaultScanLimit = 1000

// Limits are the configurable translation bounds.
type Limits struct {
	// ScanLimit caps sorted scans that carry no LIMIT clause.
	ScanLimit int
	// FulltextLimit caps FULLTEXT() results when the call gives none.
	FulltextLimit int
}

// DefaultLimits returns the built-in bounds.
func DefaultLimits() Limits {
	return Limits{ScanLimit: DefaultScanLimit, FulltextLimit: DefaultFulltextLimit}
}

// ConjunctiveQuery is a single-table scan whose predicates are all AND-ed.
//
// PostFilter holds filter expressions that could not be pushed down
// (negations over non-comparison shapes); the executor must re-evaluate
// them against each candidate row after the scan.
type ConjunctiveQuery struct {
	Table           string
	Variable        string
	Predicates      []PredicateEq
	RangePredicates []PredicateRange
	Fulltext        *PredicateFulltext
	OrderBy         *OrderBy
	PostFilter      []aql.Expression
}

// DisjunctiveQuery is an OR-of-ANDs scan over one table.
type DisjunctiveQuery struct {
	Table     string
	Variable  string
	Disjuncts []ConjunctiveQuery
	OrderBy   *OrderBy
}

// JoinQuery carries the raw clause lists for a multi-FOR, LET, or COLLECT
// query; join and aggregation execution is the executor's concern.
type JoinQuery struct {
	ForNodes []aql.ForNode
	Filters  []aql.FilterNode
	LetNodes []aql.LetNode
	Return   *aql.ReturnNode
	Sort     *aql.SortNode
	Limit    *aql.LimitNode
	Collect  *aql.CollectNode
}

// TraversalQuery is a bounded-depth graph walk.
type TraversalQuery struct {
	Variable           string
	MinDepth           int
	MaxDepth           int
	Direction          aql.Direction
	StartVertex        string
	GraphName          string
	EdgeType           string
	ShortestPath       bool
	ShortestPathTarget string
}

func (*ConjunctiveQuery) planShape() {}
func (*DisjunctiveQuery) planShape() {}
func (*JoinQuery) planShape()        {}
func (*TraversalQuery) planShape()   {}
