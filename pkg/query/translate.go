// Translator: dispatches a parsed query to exactly one logical plan shape.
//
// Dispatch order, first match wins:
//
//  1. traversal clause present        -> TraversalQuery
//  2. multi-FOR, LET, or COLLECT      -> JoinQuery (raw clause lists)
//  3. any FILTER contains an OR       -> DisjunctiveQuery via DNF
//  4. otherwise                       -> ConjunctiveQuery
//
// OR detection runs on the best-effort negation-rewritten form of each
// filter, falling back to the original form when rewriting was
// unsupported. Translation errors are descriptive strings without position
// information; position is not tracked past the AST.
package query

import (
	"errors"

	"github.com/themisdb/themis/pkg/aql"
)

// Translate converts a parsed query into its logical plan using the
// default limits.
func Translate(q *aql.Query) (Plan, error) {
	return TranslateWithLimits(q, DefaultLimits())
}

// TranslateWithLimits converts a parsed query into its logical plan with
// configured scan and fulltext bounds.
func TranslateWithLimits(q *aql.Query, lim Limits) (Plan, error) {
	if q == nil {
		return nil, errors.New("nil query AST")
	}

	if q.Traversal != nil {
		t := q.Traversal
		return &TraversalQuery{
			Variable:           t.VertexVar,
			MinDepth:           t.MinDepth,
			MaxDepth:           t.MaxDepth,
			Direction:          t.Direction,
			StartVertex:        t.StartVertex,
			GraphName:          t.GraphName,
			EdgeType:           t.EdgeType,
			ShortestPath:       t.ShortestPath,
			ShortestPathTarget: t.ShortestPathTarget,
		}, nil
	}

	if len(q.ForNodes) > 1 || len(q.LetNodes) > 0 || q.Collect != nil {
		return &JoinQuery{
			ForNodes: q.ForNodes,
			Filters:  q.Filters,
			LetNodes: q.LetNodes,
			Return:   q.Return,
			Sort:     q.Sort,
			Limit:    q.Limit,
			Collect:  q.Collect,
		}, nil
	}

	table := q.For.Collection
	variable := q.For.Variable

	// Best-effort negation normal form per filter. When rewriting is
	// unsupported the original clause is used and, where it cannot be
	// pushed down, re-evaluated post-scan.
	forms := make([]aql.Expression, len(q.Filters))
	hasOr := false
	for i, f := range q.Filters {
		form, _ := aql.RewriteNegations(f.Condition)
		forms[i] = form
		if aql.ContainsOr(form) {
			hasOr = true
		}
	}

	orderBy, err := extractOrderBy(q.Sort, q.Limit, lim.ScanLimit)
	if err != nil {
		return nil, err
	}

	if hasOr {
		return translateDisjunctive(table, variable, forms, orderBy, lim)
	}
	return translateConjunctive(table, variable, forms, q.Filters, orderBy, lim)
}

// translateDisjunctive runs the DNF converter over every filter and
// AND-merges the resulting disjunct lists via cartesian product.
func translateDisjunctive(table, variable string, forms []aql.Expression, orderBy *OrderBy, lim Limits) (Plan, error) {
	disjuncts := []ConjunctiveQuery{{Table: table}}
	for _, form := range forms {
		list, err := toDNF(form, table, lim)
		if err != nil {
			return nil, err
		}
		disjuncts, err = crossMerge(disjuncts, list)
		if err != nil {
			return nil, err
		}
	}
	for i := range disjuncts {
		disjuncts[i].Variable = variable
	}
	return &DisjunctiveQuery{
		Table:     table,
		Variable:  variable,
		Disjuncts: disjuncts,
		OrderBy:   orderBy,
	}, nil
}

// translateConjunctive extracts AND-chains into a single conjunct.
// A filter whose top-level operator is NOT has no push-down form and is
// recorded for post-scan evaluation instead of being silently dropped.
func translateConjunctive(table, variable string, forms []aql.Expression, filters []aql.FilterNode, orderBy *OrderBy, lim Limits) (Plan, error) {
	cq := &ConjunctiveQuery{Table: table, Variable: variable, OrderBy: orderBy}

	for i, form := range forms {
		if unary, ok := form.(*aql.UnaryOp); ok && unary.Op == aql.OpNot {
			cq.PostFilter = append(cq.PostFilter, filters[i].Condition)
			continue
		}

		if call := findFulltextCall(form); call != nil {
			if cq.Fulltext != nil {
				return nil, errors.New("cannot combine multiple FULLTEXT() predicates in AND")
			}
			fulltext, err := extractFulltext(call, lim.FulltextLimit)
			if err != nil {
				return nil, err
			}
			cq.Fulltext = fulltext
			for _, rest := range collectNonFulltext(form) {
				if err := extractConjuncts(rest, cq); err != nil {
					return nil, err
				}
			}
			continue
		}

		if err := extractConjuncts(form, cq); err != nil {
			return nil, err
		}
	}
	return cq, nil
}
