// Disjunctive-normal-form conversion for boolean filter trees.
//
// The converter expects input in negation normal form (see
// aql.RewriteNegations); a NOT subtree that survived rewriting unsupported
// becomes a neutral, predicate-less conjunct whose original expression is
// recorded for post-scan re-evaluation.
package query

import (
	"errors"
	"fmt"

	"github.com/themisdb/themis/pkg/aql"
)

// ToDNF expands a filter tree into a list of conjunctive disjuncts over
// the given table: OR nodes union their sides' disjunct lists, AND nodes
// take the cartesian product of theirs.
func ToDNF(expr aql.Expression, table string) ([]ConjunctiveQuery, error) {
	return toDNF(expr, table, DefaultLimits())
}

func toDNF(expr aql.Expression, table string, lim Limits) ([]ConjunctiveQuery, error) {
	switch e := expr.(type) {
	case *aql.BinaryOp:
		switch e.Op {
		case aql.OpOr:
			left, err := toDNF(e.Left, table, lim)
			if err != nil {
				return nil, err
			}
			right, err := toDNF(e.Right, table, lim)
			if err != nil {
				return nil, err
			}
			return append(left, right...), nil

		case aql.OpAnd:
			left, err := toDNF(e.Left, table, lim)
			if err != nil {
				return nil, err
			}
			right, err := toDNF(e.Right, table, lim)
			if err != nil {
				return nil, err
			}
			return crossMerge(left, right)

		case aql.OpXor:
			return nil, errors.New("XOR is not supported in DNF conversion")

		default:
			cq := ConjunctiveQuery{Table: table}
			if err := extractComparison(e, &cq); err != nil {
				return nil, err
			}
			return []ConjunctiveQuery{cq}, nil
		}

	case *aql.FunctionCall:
		if aql.IsFulltextCall(e) {
			fulltext, err := extractFulltext(e, lim.FulltextLimit)
			if err != nil {
				return nil, err
			}
			return []ConjunctiveQuery{{Table: table, Fulltext: fulltext}}, nil
		}
		return nil, fmt.Errorf("function %s(...) is not a push-down predicate", e.Name)

	case *aql.UnaryOp:
		if e.Op == aql.OpNot {
			// Unsupported negation: contributes no push-down filtering and
			// must be re-checked against candidates at runtime.
			return []ConjunctiveQuery{{Table: table, PostFilter: []aql.Expression{e}}}, nil
		}
		return nil, errors.New("unary minus is not a boolean predicate")
	}

	return nil, fmt.Errorf("unsupported expression %s in DNF conversion", describeExpr(expr))
}

// crossMerge computes the cartesian product of two disjunct lists, merging
// each pair into a single conjunct.
func crossMerge(left, right []ConjunctiveQuery) ([]ConjunctiveQuery, error) {
	merged := make([]ConjunctiveQuery, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			m, err := mergeConjuncts(l, r)
			if err != nil {
				return nil, err
			}
			merged = append(merged, m)
		}
	}
	return merged, nil
}

// mergeConjuncts combines two conjuncts' predicate sets. At most one
// full-text predicate may survive: AND-ing two FULLTEXT() calls cannot be
// served by the full-text index and is rejected.
func mergeConjuncts(a, b ConjunctiveQuery) (ConjunctiveQuery, error) {
	out := ConjunctiveQuery{Table: a.Table}
	out.Predicates = append(append([]PredicateEq{}, a.Predicates...), b.Predicates...)
	out.RangePredicates = append(append([]PredicateRange{}, a.RangePredicates...), b.RangePredicates...)
	out.PostFilter = append(append([]aql.Expression{}, a.PostFilter...), b.PostFilter...)

	switch {
	case a.Fulltext != nil && b.Fulltext != nil:
		return out, errors.New("cannot combine multiple FULLTEXT() predicates in AND")
	case a.Fulltext != nil:
		out.Fulltext = a.Fulltext
	case b.Fulltext != nil:
		out.Fulltext = b.Fulltext
	}
	return out, nil
}
