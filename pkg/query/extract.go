// Predicate extraction: turning comparison leaves of a filter tree into
// index-scannable predicates.
//
// Extraction is deliberately strict: the left operand of every comparison
// must be a field access and the right operand a literal. Anything else
// (field-to-field comparisons, OR/XOR reaching a leaf, NEQ) is a
// translation error, signalling that the executor must fall back to a full
// scan with in-memory filtering for that clause.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/themisdb/themis/pkg/aql"
)

// columnName flattens a field access chain into a storage column path,
// dropping the root loop variable: u.address.city -> "address.city".
func columnName(expr aql.Expression) (string, error) {
	access, ok := expr.(*aql.FieldAccess)
	if !ok {
		return "", errors.New("expression is not a field access")
	}
	if nested, ok := access.Object.(*aql.FieldAccess); ok {
		parent, err := columnName(nested)
		if err != nil {
			return "", err
		}
		return parent + "." + access.Field, nil
	}
	return access.Field, nil
}

// extractConjuncts walks an AND-chain and appends its comparison leaves to
// the conjunctive query as predicates.
func extractConjuncts(expr aql.Expression, cq *ConjunctiveQuery) error {
	binOp, ok := expr.(*aql.BinaryOp)
	if !ok {
		return fmt.Errorf("unsupported expression in filter (only comparisons and AND chains are supported)")
	}
	if binOp.Op == aql.OpAnd {
		if err := extractConjuncts(binOp.Left, cq); err != nil {
			return err
		}
		return extractConjuncts(binOp.Right, cq)
	}
	return extractComparison(binOp, cq)
}

// extractComparison converts one comparison into an equality or range
// predicate on cq.
func extractComparison(binOp *aql.BinaryOp, cq *ConjunctiveQuery) error {
	switch binOp.Op {
	case aql.OpOr, aql.OpXor:
		return errors.New("OR/XOR operators not yet supported in predicate extraction")
	case aql.OpNeq:
		return errors.New("NEQ operator not yet supported for push-down")
	case aql.OpEq, aql.OpLt, aql.OpLte, aql.OpGt, aql.OpGte:
	default:
		return fmt.Errorf("unsupported operator %s in filter", binOp.Op)
	}

	column, err := columnName(binOp.Left)
	if err != nil {
		return errors.New("left side of comparison must be a field access (e.g. doc.age)")
	}

	literal, ok := binOp.Right.(*aql.Literal)
	if !ok {
		if _, isField := binOp.Right.(*aql.FieldAccess); isField {
			return errors.New("field-to-field comparisons are not supported for push-down")
		}
		return errors.New("right side of comparison must be a literal value")
	}
	value := aql.FormatLiteral(literal.Value)

	switch binOp.Op {
	case aql.OpEq:
		cq.Predicates = append(cq.Predicates, PredicateEq{Column: column, Value: value})
	case aql.OpLt:
		cq.RangePredicates = append(cq.RangePredicates, PredicateRange{
			Column: column, Upper: &value,
		})
	case aql.OpLte:
		cq.RangePredicates = append(cq.RangePredicates, PredicateRange{
			Column: column, Upper: &value, IncludeUpper: true,
		})
	case aql.OpGt:
		cq.RangePredicates = append(cq.RangePredicates, PredicateRange{
			Column: column, Lower: &value,
		})
	case aql.OpGte:
		cq.RangePredicates = append(cq.RangePredicates, PredicateRange{
			Column: column, Lower: &value, IncludeLower: true,
		})
	}
	return nil
}

// extractFulltext converts a FULLTEXT(column, query[, limit]) call into a
// predicate. The column may be a field access or a string literal.
func extractFulltext(call *aql.FunctionCall, defaultLimit int) (*PredicateFulltext, error) {
	if len(call.Args) < 2 || len(call.Args) > 3 {
		return nil, errors.New("FULLTEXT requires (column, query[, limit]) arguments")
	}

	var column string
	switch arg := call.Args[0].(type) {
	case *aql.FieldAccess:
		var err error
		column, err = columnName(arg)
		if err != nil {
			return nil, errors.New("FULLTEXT column must be a field access or string literal")
		}
	case *aql.Literal:
		s, ok := arg.Value.(string)
		if !ok {
			return nil, errors.New("FULLTEXT column must be a field access or string literal")
		}
		column = s
	default:
		return nil, errors.New("FULLTEXT column must be a field access or string literal")
	}

	queryLit, ok := call.Args[1].(*aql.Literal)
	if !ok {
		return nil, errors.New("FULLTEXT query must be a string literal")
	}
	queryText, ok := queryLit.Value.(string)
	if !ok {
		return nil, errors.New("FULLTEXT query must be a string literal")
	}

	limit := defaultLimit
	if len(call.Args) == 3 {
		limitLit, ok := call.Args[2].(*aql.Literal)
		if !ok {
			return nil, errors.New("FULLTEXT limit must be an integer literal")
		}
		n, ok := limitLit.Value.(int64)
		if !ok || n <= 0 {
			return nil, errors.New("FULLTEXT limit must be a positive integer literal")
		}
		limit = int(n)
	}

	return &PredicateFulltext{Column: column, Query: queryText, Limit: limit}, nil
}

// findFulltextCall searches an AND-chain for a FULLTEXT(...) call. It does
// not descend into OR branches or other expression shapes.
func findFulltextCall(expr aql.Expression) *aql.FunctionCall {
	switch e := expr.(type) {
	case *aql.FunctionCall:
		if aql.IsFulltextCall(e) {
			return e
		}
	case *aql.BinaryOp:
		if e.Op == aql.OpAnd {
			if found := findFulltextCall(e.Left); found != nil {
				return found
			}
			return findFulltextCall(e.Right)
		}
	}
	return nil
}

// collectNonFulltext gathers the AND-chain conjuncts that are not
// FULLTEXT(...) calls, preserving order.
func collectNonFulltext(expr aql.Expression) []aql.Expression {
	if binOp, ok := expr.(*aql.BinaryOp); ok && binOp.Op == aql.OpAnd {
		return append(collectNonFulltext(binOp.Left), collectNonFulltext(binOp.Right)...)
	}
	if aql.IsFulltextCall(expr) {
		return nil
	}
	return []aql.Expression{expr}
}

// extractOrderBy converts SORT and LIMIT into an OrderBy. Only
// single-column sorting is supported; the limit is folded as offset+count
// so the executor can over-fetch and slice.
func extractOrderBy(sort *aql.SortNode, limit *aql.LimitNode, scanLimit int) (*OrderBy, error) {
	if sort == nil || len(sort.Specs) == 0 {
		return nil, nil
	}
	if len(sort.Specs) > 1 {
		return nil, errors.New("only single-column SORT is supported")
	}

	spec := sort.Specs[0]
	column, err := columnName(spec.Expression)
	if err != nil {
		return nil, errors.New("SORT expression must be a field access")
	}

	orderBy := &OrderBy{Column: column, Descending: !spec.Ascending, Limit: scanLimit}
	if limit != nil {
		offset := max64(0, limit.Offset)
		count := max64(0, limit.Count)
		orderBy.Limit = int(offset + count)
	}
	return orderBy, nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// describeExpr renders a short form of an expression for error messages.
func describeExpr(expr aql.Expression) string {
	switch e := expr.(type) {
	case *aql.Variable:
		return e.Name
	case *aql.FieldAccess:
		if col, err := columnName(e); err == nil {
			return col
		}
		return "field access"
	case *aql.FunctionCall:
		return strings.ToUpper(e.Name) + "(...)"
	case *aql.BinaryOp:
		return e.Op.String()
	}
	return fmt.Sprintf("%T", expr)
}
