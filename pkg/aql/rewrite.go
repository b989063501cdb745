// Negation rewriter: pushes NOT down to comparison and literal leaves via
// De Morgan's laws so the translator can extract plain predicates without
// special-casing negation at every level.
//
// Rewriting is best-effort. NOT applied to a bare variable, field access,
// function call, or array/object literal has no comparison form, so the
// whole input is returned unchanged with supported=false; the caller keeps
// the original clause for post-scan evaluation instead of push-down.
package aql

// RewriteNegations returns an equivalent expression with negation only at
// literal boolean leaves, plus whether the rewrite was possible. When the
// second result is false the first is the original expression unchanged.
func RewriteNegations(expr Expression) (Expression, bool) {
	rewritten, ok := rewriteExpr(expr)
	if !ok {
		return expr, false
	}
	return rewritten, true
}

func rewriteExpr(expr Expression) (Expression, bool) {
	switch e := expr.(type) {
	case *UnaryOp:
		if e.Op == OpNot {
			return rewriteNot(e.Operand)
		}
		operand, ok := rewriteExpr(e.Operand)
		if !ok {
			return nil, false
		}
		return &UnaryOp{Op: e.Op, Operand: operand}, true

	case *BinaryOp:
		left, ok := rewriteExpr(e.Left)
		if !ok {
			return nil, false
		}
		right, ok := rewriteExpr(e.Right)
		if !ok {
			return nil, false
		}
		return &BinaryOp{Op: e.Op, Left: left, Right: right}, true

	default:
		// Leaves and opaque nodes (literals, variables, field access,
		// calls, quantifiers, subqueries) pass through untouched.
		return expr, true
	}
}

// rewriteNot rewrites NOT(operand) into negation normal form.
func rewriteNot(operand Expression) (Expression, bool) {
	switch e := operand.(type) {
	case *UnaryOp:
		if e.Op == OpNot {
			// Double negation cancels.
			return rewriteExpr(e.Operand)
		}
		return nil, false

	case *Literal:
		if b, isBool := e.Value.(bool); isBool {
			return &Literal{Value: !b}, true
		}
		return nil, false

	case *BinaryOp:
		switch e.Op {
		case OpAnd:
			left, ok := rewriteNot(e.Left)
			if !ok {
				return nil, false
			}
			right, ok := rewriteNot(e.Right)
			if !ok {
				return nil, false
			}
			return &BinaryOp{Op: OpOr, Left: left, Right: right}, true

		case OpOr:
			left, ok := rewriteNot(e.Left)
			if !ok {
				return nil, false
			}
			right, ok := rewriteNot(e.Right)
			if !ok {
				return nil, false
			}
			return &BinaryOp{Op: OpAnd, Left: left, Right: right}, true

		case OpEq:
			// NOT(a == b) → a < b OR a > b, which keeps both sides
			// index-extractable.
			return &BinaryOp{
				Op:    OpOr,
				Left:  &BinaryOp{Op: OpLt, Left: e.Left, Right: e.Right},
				Right: &BinaryOp{Op: OpGt, Left: e.Left, Right: e.Right},
			}, true

		case OpNeq:
			return &BinaryOp{Op: OpEq, Left: e.Left, Right: e.Right}, true

		case OpLt:
			return &BinaryOp{Op: OpGte, Left: e.Left, Right: e.Right}, true

		case OpLte:
			return &BinaryOp{Op: OpGt, Left: e.Left, Right: e.Right}, true

		case OpGt:
			return &BinaryOp{Op: OpLte, Left: e.Left, Right: e.Right}, true

		case OpGte:
			return &BinaryOp{Op: OpLt, Left: e.Left, Right: e.Right}, true
		}
		// XOR, IN, arithmetic under NOT have no comparison rewrite.
		return nil, false

	default:
		// NOT over a variable, field access, function call, or
		// array/object literal is unsupported for push-down.
		return nil, false
	}
}

// ContainsOr reports whether any OR node appears in the expression tree.
// The translator uses it to choose between conjunctive and disjunctive
// plan shapes.
func ContainsOr(expr Expression) bool {
	switch e := expr.(type) {
	case *BinaryOp:
		if e.Op == OpOr {
			return true
		}
		return ContainsOr(e.Left) || ContainsOr(e.Right)
	case *UnaryOp:
		return ContainsOr(e.Operand)
	case *FunctionCall:
		for _, arg := range e.Args {
			if ContainsOr(arg) {
				return true
			}
		}
	case *ArrayLiteral:
		for _, elem := range e.Elements {
			if ContainsOr(elem) {
				return true
			}
		}
	case *ObjectConstruct:
		for _, f := range e.Fields {
			if ContainsOr(f.Value) {
				return true
			}
		}
	case *AnyExpr:
		return ContainsOr(e.Source) || ContainsOr(e.Predicate)
	case *AllExpr:
		return ContainsOr(e.Source) || ContainsOr(e.Predicate)
	}
	return false
}
