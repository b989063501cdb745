// Pure expression evaluator.
//
// The executor uses it for LET bindings, join filters, COLLECT keys, and
// post-scan re-evaluation of clauses the translator could not push down.
// Values follow the JSON document model: nil, bool, int64, float64,
// string, []any, map[string]any.
//
// Coercion rules:
//   - Truthiness: nil and empty values are false, everything else true.
//   - Numeric comparison mixes int64 and float64 freely.
//   - Strings compare lexicographically; cross-type ordering is an error.
//   - Division always yields float64; modulo requires integers.
package aql

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Bindings maps variable names to their current values during evaluation.
type Bindings map[string]any

// Evaluate computes the value of an expression under the given bindings.
// Subqueries and SIMILARITY/PROXIMITY calls cannot be evaluated here; they
// require the executor.
func Evaluate(expr Expression, b Bindings) (any, error) {
	switch e := expr.(type) {
	case *Literal:
		return e.Value, nil

	case *Variable:
		value, ok := b[e.Name]
		if !ok {
			return nil, fmt.Errorf("unbound variable %q", e.Name)
		}
		return value, nil

	case *FieldAccess:
		object, err := Evaluate(e.Object, b)
		if err != nil {
			return nil, err
		}
		switch obj := object.(type) {
		case nil:
			return nil, nil
		case map[string]any:
			return obj[e.Field], nil
		}
		return nil, fmt.Errorf("cannot access field %q on non-object value", e.Field)

	case *BinaryOp:
		return evaluateBinary(e, b)

	case *UnaryOp:
		operand, err := Evaluate(e.Operand, b)
		if err != nil {
			return nil, err
		}
		if e.Op == OpNot {
			return !Truthy(operand), nil
		}
		switch n := operand.(type) {
		case int64:
			return -n, nil
		case float64:
			return -n, nil
		}
		return nil, fmt.Errorf("unary minus requires a numeric operand")

	case *FunctionCall:
		return evaluateFunction(e, b)

	case *ArrayLiteral:
		out := make([]any, len(e.Elements))
		for i, elem := range e.Elements {
			value, err := Evaluate(elem, b)
			if err != nil {
				return nil, err
			}
			out[i] = value
		}
		return out, nil

	case *ObjectConstruct:
		out := make(map[string]any, len(e.Fields))
		for _, f := range e.Fields {
			value, err := Evaluate(f.Value, b)
			if err != nil {
				return nil, err
			}
			out[f.Key] = value
		}
		return out, nil

	case *AnyExpr:
		return evaluateQuantifier(e.Var, e.Source, e.Predicate, b, false)

	case *AllExpr:
		return evaluateQuantifier(e.Var, e.Source, e.Predicate, b, true)

	case *Subquery:
		return nil, fmt.Errorf("subqueries cannot be evaluated outside the executor")

	case *SimilarityCall:
		return nil, fmt.Errorf("SIMILARITY cannot be evaluated outside the executor")

	case *ProximityCall:
		return nil, fmt.Errorf("PROXIMITY cannot be evaluated outside the executor")
	}

	return nil, fmt.Errorf("unsupported expression type %T", expr)
}

// EvaluatePredicate evaluates an expression and coerces the result to bool.
func EvaluatePredicate(expr Expression, b Bindings) (bool, error) {
	value, err := Evaluate(expr, b)
	if err != nil {
		return false, err
	}
	return Truthy(value), nil
}

// Truthy converts a value to a boolean: nil, false, zero, empty string,
// and empty containers are false.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	return true
}

func evaluateBinary(e *BinaryOp, b Bindings) (any, error) {
	// Logical operators short-circuit on the coerced left value.
	switch e.Op {
	case OpAnd:
		left, err := Evaluate(e.Left, b)
		if err != nil {
			return nil, err
		}
		if !Truthy(left) {
			return false, nil
		}
		right, err := Evaluate(e.Right, b)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil

	case OpOr:
		left, err := Evaluate(e.Left, b)
		if err != nil {
			return nil, err
		}
		if Truthy(left) {
			return true, nil
		}
		right, err := Evaluate(e.Right, b)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil
	}

	left, err := Evaluate(e.Left, b)
	if err != nil {
		return nil, err
	}
	right, err := Evaluate(e.Right, b)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case OpXor:
		return Truthy(left) != Truthy(right), nil

	case OpEq:
		return valuesEqual(left, right), nil
	case OpNeq:
		return !valuesEqual(left, right), nil

	case OpLt, OpLte, OpGt, OpGte:
		cmp, err := CompareValues(left, right)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case OpLt:
			return cmp < 0, nil
		case OpLte:
			return cmp <= 0, nil
		case OpGt:
			return cmp > 0, nil
		default:
			return cmp >= 0, nil
		}

	case OpIn:
		list, ok := right.([]any)
		if !ok {
			return nil, fmt.Errorf("right side of IN must be an array")
		}
		for _, elem := range list {
			if valuesEqual(left, elem) {
				return true, nil
			}
		}
		return false, nil

	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return evaluateArithmetic(e.Op, left, right)
	}

	return nil, fmt.Errorf("unsupported binary operator %s", e.Op)
}

func evaluateArithmetic(op BinaryOperator, left, right any) (any, error) {
	li, lIsInt := left.(int64)
	ri, rIsInt := right.(int64)

	if op == OpMod {
		if !lIsInt || !rIsInt {
			return nil, fmt.Errorf("modulo requires integer operands")
		}
		if ri == 0 {
			return nil, fmt.Errorf("modulo by zero")
		}
		return li % ri, nil
	}

	if lIsInt && rIsInt && op != OpDiv {
		switch op {
		case OpAdd:
			return li + ri, nil
		case OpSub:
			return li - ri, nil
		case OpMul:
			return li * ri, nil
		}
	}

	lf, lOK := toFloat(left)
	rf, rOK := toFloat(right)
	if !lOK || !rOK {
		return nil, fmt.Errorf("arithmetic requires numeric operands")
	}
	switch op {
	case OpAdd:
		return lf + rf, nil
	case OpSub:
		return lf - rf, nil
	case OpMul:
		return lf * rf, nil
	case OpDiv:
		if rf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return lf / rf, nil
	}
	return nil, fmt.Errorf("unsupported arithmetic operator %s", op)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// CompareValues orders two values: -1, 0, or 1. Numbers compare
// numerically, strings lexicographically, bools false < true, and nil
// equals nil. Mixed types are an error.
func CompareValues(left, right any) (int, error) {
	if left == nil && right == nil {
		return 0, nil
	}

	if lf, ok := toFloat(left); ok {
		if rf, ok := toFloat(right); ok {
			switch {
			case lf < rf:
				return -1, nil
			case lf > rf:
				return 1, nil
			}
			return 0, nil
		}
	}

	if ls, ok := left.(string); ok {
		if rs, ok := right.(string); ok {
			return strings.Compare(ls, rs), nil
		}
	}

	if lb, ok := left.(bool); ok {
		if rb, ok := right.(bool); ok {
			switch {
			case !lb && rb:
				return -1, nil
			case lb && !rb:
				return 1, nil
			}
			return 0, nil
		}
	}

	return 0, fmt.Errorf("cannot compare %T with %T", left, right)
}

func valuesEqual(left, right any) bool {
	if lf, ok := toFloat(left); ok {
		if rf, ok := toFloat(right); ok {
			return lf == rf
		}
		return false
	}
	return reflect.DeepEqual(left, right)
}

func evaluateQuantifier(boundVar string, source, predicate Expression, b Bindings, requireAll bool) (any, error) {
	value, err := Evaluate(source, b)
	if err != nil {
		return nil, err
	}
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("quantifier source must be an array")
	}

	// Bind the loop variable in a scratch copy so outer bindings stay
	// untouched.
	scope := make(Bindings, len(b)+1)
	for k, v := range b {
		scope[k] = v
	}
	for _, elem := range list {
		scope[boundVar] = elem
		ok, err := EvaluatePredicate(predicate, scope)
		if err != nil {
			return nil, err
		}
		if requireAll && !ok {
			return false, nil
		}
		if !requireAll && ok {
			return true, nil
		}
	}
	return requireAll, nil
}

// evaluateFunction dispatches builtin scalar functions, matched
// case-insensitively.
func evaluateFunction(call *FunctionCall, b Bindings) (any, error) {
	args := make([]any, len(call.Args))
	for i, argExpr := range call.Args {
		value, err := Evaluate(argExpr, b)
		if err != nil {
			return nil, err
		}
		args[i] = value
	}

	name := strings.ToLower(call.Name)
	switch name {
	case "lower":
		s, err := stringArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		return strings.ToLower(s), nil

	case "upper":
		s, err := stringArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		return strings.ToUpper(s), nil

	case "length":
		if len(args) != 1 {
			return nil, fmt.Errorf("LENGTH expects 1 argument")
		}
		switch v := args[0].(type) {
		case string:
			return int64(len(v)), nil
		case []any:
			return int64(len(v)), nil
		case map[string]any:
			return int64(len(v)), nil
		case nil:
			return int64(0), nil
		}
		return nil, fmt.Errorf("LENGTH expects a string, array, or object")

	case "concat":
		var sb strings.Builder
		for _, arg := range args {
			sb.WriteString(FormatLiteral(arg))
		}
		return sb.String(), nil

	case "abs":
		if len(args) != 1 {
			return nil, fmt.Errorf("ABS expects 1 argument")
		}
		switch v := args[0].(type) {
		case int64:
			if v < 0 {
				return -v, nil
			}
			return v, nil
		case float64:
			return math.Abs(v), nil
		}
		return nil, fmt.Errorf("ABS expects a numeric argument")

	case "min", "max":
		if len(args) == 0 {
			return nil, fmt.Errorf("%s expects at least 1 argument", strings.ToUpper(name))
		}
		best := args[0]
		for _, arg := range args[1:] {
			cmp, err := CompareValues(arg, best)
			if err != nil {
				return nil, err
			}
			if (name == "min" && cmp < 0) || (name == "max" && cmp > 0) {
				best = arg
			}
		}
		return best, nil
	}

	return nil, fmt.Errorf("unknown function %s", call.Name)
}

func stringArg(fn string, args []any, idx int) (string, error) {
	if idx >= len(args) {
		return "", fmt.Errorf("%s expects at least %d argument(s)", strings.ToUpper(fn), idx+1)
	}
	s, ok := args[idx].(string)
	if !ok {
		return "", fmt.Errorf("%s expects a string argument", strings.ToUpper(fn))
	}
	return s, nil
}
