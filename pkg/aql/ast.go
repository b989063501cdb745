// AST node types for parsed AQL queries.
//
// Expression is a closed variant: every node type lives in this file and
// carries the unexported exprNode marker, so consumers dispatch with an
// exhaustive type switch instead of a discriminator field. Nodes are built
// incrementally by the parser and immutable afterwards; no node outlives
// the parse/translate call that produced it.
//
// Every node serializes to JSON as {"type": <kind-tag>, ...fields}. The
// shapes are consumed by the explain-plan surface and must stay stable per
// node kind.
package aql

import (
	"encoding/json"
	"strconv"
)

// BinaryOperator enumerates binary expression operators.
type BinaryOperator int

const (
	OpEq BinaryOperator = iota
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
	OpXor
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpIn
)

// String returns the operator's surface syntax, also used as the JSON tag.
func (op BinaryOperator) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpXor:
		return "XOR"
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpIn:
		return "IN"
	}
	return "unknown"
}

// UnaryOperator enumerates unary expression operators.
type UnaryOperator int

const (
	OpNot UnaryOperator = iota
	OpMinus
)

func (op UnaryOperator) String() string {
	if op == OpNot {
		return "NOT"
	}
	return "-"
}

// Expression is the closed AST expression variant.
type Expression interface {
	exprNode()
}

// Literal holds a constant value: nil, bool, int64, float64, or string.
type Literal struct {
	Value any
}

// Variable references a FOR, LET, or quantifier-bound variable by name.
type Variable struct {
	Name string
}

// FieldAccess is object.field; Object is a Variable or a nested
// FieldAccess, so chained access expresses nested document paths.
type FieldAccess struct {
	Object Expression
	Field  string
}

// BinaryOp applies a binary operator to two subexpressions.
type BinaryOp struct {
	Op    BinaryOperator
	Left  Expression
	Right Expression
}

// UnaryOp applies NOT or unary minus to a subexpression.
type UnaryOp struct {
	Op      UnaryOperator
	Operand Expression
}

// FunctionCall invokes a named function. Name may be dotted one level
// (e.g. "GEO.DISTANCE") and keeps the original casing.
type FunctionCall struct {
	Name string
	Args []Expression
}

// ArrayLiteral is [e1, e2, ...].
type ArrayLiteral struct {
	Elements []Expression
}

// ObjectField is a single key in an ObjectConstruct. Field order is
// preserved from the query text.
type ObjectField struct {
	Key   string
	Value Expression
}

// ObjectConstruct is {key: expr, ...}.
type ObjectConstruct struct {
	Fields []ObjectField
}

// Subquery wraps a nested query used in expression position.
type Subquery struct {
	Query *Query
}

// AnyExpr is ANY var IN source SATISFIES predicate.
type AnyExpr struct {
	Var       string
	Source    Expression
	Predicate Expression
}

// AllExpr is ALL var IN source SATISFIES predicate.
type AllExpr struct {
	Var       string
	Source    Expression
	Predicate Expression
}

// SimilarityCall is the hybrid vector predicate SIMILARITY(...).
type SimilarityCall struct {
	Args []Expression
}

// ProximityCall is the hybrid geo predicate PROXIMITY(...).
type ProximityCall struct {
	Args []Expression
}

func (*Literal) exprNode()         {}
func (*Variable) exprNode()        {}
func (*FieldAccess) exprNode()     {}
func (*BinaryOp) exprNode()        {}
func (*UnaryOp) exprNode()         {}
func (*FunctionCall) exprNode()    {}
func (*ArrayLiteral) exprNode()    {}
func (*ObjectConstruct) exprNode() {}
func (*Subquery) exprNode()        {}
func (*AnyExpr) exprNode()         {}
func (*AllExpr) exprNode()         {}
func (*SimilarityCall) exprNode()  {}
func (*ProximityCall) exprNode()   {}

// Direction of a graph traversal.
type Direction int

const (
	DirectionOutbound Direction = iota
	DirectionInbound
	DirectionAny
)

func (d Direction) String() string {
	switch d {
	case DirectionOutbound:
		return "OUTBOUND"
	case DirectionInbound:
		return "INBOUND"
	}
	return "ANY"
}

// ForNode is FOR variable IN collection. For a traversal FOR, the parser
// emits a synthetic node with Collection set to "graph" and attaches the
// detail to Query.Traversal.
type ForNode struct {
	Variable   string
	Collection string
}

// TraversalNode describes FOR v[, e[, p]] IN min..max DIRECTION start
// [TYPE t] GRAPH name, plus an optional trailing SHORTEST_PATH TO target.
type TraversalNode struct {
	VertexVar          string
	EdgeVar            string
	PathVar            string
	MinDepth           int
	MaxDepth           int
	Direction          Direction
	StartVertex        string
	GraphName          string
	EdgeType           string
	ShortestPath       bool
	ShortestPathTarget string
}

// LetNode is LET variable = expression. LETs evaluate sequentially: later
// bindings may reference earlier ones.
type LetNode struct {
	Variable   string
	Expression Expression
}

// FilterNode is a single FILTER clause. Multiple FILTER clauses are
// implicitly AND-ed by the translator, not by the parser.
type FilterNode struct {
	Condition Expression
}

// SortSpec is one SORT item.
type SortSpec struct {
	Expression Expression
	Ascending  bool
}

// SortNode is SORT spec (, spec)*.
type SortNode struct {
	Specs []SortSpec
}

// LimitNode is LIMIT count or LIMIT offset, count.
type LimitNode struct {
	Offset int64
	Count  int64
}

// CollectGroup is one COLLECT group binding: variable = expression.
type CollectGroup struct {
	Variable   string
	Expression Expression
}

// Aggregation is one AGGREGATE binding: variable = FUNC(argument?).
// Func is one of COUNT, SUM, AVG, MIN, MAX (original casing preserved).
type Aggregation struct {
	Variable string
	Func     string
	Argument Expression
}

// CollectNode is COLLECT [var = expr] [AGGREGATE var = FUNC(expr?), ...].
type CollectNode struct {
	Groups       []CollectGroup
	Aggregations []Aggregation
}

// ReturnNode is RETURN expression.
type ReturnNode struct {
	Expression Expression
}

// CTEDefinition is one WITH entry: name AS ( subquery ).
type CTEDefinition struct {
	Name     string
	Subquery *Query
}

// WithNode is the ordered CTE list of a WITH clause.
type WithNode struct {
	CTEs []CTEDefinition
}

// Query is the root AST node.
//
// For duplicates the first entry of ForNodes as a single-table shortcut.
// If Traversal is set, ForNodes holds exactly one synthetic entry with
// Collection "graph".
type Query struct {
	With      *WithNode
	For       ForNode
	ForNodes  []ForNode
	LetNodes  []LetNode
	Filters   []FilterNode
	Sort      *SortNode
	Limit     *LimitNode
	Collect   *CollectNode
	Return    *ReturnNode
	Traversal *TraversalNode
}

// ---------------------------------------------------------------------------
// JSON serialization
// ---------------------------------------------------------------------------

func (e *Literal) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type"`
		Value any    `json:"value"`
	}{"literal", e.Value})
}

func (e *Variable) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}{"variable", e.Name})
}

func (e *FieldAccess) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string     `json:"type"`
		Object Expression `json:"object"`
		Field  string     `json:"field"`
	}{"field_access", e.Object, e.Field})
}

func (e *BinaryOp) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string     `json:"type"`
		Operator string     `json:"operator"`
		Left     Expression `json:"left"`
		Right    Expression `json:"right"`
	}{"binary_op", e.Op.String(), e.Left, e.Right})
}

func (e *UnaryOp) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string     `json:"type"`
		Operator string     `json:"operator"`
		Operand  Expression `json:"operand"`
	}{"unary_op", e.Op.String(), e.Operand})
}

func (e *FunctionCall) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string       `json:"type"`
		Name      string       `json:"name"`
		Arguments []Expression `json:"arguments"`
	}{"function_call", e.Name, e.Args})
}

func (e *ArrayLiteral) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string       `json:"type"`
		Elements []Expression `json:"elements"`
	}{"array_literal", e.Elements})
}

func (e *ObjectConstruct) MarshalJSON() ([]byte, error) {
	fields := make(map[string]Expression, len(e.Fields))
	for _, f := range e.Fields {
		fields[f.Key] = f.Value
	}
	return json.Marshal(struct {
		Type   string                `json:"type"`
		Fields map[string]Expression `json:"fields"`
	}{"object_construct", fields})
}

func (e *Subquery) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type"`
		Query *Query `json:"query"`
	}{"subquery", e.Query})
}

func (e *AnyExpr) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string     `json:"type"`
		Var       string     `json:"var"`
		Source    Expression `json:"source"`
		Predicate Expression `json:"predicate"`
	}{"any_satisfies", e.Var, e.Source, e.Predicate})
}

func (e *AllExpr) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string     `json:"type"`
		Var       string     `json:"var"`
		Source    Expression `json:"source"`
		Predicate Expression `json:"predicate"`
	}{"all_satisfies", e.Var, e.Source, e.Predicate})
}

func (e *SimilarityCall) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string       `json:"type"`
		Arguments []Expression `json:"arguments"`
	}{"similarity_call", e.Args})
}

func (e *ProximityCall) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string       `json:"type"`
		Arguments []Expression `json:"arguments"`
	}{"proximity_call", e.Args})
}

func (n ForNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       string `json:"type"`
		Variable   string `json:"variable"`
		Collection string `json:"collection"`
	}{"for", n.Variable, n.Collection})
}

func (n *TraversalNode) MarshalJSON() ([]byte, error) {
	type alias struct {
		Type               string `json:"type"`
		VertexVar          string `json:"varVertex"`
		EdgeVar            string `json:"varEdge,omitempty"`
		PathVar            string `json:"varPath,omitempty"`
		MinDepth           int    `json:"minDepth"`
		MaxDepth           int    `json:"maxDepth"`
		Direction          string `json:"direction"`
		StartVertex        string `json:"startVertex"`
		GraphName          string `json:"graphName"`
		EdgeType           string `json:"edgeType,omitempty"`
		ShortestPath       bool   `json:"shortestPath,omitempty"`
		ShortestPathTarget string `json:"shortestPathTarget,omitempty"`
	}
	return json.Marshal(alias{
		"traversal", n.VertexVar, n.EdgeVar, n.PathVar, n.MinDepth,
		n.MaxDepth, n.Direction.String(), n.StartVertex, n.GraphName,
		n.EdgeType, n.ShortestPath, n.ShortestPathTarget,
	})
}

func (n LetNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       string     `json:"type"`
		Variable   string     `json:"variable"`
		Expression Expression `json:"expression"`
	}{"let", n.Variable, n.Expression})
}

func (n FilterNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string     `json:"type"`
		Condition Expression `json:"condition"`
	}{"filter", n.Condition})
}

func (n *SortNode) MarshalJSON() ([]byte, error) {
	specs := make([]any, len(n.Specs))
	for i, s := range n.Specs {
		specs[i] = struct {
			Expression Expression `json:"expression"`
			Ascending  bool       `json:"ascending"`
		}{s.Expression, s.Ascending}
	}
	return json.Marshal(struct {
		Type  string `json:"type"`
		Specs []any  `json:"specifications"`
	}{"sort", specs})
}

func (n *LimitNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string `json:"type"`
		Offset int64  `json:"offset"`
		Count  int64  `json:"count"`
	}{"limit", n.Offset, n.Count})
}

func (n *CollectNode) MarshalJSON() ([]byte, error) {
	groups := make([]any, len(n.Groups))
	for i, g := range n.Groups {
		groups[i] = struct {
			Var  string     `json:"var"`
			Expr Expression `json:"expr"`
		}{g.Variable, g.Expression}
	}
	aggs := make([]any, len(n.Aggregations))
	for i, a := range n.Aggregations {
		aggs[i] = struct {
			Var  string     `json:"var"`
			Func string     `json:"func"`
			Arg  Expression `json:"arg,omitempty"`
		}{a.Variable, a.Func, a.Argument}
	}
	return json.Marshal(struct {
		Type         string `json:"type"`
		Groups       []any  `json:"groups"`
		Aggregations []any  `json:"aggregations"`
	}{"collect", groups, aggs})
}

func (n *ReturnNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       string     `json:"type"`
		Expression Expression `json:"expression"`
	}{"return", n.Expression})
}

func (n *WithNode) MarshalJSON() ([]byte, error) {
	ctes := make([]any, len(n.CTEs))
	for i, c := range n.CTEs {
		ctes[i] = struct {
			Name     string `json:"name"`
			Subquery *Query `json:"subquery"`
		}{c.Name, c.Subquery}
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		CTEs []any  `json:"ctes"`
	}{"with", ctes})
}

func (q *Query) MarshalJSON() ([]byte, error) {
	type alias struct {
		Type      string         `json:"type"`
		With      *WithNode      `json:"with,omitempty"`
		For       ForNode        `json:"for"`
		ForNodes  []ForNode      `json:"forNodes,omitempty"`
		LetNodes  []LetNode      `json:"letNodes,omitempty"`
		Filters   []FilterNode   `json:"filters,omitempty"`
		Sort      *SortNode      `json:"sort,omitempty"`
		Limit     *LimitNode     `json:"limit,omitempty"`
		Collect   *CollectNode   `json:"collect,omitempty"`
		Return    *ReturnNode    `json:"return,omitempty"`
		Traversal *TraversalNode `json:"traversal,omitempty"`
	}
	return json.Marshal(alias{
		"query", q.With, q.For, q.ForNodes, q.LetNodes, q.Filters,
		q.Sort, q.Limit, q.Collect, q.Return, q.Traversal,
	})
}

// FormatLiteral renders a literal value the way the storage layer encodes
// index values: null, true/false, decimal integers, shortest-form floats,
// or the raw string.
func FormatLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	}
	return ""
}
