// Recursive descent parser for AQL.
//
// Clause order is fixed:
//
//	[WITH cte (, cte)*]
//	FOR ... (FOR ...)*
//	[LET ...]* [FILTER ...]* [SORT ...] [LIMIT ...] [COLLECT ...]
//	[RETURN ...] [SHORTEST_PATH TO target]
//
// Expression precedence, lowest to highest: OR/XOR, AND, comparison
// (==, !=, <, <=, >, >=, IN), additive, multiplicative, unary (NOT, -),
// postfix field access, primary.
//
// Example:
//
//	q, err := aql.Parse(`FOR u IN users FILTER u.age > 18 RETURN u.name`)
//	if err != nil {
//	    var syntaxErr *aql.SyntaxError
//	    errors.As(err, &syntaxErr) // carries line/column and the query text
//	}
package aql

import (
	"fmt"
	"strconv"
)

// SyntaxError reports a lexical or syntactic error with its position and
// the original query text for diagnostics.
type SyntaxError struct {
	Message string
	Line    int
	Column  int
	Query   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// parser is a transient, single-invocation cursor over the token stream.
type parser struct {
	tokens []Token
	pos    int
	query  string
}

// Parse tokenizes and parses a query string into an AST. The returned error
// is always a *SyntaxError. Before structural parsing, the token stream is
// scanned for invalid tokens and rejected immediately with their position.
func Parse(text string) (*Query, error) {
	tokens := Tokenize(text)
	for _, tok := range tokens {
		if tok.Kind == TokenInvalid {
			return nil, &SyntaxError{
				Message: "invalid token: " + tok.Text,
				Line:    tok.Line,
				Column:  tok.Column,
				Query:   text,
			}
		}
	}

	p := &parser{tokens: tokens, query: text}
	q, err := p.parseQuery(true)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (p *parser) current() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *parser) peek(offset int) Token {
	idx := p.pos + offset
	if idx < len(p.tokens) {
		return p.tokens[idx]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *parser) match(kind TokenKind) bool {
	return p.current().Kind == kind
}

func (p *parser) expect(kind TokenKind, msg string) error {
	if !p.match(kind) {
		return p.errorf("%s", msg)
	}
	p.advance()
	return nil
}

// errorf builds a SyntaxError at the current token's position.
func (p *parser) errorf(format string, args ...any) error {
	tok := p.current()
	return &SyntaxError{
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Column,
		Query:   p.query,
	}
}

// identText returns the current token's text when it can serve as an
// identifier. Keywords are permitted where the grammar is unambiguous
// (field names, object keys), so documents may have fields like "type".
func (p *parser) identText() (string, bool) {
	tok := p.current()
	if tok.Kind == TokenIdent {
		return tok.Text, true
	}
	if _, isKeyword := keywords[lowerASCII(tok.Text)]; isKeyword && tok.Text != "" {
		return tok.Text, true
	}
	return "", false
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

// parseQuery parses a full query. When topLevel is false the query is a
// subquery: parsing stops at the closing ')' without consuming it.
func (p *parser) parseQuery(topLevel bool) (*Query, error) {
	q := &Query{}

	if p.match(TokenWith) {
		with, err := p.parseWithClause()
		if err != nil {
			return nil, err
		}
		q.With = with
	}

	forNode, traversal, err := p.parseForClause()
	if err != nil {
		return nil, err
	}
	q.ForNodes = append(q.ForNodes, forNode)
	q.Traversal = traversal

	for p.match(TokenFor) {
		if q.Traversal != nil {
			return nil, p.errorf("graph traversal cannot be combined with additional FOR clauses")
		}
		forNode, traversal, err = p.parseForClause()
		if err != nil {
			return nil, err
		}
		if traversal != nil {
			return nil, p.errorf("graph traversal must be the only FOR clause")
		}
		q.ForNodes = append(q.ForNodes, forNode)
	}
	q.For = q.ForNodes[0]

	for p.match(TokenLet) {
		let, err := p.parseLetClause()
		if err != nil {
			return nil, err
		}
		q.LetNodes = append(q.LetNodes, let)
	}

	for p.match(TokenFilter) {
		p.advance()
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		q.Filters = append(q.Filters, FilterNode{Condition: cond})
	}

	if p.match(TokenSort) {
		sort, err := p.parseSortClause()
		if err != nil {
			return nil, err
		}
		q.Sort = sort
	}

	if p.match(TokenLimit) {
		limit, err := p.parseLimitClause()
		if err != nil {
			return nil, err
		}
		q.Limit = limit
	}

	if p.match(TokenCollect) {
		collect, err := p.parseCollectClause()
		if err != nil {
			return nil, err
		}
		q.Collect = collect
	}

	if p.match(TokenReturn) {
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		q.Return = &ReturnNode{Expression: expr}
	}

	if p.match(TokenShortestPath) {
		if q.Traversal == nil {
			return nil, p.errorf("SHORTEST_PATH requires a graph traversal clause")
		}
		p.advance()
		if err := p.expect(TokenTo, "expected TO after SHORTEST_PATH"); err != nil {
			return nil, err
		}
		switch p.current().Kind {
		case TokenString, TokenIdent:
			q.Traversal.ShortestPath = true
			q.Traversal.ShortestPathTarget = p.current().Text
			p.advance()
		default:
			return nil, p.errorf("expected target vertex after SHORTEST_PATH TO")
		}
	}

	if topLevel {
		if err := p.expect(TokenEOF, "expected end of query"); err != nil {
			return nil, err
		}
	} else if !p.match(TokenRParen) {
		return nil, p.errorf("expected ')' to close subquery")
	}

	return q, nil
}

// parseWithClause parses WITH name AS ( subquery ) (, name AS (subquery))*.
// Each subquery is a full recursive parse.
func (p *parser) parseWithClause() (*WithNode, error) {
	if err := p.expect(TokenWith, "expected WITH"); err != nil {
		return nil, err
	}

	with := &WithNode{}
	for {
		if !p.match(TokenIdent) {
			return nil, p.errorf("expected CTE name after WITH")
		}
		name := p.current().Text
		p.advance()

		if err := p.expect(TokenAs, "expected AS after CTE name"); err != nil {
			return nil, err
		}
		if err := p.expect(TokenLParen, "expected '(' to open CTE subquery"); err != nil {
			return nil, err
		}
		sub, err := p.parseQuery(false)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen, "expected ')' to close CTE subquery"); err != nil {
			return nil, err
		}
		with.CTEs = append(with.CTEs, CTEDefinition{Name: name, Subquery: sub})

		if !p.match(TokenComma) {
			break
		}
		p.advance()
	}
	return with, nil
}

// parseForClause parses FOR var [, edgeVar [, pathVar]] IN followed by
// either a collection identifier or a depth-range graph traversal. For a
// traversal the returned ForNode carries the sentinel collection "graph".
func (p *parser) parseForClause() (ForNode, *TraversalNode, error) {
	var none ForNode
	if err := p.expect(TokenFor, "expected FOR"); err != nil {
		return none, nil, err
	}

	if !p.match(TokenIdent) {
		return none, nil, p.errorf("expected variable name after FOR")
	}
	vertexVar := p.current().Text
	p.advance()

	var edgeVar, pathVar string
	if p.match(TokenComma) {
		p.advance()
		if !p.match(TokenIdent) {
			return none, nil, p.errorf("expected edge variable name after ','")
		}
		edgeVar = p.current().Text
		p.advance()
		if p.match(TokenComma) {
			p.advance()
			if !p.match(TokenIdent) {
				return none, nil, p.errorf("expected path variable name after second ','")
			}
			pathVar = p.current().Text
			p.advance()
		}
	}

	if err := p.expect(TokenIn, "expected IN"); err != nil {
		return none, nil, err
	}

	// Relational iteration over a named collection.
	if p.match(TokenIdent) {
		node := ForNode{Variable: vertexVar, Collection: p.current().Text}
		p.advance()
		return node, nil, nil
	}

	// Graph traversal: INTEGER '..' INTEGER DIRECTION STRING [TYPE STRING]
	// GRAPH STRING. The depth range must be two adjacent DOT tokens.
	if p.match(TokenInteger) {
		minDepth, err := p.parseIntToken("traversal depth")
		if err != nil {
			return none, nil, err
		}
		if !p.match(TokenDot) || p.peek(1).Kind != TokenDot {
			return none, nil, p.errorf("expected '..' in traversal depth range")
		}
		p.advance()
		p.advance()
		if !p.match(TokenInteger) {
			return none, nil, p.errorf("expected max depth integer after '..'")
		}
		maxDepth, err := p.parseIntToken("traversal depth")
		if err != nil {
			return none, nil, err
		}
		if minDepth > maxDepth {
			return none, nil, p.errorf("traversal depth range invalid: min %d exceeds max %d", minDepth, maxDepth)
		}

		var direction Direction
		switch p.current().Kind {
		case TokenOutbound:
			direction = DirectionOutbound
		case TokenInbound:
			direction = DirectionInbound
		case TokenAny:
			direction = DirectionAny
		default:
			return none, nil, p.errorf("expected OUTBOUND, INBOUND or ANY in traversal")
		}
		p.advance()

		if !p.match(TokenString) {
			return none, nil, p.errorf("expected start vertex string literal in traversal")
		}
		startVertex := p.current().Text
		p.advance()

		var edgeType string
		if p.match(TokenType) {
			p.advance()
			if !p.match(TokenString) {
				return none, nil, p.errorf("expected edge type string literal after TYPE")
			}
			edgeType = p.current().Text
			p.advance()
		}

		if err := p.expect(TokenGraph, "expected GRAPH keyword in traversal"); err != nil {
			return none, nil, err
		}
		if !p.match(TokenString) {
			return none, nil, p.errorf("expected graph name string literal after GRAPH")
		}
		graphName := p.current().Text
		p.advance()

		traversal := &TraversalNode{
			VertexVar:   vertexVar,
			EdgeVar:     edgeVar,
			PathVar:     pathVar,
			MinDepth:    minDepth,
			MaxDepth:    maxDepth,
			Direction:   direction,
			StartVertex: startVertex,
			GraphName:   graphName,
			EdgeType:    edgeType,
		}
		return ForNode{Variable: vertexVar, Collection: "graph"}, traversal, nil
	}

	return none, nil, p.errorf("expected collection name or traversal after IN")
}

// parseIntToken consumes the current INTEGER token.
func (p *parser) parseIntToken(what string) (int, error) {
	n, err := strconv.Atoi(p.current().Text)
	if err != nil {
		return 0, p.errorf("invalid %s integer %q", what, p.current().Text)
	}
	p.advance()
	return n, nil
}

// parseLetClause parses LET var = expr.
func (p *parser) parseLetClause() (LetNode, error) {
	var none LetNode
	if err := p.expect(TokenLet, "expected LET"); err != nil {
		return none, err
	}
	if !p.match(TokenIdent) {
		return none, p.errorf("expected variable name after LET")
	}
	name := p.current().Text
	p.advance()
	if err := p.expect(TokenAssign, "expected '=' after LET variable"); err != nil {
		return none, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return none, err
	}
	return LetNode{Variable: name, Expression: expr}, nil
}

// parseSortClause parses SORT expr [ASC|DESC] (, expr [ASC|DESC])*.
func (p *parser) parseSortClause() (*SortNode, error) {
	if err := p.expect(TokenSort, "expected SORT"); err != nil {
		return nil, err
	}

	sort := &SortNode{}
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		spec := SortSpec{Expression: expr, Ascending: true}
		if p.match(TokenAsc) {
			p.advance()
		} else if p.match(TokenDesc) {
			p.advance()
			spec.Ascending = false
		}
		sort.Specs = append(sort.Specs, spec)

		if !p.match(TokenComma) {
			break
		}
		p.advance()
	}
	return sort, nil
}

// parseLimitClause parses LIMIT count or LIMIT offset, count.
func (p *parser) parseLimitClause() (*LimitNode, error) {
	if err := p.expect(TokenLimit, "expected LIMIT"); err != nil {
		return nil, err
	}
	if !p.match(TokenInteger) {
		return nil, p.errorf("expected integer after LIMIT")
	}
	first, err := strconv.ParseInt(p.current().Text, 10, 64)
	if err != nil {
		return nil, p.errorf("invalid LIMIT integer %q", p.current().Text)
	}
	p.advance()

	if p.match(TokenComma) {
		p.advance()
		if !p.match(TokenInteger) {
			return nil, p.errorf("expected integer after comma in LIMIT")
		}
		second, err := strconv.ParseInt(p.current().Text, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid LIMIT integer %q", p.current().Text)
		}
		p.advance()
		return &LimitNode{Offset: first, Count: second}, nil
	}
	return &LimitNode{Count: first}, nil
}

// parseCollectClause parses COLLECT [var = expr]
// [AGGREGATE var = FUNC(expr?) (, var = FUNC(expr?))*].
func (p *parser) parseCollectClause() (*CollectNode, error) {
	if err := p.expect(TokenCollect, "expected COLLECT"); err != nil {
		return nil, err
	}
	node := &CollectNode{}

	if !p.match(TokenAggregate) {
		if !p.match(TokenIdent) {
			return nil, p.errorf("expected variable name after COLLECT")
		}
		name := p.current().Text
		p.advance()
		if err := p.expect(TokenAssign, "expected '=' after group variable in COLLECT"); err != nil {
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		node.Groups = append(node.Groups, CollectGroup{Variable: name, Expression: expr})
	}

	if p.match(TokenAggregate) {
		p.advance()
		for {
			if !p.match(TokenIdent) {
				return nil, p.errorf("expected aggregation variable name after AGGREGATE")
			}
			outVar := p.current().Text
			p.advance()
			if err := p.expect(TokenAssign, "expected '=' in aggregation assignment"); err != nil {
				return nil, err
			}
			if !p.match(TokenIdent) || !IsAggregateFunction(p.current().Text) {
				return nil, p.errorf("expected aggregation function name (COUNT, SUM, AVG, MIN, MAX)")
			}
			funcName := p.current().Text
			p.advance()
			if err := p.expect(TokenLParen, "expected '(' after aggregation function"); err != nil {
				return nil, err
			}
			var arg Expression
			if !p.match(TokenRParen) {
				var err error
				arg, err = p.parseExpression()
				if err != nil {
					return nil, err
				}
			}
			if err := p.expect(TokenRParen, "expected ')' to close aggregation function"); err != nil {
				return nil, err
			}
			node.Aggregations = append(node.Aggregations, Aggregation{
				Variable: outVar,
				Func:     funcName,
				Argument: arg,
			})

			if !p.match(TokenComma) {
				break
			}
			p.advance()
		}
	}
	return node, nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (p *parser) parseExpression() (Expression, error) {
	return p.parseLogicalOr()
}

func (p *parser) parseLogicalOr() (Expression, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.match(TokenOr) || p.match(TokenXor) {
		op := OpOr
		if p.match(TokenXor) {
			op = OpXor
		}
		p.advance()
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseLogicalAnd() (Expression, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.match(TokenAnd) {
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

var comparisonOps = map[TokenKind]BinaryOperator{
	TokenEq:  OpEq,
	TokenNeq: OpNeq,
	TokenLt:  OpLt,
	TokenLte: OpLte,
	TokenGt:  OpGt,
	TokenGte: OpGte,
	TokenIn:  OpIn,
}

// parseComparison parses a single, non-associative comparison.
func (p *parser) parseComparison() (Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if op, ok := comparisonOps[p.current().Kind]; ok {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &BinaryOp{Op: op, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *parser) parseAdditive() (Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.match(TokenPlus) || p.match(TokenMinus) {
		op := OpAdd
		if p.match(TokenMinus) {
			op = OpSub
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.match(TokenStar) || p.match(TokenSlash) || p.match(TokenPercent) {
		op := OpMul
		switch p.current().Kind {
		case TokenSlash:
			op = OpDiv
		case TokenPercent:
			op = OpMod
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expression, error) {
	if p.match(TokenNot) {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: OpNot, Operand: operand}, nil
	}
	if p.match(TokenMinus) {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: OpMinus, Operand: operand}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses chained field access: doc.field, doc.a.b.c.
// Keywords are legal field names after '.'.
func (p *parser) parsePostfix() (Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.match(TokenDot) {
		p.advance()
		field, ok := p.identText()
		if !ok {
			return nil, p.errorf("expected field name after '.'")
		}
		p.advance()
		expr = &FieldAccess{Object: expr, Field: field}
	}
	return expr, nil
}

func (p *parser) parsePrimary() (Expression, error) {
	switch p.current().Kind {
	case TokenLParen:
		// A parenthesized subquery starts with FOR or WITH; anything else
		// is a grouped expression.
		if k := p.peek(1).Kind; k == TokenFor || k == TokenWith {
			p.advance()
			sub, err := p.parseQuery(false)
			if err != nil {
				return nil, err
			}
			if err := p.expect(TokenRParen, "expected ')' to close subquery"); err != nil {
				return nil, err
			}
			return &Subquery{Query: sub}, nil
		}
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen, "expected ')'"); err != nil {
			return nil, err
		}
		return expr, nil

	case TokenLBracket:
		return p.parseArrayLiteral()

	case TokenLBrace:
		return p.parseObjectConstruct()

	case TokenString:
		value := p.current().Text
		p.advance()
		return &Literal{Value: value}, nil

	case TokenInteger:
		value, err := strconv.ParseInt(p.current().Text, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid integer literal %q", p.current().Text)
		}
		p.advance()
		return &Literal{Value: value}, nil

	case TokenFloat:
		value, err := strconv.ParseFloat(p.current().Text, 64)
		if err != nil {
			return nil, p.errorf("invalid float literal %q", p.current().Text)
		}
		p.advance()
		return &Literal{Value: value}, nil

	case TokenTrue:
		p.advance()
		return &Literal{Value: true}, nil

	case TokenFalse:
		p.advance()
		return &Literal{Value: false}, nil

	case TokenNull:
		p.advance()
		return &Literal{Value: nil}, nil

	case TokenAny, TokenAll:
		return p.parseQuantifier()

	case TokenSimilarity:
		p.advance()
		args, err := p.parseCallArgs("SIMILARITY")
		if err != nil {
			return nil, err
		}
		return &SimilarityCall{Args: args}, nil

	case TokenProximity:
		p.advance()
		args, err := p.parseCallArgs("PROXIMITY")
		if err != nil {
			return nil, err
		}
		return &ProximityCall{Args: args}, nil

	case TokenIdent:
		return p.parseIdentifierExpr()
	}

	return nil, p.errorf("unexpected token: %s", p.current().Text)
}

// parseQuantifier parses ANY|ALL var IN source SATISFIES predicate.
func (p *parser) parseQuantifier() (Expression, error) {
	isAll := p.match(TokenAll)
	p.advance()

	if !p.match(TokenIdent) {
		return nil, p.errorf("expected bound variable name after quantifier")
	}
	boundVar := p.current().Text
	p.advance()

	if err := p.expect(TokenIn, "expected IN in quantifier expression"); err != nil {
		return nil, err
	}
	source, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenSatisfies, "expected SATISFIES in quantifier expression"); err != nil {
		return nil, err
	}
	predicate, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if isAll {
		return &AllExpr{Var: boundVar, Source: source, Predicate: predicate}, nil
	}
	return &AnyExpr{Var: boundVar, Source: source, Predicate: predicate}, nil
}

// parseIdentifierExpr parses a plain variable, a function call, or a
// one-level dotted function call like GEO.DISTANCE(...).
func (p *parser) parseIdentifierExpr() (Expression, error) {
	name := p.current().Text

	// Dotted function name: IDENT '.' IDENT '(' — distinct from field
	// access by the trailing '('.
	if p.peek(1).Kind == TokenDot && p.peek(2).Kind == TokenIdent && p.peek(3).Kind == TokenLParen {
		p.advance()
		p.advance()
		name = name + "." + p.current().Text
		p.advance()
		args, err := p.parseCallArgs(name)
		if err != nil {
			return nil, err
		}
		return &FunctionCall{Name: name, Args: args}, nil
	}

	p.advance()
	if p.match(TokenLParen) {
		args, err := p.parseCallArgs(name)
		if err != nil {
			return nil, err
		}
		switch classifyFunction(name) {
		case funcSimilarity:
			return &SimilarityCall{Args: args}, nil
		case funcProximity:
			return &ProximityCall{Args: args}, nil
		}
		return &FunctionCall{Name: name, Args: args}, nil
	}
	return &Variable{Name: name}, nil
}

// parseCallArgs parses '(' [expr (, expr)*] ')'.
func (p *parser) parseCallArgs(name string) ([]Expression, error) {
	if err := p.expect(TokenLParen, "expected '(' after "+name); err != nil {
		return nil, err
	}
	var args []Expression
	if !p.match(TokenRParen) {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(TokenComma) {
				break
			}
			p.advance()
		}
	}
	if err := p.expect(TokenRParen, "expected ')' to close argument list"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parseArrayLiteral() (Expression, error) {
	if err := p.expect(TokenLBracket, "expected '['"); err != nil {
		return nil, err
	}
	arr := &ArrayLiteral{}
	if !p.match(TokenRBracket) {
		for {
			elem, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			arr.Elements = append(arr.Elements, elem)
			if !p.match(TokenComma) {
				break
			}
			p.advance()
		}
	}
	if err := p.expect(TokenRBracket, "expected ']' to close array literal"); err != nil {
		return nil, err
	}
	return arr, nil
}

// parseObjectConstruct parses {key: expr, ...}. Keys may be identifiers,
// keywords, or string literals.
func (p *parser) parseObjectConstruct() (Expression, error) {
	if err := p.expect(TokenLBrace, "expected '{'"); err != nil {
		return nil, err
	}
	obj := &ObjectConstruct{}
	if !p.match(TokenRBrace) {
		for {
			var key string
			if p.match(TokenString) {
				key = p.current().Text
			} else if text, ok := p.identText(); ok {
				key = text
			} else {
				return nil, p.errorf("expected object key")
			}
			p.advance()
			if err := p.expect(TokenColon, "expected ':' after object key"); err != nil {
				return nil, err
			}
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			obj.Fields = append(obj.Fields, ObjectField{Key: key, Value: value})
			if !p.match(TokenComma) {
				break
			}
			p.advance()
		}
	}
	if err := p.expect(TokenRBrace, "expected '}' to close object"); err != nil {
		return nil, err
	}
	return obj, nil
}
