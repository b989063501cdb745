// Package aql provides the AQL query compiler front end for ThemisDB:
// tokenizer, recursive descent parser, negation rewriter, and a pure
// expression evaluator. The pipeline is synchronous and allocation-local;
// concurrent callers may parse independent queries without synchronization.
package aql

// TokenKind identifies the lexical class of a token.
type TokenKind int

const (
	// Keywords (matched case-insensitively)
	TokenFor TokenKind = iota
	TokenIn
	TokenFilter
	TokenSort
	TokenLimit
	TokenReturn
	TokenLet
	TokenAsc
	TokenDesc
	TokenAnd
	TokenOr
	TokenXor
	TokenNot
	TokenGraph
	TokenOutbound
	TokenInbound
	TokenAny
	TokenType
	TokenCollect
	TokenAggregate
	TokenTrue
	TokenFalse
	TokenNull
	TokenSimilarity
	TokenProximity
	TokenShortestPath
	TokenTo
	TokenWith
	TokenAs
	TokenAll
	TokenSatisfies

	// Operators
	TokenEq      // ==
	TokenNeq     // !=
	TokenLt      // <
	TokenLte     // <=
	TokenGt      // >
	TokenGte     // >=
	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // *
	TokenSlash   // /
	TokenPercent // %
	TokenAssign  // = (COLLECT var = expr, LET var = expr)

	// Literals
	TokenIdent
	TokenString
	TokenInteger
	TokenFloat

	// Punctuation
	TokenDot
	TokenComma
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenColon

	// End of input. Always the last token in a stream.
	TokenEOF

	// Lexical error carrier. Tokenization never fails; the parser rejects
	// streams containing invalid tokens with their position.
	TokenInvalid
)

var tokenKindNames = map[TokenKind]string{
	TokenFor: "FOR", TokenIn: "IN", TokenFilter: "FILTER", TokenSort: "SORT",
	TokenLimit: "LIMIT", TokenReturn: "RETURN", TokenLet: "LET",
	TokenAsc: "ASC", TokenDesc: "DESC", TokenAnd: "AND", TokenOr: "OR",
	TokenXor: "XOR", TokenNot: "NOT", TokenGraph: "GRAPH",
	TokenOutbound: "OUTBOUND", TokenInbound: "INBOUND", TokenAny: "ANY",
	TokenType: "TYPE", TokenCollect: "COLLECT", TokenAggregate: "AGGREGATE",
	TokenTrue: "TRUE", TokenFalse: "FALSE", TokenNull: "NULL",
	TokenSimilarity: "SIMILARITY", TokenProximity: "PROXIMITY",
	TokenShortestPath: "SHORTEST_PATH", TokenTo: "TO", TokenWith: "WITH",
	TokenAs: "AS", TokenAll: "ALL", TokenSatisfies: "SATISFIES",
	TokenEq: "==", TokenNeq: "!=", TokenLt: "<", TokenLte: "<=",
	TokenGt: ">", TokenGte: ">=", TokenPlus: "+", TokenMinus: "-",
	TokenStar: "*", TokenSlash: "/", TokenPercent: "%", TokenAssign: "=",
	TokenIdent: "identifier", TokenString: "string", TokenInteger: "integer",
	TokenFloat: "float", TokenDot: ".", TokenComma: ",", TokenLParen: "(",
	TokenRParen: ")", TokenLBrace: "{", TokenRBrace: "}",
	TokenLBracket: "[", TokenRBracket: "]", TokenColon: ":",
	TokenEOF: "end of query", TokenInvalid: "invalid token",
}

// String returns a human-readable name for the token kind, used in
// syntax error messages.
func (k TokenKind) String() string {
	if s, ok := tokenKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Token is a single lexical unit with its source position.
// Text preserves the original casing of keywords and identifiers.
type Token struct {
	Kind   TokenKind
	Text   string
	Line   int
	Column int
}

// keywords maps lower-cased identifier text to keyword token kinds.
var keywords = map[string]TokenKind{
	"for":           TokenFor,
	"in":            TokenIn,
	"filter":        TokenFilter,
	"sort":          TokenSort,
	"limit":         TokenLimit,
	"return":        TokenReturn,
	"let":           TokenLet,
	"asc":           TokenAsc,
	"desc":          TokenDesc,
	"and":           TokenAnd,
	"or":            TokenOr,
	"xor":           TokenXor,
	"not":           TokenNot,
	"graph":         TokenGraph,
	"outbound":      TokenOutbound,
	"inbound":       TokenInbound,
	"any":           TokenAny,
	"type":          TokenType,
	"collect":       TokenCollect,
	"aggregate":     TokenAggregate,
	"true":          TokenTrue,
	"false":         TokenFalse,
	"null":          TokenNull,
	"similarity":    TokenSimilarity,
	"proximity":     TokenProximity,
	"shortest_path": TokenShortestPath,
	"to":            TokenTo,
	"with":          TokenWith,
	"as":            TokenAs,
	"all":           TokenAll,
	"satisfies":     TokenSatisfies,
}
