package aql

import "strings"

// functionClass distinguishes function names the compiler treats specially.
// All name matching is case-insensitive and funnels through this single
// table so the parser, translator, and evaluator cannot drift apart.
type functionClass int

const (
	funcGeneric functionClass = iota
	funcFulltext
	funcSimilarity
	funcProximity
)

var specialFunctions = map[string]functionClass{
	"fulltext":   funcFulltext,
	"similarity": funcSimilarity,
	"proximity":  funcProximity,
}

// ClassifyFunction reports how a function name is specialized by the
// compiler. IsFulltextCall is the variant most callers need.
func classifyFunction(name string) functionClass {
	if c, ok := specialFunctions[strings.ToLower(name)]; ok {
		return c
	}
	return funcGeneric
}

// IsFulltextCall reports whether the expression is a FULLTEXT(...) call,
// matched case-insensitively.
func IsFulltextCall(expr Expression) bool {
	call, ok := expr.(*FunctionCall)
	return ok && classifyFunction(call.Name) == funcFulltext
}

// aggregateFunctions lists the functions legal after AGGREGATE, keyed by
// lower-cased name.
var aggregateFunctions = map[string]struct{}{
	"count": {},
	"sum":   {},
	"avg":   {},
	"min":   {},
	"max":   {},
}

// IsAggregateFunction reports whether name is a valid AGGREGATE function
// (COUNT, SUM, AVG, MIN, MAX), matched case-insensitively.
func IsAggregateFunction(name string) bool {
	_, ok := aggregateFunctions[strings.ToLower(name)]
	return ok
}
