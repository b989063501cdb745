package query

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/themisdb/themis/pkg/aql"
)

// Randomized check that DNF conversion is semantics-preserving: a document
// satisfies the OR of the produced conjuncts exactly when it satisfies the
// original filter. Leaves stay within the push-down subset (no NEQ) so
// every generated tree converts; NOT nodes are eliminated by the negation
// rewrite first, as in the translator.

var dnfFields = []string{"a", "b", "c"}

func randDNFLeaf(rng *rand.Rand) aql.Expression {
	ops := []aql.BinaryOperator{aql.OpEq, aql.OpLt, aql.OpLte, aql.OpGt, aql.OpGte}
	return &aql.BinaryOp{
		Op: ops[rng.Intn(len(ops))],
		Left: &aql.FieldAccess{
			Object: &aql.Variable{Name: "d"},
			Field:  dnfFields[rng.Intn(len(dnfFields))],
		},
		Right: &aql.Literal{Value: int64(rng.Intn(10))},
	}
}

func randDNFExpr(rng *rand.Rand, depth int) aql.Expression {
	if depth == 0 || rng.Intn(3) == 0 {
		return randDNFLeaf(rng)
	}
	switch rng.Intn(3) {
	case 0:
		return &aql.BinaryOp{Op: aql.OpAnd, Left: randDNFExpr(rng, depth-1), Right: randDNFExpr(rng, depth-1)}
	case 1:
		return &aql.BinaryOp{Op: aql.OpOr, Left: randDNFExpr(rng, depth-1), Right: randDNFExpr(rng, depth-1)}
	}
	return &aql.UnaryOp{Op: aql.OpNot, Operand: randDNFExpr(rng, depth-1)}
}

func randDNFDoc(rng *rand.Rand) map[string]any {
	doc := make(map[string]any, len(dnfFields))
	for _, f := range dnfFields {
		doc[f] = int64(rng.Intn(10))
	}
	return doc
}

func TestToDNF_PreservesSemantics(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 300; i++ {
		expr := randDNFExpr(rng, 3)
		form, supported := aql.RewriteNegations(expr)
		require.True(t, supported, "case %d", i)

		disjuncts, err := toDNF(form, "t", DefaultLimits())
		require.NoError(t, err, "case %d", i)

		for j := 0; j < 20; j++ {
			doc := randDNFDoc(rng)
			want, err := aql.EvaluatePredicate(expr, aql.Bindings{"d": doc})
			require.NoError(t, err, "case %d", i)

			got := false
			for k := range disjuncts {
				ok, err := matchesConjunct(&disjuncts[k], doc)
				require.NoError(t, err, "case %d", i)
				if ok {
					got = true
					break
				}
			}
			require.Equal(t, want, got, "case %d: DNF disagrees with original on %v", i, doc)
		}
	}
}
