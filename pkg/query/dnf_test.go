package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themisdb/themis/pkg/aql"
)

func filterExpr(t *testing.T, condition string) aql.Expression {
	t.Helper()
	q, err := aql.Parse("FOR d IN t FILTER " + condition + " RETURN d")
	require.NoError(t, err)
	return q.Filters[0].Condition
}

func TestToDNF_OrUnions(t *testing.T) {
	disjuncts, err := ToDNF(filterExpr(t, `d.a == 1 OR d.b == 2 OR d.c == 3`), "t")
	require.NoError(t, err)
	require.Len(t, disjuncts, 3)
	assert.Equal(t, "a", disjuncts[0].Predicates[0].Column)
	assert.Equal(t, "b", disjuncts[1].Predicates[0].Column)
	assert.Equal(t, "c", disjuncts[2].Predicates[0].Column)
}

func TestToDNF_AndDistributes(t *testing.T) {
	disjuncts, err := ToDNF(filterExpr(t, `(d.a == 1 OR d.b == 2) AND (d.c == 3 OR d.e == 4)`), "t")
	require.NoError(t, err)
	require.Len(t, disjuncts, 4, "cartesian product of 2x2")
	for _, d := range disjuncts {
		assert.Len(t, d.Predicates, 2)
	}
	// First disjunct pairs the first branches of both sides.
	assert.Equal(t, "a", disjuncts[0].Predicates[0].Column)
	assert.Equal(t, "c", disjuncts[0].Predicates[1].Column)
}

func TestToDNF_MixedPredicateKinds(t *testing.T) {
	disjuncts, err := ToDNF(filterExpr(t, `d.age > 18 AND d.city == "Oslo" OR d.vip == true`), "t")
	require.NoError(t, err)
	require.Len(t, disjuncts, 2)
	assert.Len(t, disjuncts[0].RangePredicates, 1)
	assert.Len(t, disjuncts[0].Predicates, 1)
	assert.Equal(t, "true", disjuncts[1].Predicates[0].Value)
}

func TestToDNF_FulltextLeaf(t *testing.T) {
	disjuncts, err := ToDNF(filterExpr(t, `FULLTEXT(d.body, "go") OR d.pinned == true`), "t")
	require.NoError(t, err)
	require.Len(t, disjuncts, 2)
	require.NotNil(t, disjuncts[0].Fulltext)
	assert.Equal(t, "go", disjuncts[0].Fulltext.Query)
	assert.Nil(t, disjuncts[1].Fulltext)
}

func TestToDNF_FulltextConflict(t *testing.T) {
	_, err := ToDNF(filterExpr(t, `FULLTEXT(d.a, "x") AND FULLTEXT(d.b, "y")`), "t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot combine multiple FULLTEXT() predicates in AND")
}

func TestToDNF_FulltextConflictOnlyWithinConjunct(t *testing.T) {
	disjuncts, err := ToDNF(filterExpr(t, `FULLTEXT(d.a, "x") OR FULLTEXT(d.b, "y")`), "t")
	require.NoError(t, err)
	assert.Len(t, disjuncts, 2, "OR of two FULLTEXT calls is fine")
}

func TestToDNF_UnsupportedNotBecomesPostFilter(t *testing.T) {
	// A NOT that survived rewriting contributes a neutral conjunct.
	expr := filterExpr(t, `NOT d.archived AND d.a == 1 OR d.b == 2`)
	form, _ := aql.RewriteNegations(expr)
	disjuncts, err := ToDNF(form, "t")
	require.NoError(t, err)
	require.Len(t, disjuncts, 2)
	require.Len(t, disjuncts[0].PostFilter, 1)
	assert.Len(t, disjuncts[0].Predicates, 1)
	assert.Empty(t, disjuncts[1].PostFilter)
}

func TestToDNF_Errors(t *testing.T) {
	bad := []string{
		`d.a == 1 XOR d.b == 2`,
		`d.a != 1`,
		`LOWER(d.a)`,
	}
	for _, condition := range bad {
		_, err := ToDNF(filterExpr(t, condition), "t")
		assert.Error(t, err, condition)
	}
}
