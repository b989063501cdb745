package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themisdb/themis/pkg/aql"
	"github.com/themisdb/themis/pkg/storage"
)

func newTestExecutor(t *testing.T) (*Executor, *storage.Store) {
	t.Helper()
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewExecutor(store, nil), store
}

func seedUsers(t *testing.T, store *storage.Store) {
	t.Helper()
	users := map[string]map[string]any{
		"alice": {"name": "Alice", "age": 30, "city": "Oslo", "bio": "database engineer and climber"},
		"bob":   {"name": "Bob", "age": 17, "city": "Bergen", "bio": "student"},
		"carol": {"name": "Carol", "age": 41, "city": "Oslo", "bio": "distributed systems engineer"},
		"dave":  {"name": "Dave", "age": 25, "city": "Oslo", "bio": "barista"},
	}
	for key, fields := range users {
		require.NoError(t, store.PutDocument("users", key, fields))
	}
}

func runQuery(t *testing.T, e *Executor, text string) []any {
	t.Helper()
	q, err := aql.Parse(text)
	require.NoError(t, err)
	results, err := e.Run(context.Background(), q)
	require.NoError(t, err)
	return results
}

func names(results []any) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		switch v := r.(type) {
		case string:
			out = append(out, v)
		case map[string]any:
			if name, ok := v["name"].(string); ok {
				out = append(out, name)
			}
		}
	}
	return out
}

func TestExecutor_EqualityFilter(t *testing.T) {
	e, store := newTestExecutor(t)
	seedUsers(t, store)

	results := runQuery(t, e, `FOR u IN users FILTER u.city == "Oslo" RETURN u.name`)
	assert.ElementsMatch(t, []string{"Alice", "Carol", "Dave"}, names(results))
}

func TestExecutor_RangeFilter(t *testing.T) {
	e, store := newTestExecutor(t)
	seedUsers(t, store)

	results := runQuery(t, e, `FOR u IN users FILTER u.age > 18 AND u.age <= 30 RETURN u.name`)
	assert.ElementsMatch(t, []string{"Alice", "Dave"}, names(results))
}

func TestExecutor_SortAndLimit(t *testing.T) {
	e, store := newTestExecutor(t)
	seedUsers(t, store)

	results := runQuery(t, e, `FOR u IN users SORT u.age DESC LIMIT 2 RETURN u.name`)
	assert.Equal(t, []string{"Carol", "Alice"}, names(results))

	results = runQuery(t, e, `FOR u IN users SORT u.age ASC LIMIT 1, 2 RETURN u.name`)
	assert.Equal(t, []string{"Dave", "Alice"}, names(results), "offset skips the youngest")
}

func TestExecutor_Disjunction(t *testing.T) {
	e, store := newTestExecutor(t)
	seedUsers(t, store)

	results := runQuery(t, e, `FOR u IN users FILTER u.city == "Bergen" OR u.age > 40 RETURN u.name`)
	assert.ElementsMatch(t, []string{"Bob", "Carol"}, names(results))
}

func TestExecutor_DisjunctionDeduplicates(t *testing.T) {
	e, store := newTestExecutor(t)
	seedUsers(t, store)

	// Carol matches both branches but appears once.
	results := runQuery(t, e, `FOR u IN users FILTER u.city == "Oslo" OR u.age > 40 RETURN u.name`)
	assert.ElementsMatch(t, []string{"Alice", "Carol", "Dave"}, names(results))
}

func TestExecutor_Fulltext(t *testing.T) {
	e, store := newTestExecutor(t)
	seedUsers(t, store)

	results := runQuery(t, e, `FOR u IN users FILTER FULLTEXT(u.bio, "engineer") RETURN u.name`)
	assert.ElementsMatch(t, []string{"Alice", "Carol"}, names(results))

	results = runQuery(t, e, `FOR u IN users FILTER FULLTEXT(u.bio, "engineer") AND u.age > 35 RETURN u.name`)
	assert.Equal(t, []string{"Carol"}, names(results))
}

func TestExecutor_PostFilterNegation(t *testing.T) {
	e, store := newTestExecutor(t)
	seedUsers(t, store)
	require.NoError(t, store.PutDocument("users", "erin", map[string]any{
		"name": "Erin", "age": 50, "city": "Oslo", "archived": true,
	}))

	results := runQuery(t, e, `FOR u IN users FILTER NOT u.archived FILTER u.city == "Oslo" RETURN u.name`)
	assert.ElementsMatch(t, []string{"Alice", "Carol", "Dave"}, names(results))
}

func TestExecutor_NegationRewrite(t *testing.T) {
	e, store := newTestExecutor(t)
	seedUsers(t, store)

	results := runQuery(t, e, `FOR u IN users FILTER NOT (u.city == "Oslo") RETURN u.name`)
	assert.Equal(t, []string{"Bob"}, names(results))
}

func TestExecutor_Join(t *testing.T) {
	e, store := newTestExecutor(t)
	seedUsers(t, store)
	orders := []map[string]any{
		{"user": "alice", "item": "rope", "price": 120},
		{"user": "alice", "item": "shoes", "price": 80},
		{"user": "carol", "item": "laptop", "price": 1500},
	}
	for i, o := range orders {
		require.NoError(t, store.PutDocument("orders", string(rune('a'+i)), o))
	}

	results := runQuery(t, e, `FOR u IN users FOR o IN orders FILTER o.user == u.name FILTER u.name == "alice" RETURN o.item`)
	assert.Empty(t, results, "join matches on exact values")

	results = runQuery(t, e, `FOR u IN users FOR o IN orders FILTER o.user == LOWER(u.name) SORT o.price DESC RETURN o.item`)
	assert.Equal(t, []any{"laptop", "rope", "shoes"}, results)
}

func TestExecutor_LetAndProjection(t *testing.T) {
	e, store := newTestExecutor(t)
	seedUsers(t, store)

	results := runQuery(t, e, `FOR u IN users FILTER u.name == "Alice" LET next = u.age + 1 RETURN {name: u.name, next: next}`)
	require.Len(t, results, 1)
	obj := results[0].(map[string]any)
	assert.Equal(t, "Alice", obj["name"])
	assert.InDelta(t, 31, obj["next"], 0.001)
}

func TestExecutor_CollectAggregate(t *testing.T) {
	e, store := newTestExecutor(t)
	seedUsers(t, store)

	results := runQuery(t, e, `FOR u IN users COLLECT city = u.city AGGREGATE n = COUNT(), oldest = MAX(u.age) RETURN {city: city, n: n, oldest: oldest}`)
	require.Len(t, results, 2)

	byCity := map[string]map[string]any{}
	for _, r := range results {
		obj := r.(map[string]any)
		byCity[obj["city"].(string)] = obj
	}
	assert.Equal(t, int64(3), byCity["Oslo"]["n"])
	assert.InDelta(t, 41, byCity["Oslo"]["oldest"], 0.001)
	assert.Equal(t, int64(1), byCity["Bergen"]["n"])
}

func TestExecutor_CTE(t *testing.T) {
	e, store := newTestExecutor(t)
	seedUsers(t, store)

	results := runQuery(t, e, `WITH adults AS (FOR u IN users FILTER u.age >= 18 RETURN u) FOR a IN adults FILTER a.city == "Oslo" RETURN a.name`)
	assert.ElementsMatch(t, []string{"Alice", "Carol", "Dave"}, names(results))
}

func TestExecutor_SubqueryLet(t *testing.T) {
	e, store := newTestExecutor(t)
	seedUsers(t, store)

	results := runQuery(t, e, `FOR u IN users FILTER u.name == "Alice" LET oslo = (FOR x IN users FILTER x.city == "Oslo" RETURN x.name) RETURN LENGTH(oslo)`)
	require.Len(t, results, 1)
	assert.Equal(t, int64(3), results[0])
}

func seedGraph(t *testing.T, store *storage.Store) {
	t.Helper()
	seedUsers(t, store)
	edges := []struct{ from, to, typ string }{
		{"users/alice", "users/bob", "knows"},
		{"users/bob", "users/carol", "knows"},
		{"users/carol", "users/dave", "knows"},
		{"users/alice", "users/dave", "follows"},
	}
	for _, e := range edges {
		require.NoError(t, store.PutEdge(e.from, e.to, e.typ))
	}
}

func TestExecutor_Traversal(t *testing.T) {
	e, store := newTestExecutor(t)
	seedGraph(t, store)

	results := runQuery(t, e, `FOR v IN 1..2 OUTBOUND "users/alice" TYPE "knows" GRAPH "g" RETURN v._id`)
	assert.Equal(t, []any{"users/bob", "users/carol"}, results)

	results = runQuery(t, e, `FOR v IN 1..1 OUTBOUND "users/alice" GRAPH "g" RETURN v._id`)
	assert.ElementsMatch(t, []any{"users/bob", "users/dave"}, results)
}

func TestExecutor_TraversalMinDepthZeroIncludesStart(t *testing.T) {
	e, store := newTestExecutor(t)
	seedGraph(t, store)

	results := runQuery(t, e, `FOR v IN 0..1 OUTBOUND "users/alice" TYPE "knows" GRAPH "g" RETURN v._id`)
	assert.Equal(t, []any{"users/alice", "users/bob"}, results)
}

func TestExecutor_TraversalInbound(t *testing.T) {
	e, store := newTestExecutor(t)
	seedGraph(t, store)

	results := runQuery(t, e, `FOR v IN 1..1 INBOUND "users/dave" GRAPH "g" RETURN v._id`)
	assert.ElementsMatch(t, []any{"users/carol", "users/alice"}, results)
}

func TestExecutor_TraversalFilterOnVertexDocument(t *testing.T) {
	e, store := newTestExecutor(t)
	seedGraph(t, store)

	results := runQuery(t, e, `FOR v IN 1..3 OUTBOUND "users/alice" TYPE "knows" GRAPH "g" FILTER v.age > 30 RETURN v.name`)
	assert.Equal(t, []string{"Carol"}, names(results))
}

func TestExecutor_ShortestPath(t *testing.T) {
	e, store := newTestExecutor(t)
	seedGraph(t, store)

	results := runQuery(t, e, `FOR v IN 1..10 OUTBOUND "users/alice" TYPE "knows" GRAPH "g" SHORTEST_PATH TO "users/dave" RETURN v._id`)
	assert.Equal(t, []any{"users/alice", "users/bob", "users/carol", "users/dave"}, results)
}

func TestExecutor_ShortestPathNoRoute(t *testing.T) {
	e, store := newTestExecutor(t)
	seedGraph(t, store)

	results := runQuery(t, e, `FOR v IN 1..10 OUTBOUND "users/dave" TYPE "knows" GRAPH "g" SHORTEST_PATH TO "users/alice" RETURN v._id`)
	assert.Empty(t, results)
}

func TestExecutor_ContextCancellation(t *testing.T) {
	e, store := newTestExecutor(t)
	seedUsers(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q, err := aql.Parse(`FOR u IN users RETURN u`)
	require.NoError(t, err)
	_, err = e.Run(ctx, q)
	assert.ErrorIs(t, err, context.Canceled)
}
