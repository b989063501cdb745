package query

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/themisdb/themis/pkg/aql"
	"github.com/themisdb/themis/pkg/storage"
)

// Executor runs logical plans against a storage.Store.
//
// One Executor serves many concurrent queries; per-query state lives in
// the run scope, not on the Executor.
type Executor struct {
	store  *storage.Store
	log    *zap.Logger
	limits Limits
}

// NewExecutor creates an executor with default limits. A nil logger
// disables logging.
func NewExecutor(store *storage.Store, log *zap.Logger) *Executor {
	return NewExecutorWithLimits(store, log, DefaultLimits())
}

// NewExecutorWithLimits creates an executor with configured scan bounds.
func NewExecutorWithLimits(store *storage.Store, log *zap.Logger, lim Limits) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{store: store, log: log, limits: lim}
}

// row is one candidate result before projection: the bound value plus a
// stable key used for de-duplication across disjuncts.
type row struct {
	key   string
	value any
}

// Run parses nothing: it takes an already-parsed query, materializes its
// CTEs, translates the body, and executes the plan. Each result row is
// the evaluated RETURN expression (or the bound document when RETURN is
// absent).
func (e *Executor) Run(ctx context.Context, q *aql.Query) ([]any, error) {
	queryID := uuid.NewString()
	rows, err := e.run(ctx, q, nil)
	if err != nil {
		e.log.Debug("query failed", zap.String("query_id", queryID), zap.Error(err))
		return nil, err
	}
	e.log.Debug("query executed", zap.String("query_id", queryID), zap.Int("rows", len(rows)))
	return rows, nil
}

func (e *Executor) run(ctx context.Context, q *aql.Query, virtual map[string][]row) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if q.With != nil {
		scoped := make(map[string][]row, len(virtual)+len(q.With.CTEs))
		for name, rows := range virtual {
			scoped[name] = rows
		}
		for _, cte := range q.With.CTEs {
			results, err := e.run(ctx, cte.Subquery, scoped)
			if err != nil {
				return nil, errors.Wrapf(err, "materialize CTE %s", cte.Name)
			}
			rows := make([]row, len(results))
			for i, v := range results {
				rows[i] = row{key: strconv.Itoa(i), value: v}
			}
			scoped[cte.Name] = rows
		}
		virtual = scoped
	}

	plan, err := TranslateWithLimits(q, e.limits)
	if err != nil {
		return nil, err
	}

	switch p := plan.(type) {
	case *ConjunctiveQuery:
		rows, err := e.scanConjunct(p, virtual)
		if err != nil {
			return nil, err
		}
		return e.project(q, p.Variable, rows)
	case *DisjunctiveQuery:
		rows, err := e.scanDisjunctive(p, virtual)
		if err != nil {
			return nil, err
		}
		return e.project(q, p.Variable, rows)
	case *JoinQuery:
		return e.runJoin(ctx, q, p, virtual)
	case *TraversalQuery:
		return e.runTraversal(ctx, q, p)
	}
	return nil, errors.Newf("unknown plan shape %T", plan)
}

// ============================================================================
// Conjunctive and disjunctive execution
// ============================================================================

// scanConjunct picks the cheapest access path, then re-checks every
// predicate in memory. Re-checking is redundant for the access-path
// predicate but keeps virtual collections and multi-predicate conjuncts
// on one code path.
func (e *Executor) scanConjunct(cq *ConjunctiveQuery, virtual map[string][]row) ([]row, error) {
	candidates, err := e.candidates(cq, virtual)
	if err != nil {
		return nil, err
	}

	out := candidates[:0]
	for _, r := range candidates {
		ok, err := matchesConjunct(cq, r.value)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return orderRows(out, cq.OrderBy)
}

// scanDisjunctive unions the disjunct results, de-duplicating by primary
// key so a document matching several branches appears once.
func (e *Executor) scanDisjunctive(dq *DisjunctiveQuery, virtual map[string][]row) ([]row, error) {
	seen := make(map[string]struct{})
	var out []row
	for i := range dq.Disjuncts {
		branch := dq.Disjuncts[i]
		branch.OrderBy = nil
		rows, err := e.scanConjunct(&branch, virtual)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if _, dup := seen[r.key]; dup {
				continue
			}
			seen[r.key] = struct{}{}
			out = append(out, r)
		}
	}
	return orderRows(out, dq.OrderBy)
}

// candidates fetches the initial row set from the narrowest available
// access path. Virtual (CTE) collections have no indexes and always scan.
func (e *Executor) candidates(cq *ConjunctiveQuery, virtual map[string][]row) ([]row, error) {
	if rows, ok := virtual[cq.Table]; ok {
		return append([]row(nil), rows...), nil
	}

	switch {
	case cq.Fulltext != nil:
		docs, err := e.store.SearchFulltext(cq.Table, cq.Fulltext.Column, cq.Fulltext.Query, cq.Fulltext.Limit)
		return docRows(docs), err
	case len(cq.Predicates) > 0:
		docs, err := e.store.LookupEq(cq.Table, cq.Predicates[0].Column, cq.Predicates[0].Value)
		return docRows(docs), err
	case len(cq.RangePredicates) > 0:
		p := cq.RangePredicates[0]
		docs, err := e.store.ScanRange(cq.Table, p.Column, p.Lower, p.Upper, p.IncludeLower, p.IncludeUpper)
		return docRows(docs), err
	}
	docs, err := e.store.ScanTable(cq.Table, 0)
	return docRows(docs), err
}

func docRows(docs []storage.Document) []row {
	rows := make([]row, len(docs))
	for i, d := range docs {
		rows[i] = row{key: d.Key, value: d.Fields}
	}
	return rows
}

// matchesConjunct evaluates all of a conjunct's predicates against one
// bound value.
func matchesConjunct(cq *ConjunctiveQuery, value any) (bool, error) {
	for _, p := range cq.Predicates {
		field, ok := fieldByPath(value, p.Column)
		if !ok || !looseEqual(field, parsePlanValue(p.Value)) {
			return false, nil
		}
	}
	for _, p := range cq.RangePredicates {
		field, ok := fieldByPath(value, p.Column)
		if !ok {
			return false, nil
		}
		if p.Lower != nil {
			cmp, err := aql.CompareValues(field, parsePlanValue(*p.Lower))
			if err != nil || cmp < 0 || (cmp == 0 && !p.IncludeLower) {
				return false, nil
			}
		}
		if p.Upper != nil {
			cmp, err := aql.CompareValues(field, parsePlanValue(*p.Upper))
			if err != nil || cmp > 0 || (cmp == 0 && !p.IncludeUpper) {
				return false, nil
			}
		}
	}
	if cq.Fulltext != nil && !matchesFulltext(value, cq.Fulltext) {
		return false, nil
	}
	for _, expr := range cq.PostFilter {
		ok, err := aql.EvaluatePredicate(expr, aql.Bindings{cq.Variable: value})
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// matchesFulltext is the in-memory fallback check: every query term must
// appear as a substring of the lowercased field text.
func matchesFulltext(value any, p *PredicateFulltext) bool {
	field, ok := fieldByPath(value, p.Column)
	if !ok {
		return false
	}
	text, ok := field.(string)
	if !ok {
		return false
	}
	haystack := strings.ToLower(text)
	for _, term := range strings.Fields(strings.ToLower(p.Query)) {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

// orderRows sorts by the plan's single ORDER BY column and caps the set
// at its scan limit. The final LIMIT offset is applied at projection.
func orderRows(rows []row, orderBy *OrderBy) ([]row, error) {
	if orderBy == nil {
		return rows, nil
	}
	sort.SliceStable(rows, func(i, j int) bool {
		left, _ := fieldByPath(rows[i].value, orderBy.Column)
		right, _ := fieldByPath(rows[j].value, orderBy.Column)
		cmp, err := aql.CompareValues(left, right)
		if err != nil {
			return false
		}
		if orderBy.Descending {
			return cmp > 0
		}
		return cmp < 0
	})
	if orderBy.Limit > 0 && len(rows) > orderBy.Limit {
		rows = rows[:orderBy.Limit]
	}
	return rows, nil
}

// project evaluates the RETURN expression per row and applies LIMIT.
func (e *Executor) project(q *aql.Query, variable string, rows []row) ([]any, error) {
	rows = applyLimit(rows, q.Limit)
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		if q.Return == nil {
			out = append(out, r.value)
			continue
		}
		v, err := aql.Evaluate(q.Return.Expression, aql.Bindings{variable: r.value})
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func applyLimit(rows []row, limit *aql.LimitNode) []row {
	if limit == nil {
		return rows
	}
	offset := limit.Offset
	if offset > int64(len(rows)) {
		offset = int64(len(rows))
	}
	rows = rows[offset:]
	if limit.Count >= 0 && int64(len(rows)) > limit.Count {
		rows = rows[:limit.Count]
	}
	return rows
}

// ============================================================================
// Value helpers
// ============================================================================

// fieldByPath resolves a dotted path against nested maps.
func fieldByPath(value any, path string) (any, bool) {
	current := value
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// parsePlanValue maps a predicate's textual literal form back to a value.
func parsePlanValue(value string) any {
	switch value {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

// looseEqual compares with numeric coercion, so an int64 field matches a
// float64 plan value.
func looseEqual(left, right any) bool {
	cmp, err := aql.CompareValues(left, right)
	if err != nil {
		return left == nil && right == nil
	}
	return cmp == 0
}
