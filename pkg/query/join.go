package query

import (
	"context"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/themisdb/themis/pkg/aql"
)

// Join execution: nested-loop over the FOR clauses in declaration order,
// LET bindings evaluated per inner row, filters applied once every
// variable is bound, then COLLECT / SORT / LIMIT / RETURN.
//
// No join reordering or predicate pushdown happens here: clause lists
// arrive raw from the translator and execute in query order.

func (e *Executor) runJoin(ctx context.Context, q *aql.Query, p *JoinQuery, virtual map[string][]row) ([]any, error) {
	sources := make([][]row, len(p.ForNodes))
	for i, fn := range p.ForNodes {
		rows, err := e.candidates(&ConjunctiveQuery{Table: fn.Collection}, virtual)
		if err != nil {
			return nil, errors.Wrapf(err, "scan %s", fn.Collection)
		}
		sources[i] = rows
	}

	var matches []aql.Bindings
	bindings := make(aql.Bindings, len(p.ForNodes)+len(p.LetNodes))
	var descend func(level int) error
	descend = func(level int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if level == len(sources) {
			for _, let := range p.LetNodes {
				v, err := e.evalLet(ctx, let.Expression, bindings, virtual)
				if err != nil {
					return errors.Wrapf(err, "LET %s", let.Variable)
				}
				bindings[let.Variable] = v
			}
			for _, f := range p.Filters {
				ok, err := aql.EvaluatePredicate(f.Condition, bindings)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}
			snapshot := make(aql.Bindings, len(bindings))
			for k, v := range bindings {
				snapshot[k] = v
			}
			matches = append(matches, snapshot)
			return nil
		}
		for _, r := range sources[level] {
			bindings[p.ForNodes[level].Variable] = r.value
			if err := descend(level + 1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := descend(0); err != nil {
		return nil, err
	}

	if p.Collect != nil {
		grouped, err := collectGroups(p.Collect, matches)
		if err != nil {
			return nil, err
		}
		matches = grouped
	}

	if p.Sort != nil {
		if err := sortBindings(matches, p.Sort); err != nil {
			return nil, err
		}
	}

	matches = limitBindings(matches, p.Limit)

	out := make([]any, 0, len(matches))
	for _, b := range matches {
		if p.Return == nil {
			out = append(out, map[string]any(b))
			continue
		}
		v, err := aql.Evaluate(p.Return.Expression, b)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// evalLet evaluates a LET expression. A subquery on the right-hand side
// runs as its own query and binds the full result list; it cannot
// reference the enclosing row's variables.
func (e *Executor) evalLet(ctx context.Context, expr aql.Expression, bindings aql.Bindings, virtual map[string][]row) (any, error) {
	if sub, ok := expr.(*aql.Subquery); ok {
		return e.run(ctx, sub.Query, virtual)
	}
	return aql.Evaluate(expr, bindings)
}

// collectGroups implements COLLECT: rows sharing the same group values
// collapse to one output binding holding the group variables plus the
// AGGREGATE results. Variables from before the COLLECT go out of scope.
func collectGroups(c *aql.CollectNode, matches []aql.Bindings) ([]aql.Bindings, error) {
	type group struct {
		binding aql.Bindings
		rows    []aql.Bindings
	}
	groups := make(map[string]*group)
	var order []string

	for _, b := range matches {
		keyParts := make([]string, len(c.Groups))
		values := make([]any, len(c.Groups))
		for i, g := range c.Groups {
			v, err := aql.Evaluate(g.Expression, b)
			if err != nil {
				return nil, errors.Wrapf(err, "COLLECT %s", g.Variable)
			}
			values[i] = v
			keyParts[i] = aql.FormatLiteral(v)
		}
		key := strings.Join(keyParts, "\x1f")
		g, ok := groups[key]
		if !ok {
			binding := make(aql.Bindings, len(c.Groups)+len(c.Aggregations))
			for i, spec := range c.Groups {
				binding[spec.Variable] = values[i]
			}
			g = &group{binding: binding}
			groups[key] = g
			order = append(order, key)
		}
		g.rows = append(g.rows, b)
	}

	// COLLECT with aggregations but no matching rows still yields one
	// row of neutral aggregate values when there are no group variables.
	if len(order) == 0 && len(c.Groups) == 0 && len(c.Aggregations) > 0 {
		groups[""] = &group{binding: make(aql.Bindings, len(c.Aggregations))}
		order = append(order, "")
	}

	out := make([]aql.Bindings, 0, len(order))
	for _, key := range order {
		g := groups[key]
		for _, agg := range c.Aggregations {
			v, err := aggregate(agg, g.rows)
			if err != nil {
				return nil, err
			}
			g.binding[agg.Variable] = v
		}
		out = append(out, g.binding)
	}
	return out, nil
}

// aggregate computes one AGGREGATE binding over a group's rows.
func aggregate(agg aql.Aggregation, rows []aql.Bindings) (any, error) {
	fn := strings.ToUpper(agg.Func)

	if fn == "COUNT" && agg.Argument == nil {
		return int64(len(rows)), nil
	}
	if agg.Argument == nil {
		return nil, errors.Newf("%s requires an argument", fn)
	}

	var (
		sum     float64
		count   int64
		allInts = true
		best    any
	)
	for _, b := range rows {
		v, err := aql.Evaluate(agg.Argument, b)
		if err != nil {
			return nil, errors.Wrapf(err, "AGGREGATE %s", agg.Variable)
		}
		if v == nil {
			continue
		}
		count++
		switch fn {
		case "COUNT":
		case "SUM", "AVG":
			switch n := v.(type) {
			case int64:
				sum += float64(n)
			case float64:
				sum += n
				allInts = false
			default:
				return nil, errors.Newf("%s over non-numeric value %v", fn, v)
			}
		case "MIN", "MAX":
			if best == nil {
				best = v
				continue
			}
			cmp, err := aql.CompareValues(v, best)
			if err != nil {
				return nil, err
			}
			if (fn == "MIN" && cmp < 0) || (fn == "MAX" && cmp > 0) {
				best = v
			}
		default:
			return nil, errors.Newf("unknown aggregate function %s", agg.Func)
		}
	}

	switch fn {
	case "COUNT":
		return count, nil
	case "SUM":
		if allInts {
			return int64(sum), nil
		}
		return sum, nil
	case "AVG":
		if count == 0 {
			return nil, nil
		}
		return sum / float64(count), nil
	}
	return best, nil
}

// sortBindings orders join results by the SORT specs, earlier specs most
// significant.
func sortBindings(matches []aql.Bindings, s *aql.SortNode) error {
	var sortErr error
	sort.SliceStable(matches, func(i, j int) bool {
		for _, spec := range s.Specs {
			left, err := aql.Evaluate(spec.Expression, matches[i])
			if err != nil {
				sortErr = err
				return false
			}
			right, err := aql.Evaluate(spec.Expression, matches[j])
			if err != nil {
				sortErr = err
				return false
			}
			cmp, err := aql.CompareValues(left, right)
			if err != nil {
				continue
			}
			if cmp == 0 {
				continue
			}
			if spec.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
	return sortErr
}

func limitBindings(matches []aql.Bindings, limit *aql.LimitNode) []aql.Bindings {
	if limit == nil {
		return matches
	}
	offset := limit.Offset
	if offset > int64(len(matches)) {
		offset = int64(len(matches))
	}
	matches = matches[offset:]
	if limit.Count >= 0 && int64(len(matches)) > limit.Count {
		matches = matches[:limit.Count]
	}
	return matches
}
