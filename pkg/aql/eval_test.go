package aql

import (
	"testing"
)

func evalString(t *testing.T, expr string, b Bindings) any {
	t.Helper()
	q := mustParse(t, "FOR d IN t RETURN "+expr)
	v, err := Evaluate(q.Return.Expression, b)
	if err != nil {
		t.Fatalf("Evaluate(%s) failed: %v", expr, err)
	}
	return v
}

func TestEvaluate_Arithmetic(t *testing.T) {
	tests := []struct {
		expr string
		want any
	}{
		{`1 + 2`, int64(3)},
		{`2 * 3 + 1`, int64(7)},
		{`1 + 2 * 3`, int64(7)},
		{`10 - 4 - 3`, int64(3)},
		{`7 / 2`, 3.5},
		{`7 % 3`, int64(1)},
		{`1.5 + 1`, 2.5},
		{`-5 + 2`, int64(-3)},
	}
	for _, tt := range tests {
		if got := evalString(t, tt.expr, nil); got != tt.want {
			t.Errorf("%s = %v (%T), want %v (%T)", tt.expr, got, got, tt.want, tt.want)
		}
	}
}

func TestEvaluate_Comparisons(t *testing.T) {
	doc := Bindings{"d": map[string]any{"age": int64(30), "name": "alice", "tags": []any{"a", "b"}}}

	tests := []struct {
		expr string
		want bool
	}{
		{`d.age == 30`, true},
		{`d.age == 30.0`, true},
		{`d.age != 29`, true},
		{`d.age > 18 AND d.age < 65`, true},
		{`d.name == "alice" OR d.name == "bob"`, true},
		{`d.age < 18 XOR d.age > 21`, true},
		{`NOT (d.age < 18)`, true},
		{`"a" IN d.tags`, true},
		{`"z" IN d.tags`, false},
		{`d.name < "bob"`, true},
	}
	for _, tt := range tests {
		got := evalString(t, tt.expr, doc)
		if got != tt.want {
			t.Errorf("%s = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestEvaluate_MissingFieldIsNull(t *testing.T) {
	doc := Bindings{"d": map[string]any{"a": int64(1)}}
	if got := evalString(t, `d.missing`, doc); got != nil {
		t.Errorf("missing field = %v, want nil", got)
	}
	if got := evalString(t, `d.missing.deeper`, doc); got != nil {
		t.Errorf("access on nil = %v, want nil", got)
	}
}

func TestEvaluate_UnboundVariable(t *testing.T) {
	q := mustParse(t, `FOR d IN t RETURN nobody`)
	if _, err := Evaluate(q.Return.Expression, Bindings{}); err == nil {
		t.Fatal("unbound variable should error")
	}
}

func TestEvaluate_Quantifiers(t *testing.T) {
	doc := Bindings{"d": map[string]any{"scores": []any{int64(60), int64(95), int64(80)}}}

	tests := []struct {
		expr string
		want bool
	}{
		{`ANY x IN d.scores SATISFIES x > 90`, true},
		{`ANY x IN d.scores SATISFIES x > 99`, false},
		{`ALL x IN d.scores SATISFIES x > 50`, true},
		{`ALL x IN d.scores SATISFIES x > 70`, false},
	}
	for _, tt := range tests {
		if got := evalString(t, tt.expr, doc); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestEvaluate_Builtins(t *testing.T) {
	doc := Bindings{"d": map[string]any{"name": "Alice", "tags": []any{"a", "b", "c"}}}

	tests := []struct {
		expr string
		want any
	}{
		{`LOWER(d.name)`, "alice"},
		{`UPPER(d.name)`, "ALICE"},
		{`LENGTH(d.name)`, int64(5)},
		{`LENGTH(d.tags)`, int64(3)},
		{`CONCAT(d.name, "!")`, "Alice!"},
		{`ABS(-3)`, int64(3)},
		{`MIN(3, 1)`, int64(1)},
		{`MAX(3, 1)`, int64(3)},
	}
	for _, tt := range tests {
		if got := evalString(t, tt.expr, doc); got != tt.want {
			t.Errorf("%s = %v (%T), want %v", tt.expr, got, got, tt.want)
		}
	}
}

func TestEvaluate_ConstructorsAndObjects(t *testing.T) {
	doc := Bindings{"d": map[string]any{"a": int64(1)}}

	v := evalString(t, `[d.a, 2, "x"]`, doc)
	arr, ok := v.([]any)
	if !ok || len(arr) != 3 || arr[0] != int64(1) {
		t.Errorf("array = %v", v)
	}

	v = evalString(t, `{a: d.a, b: "x"}`, doc)
	obj, ok := v.(map[string]any)
	if !ok || obj["a"] != int64(1) || obj["b"] != "x" {
		t.Errorf("object = %v", v)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	doc := Bindings{"d": map[string]any{"a": int64(1), "s": "x"}}

	bad := []string{
		`d.a < "x"`,   // mixed-type ordering
		`d.s + "y"`,   // strings do not add; use CONCAT
		`d.s % 2`,     // modulo on string
		`-d.s`,        // unary minus on string
		`d.a IN d.s`,  // IN over non-array
		`UNKNOWN(d)`,  // unknown function
		`LOWER(1)`,    // wrong argument type
		`LOWER()`,     // wrong arity
	}
	for _, expr := range bad {
		q := mustParse(t, "FOR d IN t RETURN "+expr)
		if _, err := Evaluate(q.Return.Expression, doc); err == nil {
			t.Errorf("Evaluate(%s) should fail", expr)
		}
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{int64(0), false},
		{int64(1), true},
		{0.0, false},
		{"", false},
		{"x", true},
		{[]any{}, false},
		{[]any{1}, true},
		{map[string]any{}, false},
		{map[string]any{"a": 1}, true},
	}
	for _, tt := range tests {
		if got := Truthy(tt.value); got != tt.want {
			t.Errorf("Truthy(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
