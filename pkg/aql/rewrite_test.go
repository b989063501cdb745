package aql

import (
	"testing"
)

func parseFilter(t *testing.T, condition string) Expression {
	t.Helper()
	q := mustParse(t, "FOR d IN t FILTER "+condition+" RETURN d")
	return q.Filters[0].Condition
}

func TestRewriteNegations(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, out Expression)
	}{
		{
			name:  "NOT over AND applies De Morgan",
			input: `NOT (d.a > 1 AND d.b > 2)`,
			check: func(t *testing.T, out Expression) {
				root := out.(*BinaryOp)
				if root.Op != OpOr {
					t.Fatalf("root = %s, want OR", root.Op)
				}
				if root.Left.(*BinaryOp).Op != OpLte {
					t.Errorf("left = %s, want <=", root.Left.(*BinaryOp).Op)
				}
				if root.Right.(*BinaryOp).Op != OpLte {
					t.Errorf("right = %s, want <=", root.Right.(*BinaryOp).Op)
				}
			},
		},
		{
			name:  "NOT over OR applies De Morgan",
			input: `NOT (d.a > 1 OR d.b < 2)`,
			check: func(t *testing.T, out Expression) {
				root := out.(*BinaryOp)
				if root.Op != OpAnd {
					t.Fatalf("root = %s, want AND", root.Op)
				}
				if root.Left.(*BinaryOp).Op != OpLte {
					t.Errorf("left = %s, want <=", root.Left.(*BinaryOp).Op)
				}
				if root.Right.(*BinaryOp).Op != OpGte {
					t.Errorf("right = %s, want >=", root.Right.(*BinaryOp).Op)
				}
			},
		},
		{
			name:  "NOT equality becomes range disjunction",
			input: `NOT (d.a == 5)`,
			check: func(t *testing.T, out Expression) {
				root := out.(*BinaryOp)
				if root.Op != OpOr {
					t.Fatalf("root = %s, want OR", root.Op)
				}
				if root.Left.(*BinaryOp).Op != OpLt || root.Right.(*BinaryOp).Op != OpGt {
					t.Errorf("got %s / %s, want < / >", root.Left.(*BinaryOp).Op, root.Right.(*BinaryOp).Op)
				}
			},
		},
		{
			name:  "NOT inequality becomes equality",
			input: `NOT (d.a != 5)`,
			check: func(t *testing.T, out Expression) {
				if out.(*BinaryOp).Op != OpEq {
					t.Errorf("got %s, want ==", out.(*BinaryOp).Op)
				}
			},
		},
		{
			name:  "double negation cancels",
			input: `NOT NOT (d.a > 1)`,
			check: func(t *testing.T, out Expression) {
				if out.(*BinaryOp).Op != OpGt {
					t.Errorf("got %s, want >", out.(*BinaryOp).Op)
				}
			},
		},
		{
			name:  "NOT bool literal flips",
			input: `NOT true`,
			check: func(t *testing.T, out Expression) {
				if v := out.(*Literal).Value; v != false {
					t.Errorf("got %v, want false", v)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr := parseFilter(t, tt.input)
			out, supported := RewriteNegations(expr)
			if !supported {
				t.Fatalf("RewriteNegations(%s) unsupported", tt.input)
			}
			tt.check(t, out)
		})
	}
}

func TestRewriteNegations_Unsupported(t *testing.T) {
	inputs := []string{
		`NOT d.tags`,
		`NOT d.active`,
		`NOT LOWER(d.name)`,
		`NOT (d.a XOR d.b)`,
		`NOT (d.status IN ["a", "b"])`,
	}
	for _, condition := range inputs {
		expr := parseFilter(t, condition)
		out, supported := RewriteNegations(expr)
		if supported {
			t.Errorf("RewriteNegations(%s) should be unsupported", condition)
		}
		if out != expr {
			t.Errorf("RewriteNegations(%s) should return the original expression", condition)
		}
	}
}

func TestRewriteNegations_NoNegationPassesThrough(t *testing.T) {
	expr := parseFilter(t, `d.a == 1 AND d.b > 2`)
	out, supported := RewriteNegations(expr)
	if !supported {
		t.Fatal("plain conjunction should be supported")
	}
	if out.(*BinaryOp).Op != OpAnd {
		t.Errorf("got %s, want AND preserved", out.(*BinaryOp).Op)
	}
}

func TestContainsOr(t *testing.T) {
	tests := []struct {
		condition string
		want      bool
	}{
		{`d.a == 1 OR d.b == 2`, true},
		{`d.a == 1 AND d.b == 2`, false},
		{`d.a == 1 AND (d.b == 2 OR d.c == 3)`, true},
		{`NOT (d.a == 1 OR d.b == 2)`, true},
		{`d.a > 1`, false},
	}
	for _, tt := range tests {
		expr := parseFilter(t, tt.condition)
		if got := ContainsOr(expr); got != tt.want {
			t.Errorf("ContainsOr(%s) = %v, want %v", tt.condition, got, tt.want)
		}
	}
}
