package query

import (
	"strings"
	"testing"
)

func TestParse_SelectStar(t *testing.T) {
	stmt, err := Parse("select * from notes")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !stmt.Star {
		t.Error("Star = false, want true")
	}
	if stmt.Limit != -1 {
		t.Errorf("Limit = %d, want -1 (absent)", stmt.Limit)
	}
}

func TestParse_SelectFields(t *testing.T) {
	stmt, err := Parse("select title, links_count, metadata.source from notes")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"title", "links_count", "metadata.source"}
	if len(stmt.Select) != len(want) {
		t.Fatalf("Select = %v, want %v", stmt.Select, want)
	}
	for i := range want {
		if stmt.Select[i] != want[i] {
			t.Errorf("Select[%d] = %q, want %q", i, stmt.Select[i], want[i])
		}
	}
}

func TestParse_WhereOperators(t *testing.T) {
	tests := []struct {
		input string
		op    CompareOp
		value any
	}{
		{`select * from notes where title = "X"`, OpEq, "X"},
		{`select * from notes where title == "X"`, OpEq, "X"},
		{`select * from notes where title != "X"`, OpNeq, "X"},
		{`select * from notes where word_count < 5`, OpLt, 5.0},
		{`select * from notes where word_count <= 5`, OpLte, 5.0},
		{`select * from notes where word_count > 5`, OpGt, 5.0},
		{`select * from notes where word_count >= 5`, OpGte, 5.0},
		{`select * from notes where title like "x"`, OpLike, "x"},
		{`select * from notes where tags contains "#go"`, OpContains, "#go"},
	}
	for _, tt := range tests {
		stmt, err := Parse(tt.input)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.input, err)
			continue
		}
		if len(stmt.Where) != 1 {
			t.Errorf("Parse(%q): %d conditions, want 1", tt.input, len(stmt.Where))
			continue
		}
		c := stmt.Where[0]
		if c.Op != tt.op {
			t.Errorf("Parse(%q): op = %v, want %v", tt.input, c.Op, tt.op)
		}
		if c.Value != tt.value {
			t.Errorf("Parse(%q): value = %v, want %v", tt.input, c.Value, tt.value)
		}
	}
}

func TestParse_InList(t *testing.T) {
	stmt, err := Parse(`select * from notes where title in ("A", "B", 3)`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	list, ok := stmt.Where[0].Value.([]any)
	if !ok {
		t.Fatalf("value type = %T, want []any", stmt.Where[0].Value)
	}
	if len(list) != 3 || list[0] != "A" || list[1] != "B" || list[2] != 3.0 {
		t.Errorf("list = %v, want [A B 3]", list)
	}
}

func TestParse_JoinOps(t *testing.T) {
	stmt, err := Parse(`select * from notes where a = 1 or b = 2 and c = 3`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmt.Where) != 3 {
		t.Fatalf("%d conditions, want 3", len(stmt.Where))
	}
	if stmt.Where[1].Join != JoinOr {
		t.Errorf("second join = %v, want or", stmt.Where[1].Join)
	}
	if stmt.Where[2].Join != JoinAnd {
		t.Errorf("third join = %v, want and", stmt.Where[2].Join)
	}
}

func TestParse_ImplicitAnd(t *testing.T) {
	stmt, err := Parse(`select * from notes where a = 1 b = 2`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmt.Where) != 2 {
		t.Fatalf("%d conditions, want 2", len(stmt.Where))
	}
	if stmt.Where[1].Join != JoinAnd {
		t.Errorf("implicit join = %v, want and", stmt.Where[1].Join)
	}
}

func TestParse_OrderByAndLimit(t *testing.T) {
	stmt, err := Parse("select * from notes order by updated_at desc, title limit 5")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmt.OrderBy) != 2 {
		t.Fatalf("%d order fields, want 2", len(stmt.OrderBy))
	}
	if !stmt.OrderBy[0].Desc || stmt.OrderBy[0].Field != "updated_at" {
		t.Errorf("first order = %+v, want updated_at desc", stmt.OrderBy[0])
	}
	if stmt.OrderBy[1].Desc {
		t.Error("second order should default to asc")
	}
	if stmt.Limit != 5 {
		t.Errorf("Limit = %d, want 5", stmt.Limit)
	}
}

func TestParse_ClausesInAnyOrder(t *testing.T) {
	stmt, err := Parse("select * from notes limit 2 where a = 1 order by title")
	if err != nil {
		t.Fatalf("clauses in any order should parse: %v", err)
	}
	if stmt.Limit != 2 || len(stmt.Where) != 1 || len(stmt.OrderBy) != 1 {
		t.Errorf("unexpected statement: %+v", stmt)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		input   string
		wantMsg string
	}{
		{"delete from notes", "expected SELECT"},
		{"select * from users", "unknown collection"},
		{"select * from notes where", "expected field name"},
		{"select * from notes where title", "expected operator"},
		{"select * from notes limit x", "LIMIT requires a number"},
		{"select * from notes where a = 1 where b = 2", "duplicate WHERE"},
		{"select * from notes limit 1 limit 2", "duplicate LIMIT"},
		{"select * from notes order title", "expected BY"},
		{`select * from notes where title in ("a"`, "expected ',' or ')'"},
	}
	for _, tt := range tests {
		_, err := Parse(tt.input)
		if err == nil {
			t.Errorf("Parse(%q) succeeded, want error", tt.input)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantMsg) {
			t.Errorf("Parse(%q) error = %q, want it to contain %q", tt.input, err, tt.wantMsg)
		}
	}
}

func TestLexer_Tokens(t *testing.T) {
	l := NewLexer(`title >= -2.5 ("x",y)`)
	want := []struct {
		typ TokenType
		val string
	}{
		{TokenIdent, "title"},
		{TokenOp, ">="},
		{TokenNumber, "-2.5"},
		{TokenLParen, "("},
		{TokenString, "x"},
		{TokenComma, ","},
		{TokenIdent, "y"},
		{TokenRParen, ")"},
		{TokenEOF, ""},
	}
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w.typ || tok.Value != w.val {
			t.Fatalf("token %d = {%v %q}, want {%v %q}", i, tok.Type, tok.Value, w.typ, w.val)
		}
	}
}
