package query

import "fmt"

// CompareOp is a condition operator.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpLike
	OpContains
	OpIn
)

func (op CompareOp) String() string {
	switch op {
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpLike:
		return "like"
	case OpContains:
		return "contains"
	case OpIn:
		return "in"
	default:
		return "="
	}
}

// JoinOp combines a condition with the accumulated boolean result.
// Conditions evaluate strictly left to right: AND/OR set the operator
// used for the next comparison, with AND as the default. This is not
// short-circuit boolean algebra with precedence.
type JoinOp int

const (
	JoinAnd JoinOp = iota
	JoinOr
)

// Condition is one comparison in a WHERE clause. Value holds a string,
// float64, bool, nil, or []any (parenthesized list for IN).
type Condition struct {
	Join  JoinOp
	Field string
	Op    CompareOp
	Value any
}

// OrderField is one ORDER BY term.
type OrderField struct {
	Field string
	Desc  bool
}

// Statement is the parsed, transient form of a query. Not persisted.
type Statement struct {
	Star    bool
	Select  []string
	Where   []Condition
	OrderBy []OrderField
	GroupBy []string
	Limit   int // -1 when absent
}

// ParseError reports a malformed query. Parsing fails before any
// filtering begins, so a bad query never partially executes.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d: %s", e.Pos, e.Msg)
}

func parseErrorf(pos int, format string, args ...any) *ParseError {
	return &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
