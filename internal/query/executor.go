package query

import (
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// Execute runs a parsed statement over the collection. The pipeline
// order is fixed: WHERE filter, GROUP BY, ORDER BY, LIMIT, SELECT
// projection. The input notes are not mutated.
func Execute(stmt *Statement, notes []*models.Note) []Row {
	rows := make([]Row, 0, len(notes))
	for _, n := range notes {
		row := noteRow(n)
		if matchWhere(stmt.Where, row) {
			rows = append(rows, row)
		}
	}

	if len(stmt.GroupBy) > 0 {
		rows = groupRows(rows, stmt.GroupBy)
	}

	if len(stmt.OrderBy) > 0 {
		orderRows(rows, stmt.OrderBy)
	}

	if stmt.Limit >= 0 && len(rows) > stmt.Limit {
		rows = rows[:stmt.Limit]
	}

	if !stmt.Star {
		rows = projectRows(rows, stmt.Select)
	}
	return rows
}

// Run parses and executes a query string.
func Run(input string, notes []*models.Note) ([]Row, error) {
	stmt, err := Parse(input)
	if err != nil {
		return nil, err
	}
	return Execute(stmt, notes), nil
}

// matchWhere evaluates the conditions strictly left to right. The first
// condition seeds the accumulator; each following condition combines
// with AND or OR as written (AND when implicit).
func matchWhere(conds []Condition, row Row) bool {
	if len(conds) == 0 {
		return true
	}
	acc := evalCondition(conds[0], row)
	for _, c := range conds[1:] {
		v := evalCondition(c, row)
		if c.Join == JoinOr {
			acc = acc || v
		} else {
			acc = acc && v
		}
	}
	return acc
}

func evalCondition(c Condition, row Row) bool {
	left := resolveField(row, c.Field)

	switch c.Op {
	case OpEq:
		return looseEq(left, c.Value)
	case OpNeq:
		return !looseEq(left, c.Value)
	case OpLt:
		return compareValues(left, c.Value) < 0
	case OpLte:
		return compareValues(left, c.Value) <= 0
	case OpGt:
		return compareValues(left, c.Value) > 0
	case OpGte:
		return compareValues(left, c.Value) >= 0
	case OpLike:
		ls, lok := left.(string)
		rs, rok := c.Value.(string)
		if !lok || !rok {
			return false
		}
		return strings.Contains(strings.ToLower(ls), strings.ToLower(rs))
	case OpContains:
		switch l := left.(type) {
		case []string:
			for _, item := range l {
				if looseEq(item, c.Value) {
					return true
				}
			}
			return false
		case []any:
			for _, item := range l {
				if looseEq(item, c.Value) {
					return true
				}
			}
			return false
		case string:
			if rs, ok := c.Value.(string); ok {
				return strings.Contains(l, rs)
			}
			return strings.Contains(l, stringify(c.Value))
		default:
			return false
		}
	case OpIn:
		list, ok := c.Value.([]any)
		if !ok {
			return false
		}
		for _, item := range list {
			if looseEq(left, item) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// groupRows replaces the row set with one row per distinct combination
// of the group-by field values. Each grouped row carries group_key and
// count plus the first member's values for the grouped fields; there are
// no per-field aggregates.
func groupRows(rows []Row, fields []string) []Row {
	var order []string
	groups := make(map[string]Row)
	counts := make(map[string]int)

	for _, row := range rows {
		parts := make([]string, len(fields))
		for i, f := range fields {
			parts[i] = stringify(resolveField(row, f))
		}
		// The distinctness key uses a NUL separator so values containing
		// the display separator cannot collide into one group.
		key := strings.Join(parts, "\x00")

		if _, ok := groups[key]; !ok {
			g := Row{"group_key": strings.Join(parts, "|")}
			for _, f := range fields {
				g[f] = resolveField(row, f)
			}
			groups[key] = g
			order = append(order, key)
		}
		counts[key]++
	}

	out := make([]Row, 0, len(order))
	for _, key := range order {
		g := groups[key]
		g["count"] = float64(counts[key])
		out = append(out, g)
	}
	return out
}

// orderRows sorts rows by the given fields. The sort is stable so equal
// keys retain their original relative order.
func orderRows(rows []Row, fields []OrderField) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, of := range fields {
			cmp := compareValues(resolveField(rows[i], of.Field), resolveField(rows[j], of.Field))
			if cmp == 0 {
				continue
			}
			if of.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// projectRows rebuilds each row with only the requested fields,
// including computed pseudo-fields.
func projectRows(rows []Row, fields []string) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		proj := make(Row, len(fields))
		for _, f := range fields {
			proj[f] = resolveField(row, f)
		}
		out[i] = proj
	}
	return out
}
