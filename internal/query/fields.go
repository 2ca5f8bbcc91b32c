package query

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/starford/ansuz/internal/models"
)

// Row is the generic row representation the pipeline operates on.
type Row map[string]any

// noteRow materializes a note into a Row. Times stay time.Time values so
// ordering comparisons use real chronology.
func noteRow(n *models.Note) Row {
	return Row{
		"id":         n.ID,
		"title":      n.Title,
		"body":       n.Body,
		"tags":       n.Tags,
		"links":      n.Links,
		"color":      n.Color,
		"created_at": n.CreatedAt,
		"updated_at": n.UpdatedAt,
	}
}

// resolveField resolves a (possibly dotted, possibly computed) field
// against a row. Unknown fields resolve to nil rather than failing, so
// ad-hoc queries stay resilient.
func resolveField(row Row, field string) any {
	switch field {
	case "links_count":
		return float64(sliceLen(row["links"]))
	case "tags_count":
		return float64(sliceLen(row["tags"]))
	case "word_count":
		if body, ok := row["body"].(string); ok {
			return float64(len(strings.Fields(body)))
		}
		return nil
	case "char_count":
		if body, ok := row["body"].(string); ok {
			return float64(utf8.RuneCountInString(body))
		}
		return nil
	}

	parts := strings.Split(field, ".")
	var cur any = row
	for _, part := range parts {
		switch m := cur.(type) {
		case Row:
			cur = m[part]
		case map[string]any:
			cur = m[part]
		default:
			return nil
		}
	}
	return cur
}

func sliceLen(v any) int {
	switch s := v.(type) {
	case []string:
		return len(s)
	case []any:
		return len(s)
	default:
		return 0
	}
}

// toNumber attempts numeric coercion the way loose equality wants it.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// looseEq implements loose equality: nils are equal to each other,
// values that both coerce to numbers compare numerically, everything
// else compares by string form.
func looseEq(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := toNumber(a); aok {
		if bf, bok := toNumber(b); bok {
			return af == bf
		}
	}
	return stringify(a) == stringify(b)
}

// compareValues orders two resolved values. Numbers order numerically,
// times chronologically, everything else by string form. A nil sorts
// before any non-nil value; two nils are equal.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			return at.Compare(bt)
		}
	}
	if af, aok := toNumber(a); aok {
		if bf, bok := toNumber(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(stringify(a), stringify(b))
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case time.Time:
		return s.Format(time.RFC3339Nano)
	case bool:
		if s {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case []string:
		return strings.Join(s, ",")
	default:
		return ""
	}
}
