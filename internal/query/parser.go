package query

import (
	"strconv"
	"strings"
)

// Parser parses query strings into Statements.
type Parser struct {
	lexer *Lexer
	curr  Token
	peek  Token
}

// Parse parses a query string. Keywords are case-insensitive. The only
// queryable collection is "notes".
func Parse(input string) (*Statement, error) {
	p := &Parser{lexer: NewLexer(input)}
	p.advance()
	p.advance()
	return p.parseStatement()
}

func (p *Parser) advance() {
	p.curr = p.peek
	p.peek = p.lexer.NextToken()
}

// keyword reports whether the current token is the given bare keyword.
func (p *Parser) keyword(kw string) bool {
	return p.curr.Type == TokenIdent && strings.EqualFold(p.curr.Value, kw)
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.keyword(kw) {
		return parseErrorf(p.curr.Pos, "expected %s, got %q", strings.ToUpper(kw), p.curr.Value)
	}
	p.advance()
	return nil
}

func (p *Parser) parseStatement() (*Statement, error) {
	stmt := &Statement{Limit: -1}

	if err := p.expectKeyword("select"); err != nil {
		return nil, err
	}
	if err := p.parseSelectList(stmt); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("from"); err != nil {
		return nil, err
	}
	if !p.keyword("notes") {
		return nil, parseErrorf(p.curr.Pos, "unknown collection %q (only notes)", p.curr.Value)
	}
	p.advance()

	seen := map[string]bool{}
	for p.curr.Type != TokenEOF {
		switch {
		case p.keyword("where"):
			if seen["where"] {
				return nil, parseErrorf(p.curr.Pos, "duplicate WHERE clause")
			}
			seen["where"] = true
			p.advance()
			if err := p.parseWhere(stmt); err != nil {
				return nil, err
			}
		case p.keyword("order"):
			if seen["order"] {
				return nil, parseErrorf(p.curr.Pos, "duplicate ORDER BY clause")
			}
			seen["order"] = true
			p.advance()
			if err := p.expectKeyword("by"); err != nil {
				return nil, err
			}
			if err := p.parseOrderBy(stmt); err != nil {
				return nil, err
			}
		case p.keyword("group"):
			if seen["group"] {
				return nil, parseErrorf(p.curr.Pos, "duplicate GROUP BY clause")
			}
			seen["group"] = true
			p.advance()
			if err := p.expectKeyword("by"); err != nil {
				return nil, err
			}
			if err := p.parseGroupBy(stmt); err != nil {
				return nil, err
			}
		case p.keyword("limit"):
			if seen["limit"] {
				return nil, parseErrorf(p.curr.Pos, "duplicate LIMIT clause")
			}
			seen["limit"] = true
			p.advance()
			if p.curr.Type != TokenNumber {
				return nil, parseErrorf(p.curr.Pos, "LIMIT requires a number, got %q", p.curr.Value)
			}
			n, err := strconv.Atoi(p.curr.Value)
			if err != nil || n < 0 {
				return nil, parseErrorf(p.curr.Pos, "invalid LIMIT %q", p.curr.Value)
			}
			stmt.Limit = n
			p.advance()
		default:
			return nil, parseErrorf(p.curr.Pos, "unexpected token %q", p.curr.Value)
		}
	}

	return stmt, nil
}

func (p *Parser) parseSelectList(stmt *Statement) error {
	if p.curr.Type == TokenStar {
		stmt.Star = true
		p.advance()
		return nil
	}
	for {
		field, err := p.parseFieldName()
		if err != nil {
			return err
		}
		stmt.Select = append(stmt.Select, field)
		if p.curr.Type != TokenComma {
			return nil
		}
		p.advance()
	}
}

// parseFieldName parses an identifier with optional dotted segments for
// nested lookup (e.g. metadata.source).
func (p *Parser) parseFieldName() (string, error) {
	if p.curr.Type != TokenIdent {
		return "", parseErrorf(p.curr.Pos, "expected field name, got %q", p.curr.Value)
	}
	name := p.curr.Value
	p.advance()
	for p.curr.Type == TokenDot {
		p.advance()
		if p.curr.Type != TokenIdent {
			return "", parseErrorf(p.curr.Pos, "expected field after '.', got %q", p.curr.Value)
		}
		name += "." + p.curr.Value
		p.advance()
	}
	return name, nil
}

// clauseBoundary reports whether the current token starts a new clause.
func (p *Parser) clauseBoundary() bool {
	return p.curr.Type == TokenEOF ||
		p.keyword("where") || p.keyword("order") || p.keyword("group") || p.keyword("limit")
}

func (p *Parser) parseWhere(stmt *Statement) error {
	join := JoinAnd
	for {
		cond, err := p.parseCondition()
		if err != nil {
			return err
		}
		cond.Join = join
		stmt.Where = append(stmt.Where, *cond)

		if p.clauseBoundary() {
			return nil
		}
		switch {
		case p.keyword("and"):
			join = JoinAnd
			p.advance()
		case p.keyword("or"):
			join = JoinOr
			p.advance()
		default:
			// Implicit AND between adjacent conditions.
			join = JoinAnd
		}
	}
}

func (p *Parser) parseCondition() (*Condition, error) {
	field, err := p.parseFieldName()
	if err != nil {
		return nil, err
	}

	var op CompareOp
	switch {
	case p.curr.Type == TokenOp:
		switch p.curr.Value {
		case "=", "==":
			op = OpEq
		case "!=":
			op = OpNeq
		case "<":
			op = OpLt
		case "<=":
			op = OpLte
		case ">":
			op = OpGt
		case ">=":
			op = OpGte
		}
		p.advance()
	case p.keyword("like"):
		op = OpLike
		p.advance()
	case p.keyword("contains"):
		op = OpContains
		p.advance()
	case p.keyword("in"):
		op = OpIn
		p.advance()
	default:
		return nil, parseErrorf(p.curr.Pos, "expected operator after %q, got %q", field, p.curr.Value)
	}

	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return &Condition{Field: field, Op: op, Value: value}, nil
}

// parseValue parses a literal: a double-quoted string, a bare numeric
// token (float), true/false/null, a parenthesized list, or a bare
// string.
func (p *Parser) parseValue() (any, error) {
	switch p.curr.Type {
	case TokenString:
		v := p.curr.Value
		p.advance()
		return v, nil
	case TokenNumber:
		f, err := strconv.ParseFloat(p.curr.Value, 64)
		if err != nil {
			return nil, parseErrorf(p.curr.Pos, "invalid number %q", p.curr.Value)
		}
		p.advance()
		return f, nil
	case TokenLParen:
		return p.parseList()
	case TokenIdent:
		v := p.curr.Value
		p.advance()
		switch strings.ToLower(v) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}
		return v, nil
	default:
		return nil, parseErrorf(p.curr.Pos, "expected value, got %q", p.curr.Value)
	}
}

func (p *Parser) parseList() (any, error) {
	p.advance() // consume (
	var items []any
	if p.curr.Type == TokenRParen {
		p.advance()
		return items, nil
	}
	for {
		item, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		switch p.curr.Type {
		case TokenComma:
			p.advance()
		case TokenRParen:
			p.advance()
			return items, nil
		default:
			return nil, parseErrorf(p.curr.Pos, "expected ',' or ')', got %q", p.curr.Value)
		}
	}
}

func (p *Parser) parseOrderBy(stmt *Statement) error {
	for {
		field, err := p.parseFieldName()
		if err != nil {
			return err
		}
		of := OrderField{Field: field}
		if p.keyword("asc") {
			p.advance()
		} else if p.keyword("desc") {
			of.Desc = true
			p.advance()
		}
		stmt.OrderBy = append(stmt.OrderBy, of)
		if p.curr.Type != TokenComma {
			return nil
		}
		p.advance()
	}
}

func (p *Parser) parseGroupBy(stmt *Statement) error {
	for {
		field, err := p.parseFieldName()
		if err != nil {
			return err
		}
		stmt.GroupBy = append(stmt.GroupBy, field)
		if p.curr.Type != TokenComma {
			return nil
		}
		p.advance()
	}
}
