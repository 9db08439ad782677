package stormsql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/asdine/storm/v3/q"
	"github.com/pkg/errors"
	"github.com/xwb1989/sqlparser"
)

// A SelectClause contains all the parsed SQL data.
type SelectClause struct {
	SelectedFields  []string
	Count           bool
	Tablename       string
	Matcher         q.Matcher
	Skip            int
	Limit           int
	OrderBy         []string
	OrderByReversed bool
}

// ParseSelect parses the given SELECT statement.
// Column names are resolved against the table's model from the schema.
func ParseSelect(sql string, schema Schema) (*SelectClause, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse SQL")
	}

	s, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, errors.New("not a select statement")
	}

	var sc SelectClause

	// FROM todolists
	if len(s.From) != 1 {
		return nil, errors.New("only one table is supported")
	}
	table, ok := s.From[0].(*sqlparser.AliasedTableExpr)
	if !ok {
		return nil, errors.New("unsupported table expression")
	}
	sc.Tablename = sqlparser.GetTableName(table.Expr).String()

	p := &parser{}
	if p.fields, err = schema.Fields(sc.Tablename); err != nil {
		return nil, err
	}

	// SELECT * ...
	// SELECT id, created_at ...
	for _, se := range s.SelectExprs {
		switch v := se.(type) {
		case *sqlparser.StarExpr:
			sc.SelectedFields = []string{}
		case *sqlparser.AliasedExpr:
			switch v := v.Expr.(type) {
			case *sqlparser.ColName:
				field, err := p.field(v)
				if err != nil {
					return nil, err
				}
				sc.SelectedFields = append(sc.SelectedFields, field)
			case *sqlparser.FuncExpr:
				sc.SelectedFields = []string{}
				sc.Count = v.Name.Lowered() == "count"
			default:
				return nil, errors.New("unsupported select expression")
			}
		default:
			return nil, errors.New("unsupported select expression")
		}
	}

	// WHERE
	sc.Matcher = q.And()
	if s.Where != nil {
		if sc.Matcher, err = p.where(s.Where.Expr); err != nil {
			return nil, err
		}
	}

	// LIMIT 5
	// LIMIT 2,5
	if s.Limit != nil {
		if s.Limit.Offset != nil {
			if sc.Skip, err = p.integer(s.Limit.Offset); err != nil {
				return nil, err
			}
		}
		if sc.Limit, err = p.integer(s.Limit.Rowcount); err != nil {
			return nil, err
		}
	}

	// ORDER BY created_at
	// ORDER BY created_at DESC
	// ORDER BY created_at DESC, id ASC     => All will be DESC due to storm limitation
	for _, ob := range s.OrderBy {
		if ob.Direction == sqlparser.DescScr {
			sc.OrderByReversed = true
		}

		col, ok := ob.Expr.(*sqlparser.ColName)
		if !ok {
			return nil, errors.New("unsupported order by expression")
		}
		field, err := p.field(col)
		if err != nil {
			return nil, err
		}
		sc.OrderBy = append(sc.OrderBy, field)
	}

	return &sc, nil
}

type parser struct {
	fields map[string]string
}

func (p *parser) field(col *sqlparser.ColName) (string, error) {
	name := col.Name.String()
	if field, ok := p.fields[strings.ToLower(name)]; ok {
		return field, nil
	}
	return "", errors.Errorf("unknown column: %s", name)
}

func (p *parser) where(expr sqlparser.Expr) (q.Matcher, error) {
	switch v := expr.(type) {
	case *sqlparser.ComparisonExpr:
		col, ok := v.Left.(*sqlparser.ColName)
		if !ok {
			return nil, errors.New("left operand must be a column")
		}
		field, err := p.field(col)
		if err != nil {
			return nil, err
		}

		value, err := p.value(v.Right)
		if err != nil {
			return nil, err
		}

		switch v.Operator {
		case sqlparser.EqualStr:
			return q.Eq(field, value), nil
		case sqlparser.NotEqualStr:
			return q.Not(q.Eq(field, value)), nil
		case sqlparser.GreaterThanStr:
			return q.Gt(field, value), nil
		case sqlparser.GreaterEqualStr:
			return q.Gte(field, value), nil
		case sqlparser.LessThanStr:
			return q.Lt(field, value), nil
		case sqlparser.LessEqualStr:
			return q.Lte(field, value), nil
		case sqlparser.InStr:
			return q.In(field, value), nil
		case sqlparser.LikeStr:
			return q.Re(field, like(fmt.Sprint(value))), nil
		default:
			return nil, errors.Errorf("unsupported operator: %s", v.Operator)
		}
	case *sqlparser.IsExpr:
		col, ok := v.Expr.(*sqlparser.ColName)
		if !ok {
			return nil, errors.New("IS operand must be a column")
		}
		field, err := p.field(col)
		if err != nil {
			return nil, err
		}

		switch v.Operator {
		case sqlparser.IsNullStr:
			return q.Eq(field, nil), nil
		case sqlparser.IsNotNullStr:
			return q.Not(q.Eq(field, nil)), nil
		case sqlparser.IsTrueStr:
			return q.Eq(field, true), nil
		case sqlparser.IsFalseStr:
			return q.Eq(field, false), nil
		default:
			return nil, errors.Errorf("unsupported operator: %s", v.Operator)
		}
	case *sqlparser.AndExpr:
		left, right, err := p.both(v.Left, v.Right)
		if err != nil {
			return nil, err
		}
		return q.And(left, right), nil
	case *sqlparser.OrExpr:
		left, right, err := p.both(v.Left, v.Right)
		if err != nil {
			return nil, err
		}
		return q.Or(left, right), nil
	case *sqlparser.NotExpr:
		m, err := p.where(v.Expr)
		if err != nil {
			return nil, err
		}
		return q.Not(m), nil
	case *sqlparser.ParenExpr:
		return p.where(v.Expr)
	default:
		return nil, errors.Errorf("unsupported where expression: %s", sqlparser.String(expr))
	}
}

func (p *parser) both(l, r sqlparser.Expr) (left, right q.Matcher, err error) {
	if left, err = p.where(l); err != nil {
		return nil, nil, err
	}
	if right, err = p.where(r); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func (p *parser) value(expr sqlparser.Expr) (any, error) {
	switch v := expr.(type) {
	case sqlparser.BoolVal:
		return bool(v), nil
	case *sqlparser.NullVal:
		return nil, nil
	case sqlparser.ValTuple:
		tuple := make([]any, 0, len(v))
		for _, e := range v {
			value, err := p.value(e)
			if err != nil {
				return nil, err
			}
			tuple = append(tuple, value)
		}
		return tuple, nil
	case *sqlparser.SQLVal:
		return p.sqlval(v)
	default:
		return nil, errors.Errorf("unsupported value: %s", sqlparser.String(expr))
	}
}

func (p *parser) integer(expr sqlparser.Expr) (int, error) {
	value, err := p.value(expr)
	if err != nil {
		return 0, err
	}

	n, ok := value.(int64)
	if !ok {
		return 0, errors.Errorf("not an integer: %s", sqlparser.String(expr))
	}
	return int(n), nil
}

func (p *parser) sqlval(v *sqlparser.SQLVal) (any, error) {
	switch v.Type {
	case sqlparser.StrVal:
		// Try to convert to time.Time if possible
		if t, err := dateparse.ParseIn(string(v.Val), time.UTC); err == nil {
			return t.UTC(), nil
		}
		return string(v.Val), nil
	case sqlparser.IntVal:
		n, err := strconv.ParseInt(string(v.Val), 10, 64)
		return n, errors.Wrap(err, "could not parse integer")
	case sqlparser.FloatVal:
		f, err := strconv.ParseFloat(string(v.Val), 64)
		return f, errors.Wrap(err, "could not parse float")
	case sqlparser.HexNum:
		n, err := strconv.ParseInt(strings.TrimPrefix(strings.ToLower(string(v.Val)), "0x"), 16, 64)
		return n, errors.Wrap(err, "could not parse hexadecimal number")
	case sqlparser.HexVal:
		b, err := v.HexDecode()
		return b, errors.Wrap(err, "could not decode hexadecimal value")
	case sqlparser.BitVal:
		return len(v.Val) > 0 && v.Val[0] == 1, nil
	default:
		return nil, errors.Errorf("unsupported value: %s", sqlparser.String(v))
	}
}

// like converts a LIKE pattern to an anchored regular expression.
func like(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}
