package gormrepository

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/webclinic017/sagetrader-api/internal/repository"
)

var schemaCache sync.Map

type field struct {
	column   string
	dataType schema.DataType
}

// fieldSet is the registry of fields an entity exposes to filters and sorting.
// It is checked against the gorm schema when the store is built.
type fieldSet struct {
	table  string
	fields map[string]field
}

func newFieldSet(db *gorm.DB, model any, names ...string) (fieldSet, error) {
	sch, err := schema.Parse(model, &schemaCache, db.NamingStrategy)
	if err != nil {
		return fieldSet{}, err
	}
	fs := fieldSet{table: sch.Table, fields: make(map[string]field, len(names))}
	for _, name := range names {
		f := sch.LookUpField(name)
		if f == nil || f.DBName == "" {
			return fieldSet{}, fmt.Errorf("%s: field %q is not a column", sch.Table, name)
		}
		fs.fields[name] = field{column: f.DBName, dataType: f.DataType}
	}
	if _, ok := fs.fields[uidColumn]; !ok {
		return fieldSet{}, fmt.Errorf("%s: registry must expose %q", sch.Table, uidColumn)
	}
	return fs, nil
}

func (fs fieldSet) lookup(name string) (field, error) {
	f, ok := fs.fields[strings.TrimSpace(name)]
	if !ok {
		return field{}, repository.NewConfigurationError("unknown field %q for %s", name, fs.table)
	}
	return f, nil
}

func (fs fieldSet) has(name string) bool {
	_, ok := fs.fields[name]
	return ok
}

func column(name string) clause.Column {
	return clause.Column{Table: clause.CurrentTable, Name: name}
}

// applyFilters ANDs the clauses onto query in the order given.
func applyFilters(query *gorm.DB, fs fieldSet, filters []repository.Filter) (*gorm.DB, error) {
	for _, f := range filters {
		expr, err := filterExpr(fs, f)
		if err != nil {
			return nil, err
		}
		query = query.Where(expr)
	}
	return query, nil
}

func filterExpr(fs fieldSet, f repository.Filter) (clause.Expression, error) {
	fd, err := fs.lookup(f.Field)
	if err != nil {
		return nil, err
	}
	col := column(fd.column)

	if f.Op.Unary() {
		if f.Op == repository.OpIsNull {
			return clause.Eq{Column: col, Value: nil}, nil
		}
		return clause.Neq{Column: col, Value: nil}, nil
	}

	if f.Op == repository.OpIn {
		values, err := coerceList(fd, f.Value)
		if err != nil {
			return nil, err
		}
		return clause.IN{Column: col, Values: values}, nil
	}

	value, err := coerce(fd, f.Value)
	if err != nil {
		return nil, err
	}
	switch f.Op {
	case repository.OpEq:
		return clause.Eq{Column: col, Value: value}, nil
	case repository.OpNe:
		return clause.Neq{Column: col, Value: value}, nil
	}

	if value == nil {
		return nil, repository.NewConfigurationError("operator %q on %s needs a value", f.Op, f.Field)
	}
	switch f.Op {
	case repository.OpLt:
		return clause.Lt{Column: col, Value: value}, nil
	case repository.OpLte:
		return clause.Lte{Column: col, Value: value}, nil
	case repository.OpGt:
		return clause.Gt{Column: col, Value: value}, nil
	case repository.OpGte:
		return clause.Gte{Column: col, Value: value}, nil
	case repository.OpLike:
		return clause.Like{Column: col, Value: value}, nil
	case repository.OpILike:
		return clause.Expr{SQL: "LOWER(?) LIKE LOWER(?)", Vars: []any{col, value}}, nil
	}
	return nil, repository.NewConfigurationError("unknown operator %q", f.Op)
}

// coerce converts string values from query strings into the column's Go type.
func coerce(fd field, value any) (any, error) {
	raw, ok := value.(string)
	if !ok {
		return value, nil
	}
	raw = strings.TrimSpace(raw)
	var (
		out any
		err error
	)
	switch fd.dataType {
	case schema.Bool:
		out, err = strconv.ParseBool(raw)
	case schema.Int:
		out, err = strconv.ParseInt(raw, 10, 64)
	case schema.Uint:
		out, err = strconv.ParseUint(raw, 10, 64)
	case schema.Float:
		out, err = strconv.ParseFloat(raw, 64)
	case schema.Time:
		out, err = parseTime(raw)
	default:
		return raw, nil
	}
	if err != nil {
		return nil, &repository.ValidationError{Field: fd.column, Reason: fmt.Sprintf("cannot use %q", raw)}
	}
	return out, nil
}

func coerceList(fd field, value any) ([]any, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, repository.NewConfigurationError("operator in on %s needs a list", fd.column)
	}
	out := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		v, err := coerce(fd, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// applySort orders by the requested field and breaks ties on uid ascending.
func applySort(query *gorm.DB, fs fieldSet, sortOn, sortOrder string) (*gorm.DB, error) {
	if strings.TrimSpace(sortOn) == "" {
		sortOn = uidColumn
	}
	if strings.TrimSpace(sortOrder) == "" {
		sortOrder = string(repository.Desc)
	}
	fd, err := fs.lookup(sortOn)
	if err != nil {
		return nil, err
	}
	dir, err := repository.ParseDirection(sortOrder)
	if err != nil {
		return nil, err
	}
	query = query.Order(clause.OrderByColumn{Column: column(fd.column), Desc: dir == repository.Desc})
	if fd.column != uidColumn {
		query = query.Order(clause.OrderByColumn{Column: column(uidColumn)})
	}
	return query, nil
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
