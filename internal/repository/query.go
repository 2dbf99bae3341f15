package repository

import (
	"strings"
)

// Operator is a filter comparison. Parse user input with ParseOperator.
type Operator string

const (
	OpEq      Operator = "=="
	OpNe      Operator = "!="
	OpLt      Operator = "<"
	OpLte     Operator = "<="
	OpGt      Operator = ">"
	OpGte     Operator = ">="
	OpIn      Operator = "in"
	OpLike    Operator = "like"
	OpILike   Operator = "ilike"
	OpIsNull  Operator = "is_null"
	OpNotNull Operator = "not_null"
)

var operatorAliases = map[string]Operator{
	"==":       OpEq,
	"=":        OpEq,
	"eq":       OpEq,
	"!=":       OpNe,
	"ne":       OpNe,
	"neq":      OpNe,
	"<":        OpLt,
	"lt":       OpLt,
	"<=":       OpLte,
	"lte":      OpLte,
	">":        OpGt,
	"gt":       OpGt,
	">=":       OpGte,
	"gte":      OpGte,
	"in":       OpIn,
	"like":     OpLike,
	"ilike":    OpILike,
	"is_null":  OpIsNull,
	"not_null": OpNotNull,
}

func ParseOperator(raw string) (Operator, error) {
	op, ok := operatorAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", NewConfigurationError("unknown operator %q", raw)
	}
	return op, nil
}

// Unary operators take no value.
func (op Operator) Unary() bool {
	return op == OpIsNull || op == OpNotNull
}

// Filter is one WHERE clause. Clauses in a list are combined with AND.
type Filter struct {
	Field string
	Op    Operator
	Value any
}

func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// ParseFilter reads the "field:op:value" form used by list endpoints.
// For the in operator the value is a comma separated list.
func ParseFilter(expr string) (Filter, error) {
	parts := strings.SplitN(expr, ":", 3)
	if len(parts) < 2 {
		return Filter{}, NewConfigurationError("malformed filter %q", expr)
	}
	field := strings.TrimSpace(parts[0])
	if field == "" {
		return Filter{}, NewConfigurationError("malformed filter %q", expr)
	}
	op, err := ParseOperator(parts[1])
	if err != nil {
		return Filter{}, err
	}
	if op.Unary() {
		return Filter{Field: field, Op: op}, nil
	}
	if len(parts) != 3 {
		return Filter{}, NewConfigurationError("filter %q has no value", expr)
	}
	if op == OpIn {
		items := strings.Split(parts[2], ",")
		values := make([]any, 0, len(items))
		for _, item := range items {
			values = append(values, strings.TrimSpace(item))
		}
		return Filter{Field: field, Op: op, Value: values}, nil
	}
	return Filter{Field: field, Op: op, Value: parts[2]}, nil
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func ParseDirection(raw string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return "", NewConfigurationError("unknown sort direction %q", raw)
}

// Sort orders a query by one field. Ties always fall back to uid ascending.
type Sort struct {
	Field     string
	Direction Direction
}
