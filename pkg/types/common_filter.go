package types

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm/clause"
)

type CommonFilterOperator string

const (
	CommonFilterOperatorEq        CommonFilterOperator = "eq"
	CommonFilterOperatorNotEq     CommonFilterOperator = "not_eq"
	CommonFilterOperatorLt        CommonFilterOperator = "lt"
	CommonFilterOperatorLte       CommonFilterOperator = "lte"
	CommonFilterOperatorGt        CommonFilterOperator = "gt"
	CommonFilterOperatorGte       CommonFilterOperator = "gte"
	CommonFilterOperatorDateRange CommonFilterOperator = "date_range"
	CommonFilterOperatorRange     CommonFilterOperator = "range"
	CommonFilterOperatorIn        CommonFilterOperator = "in"
	CommonFilterOperatorIsNull    CommonFilterOperator = "is_null"
)

type CommonFilter struct {
	Field    string               `json:"field"`
	Operator CommonFilterOperator `json:"operator"`
	Values   []any                `json:"values"`
}

// Validate rejects filters on columns outside allowed and unknown operators.
func (f *CommonFilter) Validate(allowed map[string]bool) error {
	if f == nil {
		return fmt.Errorf("nil filter")
	}
	if !allowed[f.Field] {
		return fmt.Errorf("filter field %q is not allowed", f.Field)
	}
	switch f.Operator {
	case CommonFilterOperatorEq, CommonFilterOperatorNotEq, CommonFilterOperatorLt, CommonFilterOperatorLte,
		CommonFilterOperatorGt, CommonFilterOperatorGte, CommonFilterOperatorIn:
		if len(f.Values) == 0 {
			return fmt.Errorf("filter %q %s needs a value", f.Field, f.Operator)
		}
	case CommonFilterOperatorRange, CommonFilterOperatorDateRange:
		if len(f.Values) < 2 {
			return fmt.Errorf("filter %q %s needs two values", f.Field, f.Operator)
		}
	case CommonFilterOperatorIsNull:
	default:
		return fmt.Errorf("unknown filter operator %q", f.Operator)
	}
	return nil
}

// Build constructs a GORM expression.
func (f *CommonFilter) Build(builder clause.Builder) {
	if f.Operator == CommonFilterOperatorIsNull {
		clause.Expr{SQL: "? IS NULL", Vars: []interface{}{clause.Column{Name: f.Field}}}.Build(builder)
		return
	}
	if len(f.Values) == 0 {
		return
	}

	value := f.Values[0]

	switch f.Operator {
	case CommonFilterOperatorEq:
		clause.Eq{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorNotEq:
		clause.Neq{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorLt:
		clause.Lt{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorLte:
		clause.Lte{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorGt:
		clause.Gt{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorGte:
		clause.Gte{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorRange, CommonFilterOperatorDateRange:
		if len(f.Values) < 2 {
			return
		}
		clause.And(clause.Gte{Column: f.Field, Value: f.Values[0]}, clause.Lte{Column: f.Field, Value: f.Values[1]}).Build(builder)
	case CommonFilterOperatorIn:
		clause.IN{Column: f.Field, Values: f.Values}.Build(builder)
	default:
		return
	}
}

// FiltersAnd combines multiple CommonFilter into a single clause.Expression.
type FiltersAnd []*CommonFilter

func (w FiltersAnd) Build(builder clause.Builder) {
	if len(w) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w))
	for _, f := range w {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

// Match evaluates the filter against a row given as column -> value. It lets
// non-SQL stores honor the same filter grammar.
func (f *CommonFilter) Match(row map[string]any) bool {
	got, ok := row[f.Field]
	if f.Operator == CommonFilterOperatorIsNull {
		return !ok || got == nil
	}
	if len(f.Values) == 0 {
		return true
	}
	if !ok || got == nil {
		return false
	}
	switch f.Operator {
	case CommonFilterOperatorEq:
		return CompareValues(got, f.Values[0]) == 0
	case CommonFilterOperatorNotEq:
		return CompareValues(got, f.Values[0]) != 0
	case CommonFilterOperatorLt:
		return CompareValues(got, f.Values[0]) < 0
	case CommonFilterOperatorLte:
		return CompareValues(got, f.Values[0]) <= 0
	case CommonFilterOperatorGt:
		return CompareValues(got, f.Values[0]) > 0
	case CommonFilterOperatorGte:
		return CompareValues(got, f.Values[0]) >= 0
	case CommonFilterOperatorRange, CommonFilterOperatorDateRange:
		if len(f.Values) < 2 {
			return true
		}
		return CompareValues(got, f.Values[0]) >= 0 && CompareValues(got, f.Values[1]) <= 0
	case CommonFilterOperatorIn:
		for _, v := range f.Values {
			if CompareValues(got, v) == 0 {
				return true
			}
		}
		return false
	}
	return true
}

// MatchAll reports whether row satisfies every filter.
func (w FiltersAnd) MatchAll(row map[string]any) bool {
	for _, f := range w {
		if !f.Match(row) {
			return false
		}
	}
	return true
}

// CompareValues orders numbers numerically, times chronologically (RFC3339
// strings are accepted on the b side) and everything else as strings.
func CompareValues(a, b any) int {
	if at, ok := a.(time.Time); ok {
		bt, ok := toTime(b)
		if !ok {
			return strings.Compare(at.Format(time.RFC3339Nano), fmt.Sprint(b))
		}
		return at.Compare(bt)
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		return parsed, err == nil
	}
	return time.Time{}, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
