// Package filter describes ad-hoc list conditions sent by clients as JSON
// in the "filter" query parameter.
package filter

import (
	"encoding/json"
	"fmt"
)

// ComparisonType is the operator of a condition.
type ComparisonType string

const (
	Equal          ComparisonType = "eq"
	NotEqual       ComparisonType = "neq"
	Less           ComparisonType = "lt"
	LessOrEqual    ComparisonType = "lte"
	Greater        ComparisonType = "gt"
	GreaterOrEqual ComparisonType = "gte"
	InList         ComparisonType = "in"
	NotInList      ComparisonType = "nin"
	Contains       ComparisonType = "contains"  // ILIKE %v%
	NotContains    ComparisonType = "ncontains" // NOT ILIKE %v%
	IsNull         ComparisonType = "null"
	IsNotNull      ComparisonType = "not_null"
)

// Item is a single condition on a snake_case column.
type Item struct {
	Field    string         `json:"field"`
	Operator ComparisonType `json:"operator"`
	Value    any            `json:"value"`
}

// Parse decodes a JSON array of items. An empty string yields no items.
func Parse(raw string) ([]Item, error) {
	if raw == "" {
		return nil, nil
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode filter: %w", err)
	}
	for _, it := range items {
		if it.Field == "" {
			return nil, fmt.Errorf("filter item without field")
		}
		switch it.Operator {
		case Equal, NotEqual, Less, LessOrEqual, Greater, GreaterOrEqual,
			InList, NotInList, Contains, NotContains, IsNull, IsNotNull:
		default:
			return nil, fmt.Errorf("unknown filter operator %q", it.Operator)
		}
	}
	return items, nil
}
