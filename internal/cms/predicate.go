package cms

import (
	"strconv"
)

// Field names a searchable item property.
type Field string

const (
	FieldID    Field = "id"
	FieldTitle Field = "title"
	FieldPath  Field = "path"
)

// Operator is a term comparison.
type Operator string

const OpEqual Operator = "eq"

// Term is a single (field, operator, value) comparison.
type Term struct {
	Field    Field    `json:"field"`
	Operator Operator `json:"op"`
	Value    string   `json:"value"`
}

// Clause is a conjunction of terms.
type Clause struct {
	Terms []Term `json:"terms"`
}

// Predicate is a disjunction of clauses. An empty predicate matches nothing.
type Predicate struct {
	Clauses []Clause `json:"clauses"`
}

// IDClause matches a single item by identifier.
func IDClause(id int64) Clause {
	return Clause{Terms: []Term{{Field: FieldID, Operator: OpEqual, Value: strconv.FormatInt(id, 10)}}}
}

// TitlePathClause matches items by natural key.
func TitlePathClause(title, path string) Clause {
	return Clause{Terms: []Term{
		{Field: FieldTitle, Operator: OpEqual, Value: title},
		{Field: FieldPath, Operator: OpEqual, Value: path},
	}}
}

// Len returns the number of terms in the clause.
func (c Clause) Len() int { return len(c.Terms) }

// Matches reports whether every term holds for item.
func (c Clause) Matches(item Item) bool {
	if len(c.Terms) == 0 {
		return false
	}
	for _, term := range c.Terms {
		if !term.Matches(item) {
			return false
		}
	}
	return true
}

// Matches reports whether the term holds for item.
func (t Term) Matches(item Item) bool {
	if t.Operator != OpEqual {
		return false
	}
	switch t.Field {
	case FieldID:
		return strconv.FormatInt(item.ID, 10) == t.Value
	case FieldTitle:
		return item.Title == t.Value
	case FieldPath:
		return item.FolderPath == t.Value
	default:
		return false
	}
}

// TermCount returns the total number of terms across all clauses.
func (p Predicate) TermCount() int {
	total := 0
	for _, clause := range p.Clauses {
		total += clause.Len()
	}
	return total
}

// IsEmpty reports whether the predicate has no clauses.
func (p Predicate) IsEmpty() bool { return len(p.Clauses) == 0 }

// Matches reports whether any clause holds for item.
func (p Predicate) Matches(item Item) bool {
	for _, clause := range p.Clauses {
		if clause.Matches(item) {
			return true
		}
	}
	return false
}
