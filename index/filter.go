package index

// Condition matches a single payload field, or a disjunction of such
// matches. Field is a dot path into the JSON payload ("entity_name",
// "metadata.entity_name"). Exactly one of Match, Any or Or is set:
// Match is an exact-match condition, Any is an any-of-set condition,
// and Or holds alternatives of which at least one must hold. Or lets a
// Must conjunction carry more than one alternative group, which the
// single Should group cannot express.
type Condition struct {
	Field string      `json:"field,omitempty"`
	Match string      `json:"match,omitempty"`
	Any   []string    `json:"any,omitempty"`
	Or    []Condition `json:"or,omitempty"`
}

// Filter is the grammar the index understands: Must clauses are ANDed,
// Should clauses are ORed, and a filter with both requires the Must
// conjunction plus at least one Should clause.
type Filter struct {
	Must   []Condition `json:"must,omitempty"`
	Should []Condition `json:"should,omitempty"`
}

// Empty reports whether the filter constrains nothing.
func (f *Filter) Empty() bool {
	return f == nil || (len(f.Must) == 0 && len(f.Should) == 0)
}

// MatchField builds an exact-match condition.
func MatchField(field, value string) Condition {
	return Condition{Field: field, Match: value}
}

// AnyField builds an any-of-set condition.
func AnyField(field string, values []string) Condition {
	return Condition{Field: field, Any: values}
}

// OneOf builds a disjunction condition over the given alternatives.
func OneOf(conditions ...Condition) Condition {
	return Condition{Or: conditions}
}
