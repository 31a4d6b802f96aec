package criteria

import "fmt"

// MaxPredicates is the maximum number of predicates per criterion.
const MaxPredicates = 32

// Op is a predicate operator.
type Op string

// Predicate operators.
const (
	OpEq      Op = "eq"
	OpIn      Op = "in"
	OpRange   Op = "range"
	OpMatch   Op = "match"
	OpExists  Op = "exists"
	OpMissing Op = "missing"
)

// IsValid reports whether o is a known operator.
func (o Op) IsValid() bool {
	switch o {
	case OpEq, OpIn, OpRange, OpMatch, OpExists, OpMissing:
		return true
	}
	return false
}

// Criterion is one conjunction of predicates plus an optional full-text query.
// Several criteria of one input are OR-ed.
type Criterion struct {
	query      string
	group      string
	predicates []Predicate
}

// New validates and creates a Criterion.
func New(query string, predicates ...Predicate) (Criterion, error) {
	if len(predicates) > MaxPredicates {
		return Criterion{}, fmt.Errorf("too many predicates (max %d)", MaxPredicates)
	}
	return Criterion{query: query, predicates: clonePredicates(predicates)}, nil
}

// Query returns the full-text query text.
func (c Criterion) Query() string { return c.query }

// Group returns the group marker set by a caller.
func (c Criterion) Group() string { return c.group }

// Predicates returns the field predicates.
func (c Criterion) Predicates() []Predicate { return clonePredicates(c.predicates) }

// IsEmpty reports whether the criterion matches everything.
func (c Criterion) IsEmpty() bool { return c.query == "" && len(c.predicates) == 0 }

// WithGroup returns a copy carrying the group marker.
func (c Criterion) WithGroup(group string) Criterion {
	return Criterion{query: c.query, group: group, predicates: clonePredicates(c.predicates)}
}

// WithoutGroup returns a copy with the group marker cleared.
func (c Criterion) WithoutGroup() Criterion { return c.WithGroup("") }

// Predicate is a single condition on one field.
type Predicate struct {
	field  string
	op     Op
	values []string
	rng    *Range
}

// Eq matches an exact value.
func Eq(field, value string) (Predicate, error) {
	if field == "" {
		return Predicate{}, fmt.Errorf("predicate field is required")
	}
	if value == "" {
		return Predicate{}, fmt.Errorf("value is required for field %q", field)
	}
	return Predicate{field: field, op: OpEq, values: []string{value}}, nil
}

// In matches any of the values.
func In(field string, values ...string) (Predicate, error) {
	if field == "" {
		return Predicate{}, fmt.Errorf("predicate field is required")
	}
	if len(values) == 0 {
		return Predicate{}, fmt.Errorf("at least one value is required for field %q", field)
	}
	for _, v := range values {
		if v == "" {
			return Predicate{}, fmt.Errorf("empty value for field %q", field)
		}
	}
	return Predicate{field: field, op: OpIn, values: append([]string(nil), values...)}, nil
}

// Between matches values within r.
func Between(field string, r Range) (Predicate, error) {
	if field == "" {
		return Predicate{}, fmt.Errorf("predicate field is required")
	}
	return Predicate{field: field, op: OpRange, rng: &r}, nil
}

// Match matches analyzed text.
func Match(field, text string) (Predicate, error) {
	if field == "" {
		return Predicate{}, fmt.Errorf("predicate field is required")
	}
	if text == "" {
		return Predicate{}, fmt.Errorf("match text is required for field %q", field)
	}
	return Predicate{field: field, op: OpMatch, values: []string{text}}, nil
}

// Exists matches documents with a value for field.
func Exists(field string) (Predicate, error) {
	if field == "" {
		return Predicate{}, fmt.Errorf("predicate field is required")
	}
	return Predicate{field: field, op: OpExists}, nil
}

// Missing matches documents without a value for field.
func Missing(field string) (Predicate, error) {
	if field == "" {
		return Predicate{}, fmt.Errorf("predicate field is required")
	}
	return Predicate{field: field, op: OpMissing}, nil
}

// Field returns the field name.
func (p Predicate) Field() string { return p.field }

// Op returns the operator.
func (p Predicate) Op() Op { return p.op }

// Values returns the compared values (eq, in, match).
func (p Predicate) Values() []string { return append([]string(nil), p.values...) }

// Range returns the range bounds (range only).
func (p Predicate) Range() *Range { return p.rng }

// Range holds gt/gte/lt/lte boundaries as raw values.
// Strategies parse them according to the field's semantic type.
type Range struct {
	gt  *string
	gte *string
	lt  *string
	lte *string
}

// NewRange validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRange(gt, gte, lt, lte *string) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() *string { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *string { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *string { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *string { return r.lte }

func clonePredicates(p []Predicate) []Predicate {
	if p == nil {
		return nil
	}
	out := make([]Predicate, len(p))
	copy(out, p)
	return out
}
