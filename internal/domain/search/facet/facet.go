package facet

import (
	"fmt"
	"math"
)

// Synthetic bucket keys.
const (
	// MissingKey is the bucket of documents without a value for the facet field.
	MissingKey = "_Missing"
	// ExistsKey is the bucket of documents with a value (exists facets).
	ExistsKey = "true"
)

// DefaultSize is the default number of term buckets requested from the backend.
const DefaultSize = 50

// Kind tags the facet variant.
type Kind int

// Facet variants.
const (
	Term Kind = iota
	Exists
	Range
)

func (k Kind) String() string {
	switch k {
	case Term:
		return "term"
	case Exists:
		return "exists"
	case Range:
		return "range"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Order controls term item ordering. Term facets default to OrderBackend.
type Order int

// Item orderings.
const (
	// OrderBackend keeps backend order (count descending). It is the default.
	OrderBackend Order = iota
	// OrderKey sorts by bucket key.
	OrderKey
	// OrderLabel sorts by resolved label.
	OrderLabel
)

// LabelResolver maps a bucket key to a display label.
type LabelResolver func(key string) (string, bool)

// Bound is one declared bucket of a range facet. Min is inclusive, Max exclusive.
type Bound struct {
	Code  string
	Label string
	Min   *float64
	Max   *float64
}

// Lower returns the inclusive lower bound, -Inf when open.
func (b Bound) Lower() float64 {
	if b.Min == nil {
		return math.Inf(-1)
	}
	return *b.Min
}

// Upper returns the exclusive upper bound, +Inf when open.
func (b Bound) Upper() float64 {
	if b.Max == nil {
		return math.Inf(1)
	}
	return *b.Max
}

// Contains reports whether v falls into the bucket.
func (b Bound) Contains(v float64) bool { return v >= b.Lower() && v < b.Upper() }

// Definition describes one facet (immutable value object).
type Definition struct {
	kind     Kind
	code     string
	label    string
	field    string
	multi    bool
	exclude  bool
	missing  bool
	order    Order
	size     int
	resolver LabelResolver
	ranges   []Bound
}

// Option customizes a term or range facet.
type Option func(*Definition)

// MultiSelectable lets several keys be selected at once.
func MultiSelectable() Option { return func(d *Definition) { d.multi = true } }

// Excludable lets selected keys be negated.
func Excludable() Option { return func(d *Definition) { d.exclude = true } }

// WithMissing adds a synthetic bucket for documents without a value.
func WithMissing() Option { return func(d *Definition) { d.missing = true } }

// WithResolver sets the label resolver.
func WithResolver(r LabelResolver) Option { return func(d *Definition) { d.resolver = r } }

// OrderBy sets the item ordering of a term facet. Without it items come in
// backend order, so key or label order must be asked for explicitly. Key and
// label order keep the missing bucket last.
func OrderBy(o Order) Option { return func(d *Definition) { d.order = o } }

// WithSize sets the number of term buckets requested.
func WithSize(n int) Option { return func(d *Definition) { d.size = n } }

// NewTerm creates a facet with one bucket per distinct value.
func NewTerm(code, label, field string, opts ...Option) (Definition, error) {
	d := Definition{kind: Term, code: code, label: label, field: field, size: DefaultSize}
	for _, o := range opts {
		o(&d)
	}
	if err := d.validate(); err != nil {
		return Definition{}, err
	}
	if d.size <= 0 {
		return Definition{}, fmt.Errorf("facet %q: size must be positive", code)
	}
	return d, nil
}

// NewExists creates a has-value / missing facet.
// Exists facets are never multi-selectable nor excludable and always report missing.
func NewExists(code, label, field string, opts ...Option) (Definition, error) {
	d := Definition{kind: Exists, code: code, label: label, field: field}
	for _, o := range opts {
		o(&d)
	}
	d.multi, d.exclude, d.missing = false, false, true
	d.order = OrderBackend
	if err := d.validate(); err != nil {
		return Definition{}, err
	}
	return d, nil
}

// NewRange creates a facet with one bucket per declared range, in declaration order.
func NewRange(code, label, field string, ranges []Bound, opts ...Option) (Definition, error) {
	d := Definition{kind: Range, code: code, label: label, field: field}
	for _, o := range opts {
		o(&d)
	}
	d.order = OrderBackend
	if err := d.validate(); err != nil {
		return Definition{}, err
	}
	if len(ranges) == 0 {
		return Definition{}, fmt.Errorf("facet %q: at least one range is required", code)
	}
	seen := make(map[string]bool, len(ranges))
	for _, r := range ranges {
		if r.Code == "" {
			return Definition{}, fmt.Errorf("facet %q: range code is required", code)
		}
		if seen[r.Code] {
			return Definition{}, fmt.Errorf("facet %q: duplicate range %q", code, r.Code)
		}
		seen[r.Code] = true
		if r.Lower() >= r.Upper() {
			return Definition{}, fmt.Errorf("facet %q: range %q is empty", code, r.Code)
		}
	}
	d.ranges = append([]Bound(nil), ranges...)
	return d, nil
}

func (d Definition) validate() error {
	if d.code == "" {
		return fmt.Errorf("facet code is required")
	}
	if d.field == "" {
		return fmt.Errorf("facet %q: field is required", d.code)
	}
	return nil
}

// Kind returns the facet variant.
func (d Definition) Kind() Kind { return d.kind }

// Code returns the facet code.
func (d Definition) Code() string { return d.code }

// Label returns the facet display label.
func (d Definition) Label() string { return d.label }

// Field returns the faceted field name.
func (d Definition) Field() string { return d.field }

// IsMultiSelectable reports whether several keys may be selected.
func (d Definition) IsMultiSelectable() bool { return d.multi }

// CanExclude reports whether selected keys may be negated.
func (d Definition) CanExclude() bool { return d.exclude }

// HasMissing reports whether a missing bucket is reported.
func (d Definition) HasMissing() bool { return d.missing }

// Order returns the item ordering.
func (d Definition) Order() Order { return d.order }

// Size returns the number of term buckets requested.
func (d Definition) Size() int { return d.size }

// Ranges returns the declared range buckets.
func (d Definition) Ranges() []Bound { return append([]Bound(nil), d.ranges...) }

// Range returns the declared range with the given code.
func (d Definition) Range(code string) (Bound, bool) {
	for _, r := range d.ranges {
		if r.Code == code {
			return r, true
		}
	}
	return Bound{}, false
}

// ResolveLabel returns the label of key. Exists facets never resolve labels.
func (d Definition) ResolveLabel(key string) (string, bool) {
	switch d.kind {
	case Exists:
		return "", false
	case Range:
		if r, ok := d.Range(key); ok && r.Label != "" {
			return r.Label, true
		}
		return "", false
	}
	if d.resolver == nil {
		return "", false
	}
	return d.resolver(key)
}

// WithLabelResolver returns a copy using r.
func (d Definition) WithLabelResolver(r LabelResolver) Definition {
	d.resolver = r
	d.ranges = append([]Bound(nil), d.ranges...)
	return d
}

// Item is one resolved facet value.
type Item struct {
	Code  string
	Label string
	Count int64
}

// Output is a resolved facet.
type Output struct {
	Code            string
	Label           string
	MultiSelectable bool
	Excludable      bool
	HasMissing      bool
	Items           []Item
}

// Total returns the sum of item counts.
func (o Output) Total() int64 {
	var n int64
	for _, it := range o.Items {
		n += it.Count
	}
	return n
}
