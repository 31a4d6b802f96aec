package facetdex

import (
	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
	"github.com/kailas-cloud/facetdex/internal/domain/search/criteria"
	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
	"github.com/kailas-cloud/facetdex/internal/mapping"
	queryuc "github.com/kailas-cloud/facetdex/internal/usecase/query"
)

// Sentinel errors. Returned errors wrap one of these.
var (
	ErrConfiguration     = domain.ErrConfiguration
	ErrMappingProjection = domain.ErrMappingProjection
	ErrBackendExecution  = domain.ErrBackendExecution
	ErrNotFound          = domain.ErrNotFound
	ErrIndexNotFound     = db.ErrIndexNotFound
	ErrFieldExists       = db.ErrFieldExists
)

// ConfigurationError names the misconfigured field, facet or entry.
type ConfigurationError = domain.ConfigurationError

// EntryError attributes a batch failure to one entry.
type EntryError = domain.EntryError

// Request and response types.
type (
	Input       = request.Input
	Selection   = request.Selection
	Sort        = request.Sort
	Criterion   = criteria.Criterion
	Predicate   = criteria.Predicate
	Range       = criteria.Range
	Facet       = facet.Definition
	FacetOption = facet.Option
	Bound       = facet.Bound
	FacetOutput = facet.Output
	FacetItem   = facet.Item
	Output      = result.Output
	Group       = result.Group
	Document    = db.Document
	// MultiQuery collects entries of one batch; see Client.MultiQuery.
	MultiQuery = queryuc.Coordinator
)

// Field description types.
type (
	Field        = field.Descriptor
	SemanticType = field.SemanticType
	Indexing     = field.Indexing
	Strategy     = mapping.Strategy
	IndexField   = db.IndexField
	IndexMapping = db.IndexDefinition
)

// Semantic types.
const (
	String = field.String
	Int    = field.Int
	Float  = field.Float
	Bool   = field.Bool
	Date   = field.Date
)

// Indexing intents.
const (
	FullText = field.FullText
	Term     = field.Term
	SortOnly = field.Sort
	NoIndex  = field.None
)

// Facet orderings.
const (
	OrderBackend = facet.OrderBackend
	OrderKey     = facet.OrderKey
	OrderLabel   = facet.OrderLabel
)

// NewCriterion combines a full-text query with predicates.
func NewCriterion(query string, preds ...Predicate) (Criterion, error) {
	return criteria.New(query, preds...)
}

// Eq matches field equal to value.
func Eq(fieldName, value string) (Predicate, error) { return criteria.Eq(fieldName, value) }

// In matches field equal to any of values.
func In(fieldName string, values ...string) (Predicate, error) {
	return criteria.In(fieldName, values...)
}

// Match runs a full-text match on one field.
func Match(fieldName, text string) (Predicate, error) { return criteria.Match(fieldName, text) }

// Exists matches documents holding field.
func Exists(fieldName string) (Predicate, error) { return criteria.Exists(fieldName) }

// Missing matches documents without field.
func Missing(fieldName string) (Predicate, error) { return criteria.Missing(fieldName) }

// Between matches field within r.
func Between(fieldName string, r Range) (Predicate, error) { return criteria.Between(fieldName, r) }

// NewRange builds a range; nil bounds are open.
func NewRange(gt, gte, lt, lte *string) (Range, error) { return criteria.NewRange(gt, gte, lt, lte) }

// NewTermFacet counts distinct values of field.
func NewTermFacet(code, label, fieldName string, opts ...FacetOption) (Facet, error) {
	return facet.NewTerm(code, label, fieldName, opts...)
}

// NewExistsFacet counts documents with and without field.
func NewExistsFacet(code, label, fieldName string, opts ...FacetOption) (Facet, error) {
	return facet.NewExists(code, label, fieldName, opts...)
}

// NewRangeFacet counts documents per declared bucket of field.
func NewRangeFacet(code, label, fieldName string, ranges []Bound, opts ...FacetOption) (Facet, error) {
	return facet.NewRange(code, label, fieldName, ranges, opts...)
}

// Facet options.
var (
	MultiSelectable = facet.MultiSelectable
	Excludable      = facet.Excludable
	WithMissing     = facet.WithMissing
	OrderBy         = facet.OrderBy
	WithSize        = facet.WithSize
	WithResolver    = facet.WithResolver
)
