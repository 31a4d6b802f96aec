package field

import "fmt"

// SemanticType is the value type of a field as seen by the mapping registry.
// Custom types use their own name and fall back to text mapping.
type SemanticType string

// Built-in semantic types.
const (
	String SemanticType = "string"
	Int    SemanticType = "int"
	Float  SemanticType = "float"
	Bool   SemanticType = "bool"
	Date   SemanticType = "date"
)

// Indexing is the declared indexing intent of a field.
type Indexing string

// Indexing intents.
const (
	// FullText is an analyzed field matched by full-text queries.
	FullText Indexing = "fulltext"
	// Term is an exact, filterable and facetable field.
	Term Indexing = "term"
	// Sort is an exact field used for ordering.
	Sort Indexing = "sort"
	// None stores the field without indexing it.
	None Indexing = "none"
)

// IsValid reports whether i is a known intent.
func (i Indexing) IsValid() bool {
	switch i {
	case FullText, Term, Sort, None:
		return true
	}
	return false
}

// IsExact reports whether the field is indexed unanalyzed.
func (i Indexing) IsExact() bool { return i == Term || i == Sort }

// Descriptor is an immutable description of one document field.
type Descriptor struct {
	name        string
	storageName string
	semantic    SemanticType
	indexing    Indexing
	primaryKey  bool
	required    bool
}

// New validates and creates a Descriptor. storageName defaults to name.
func New(
	name, storageName string, st SemanticType, idx Indexing,
	primaryKey, required bool,
) (Descriptor, error) {
	if name == "" {
		return Descriptor{}, fmt.Errorf("field name is required")
	}
	if len(name) > 64 {
		return Descriptor{}, fmt.Errorf("field name %q too long (max 64)", name)
	}
	if st == "" {
		return Descriptor{}, fmt.Errorf("semantic type is required for %q", name)
	}
	if !idx.IsValid() {
		return Descriptor{}, fmt.Errorf("invalid indexing %q for %q", idx, name)
	}
	if storageName == "" {
		storageName = name
	}
	return Descriptor{
		name: name, storageName: storageName, semantic: st, indexing: idx,
		primaryKey: primaryKey, required: required,
	}, nil
}

// Reconstruct creates a Descriptor without validation.
func Reconstruct(
	name, storageName string, st SemanticType, idx Indexing,
	primaryKey, required bool,
) Descriptor {
	if storageName == "" {
		storageName = name
	}
	return Descriptor{
		name: name, storageName: storageName, semantic: st, indexing: idx,
		primaryKey: primaryKey, required: required,
	}
}

// Name returns the field name.
func (d Descriptor) Name() string { return d.name }

// StorageName returns the backend-side field name.
func (d Descriptor) StorageName() string { return d.storageName }

// Type returns the semantic value type.
func (d Descriptor) Type() SemanticType { return d.semantic }

// Indexing returns the declared indexing intent.
func (d Descriptor) Indexing() Indexing { return d.indexing }

// IsPrimaryKey reports whether the field identifies the document.
func (d Descriptor) IsPrimaryKey() bool { return d.primaryKey }

// IsRequired reports whether the field must carry a value.
func (d Descriptor) IsRequired() bool { return d.required }
