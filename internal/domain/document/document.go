package document

import (
	"fmt"
	"regexp"

	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
)

var typeRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxFields is the maximum number of fields per document type.
const MaxFields = 256

// Definition is the field layout of one document type (immutable value object).
type Definition struct {
	docType string
	fields  []field.Descriptor
	byName  map[string]int
	pk      int
}

// New validates and creates a Definition.
// Type name: ^[a-zA-Z0-9_-]+$. Field names must be unique, at most one primary key.
func New(docType string, fields []field.Descriptor) (*Definition, error) {
	if docType == "" {
		return nil, fmt.Errorf("document type is required")
	}
	if !typeRegex.MatchString(docType) {
		return nil, fmt.Errorf("document type %q must be alphanumeric with underscores and hyphens", docType)
	}
	if len(fields) > MaxFields {
		return nil, fmt.Errorf("too many fields (max %d)", MaxFields)
	}

	d := &Definition{
		docType: docType,
		fields:  make([]field.Descriptor, len(fields)),
		byName:  make(map[string]int, len(fields)),
		pk:      -1,
	}
	copy(d.fields, fields)
	for i, f := range d.fields {
		if _, dup := d.byName[f.Name()]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.Name())
		}
		d.byName[f.Name()] = i
		if f.IsPrimaryKey() {
			if d.pk >= 0 {
				return nil, fmt.Errorf("multiple primary keys: %q and %q", d.fields[d.pk].Name(), f.Name())
			}
			d.pk = i
		}
	}
	return d, nil
}

// Type returns the document type name.
func (d *Definition) Type() string { return d.docType }

// Fields returns the fields in declaration order.
func (d *Definition) Fields() []field.Descriptor {
	out := make([]field.Descriptor, len(d.fields))
	copy(out, d.fields)
	return out
}

// Field returns the named field.
func (d *Definition) Field(name string) (field.Descriptor, bool) {
	i, ok := d.byName[name]
	if !ok {
		return field.Descriptor{}, false
	}
	return d.fields[i], true
}

// PrimaryKey returns the primary key field, if declared.
func (d *Definition) PrimaryKey() (field.Descriptor, bool) {
	if d.pk < 0 {
		return field.Descriptor{}, false
	}
	return d.fields[d.pk], true
}

// FullTextFields returns the fields indexed for full-text search.
func (d *Definition) FullTextFields() []field.Descriptor {
	var out []field.Descriptor
	for _, f := range d.fields {
		if f.Indexing() == field.FullText {
			out = append(out, f)
		}
	}
	return out
}
