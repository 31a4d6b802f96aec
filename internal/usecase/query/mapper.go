package query

import "github.com/kailas-cloud/facetdex/internal/db"

// DocumentMapper projects a stored document into a caller type. Document
// fields are keyed by field name.
type DocumentMapper interface {
	Map(doc db.Document) (any, error)
}

// MapperFunc adapts a typed projection to DocumentMapper.
type MapperFunc[O any] func(doc db.Document) (O, error)

// Map implements DocumentMapper.
func (f MapperFunc[O]) Map(doc db.Document) (any, error) {
	return f(doc)
}

// Raw returns a mapper yielding the document itself.
func Raw() DocumentMapper {
	return MapperFunc[db.Document](func(doc db.Document) (db.Document, error) { return doc, nil })
}
