package facetdex

import (
	"reflect"

	"github.com/kailas-cloud/facetdex/internal/db"
	queryuc "github.com/kailas-cloud/facetdex/internal/usecase/query"
)

// Mapper projects a stored document into a caller type.
type Mapper = queryuc.DocumentMapper

// MapTo decodes each hit into the tagged struct T and projects it with fn.
// A decode or projection failure fails the whole batch with
// ErrMappingProjection.
func MapTo[T, O any](fn func(T) (O, error)) Mapper {
	return queryuc.MapperFunc[O](func(doc db.Document) (O, error) {
		var zero O
		item, err := Decode[T](doc)
		if err != nil {
			return zero, err
		}
		return fn(item)
	})
}

// As decodes each hit into the tagged struct T.
func As[T any]() Mapper {
	return queryuc.MapperFunc[T](Decode[T])
}

// Raw yields the stored documents unchanged.
func Raw() Mapper { return queryuc.Raw() }

// Decode fills a T from a stored document.
func Decode[T any](doc db.Document) (T, error) {
	var zero T
	meta, err := schemaOf[T]()
	if err != nil {
		return zero, err
	}
	v, err := meta.decode(doc)
	if err != nil {
		return zero, err
	}
	if reflect.TypeFor[T]().Kind() == reflect.Pointer {
		v = v.Addr()
	}
	return v.Interface().(T), nil //nolint:forcetypeassert // schema type is T
}
