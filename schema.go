package facetdex

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
)

const tagKey = "facetdex"

var timeType = reflect.TypeOf(time.Time{})

// schemaMeta holds parsed struct tag metadata of one Go type.
type schemaMeta struct {
	typ    reflect.Type
	fields []field.Descriptor
	// struct field index per descriptor
	index []int
}

// schemaCache memoizes parsed schemas per Go type.
var schemaCache sync.Map // reflect.Type -> *schemaMeta

// schemaOf parses the facetdex tags of T once.
func schemaOf[T any]() (*schemaMeta, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return nil, fmt.Errorf("facetdex: interface types have no schema")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := schemaCache.Load(t); ok {
		return cached.(*schemaMeta), nil //nolint:forcetypeassert // only *schemaMeta is stored
	}
	meta, err := parseSchema(t)
	if err != nil {
		return nil, err
	}
	actual, _ := schemaCache.LoadOrStore(t, meta)
	return actual.(*schemaMeta), nil //nolint:forcetypeassert // only *schemaMeta is stored
}

// parseSchema reads `facetdex:"name,intent,key,required,type=x,storage=y"` tags.
// Untagged exported fields are skipped.
func parseSchema(t reflect.Type) (*schemaMeta, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("facetdex: type %s is not a struct", t)
	}

	meta := &schemaMeta{typ: t}
	for i := range t.NumField() {
		sf := t.Field(i)
		tag := sf.Tag.Get(tagKey)
		if tag == "" || tag == "-" || !sf.IsExported() {
			continue
		}
		desc, err := parseTag(sf, tag)
		if err != nil {
			return nil, fmt.Errorf("facetdex: %s.%s: %w", t.Name(), sf.Name, err)
		}
		meta.fields = append(meta.fields, desc)
		meta.index = append(meta.index, i)
	}
	if len(meta.fields) == 0 {
		return nil, fmt.Errorf("facetdex: no field with a %q tag in %s", tagKey, t)
	}
	return meta, nil
}

func parseTag(sf reflect.StructField, tag string) (field.Descriptor, error) {
	parts := strings.Split(tag, ",")
	name := strings.TrimSpace(parts[0])
	if name == "" {
		name = strings.ToLower(sf.Name[:1]) + sf.Name[1:]
	}

	var (
		intent     = field.Term
		storage    string
		semantic   field.SemanticType
		primaryKey bool
		required   bool
	)
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		switch {
		case p == "key":
			primaryKey = true
		case p == "required":
			required = true
		case field.Indexing(p).IsValid():
			intent = field.Indexing(p)
		case strings.HasPrefix(p, "type="):
			semantic = field.SemanticType(strings.TrimPrefix(p, "type="))
		case strings.HasPrefix(p, "storage="):
			storage = strings.TrimPrefix(p, "storage=")
		case p == "":
		default:
			return field.Descriptor{}, fmt.Errorf("unknown tag option %q", p)
		}
	}

	if semantic == "" {
		var err error
		if semantic, err = semanticOf(sf.Type); err != nil {
			return field.Descriptor{}, err
		}
	}
	return field.New(name, storage, semantic, intent, primaryKey, required)
}

// semanticOf infers the semantic type of a Go field type.
func semanticOf(t reflect.Type) (field.SemanticType, error) {
	if t == timeType {
		return field.Date, nil
	}
	switch t.Kind() {
	case reflect.String:
		return field.String, nil
	case reflect.Bool:
		return field.Bool, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return field.Int, nil
	case reflect.Float32, reflect.Float64:
		return field.Float, nil
	}
	return "", fmt.Errorf("unsupported field type %s (set type=...)", t)
}

// encode converts a typed value into raw field values keyed by field name.
// Zero times are omitted.
func (m *schemaMeta) encode(item any) (map[string]string, error) {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("facetdex: nil %s", m.typ)
		}
		v = v.Elem()
	}
	if v.Type() != m.typ {
		return nil, fmt.Errorf("facetdex: expected %s, got %s", m.typ, v.Type())
	}

	out := make(map[string]string, len(m.fields))
	for i, f := range m.fields {
		fv := v.Field(m.index[i])
		if fv.Type() == timeType {
			t := fv.Interface().(time.Time) //nolint:forcetypeassert // checked above
			if t.IsZero() {
				continue
			}
			out[f.Name()] = t.UTC().Format(time.RFC3339)
			continue
		}
		switch fv.Kind() {
		case reflect.String:
			out[f.Name()] = fv.String()
		case reflect.Bool:
			out[f.Name()] = strconv.FormatBool(fv.Bool())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			out[f.Name()] = strconv.FormatInt(fv.Int(), 10)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			out[f.Name()] = strconv.FormatUint(fv.Uint(), 10)
		case reflect.Float32, reflect.Float64:
			out[f.Name()] = db.FormatNumber(fv.Float())
		default:
			out[f.Name()] = fmt.Sprint(fv.Interface())
		}
	}
	return out, nil
}

// decode fills a new value of the schema type from a stored document.
// Fields absent from the document keep their zero value.
func (m *schemaMeta) decode(doc db.Document) (reflect.Value, error) {
	v := reflect.New(m.typ).Elem()
	for i, f := range m.fields {
		raw, ok := doc.Fields[f.Name()]
		if !ok {
			continue
		}
		if err := setValue(v.Field(m.index[i]), raw); err != nil {
			return reflect.Value{}, domain.Configf(f.Name(), "decode %q: %v", raw, err)
		}
	}
	return v, nil
}

func setValue(fv reflect.Value, raw string) error {
	if fv.Type() == timeType {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			fv.Set(reflect.ValueOf(time.Unix(n, 0).UTC()))
			return nil
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(t))
		return nil
	}
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	default:
		return fmt.Errorf("unsupported kind %s", fv.Kind())
	}
	return nil
}
