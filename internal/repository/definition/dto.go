package definition

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
)

// fieldRow is the JSON-serializable representation of a field for HSET.
type fieldRow struct {
	Name     string `json:"name"`
	Storage  string `json:"storage,omitempty"`
	Type     string `json:"type"`
	Indexing string `json:"indexing"`
	Key      bool   `json:"key,omitempty"`
	Required bool   `json:"required,omitempty"`
}

// definitionToHash converts a Definition to a map for HSET.
func definitionToHash(def *document.Definition, revision int) (map[string]string, error) {
	fields := def.Fields()
	rows := make([]fieldRow, len(fields))
	for i, f := range fields {
		rows[i] = fieldRow{
			Name:     f.Name(),
			Type:     string(f.Type()),
			Indexing: string(f.Indexing()),
			Key:      f.IsPrimaryKey(),
			Required: f.IsRequired(),
		}
		if f.StorageName() != f.Name() {
			rows[i].Storage = f.StorageName()
		}
	}
	fieldsJSON, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}
	return map[string]string{
		"name":        def.Type(),
		"fields_json": string(fieldsJSON),
		"revision":    strconv.Itoa(revision),
	}, nil
}

// fieldsFromHash hydrates field descriptors from an HGETALL result map.
func fieldsFromHash(m map[string]string) ([]field.Descriptor, error) {
	var rows []fieldRow
	if raw := m["fields_json"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &rows); err != nil {
			return nil, fmt.Errorf("unmarshal fields: %w", err)
		}
	}

	fields := make([]field.Descriptor, len(rows))
	for i, r := range rows {
		fields[i] = field.Reconstruct(r.Name, r.Storage,
			field.SemanticType(r.Type), field.Indexing(r.Indexing), r.Key, r.Required)
	}
	return fields, nil
}

func revisionFromHash(m map[string]string) int {
	if s, ok := m["revision"]; ok && s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return 0
}
