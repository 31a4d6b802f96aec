package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/kailas-cloud/facetdex/internal/db"
)

// CreateIndex creates an FT index from the given definition.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// AlterIndex adds one field to an existing index via FT.ALTER.
func (s *Store) AlterIndex(ctx context.Context, name string, field db.IndexField) error {
	if field.NoIndex {
		// unindexed fields live in the hash only
		return nil
	}
	fieldArgs, err := buildFieldArgs(&field)
	if err != nil {
		return err
	}
	args := append([]string{name, "SCHEMA", "ADD"}, fieldArgs...)

	cmd := s.b().Arbitrary("FT.ALTER").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		switch {
		case isRedisErr(err, "unknown index name"):
			return db.ErrIndexNotFound
		case isRedisErr(err, "duplicate field"):
			return db.ErrFieldExists
		}
		return &db.Error{Op: db.OpAlterIndex, Err: err}
	}
	return nil
}

// IndexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

func buildCreateArgs(idx *db.IndexDefinition) ([]string, error) {
	if idx.Name == "" {
		return nil, errors.New("index name is required")
	}

	args := []string{idx.Name}

	storage := idx.StorageType
	if storage == "" {
		storage = db.StorageHash
	}
	args = append(args, "ON", string(storage))

	if len(idx.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(idx.Prefixes)))
		args = append(args, idx.Prefixes...)
	}

	args = append(args, "SCHEMA")

	indexed := 0
	for i := range idx.Fields {
		if idx.Fields[i].NoIndex {
			continue
		}
		fieldArgs, err := buildFieldArgs(&idx.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
		indexed++
	}
	if indexed == 0 {
		return nil, errors.New("at least one indexed field is required")
	}

	return args, nil
}

func buildFieldArgs(f *db.IndexField) ([]string, error) {
	if f.Name == "" {
		return nil, errors.New("field name is required")
	}

	args := []string{f.Name}

	if f.Alias != "" {
		args = append(args, "AS", f.Alias)
	}

	switch f.Type {
	case db.IndexFieldNumeric:
		args = append(args, "NUMERIC")

	case db.IndexFieldText:
		args = append(args, "TEXT")
		if f.Analyzer != "" && f.Analyzer != db.AnalyzerText {
			// only the stemming analyzer is native, anything else indexes verbatim
			args = append(args, "NOSTEM")
		}

	case db.IndexFieldTag:
		args = append(args, "TAG")
		if f.TagSeparator != "" {
			args = append(args, "SEPARATOR", f.TagSeparator)
		}
		if f.TagCaseSensitive {
			args = append(args, "CASESENSITIVE")
		}

	default:
		return nil, errors.New("unknown field type")
	}

	args = append(args, "INDEXMISSING")
	if f.Sortable {
		args = append(args, "SORTABLE")
	}

	return args, nil
}
