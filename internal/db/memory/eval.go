package memory

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/facetdex/internal/db"
)

type evaluator struct {
	idx *db.IndexDefinition
}

func (e evaluator) indexed(name string) (db.IndexField, error) {
	f, ok := e.idx.Field(name)
	if !ok || f.NoIndex {
		return db.IndexField{}, fmt.Errorf("unknown field %q", name)
	}
	return f, nil
}

func (e evaluator) fieldType(name string) db.IndexFieldType {
	f, _ := e.idx.Field(name)
	return f.Type
}

func (e evaluator) filter(docs []hit, c db.Clause) ([]hit, error) {
	if c.IsAll() {
		return docs, nil
	}
	var out []hit
	for _, d := range docs {
		ok, err := e.match(d.fields, c)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (e evaluator) match(doc map[string]string, c db.Clause) (bool, error) {
	switch c.Kind {
	case db.ClauseAll:
		return true, nil

	case db.ClauseAnd:
		for _, child := range c.Children {
			ok, err := e.match(doc, child)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	case db.ClauseOr:
		for _, child := range c.Children {
			ok, err := e.match(doc, child)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case db.ClauseNot:
		if len(c.Children) != 1 {
			return false, fmt.Errorf("negation needs exactly one clause")
		}
		ok, err := e.match(doc, c.Children[0])
		return !ok, err
	}

	f, err := e.indexed(c.Field)
	if err != nil {
		return false, err
	}
	v, present := doc[c.Field]
	present = present && v != ""

	switch c.Kind {
	case db.ClauseExists:
		return present, nil
	case db.ClauseMissing:
		return !present, nil
	}
	if !present {
		return false, nil
	}

	switch c.Kind {
	case db.ClauseTerm:
		return matchTerm(f, v, c.Values)
	case db.ClauseRange:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return false, nil
		}
		return c.Range.Contains(n), nil
	case db.ClauseMatch:
		return matchText(v, c.Text, c.Prefix), nil
	}
	return false, fmt.Errorf("unknown clause kind %d", c.Kind)
}

func matchTerm(f db.IndexField, value string, wanted []string) (bool, error) {
	switch f.Type {
	case db.IndexFieldNumeric:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return false, nil
		}
		for _, w := range wanted {
			wn, err := strconv.ParseFloat(w, 64)
			if err != nil {
				return false, fmt.Errorf("numeric term on %q: %w", f.Name, err)
			}
			if n == wn {
				return true, nil
			}
		}
		return false, nil

	case db.IndexFieldText:
		for _, w := range wanted {
			if strings.Contains(strings.ToLower(value), strings.ToLower(w)) {
				return true, nil
			}
		}
		return false, nil
	}

	for _, tag := range splitTags(f, value) {
		for _, w := range wanted {
			if tag == w || !f.TagCaseSensitive && strings.EqualFold(tag, w) {
				return true, nil
			}
		}
	}
	return false, nil
}

func splitTags(f db.IndexField, value string) []string {
	if f.TagSeparator == "" {
		return []string{value}
	}
	parts := strings.Split(value, f.TagSeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// count tallies stored values of field over docs.
func (e evaluator) count(docs []hit, field string) (map[string]int64, int64) {
	values := make(map[string]int64)
	var missing int64
	for _, d := range docs {
		v, ok := d.fields[field]
		if !ok || v == "" {
			missing++
			continue
		}
		values[v]++
	}
	return values, missing
}

// groupKey returns the group of a document: its stored value, or MissingKey.
func groupKey(fields map[string]string, field string) string {
	if v, ok := fields[field]; ok && v != "" {
		return v
	}
	return db.MissingKey
}

// groups splits the sorted hits by the group field. Each group keeps its
// first q.Group.Hits documents; nested aggregations count the aggregation
// documents of each group.
func (e evaluator) groups(hits []hit, q *db.Query, aggDocs [][]hit) []db.GroupBucket {
	byKey := make(map[string]*db.GroupBucket)
	var order []string
	for _, h := range hits {
		key := groupKey(h.fields, q.Group.Field)
		gb, ok := byKey[key]
		if !ok {
			gb = &db.GroupBucket{Key: key}
			byKey[key] = gb
			order = append(order, key)
		}
		gb.Count++
		if q.Group.Hits <= 0 || len(gb.Documents) < q.Group.Hits {
			gb.Documents = append(gb.Documents, h.document(q.Prefix))
		}
	}
	out := make([]db.GroupBucket, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	out = db.SortGroups(out, q.Group.Size)

	for g := range out {
		out[g].Aggregations = make(map[string][]db.Bucket, len(q.Aggregations))
		for i, a := range q.Aggregations {
			var inGroup []hit
			for _, d := range aggDocs[i] {
				if groupKey(d.fields, q.Group.Field) == out[g].Key {
					inGroup = append(inGroup, d)
				}
			}
			values, missing := e.count(inGroup, a.Field)
			out[g].Aggregations[a.Code] = db.Tally(a, values, missing)
		}
	}
	return out
}

// sortHits orders hits by one field; documents without a value sort last.
func sortHits(hits []hit, spec *db.SortSpec, typ db.IndexFieldType) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, aok := hits[i].fields[spec.Field]
		b, bok := hits[j].fields[spec.Field]
		if aok != bok {
			return aok
		}
		if !aok || a == b {
			return false
		}
		less := a < b
		if typ == db.IndexFieldNumeric {
			an, aerr := strconv.ParseFloat(a, 64)
			bn, berr := strconv.ParseFloat(b, 64)
			if aerr == nil && berr == nil {
				if an == bn {
					return false
				}
				less = an < bn
			}
		}
		if spec.Desc {
			return !less
		}
		return less
	})
}
