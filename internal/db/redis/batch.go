package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/facetdex/internal/db"
)

// aggregateLimit caps the rows returned by one FT.AGGREGATE.
const aggregateLimit = 10000

// groupHitsLimit caps the matches scanned to fill grouped hits.
const groupHitsLimit = 1000

const countAlias = "__count"

type slotKind int

const (
	slotHits slotKind = iota
	slotGroups
	slotGroupHits
	slotAgg
	slotGroupedAgg
)

// slot ties one pipelined command back to its entry.
type slot struct {
	entry int
	kind  slotKind
	agg   int
	op    string
}

// ExecuteBatch renders every query into FT.SEARCH / FT.AGGREGATE commands and
// sends them in a single DoMulti round trip.
//
// Server errors are attributed to their entry (Response.Err); transport errors
// and cancellation fail the whole batch.
func (s *Store) ExecuteBatch(ctx context.Context, queries []db.NamedQuery) (map[string]*db.Response, error) {
	out := make(map[string]*db.Response, len(queries))
	if len(queries) == 0 {
		return out, nil
	}

	var (
		cmds  []rueidis.Completed
		slots []slot
	)
	for i, nq := range queries {
		resp := &db.Response{Aggregations: make(map[string][]db.Bucket)}
		out[nq.Code] = resp

		entryCmds, entrySlots, err := s.buildEntry(i, nq.Query)
		if err != nil {
			resp.Err = err
			continue
		}
		cmds = append(cmds, entryCmds...)
		slots = append(slots, entrySlots...)
	}
	if len(cmds) == 0 {
		return out, nil
	}

	results := s.client.DoMulti(ctx, cmds...)
	if err := ctx.Err(); err != nil {
		return nil, &db.Error{Op: db.OpBatch, Err: err}
	}
	if len(results) != len(cmds) {
		return nil, &db.Error{Op: db.OpBatch, Err: fmt.Errorf("got %d replies for %d commands", len(results), len(cmds))}
	}

	grouped := make(map[int]map[string]map[string]groupCounts)
	groupDocs := make(map[int][]db.Document)
	for i, res := range results {
		sl := slots[i]
		q := queries[sl.entry].Query
		resp := out[queries[sl.entry].Code]
		if resp.Err != nil {
			continue
		}

		raw, err := res.ToArray()
		if err != nil {
			if _, ok := rueidis.IsRedisErr(err); !ok {
				return nil, &db.Error{Op: db.OpBatch, Err: err}
			}
			resp.Err = &db.Error{Op: sl.op, Err: err}
			continue
		}

		switch sl.kind {
		case slotHits:
			err = parseHits(raw, q.Prefix, resp)
		case slotGroups:
			err = parseGroups(raw, q.Group.Field, resp)
		case slotGroupHits:
			var hits db.Response
			err = parseHits(raw, q.Prefix, &hits)
			groupDocs[sl.entry] = hits.Documents
		case slotAgg:
			a := q.Aggregations[sl.agg]
			var counts groupCounts
			counts, err = parseCounts(raw, a.Field)
			if err == nil {
				resp.Aggregations[a.Code] = db.Tally(a, counts.values, counts.missing)
			}
		case slotGroupedAgg:
			a := q.Aggregations[sl.agg]
			var byGroup map[string]groupCounts
			byGroup, err = parseGroupedCounts(raw, q.Group.Field, a.Field)
			if err == nil {
				if grouped[sl.entry] == nil {
					grouped[sl.entry] = make(map[string]map[string]groupCounts)
				}
				grouped[sl.entry][a.Code] = byGroup
			}
		}
		if err != nil {
			resp.Err = &db.Error{Op: sl.op, Err: err}
		}
	}

	for i, nq := range queries {
		resp := out[nq.Code]
		if resp.Err != nil || nq.Query.Group == nil {
			continue
		}
		resp.Groups = db.SortGroups(resp.Groups, nq.Query.Group.Size)
		assignGroupDocuments(resp.Groups, groupDocs[i], nq.Query.Group)
		for g := range resp.Groups {
			gb := &resp.Groups[g]
			gb.Aggregations = make(map[string][]db.Bucket, len(nq.Query.Aggregations))
			for _, a := range nq.Query.Aggregations {
				c := grouped[i][a.Code][gb.Key]
				gb.Aggregations[a.Code] = db.Tally(a, c.values, c.missing)
			}
		}
	}

	return out, nil
}

func (s *Store) buildEntry(entry int, q *db.Query) ([]rueidis.Completed, []slot, error) {
	if q == nil {
		return nil, nil, fmt.Errorf("query is required")
	}
	if q.Index == "" {
		return nil, nil, fmt.Errorf("index name is required")
	}

	hitQuery, err := renderClause(q.HitFilter())
	if err != nil {
		return nil, nil, err
	}

	args := []string{q.Index, hitQuery}
	args = append(args, sortArgs(q.Sort)...)
	args = append(args, "LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit), "DIALECT", "2")

	cmds := []rueidis.Completed{s.b().Arbitrary("FT.SEARCH").Args(args...).Build()}
	slots := []slot{{entry: entry, kind: slotHits, op: db.OpSearch}}

	if q.Group != nil {
		size := q.Group.Size
		if size <= 0 {
			size = aggregateLimit
		}
		args := []string{
			q.Index, hitQuery,
			"LOAD", "1", "@" + q.Group.Field,
			"GROUPBY", "1", "@" + q.Group.Field,
			"REDUCE", "COUNT", "0", "AS", countAlias,
			"SORTBY", "2", "@" + countAlias, "DESC",
			"LIMIT", "0", strconv.Itoa(size),
			"DIALECT", "2",
		}
		cmds = append(cmds, s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build())
		slots = append(slots, slot{entry: entry, kind: slotGroups, op: db.OpAggregate})

		// group members are drawn from the first groupHitsLimit sorted matches
		hitArgs := []string{q.Index, hitQuery}
		hitArgs = append(hitArgs, sortArgs(q.Sort)...)
		hitArgs = append(hitArgs, "LIMIT", "0", strconv.Itoa(groupHitsLimit), "DIALECT", "2")
		cmds = append(cmds, s.b().Arbitrary("FT.SEARCH").Args(hitArgs...).Build())
		slots = append(slots, slot{entry: entry, kind: slotGroupHits, op: db.OpSearch})
	}

	for i, a := range q.Aggregations {
		aggQuery, err := renderClause(q.AggregationFilter(a))
		if err != nil {
			return nil, nil, fmt.Errorf("aggregation %q: %w", a.Code, err)
		}
		cmds = append(cmds, s.b().Arbitrary("FT.AGGREGATE").Args(countArgs(q.Index, aggQuery, a.Field)...).Build())
		slots = append(slots, slot{entry: entry, kind: slotAgg, agg: i, op: db.OpAggregate})

		if q.Group != nil {
			cmds = append(cmds, s.b().Arbitrary("FT.AGGREGATE").
				Args(countArgs(q.Index, aggQuery, q.Group.Field, a.Field)...).Build())
			slots = append(slots, slot{entry: entry, kind: slotGroupedAgg, agg: i, op: db.OpAggregate})
		}
	}

	return cmds, slots, nil
}

func sortArgs(s *db.SortSpec) []string {
	if s == nil {
		return nil
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return []string{"SORTBY", s.Field, dir}
}

// assignGroupDocuments gives every group its first spec.Hits documents, in
// the order of docs.
func assignGroupDocuments(groups []db.GroupBucket, docs []db.Document, spec *db.GroupSpec) {
	index := make(map[string]int, len(groups))
	for i, g := range groups {
		index[g.Key] = i
	}
	for _, doc := range docs {
		key := db.MissingKey
		if v := doc.Fields[spec.Field]; v != "" {
			key = v
		}
		i, ok := index[key]
		if !ok {
			continue
		}
		if spec.Hits > 0 && len(groups[i].Documents) >= spec.Hits {
			continue
		}
		groups[i].Documents = append(groups[i].Documents, doc)
	}
}

// countArgs builds FT.AGGREGATE arguments counting documents per value tuple.
func countArgs(index, query string, fields ...string) []string {
	props := make([]string, len(fields))
	for i, f := range fields {
		props[i] = "@" + f
	}
	n := strconv.Itoa(len(props))
	args := []string{index, query, "LOAD", n}
	args = append(args, props...)
	args = append(args, "GROUPBY", n)
	args = append(args, props...)
	args = append(args,
		"REDUCE", "COUNT", "0", "AS", countAlias,
		"LIMIT", "0", strconv.Itoa(aggregateLimit),
		"DIALECT", "2",
	)
	return args
}

type groupCounts struct {
	values  map[string]int64
	missing int64
}

func (g *groupCounts) add(value string, present bool, n int64) {
	if !present {
		g.missing += n
		return
	}
	if g.values == nil {
		g.values = make(map[string]int64)
	}
	g.values[value] += n
}

// parseHits reads an FT.SEARCH reply: [total, key1, fields1, key2, fields2, ...].
func parseHits(raw []rueidis.RedisMessage, prefix string, resp *db.Response) error {
	if len(raw) == 0 {
		return nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return fmt.Errorf("parse total: %w", err)
	}
	resp.Total = total

	docs := make([]db.Document, 0, (len(raw)-1)/2)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		docs = append(docs, db.Document{
			ID:     strings.TrimPrefix(key, prefix),
			Fields: parseFieldPairs(fields),
		})
	}
	resp.Documents = docs
	return nil
}

// parseGroups reads the group bucket aggregate. Rows without a group value
// form the missing group.
func parseGroups(raw []rueidis.RedisMessage, groupField string, resp *db.Response) error {
	rows, err := aggregateRows(raw)
	if err != nil {
		return err
	}
	for _, row := range rows {
		key, ok := row[groupField]
		if !ok || key == "" {
			key = db.MissingKey
		}
		n, err := rowCount(row)
		if err != nil {
			return err
		}
		resp.Groups = append(resp.Groups, db.GroupBucket{Key: key, Count: n})
	}
	return nil
}

func parseCounts(raw []rueidis.RedisMessage, field string) (groupCounts, error) {
	var gc groupCounts
	rows, err := aggregateRows(raw)
	if err != nil {
		return gc, err
	}
	for _, row := range rows {
		n, err := rowCount(row)
		if err != nil {
			return gc, err
		}
		v, ok := row[field]
		gc.add(v, ok, n)
	}
	return gc, nil
}

func parseGroupedCounts(raw []rueidis.RedisMessage, groupField, field string) (map[string]groupCounts, error) {
	rows, err := aggregateRows(raw)
	if err != nil {
		return nil, err
	}
	out := make(map[string]groupCounts)
	for _, row := range rows {
		g, ok := row[groupField]
		if !ok || g == "" {
			g = db.MissingKey
		}
		n, err := rowCount(row)
		if err != nil {
			return nil, err
		}
		gc := out[g]
		v, present := row[field]
		gc.add(v, present, n)
		out[g] = gc
	}
	return out, nil
}

// aggregateRows reads an FT.AGGREGATE reply: [total, row1, row2, ...] with flat
// field/value rows. Null values are dropped from the row.
func aggregateRows(raw []rueidis.RedisMessage) ([]map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	rows := make([]map[string]string, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		pairs, err := raw[i].ToArray()
		if err != nil {
			return nil, fmt.Errorf("parse aggregate row %d: %w", i, err)
		}
		rows = append(rows, parseFieldPairs(pairs))
	}
	return rows, nil
}

func rowCount(row map[string]string) (int64, error) {
	s, ok := row[countAlias]
	if !ok {
		return 0, fmt.Errorf("aggregate row without count")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse count %q: %w", s, err)
	}
	return n, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
