package db

import (
	"sort"
	"strconv"
)

// MissingKey is the bucket key of documents without a value.
const MissingKey = "_Missing"

// ExistsKey is the bucket key of documents with a value.
const ExistsKey = "true"

// Document is a single hit.
type Document struct {
	ID     string
	Fields map[string]string
}

// Bucket is one aggregation count.
type Bucket struct {
	Key   string
	Count int64
}

// GroupBucket is one group with its first hits and the aggregations
// computed inside it.
type GroupBucket struct {
	Key          string
	Count        int64
	Documents    []Document
	Aggregations map[string][]Bucket
}

// SortGroups orders groups by count descending then key, with the missing
// group last, and truncates them to size (0 means unlimited).
func SortGroups(groups []GroupBucket, size int) []GroupBucket {
	sort.SliceStable(groups, func(i, j int) bool {
		mi, mj := groups[i].Key == MissingKey, groups[j].Key == MissingKey
		if mi != mj {
			return mj
		}
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Key < groups[j].Key
	})
	if size > 0 && len(groups) > size {
		groups = groups[:size]
	}
	return groups
}

// Response is the outcome of one batch entry.
type Response struct {
	Documents    []Document
	Total        int64
	Aggregations map[string][]Bucket
	Groups       []GroupBucket
	Err          error
}

// Tally turns raw per-value counts into the ordered buckets of a.
// counts holds document counts per stored value; missing counts documents
// without a value.
//
// Terms are ordered by count descending then key, truncated to Size, followed
// by the missing bucket when requested and non-empty. Exists yields the
// "true" and missing buckets. Ranges keep declaration order, empty ranges
// included.
func Tally(a Aggregation, counts map[string]int64, missing int64) []Bucket {
	switch a.Kind {
	case AggExists:
		var n int64
		for _, c := range counts {
			n += c
		}
		return []Bucket{{Key: ExistsKey, Count: n}, {Key: MissingKey, Count: missing}}

	case AggRange:
		out := make([]Bucket, len(a.Ranges))
		for i, r := range a.Ranges {
			out[i].Key = r.Key
		}
		for raw, c := range counts {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			for i, r := range a.Ranges {
				if r.Range.Contains(v) {
					out[i].Count += c
				}
			}
		}
		return out
	}

	out := make([]Bucket, 0, len(counts)+1)
	for k, c := range counts {
		if c > 0 {
			out = append(out, Bucket{Key: k, Count: c})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if a.Size > 0 && len(out) > a.Size {
		out = out[:a.Size]
	}
	if a.Missing && missing > 0 {
		out = append(out, Bucket{Key: MissingKey, Count: missing})
	}
	return out
}
