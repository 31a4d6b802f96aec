package db

import (
	"math"
	"testing"
)

func TestAnd_Simplifies(t *testing.T) {
	a := TermClause("lang", IndexFieldTag, "go")

	if got := And(); !got.IsAll() {
		t.Errorf("And() = %+v, want MatchAll", got)
	}
	if got := And(MatchAll(), a); got.Kind != ClauseTerm {
		t.Errorf("And(all, a) = %+v, want a", got)
	}
	if got := And(a, a); got.Kind != ClauseAnd || len(got.Children) != 2 {
		t.Errorf("And(a, a) = %+v", got)
	}
}

func TestOr_Simplifies(t *testing.T) {
	a := TermClause("lang", IndexFieldTag, "go")

	if got := Or(a, MatchAll()); !got.IsAll() {
		t.Errorf("Or(a, all) = %+v, want MatchAll", got)
	}
	if got := Or(a); got.Kind != ClauseTerm {
		t.Errorf("Or(a) = %+v, want a", got)
	}
}

func TestNot_DoubleNegation(t *testing.T) {
	a := TermClause("lang", IndexFieldTag, "go")
	if got := Not(Not(a)); got.Kind != ClauseTerm {
		t.Errorf("Not(Not(a)) = %+v, want a", got)
	}
}

func TestNumericRange_Contains(t *testing.T) {
	r := NumericRange{Min: 1, Max: 10, ExclusiveMax: true}
	tests := []struct {
		v    float64
		want bool
	}{
		{0, false}, {1, true}, {5, true}, {10, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.v); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
	if !Unbounded().Contains(math.MaxFloat64) {
		t.Error("unbounded range should contain everything")
	}
}

func TestTally_Terms(t *testing.T) {
	a := Aggregation{Kind: AggTerms, Size: 2, Missing: true}
	got := Tally(a, map[string]int64{"go": 3, "rust": 5, "c": 3, "zero": 0}, 2)

	want := []Bucket{{"rust", 5}, {"c", 3}, {MissingKey, 2}}
	if len(got) != len(want) {
		t.Fatalf("Tally = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bucket[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTally_Exists(t *testing.T) {
	got := Tally(Aggregation{Kind: AggExists}, map[string]int64{"a": 2, "b": 1}, 4)
	if len(got) != 2 || got[0] != (Bucket{ExistsKey, 3}) || got[1] != (Bucket{MissingKey, 4}) {
		t.Errorf("Tally = %v", got)
	}
}

func TestTally_Ranges(t *testing.T) {
	a := Aggregation{Kind: AggRange, Ranges: []RangeBucket{
		{Key: "low", Range: NumericRange{Min: math.Inf(-1), Max: 10, ExclusiveMax: true}},
		{Key: "high", Range: NumericRange{Min: 10, Max: math.Inf(1)}},
		{Key: "never", Range: NumericRange{Min: -5, Max: -1}},
	}}
	got := Tally(a, map[string]int64{"3": 2, "10": 1, "42.5": 4, "bad": 9}, 0)

	want := []Bucket{{"low", 2}, {"high", 5}, {"never", 0}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bucket[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestQuery_Filters(t *testing.T) {
	base := TermClause("lang", IndexFieldTag, "go")
	post := TermClause("year", IndexFieldNumeric, "2020")
	q := &Query{Filter: base, PostFilter: post}

	if hf := q.HitFilter(); hf.Kind != ClauseAnd || len(hf.Children) != 2 {
		t.Errorf("HitFilter = %+v", hf)
	}
	if af := q.AggregationFilter(Aggregation{Filter: MatchAll()}); af.Kind != ClauseTerm {
		t.Errorf("AggregationFilter = %+v, want base only", af)
	}
}
