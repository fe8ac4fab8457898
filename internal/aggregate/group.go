// Package aggregate groups flat record slices by key and reduces their numeric
// fields into per-group totals.
package aggregate

import (
	"math"
	"sort"
)

// Field extracts one named numeric value from a record.
type Field[T any] struct {
	Name  string
	Value func(T) float64
}

type Group[K comparable, T any] struct {
	Key     K
	Records []T
	Totals  map[string]float64
}

// Total returns the sum for field, 0 when the field is unknown.
func (g *Group[K, T]) Total(field string) float64 { return g.Totals[field] }

// Groups keeps groups in first-occurrence order until SortByTotal is called.
type Groups[K comparable, T any] struct {
	order []K
	byKey map[K]*Group[K, T]
}

// GroupBy buckets items by key and sums every field per bucket. Non-finite
// field values are ignored so totals stay finite.
func GroupBy[T any, K comparable](items []T, key func(T) K, fields ...Field[T]) *Groups[K, T] {
	g := &Groups[K, T]{byKey: make(map[K]*Group[K, T])}
	for _, it := range items {
		k := key(it)
		grp, ok := g.byKey[k]
		if !ok {
			grp = &Group[K, T]{Key: k, Totals: make(map[string]float64, len(fields))}
			for _, f := range fields {
				grp.Totals[f.Name] = 0
			}
			g.byKey[k] = grp
			g.order = append(g.order, k)
		}
		grp.Records = append(grp.Records, it)
		for _, f := range fields {
			v := f.Value(it)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			grp.Totals[f.Name] += v
		}
	}
	return g
}

func (g *Groups[K, T]) Len() int { return len(g.order) }

func (g *Groups[K, T]) Get(k K) (*Group[K, T], bool) {
	grp, ok := g.byKey[k]
	return grp, ok
}

// List returns the groups in their current order.
func (g *Groups[K, T]) List() []*Group[K, T] {
	out := make([]*Group[K, T], 0, len(g.order))
	for _, k := range g.order {
		out = append(out, g.byKey[k])
	}
	return out
}

// SortByTotal reorders groups by the given field; ties keep their prior order.
func (g *Groups[K, T]) SortByTotal(field string, desc bool) *Groups[K, T] {
	sort.SliceStable(g.order, func(i, j int) bool {
		a, b := g.byKey[g.order[i]].Totals[field], g.byKey[g.order[j]].Totals[field]
		if desc {
			return a > b
		}
		return a < b
	})
	return g
}

// Sum is the grand total of field over all groups, added in group order.
func (g *Groups[K, T]) Sum(field string) float64 {
	var s float64
	for _, k := range g.order {
		s += g.byKey[k].Totals[field]
	}
	return s
}

// SafeDiv returns a/b, or 0 when b is zero or the result is not finite.
func SafeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	v := a / b
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Rate is num/den as a percentage clamped to [0, 100].
func Rate(num, den int) float64 {
	r := SafeDiv(float64(num), float64(den)) * 100
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}

func Round2(f float64) float64 { return math.Round(f*100) / 100 }
