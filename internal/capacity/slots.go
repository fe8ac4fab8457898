package capacity

import (
	"encoding/json"
	"maps"
	"math"
	"sort"
)

// DefaultSlots applies when a colleague has no usable capacity configuration.
var DefaultSlots = map[string]int{"meta": 3, "google": 2, "graphics": 2}

var channelOrder = map[string]int{"meta": 0, "google": 1, "graphics": 2}

// ParseSlots decodes a capacity_slots JSON object. Anything that is not an
// object of non-negative whole numbers yields a copy of DefaultSlots.
func ParseSlots(raw []byte) map[string]int {
	if len(raw) == 0 {
		return maps.Clone(DefaultSlots)
	}
	var m map[string]float64
	if err := json.Unmarshal(raw, &m); err != nil {
		return maps.Clone(DefaultSlots)
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		if v < 0 || v != math.Trunc(v) {
			return maps.Clone(DefaultSlots)
		}
		out[k] = int(v)
	}
	return NormalizeSlots(out)
}

// NormalizeSlots returns slots, or DefaultSlots when slots is empty or holds
// a negative capacity.
func NormalizeSlots(slots map[string]int) map[string]int {
	if len(slots) == 0 {
		return maps.Clone(DefaultSlots)
	}
	for k, v := range slots {
		if v < 0 || fold(k) == "" {
			return maps.Clone(DefaultSlots)
		}
	}
	out := make(map[string]int, len(slots))
	for k, v := range slots {
		out[fold(k)] += v
	}
	return out
}

// Channels lists slot names in display order: meta, google, graphics, then
// any others alphabetically.
func Channels(slots map[string]int) []string {
	out := make([]string, 0, len(slots))
	for k := range slots {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, iok := channelOrder[out[i]]
		oj, jok := channelOrder[out[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		}
		return out[i] < out[j]
	})
	return out
}
