package capacity

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const FallbackSlot = "meta"

// DefaultSlotKeywords maps slot channels to the position keywords that select them.
var DefaultSlotKeywords = map[string][]string{
	"meta":     {"meta", "facebook", "instagram", "social"},
	"google":   {"google", "ppc", "adwords", "sem", "sklik"},
	"graphics": {"graphic", "grafik", "design", "creative"},
}

type rule struct {
	slot    string
	keyword string
}

// Classifier derives a colleague's primary slot channel from a free-text
// position using a keyword table. Matching ignores case and diacritics.
type Classifier struct {
	rules    []rule
	fallback string
}

// NewClassifier builds a classifier from slot -> keywords. An empty table uses
// DefaultSlotKeywords, an empty fallback uses FallbackSlot.
func NewClassifier(table map[string][]string, fallback string) *Classifier {
	if len(table) == 0 {
		table = DefaultSlotKeywords
	}
	fallback = fold(fallback)
	if fallback == "" {
		fallback = FallbackSlot
	}
	c := &Classifier{fallback: fallback}
	for slot, kws := range table {
		slot = fold(slot)
		if slot == "" {
			continue
		}
		for _, kw := range kws {
			if kw = fold(kw); kw != "" {
				c.rules = append(c.rules, rule{slot: slot, keyword: kw})
			}
		}
	}
	sort.Slice(c.rules, func(i, j int) bool {
		if c.rules[i].slot != c.rules[j].slot {
			return c.rules[i].slot < c.rules[j].slot
		}
		return c.rules[i].keyword < c.rules[j].keyword
	})
	return c
}

// Classify returns the slot whose keyword occurs earliest in position,
// or the fallback slot when nothing matches.
func (c *Classifier) Classify(position string) string {
	p := fold(position)
	best, bestAt := c.fallback, -1
	for _, r := range c.rules {
		at := strings.Index(p, r.keyword)
		if at < 0 {
			continue
		}
		if bestAt < 0 || at < bestAt {
			best, bestAt = r.slot, at
		}
	}
	return best
}

func (c *Classifier) Fallback() string { return c.fallback }

// fold lowercases s and strips combining marks ("Grafička" -> "graficka").
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
