package rules

import (
	"sort"
	"sync"
)

// Unknown is reported by NameOf for rules that are not registered.
const Unknown = "unknown"

type entry struct {
	name string
	rule Rule
}

// registry is built once on first use and never mutated afterwards.
var registry = sync.OnceValue(func() []entry {
	return []entry{
		{"static", Static{}},
		{"average", Average{}},
		{"conway", Conway{}},
		{"diffusion", Diffusion{}},
		{"maximum", Maximum{}},
		{"minimum", Minimum{}},
		{"weighted_average", WeightedAverage{}},
		{"majority", Majority{}},
	}
})

// Lookup resolves a registered rule by name.
func Lookup(name string) (Rule, bool) {
	for _, e := range registry() {
		if e.name == name {
			return e.rule, true
		}
	}
	return nil, false
}

// NameOf returns the registered name of r, or Unknown.
func NameOf(r Rule) string {
	if _, ok := r.(Func); ok {
		return Unknown
	}
	for _, e := range registry() {
		if e.rule == r {
			return e.name
		}
	}
	return Unknown
}

// Names lists the registered rule names in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry()))
	for _, e := range registry() {
		out = append(out, e.name)
	}
	sort.Strings(out)
	return out
}
