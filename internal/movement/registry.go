package movement

import (
	"sort"
	"sync"
)

// Unknown is reported by NameOf for policies that are not registered.
const Unknown = "unknown"

type entry struct {
	name   string
	policy Policy
}

var registry = sync.OnceValue(func() []entry {
	return []entry{
		{"static", Static{}},
		{"random", Random{}},
		{"gradient", Gradient{Channel: 0}},
		{"avoid_crowding", AvoidCrowding{Channel: 0, Threshold: 0.7}},
		{"trait_based", TraitBased{}},
	}
})

// Lookup resolves a registered policy by name.
func Lookup(name string) (Policy, bool) {
	for _, e := range registry() {
		if e.name == name {
			return e.policy, true
		}
	}
	return nil, false
}

// NameOf returns the registered name of p, or Unknown.
func NameOf(p Policy) string {
	if _, ok := p.(Func); ok {
		return Unknown
	}
	for _, e := range registry() {
		if e.policy == p {
			return e.name
		}
	}
	return Unknown
}

// Names lists the registered policy names in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry()))
	for _, e := range registry() {
		out = append(out, e.name)
	}
	sort.Strings(out)
	return out
}
