package analyzer

import "slices"

// Unreachable returns the packages of uses that cannot be reached from any
// root by following uses edges, sorted. Only keys of uses are candidates;
// a root that is not a key reaches nothing.
//
// Package names are interned to dense ids and the walk keeps an explicit
// stack, so deep or cyclic graphs neither recurse nor loop.
func Unreachable(uses map[string][]string, roots ...string) []string {
	ids := make(map[string]int, len(uses))
	var names []string
	intern := func(name string) int {
		if id, ok := ids[name]; ok {
			return id
		}
		id := len(names)
		ids[name] = id
		names = append(names, name)
		return id
	}

	keys := make([]string, 0, len(uses))
	for k := range uses {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		intern(k)
	}

	edges := make([][]int, len(keys))
	for _, k := range keys {
		from := ids[k]
		for _, to := range uses[k] {
			edges[from] = append(edges[from], intern(to))
		}
	}

	// Ids at or beyond len(keys) were interned from edges only and are
	// never candidates.
	unreachable := make([]bool, len(keys))
	for i := range unreachable {
		unreachable[i] = true
	}
	candidate := func(id int) bool { return id < len(keys) && unreachable[id] }

	var stack []int
	for _, r := range roots {
		if id, ok := ids[r]; ok && candidate(id) {
			stack = append(stack, id)
		}
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !candidate(n) {
			continue
		}
		unreachable[n] = false
		for _, m := range edges[n] {
			if candidate(m) {
				stack = append(stack, m)
			}
		}
	}

	var out []string
	for id, u := range unreachable {
		if u {
			out = append(out, names[id])
		}
	}
	return out
}
