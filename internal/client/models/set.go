package models

import "slices"

// Union returns the distinct members of a followed by the new members of b,
// in first-seen order. The result is never nil.
func Union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// SortedSet returns the distinct members of ids in ascending order.
func SortedSet(ids []string) []string {
	out := Union(ids, nil)
	slices.Sort(out)
	return out
}

// SameSet compares a and b as sets.
func SameSet(a, b []string) bool {
	return slices.Equal(SortedSet(a), SortedSet(b))
}
