package selection

// MaxPermutationLength is the default ceiling for unordered numeric queries.
// 8 characters already expand to 40320 arrangements.
const MaxPermutationLength = 8

// Permutations returns every distinct ordering of the runes of s.
// Repeated runes collapse, so "aab" yields 3 results rather than 6.
func Permutations(s string) map[string]struct{} {
	perms := make(map[string]struct{})
	permute(nil, []rune(s), perms)
	return perms
}

func permute(prefix, rest []rune, out map[string]struct{}) {
	if len(rest) <= 1 {
		out[string(append(prefix, rest...))] = struct{}{}
		return
	}

	seen := make(map[rune]bool, len(rest))
	for i, r := range rest {
		// a rune already placed at this position leads to the same subtree
		if seen[r] {
			continue
		}
		seen[r] = true

		remaining := make([]rune, 0, len(rest)-1)
		remaining = append(remaining, rest[:i]...)
		remaining = append(remaining, rest[i+1:]...)

		next := make([]rune, len(prefix), len(prefix)+1)
		copy(next, prefix)
		permute(append(next, r), remaining, out)
	}
}
