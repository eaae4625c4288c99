package stages

import (
	"regexp"
	"sort"
)

// reference is a specifier found at a byte offset
type reference struct {
	offset    int
	specifier string
}

// findReferences collects the submatch group of every pattern, in the
// order the references appear in content. skip, when non-nil, filters out
// matches by their full submatch slice.
func findReferences(content []byte, patterns []*regexp.Regexp, group int, skip func(content []byte, m []int) bool) []reference {
	var refs []reference
	for _, re := range patterns {
		for _, m := range re.FindAllSubmatchIndex(content, -1) {
			if m[2*group] < 0 {
				continue
			}
			if skip != nil && skip(content, m) {
				continue
			}
			refs = append(refs, reference{
				offset:    m[0],
				specifier: string(content[m[2*group]:m[2*group+1]]),
			})
		}
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].offset < refs[j].offset })
	return refs
}

// specifiers returns the unique specifiers of refs, first occurrence wins
func specifiers(refs []reference) []string {
	seen := make(map[string]bool, len(refs))
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if seen[r.specifier] {
			continue
		}
		seen[r.specifier] = true
		out = append(out, r.specifier)
	}
	return out
}
