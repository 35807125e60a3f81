package metadata

import "strings"

// CleanText collapses whitespace runs and drops repeated tokens, keeping the
// first occurrence of each. Token comparison is case-sensitive, so
// "Hello hello" is left alone while "Hello Hello" becomes "Hello".
func CleanText(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	seen := make(map[string]struct{}, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}
