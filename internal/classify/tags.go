package classify

import (
	"strings"
	"unicode"
)

// GenericTags are labels that describe the picture rather than the item.
var GenericTags = []string{
	"text", "font", "logo", "brand", "graphics", "illustration", "signage",
	"pattern", "label", "graphic design", "line", "food",
}

// ContinuationMarker is appended when LimitPhrases had to leave something out.
const ContinuationMarker = "..."

// FilterTags drops tags that name a dominant color or are generic noise.
// Comparison ignores case; survivors keep their order and spelling.
func FilterTags(tags, colors []string) []string {
	skip := make(map[string]struct{}, len(colors)+len(GenericTags))
	for _, c := range colors {
		skip[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	for _, g := range GenericTags {
		skip[g] = struct{}{}
	}

	out := make([]string, 0, len(tags))
	for _, t := range tags {
		key := strings.ToLower(strings.TrimSpace(t))
		if key == "" {
			continue
		}
		if _, ok := skip[key]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

// LimitPhrases keeps whole phrases while the running word count stays within
// budget. A phrase that is longer than the whole budget on its own is cut
// word by word. Anything left out is signalled with ContinuationMarker.
func LimitPhrases(phrases []string, budget int) string {
	distinct := distinctPhrases(phrases)
	if len(distinct) == 0 || budget <= 0 {
		return ""
	}

	var kept []string
	words := 0
	truncated := false
	for _, p := range distinct {
		fields := strings.Fields(p)
		if words+len(fields) <= budget {
			kept = append(kept, p)
			words += len(fields)
			continue
		}
		truncated = true
		if len(fields) > budget && words < budget {
			kept = append(kept, strings.Join(fields[:budget-words], " "))
		}
		break
	}

	out := strings.Join(kept, ", ")
	if truncated && out != "" {
		out += ContinuationMarker
	}
	return out
}

func distinctPhrases(phrases []string) []string {
	seen := make(map[string]struct{}, len(phrases))
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" || strings.IndexFunc(p, isAlnum) < 0 {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
