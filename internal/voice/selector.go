package voice

import (
	"sort"
	"strings"
)

// Voice is a synthesis voice together with the locale it speaks.
type Voice struct {
	Language string `yaml:"language"`
	Name     string `yaml:"name"`
}

var (
	English = Voice{Language: "en-US", Name: "en-US-JennyNeural"}
	Hindi   = Voice{Language: "hi-IN", Name: "hi-IN-SwaraNeural"}
	Kannada = Voice{Language: "kn-IN", Name: "kn-IN-SapnaNeural"}
)

// Selector maps language codes to voices by prefix, so "kn", "kn-IN" and
// "KN-in" all pick the Kannada voice.
type Selector struct {
	fallback Voice
	prefixes []string
	voices   map[string]Voice
}

func NewSelector(fallback Voice, families map[string]Voice) *Selector {
	s := &Selector{fallback: fallback, voices: make(map[string]Voice, len(families))}
	for prefix, v := range families {
		prefix = strings.ToLower(strings.TrimSpace(prefix))
		if prefix == "" {
			continue
		}
		s.voices[prefix] = v
		s.prefixes = append(s.prefixes, prefix)
	}
	// longest prefix first, then alphabetical, so lookups are deterministic
	sort.Slice(s.prefixes, func(i, j int) bool {
		if len(s.prefixes[i]) != len(s.prefixes[j]) {
			return len(s.prefixes[i]) > len(s.prefixes[j])
		}
		return s.prefixes[i] < s.prefixes[j]
	})
	return s
}

func DefaultSelector() *Selector {
	return NewSelector(English, map[string]Voice{
		"hi": Hindi,
		"kn": Kannada,
	})
}

// Select prefers the session override, then the detected-language hint.
func (s *Selector) Select(override, hint string) Voice {
	lang := strings.TrimSpace(override)
	if lang == "" {
		lang = strings.TrimSpace(hint)
	}
	lang = strings.ToLower(lang)
	if lang == "" {
		return s.fallback
	}
	for _, p := range s.prefixes {
		if strings.HasPrefix(lang, p) {
			return s.voices[p]
		}
	}
	return s.fallback
}
