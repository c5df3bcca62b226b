package classify

import (
	"strconv"
	"strings"
	"unicode"
)

type Confidence int

const (
	Unknown Confidence = iota
	LowConfidence
	HighConfidence
)

func (c Confidence) String() string {
	switch c {
	case HighConfidence:
		return "high"
	case LowConfidence:
		return "low"
	default:
		return "unknown"
	}
}

// Denomination is the answer of the currency classifier. Value is zero when
// Confidence is Unknown.
type Denomination struct {
	Value      int
	Confidence Confidence
}

// MatchMode selects how denomination numbers are found in the text.
type MatchMode string

const (
	// MatchSubstring tests raw containment, relying on descending order so
	// "2000" is never read as "200".
	MatchSubstring MatchMode = "substring"
	// MatchWholeNumber only accepts a denomination that is a complete digit run.
	MatchWholeNumber MatchMode = "whole_number"
)

// Denominations are the supported note values.
var Denominations = []int{2000, 500, 200, 100, 50, 20, 10}

var currencyMarkers = []string{"rupee", "rupees", "₹", "rs", "रुप", "रूप", " रुपए"}

type CurrencyClassifier struct {
	denominations *Classifier[int]
}

func NewCurrencyClassifier(mode MatchMode) *CurrencyClassifier {
	rules := make([]Rule[int], 0, len(Denominations))
	for _, d := range Denominations {
		rules = append(rules, Rule[int]{
			Priority: d,
			Match:    denominationMatcher(mode, strconv.Itoa(d)),
			Label:    d,
		})
	}
	return &CurrencyClassifier{denominations: New(rules...)}
}

func (c *CurrencyClassifier) Classify(text string) Denomination {
	normalized := strings.ToLower(text)
	value, ok := c.denominations.Classify(normalized)
	if !ok {
		return Denomination{Confidence: Unknown}
	}
	if HasCurrencyMarker(normalized) {
		return Denomination{Value: value, Confidence: HighConfidence}
	}
	return Denomination{Value: value, Confidence: LowConfidence}
}

// HasCurrencyMarker reports whether text mentions a currency word or symbol.
func HasCurrencyMarker(text string) bool {
	normalized := strings.ToLower(text)
	for _, m := range currencyMarkers {
		if strings.Contains(normalized, m) {
			return true
		}
	}
	return false
}

func denominationMatcher(mode MatchMode, digits string) func(string) bool {
	if mode == MatchWholeNumber {
		return func(text string) bool {
			for _, run := range strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsDigit(r) }) {
				if run == digits {
					return true
				}
			}
			return false
		}
	}
	return func(text string) bool {
		return strings.Contains(text, digits)
	}
}
