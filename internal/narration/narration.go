// Package narration assembles the sentences the assistant speaks from
// analysis results, partial location facts and failures.
package narration

import (
	"math"
	"strconv"
	"strings"
)

// Tag records where a fragment came from.
type Tag string

const (
	TagAddress  Tag = "address"
	TagBusStop  Tag = "bus_stop"
	TagStation  Tag = "railway_station"
	TagCaption  Tag = "caption"
	TagObjects  Tag = "objects"
	TagColors   Tag = "colors"
	TagDetails  Tag = "details"
	TagText     Tag = "text"
	TagCurrency Tag = "currency"
	TagMessage  Tag = "message"
	TagApology  Tag = "apology"
)

type Fragment struct {
	Tag  Tag
	Text string
}

// Narration is an ordered list of fragments spoken as one string.
// Language is a hint for voice selection and may be empty.
type Narration struct {
	Fragments []Fragment
	Language  string
}

// Message wraps a single sentence.
func Message(text string) Narration {
	return Narration{Fragments: []Fragment{{Tag: TagMessage, Text: text}}}
}

func (n Narration) String() string {
	parts := make([]string, 0, len(n.Fragments))
	for _, f := range n.Fragments {
		if t := strings.TrimSpace(f.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func (n Narration) Empty() bool {
	return n.String() == ""
}

// Tags lists the provenance of every non-empty fragment, in order.
func (n Narration) Tags() []Tag {
	tags := make([]Tag, 0, len(n.Fragments))
	for _, f := range n.Fragments {
		if strings.TrimSpace(f.Text) != "" {
			tags = append(tags, f.Tag)
		}
	}
	return tags
}

func (n *Narration) add(tag Tag, text string) {
	n.Fragments = append(n.Fragments, Fragment{Tag: tag, Text: text})
}

// Meters formats a distance rounded to the whole meter, with no grouping
// and independent of locale.
func Meters(d float64) string {
	return strconv.FormatFloat(math.Round(d), 'f', 0, 64)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
