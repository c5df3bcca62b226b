package narration

import (
	"fmt"
	"strings"

	"vision-assistant/internal/classify"
	"vision-assistant/internal/domain"
)

const (
	NothingIdentifiable = "I couldn't identify anything clearly."
	NoTextFound         = "No text found."
	textFoundPrefix     = "Text found:"

	// TagWordBudget bounds how many words of tag detail are spoken.
	TagWordBudget = 5
	sceneObjects  = 3
)

// Scene prefers the caption and adds up to three detected objects.
func Scene(a domain.SceneAnalysis) Narration {
	var n Narration
	caption := strings.TrimSpace(a.Caption)
	if caption != "" {
		n.add(TagCaption, capitalize(strings.TrimSuffix(caption, "."))+".")
	}

	objects := nonEmpty(a.Objects)
	if len(objects) > sceneObjects {
		objects = objects[:sceneObjects]
	}
	if len(objects) > 0 {
		lead := "I can see"
		if caption != "" {
			lead = "I can also see"
		}
		n.add(TagObjects, fmt.Sprintf("%s %s.", lead, strings.Join(objects, ", ")))
	}

	if n.Empty() {
		return Message(NothingIdentifiable)
	}
	return n
}

// Object describes the main detected object, its dominant colors and the
// tags that say something the colors don't.
func Object(a domain.ObjectAnalysis) Narration {
	var name string
	if objects := nonEmpty(a.Objects); len(objects) > 0 {
		name = objects[0]
	}
	justText := strings.EqualFold(name, "text")
	colors := nonEmpty(a.DominantColors)
	details := classify.LimitPhrases(classify.FilterTags(a.Tags, colors), TagWordBudget)

	var n Narration
	switch {
	case name != "" && !justText:
		n.add(TagObjects, fmt.Sprintf("Detected object: %s.", capitalize(name)))
		if len(colors) > 0 {
			n.add(TagColors, fmt.Sprintf("Main colors: %s.", strings.Join(colors, ", ")))
		}
		if details != "" {
			n.add(TagDetails, sentence("Details: "+details))
		}
	case details != "":
		n.add(TagDetails, fmt.Sprintf("I found an item with the text '%s'.", strings.TrimSuffix(details, classify.ContinuationMarker)))
		if len(colors) > 0 {
			n.add(TagColors, fmt.Sprintf("The main colors are %s.", strings.Join(colors, ", ")))
		}
	case len(colors) > 0:
		n.add(TagColors, fmt.Sprintf("I can't tell what this is, but the main colors are %s.", strings.Join(colors, ", ")))
	case justText:
		n.add(TagText, "I see some text, but can't make out specific details.")
	}

	if n.Empty() {
		return Message(NothingIdentifiable)
	}
	return n
}

// ReadText narrates recognized text, carrying the detected language as the
// voice hint.
func ReadText(r domain.ReadResult) Narration {
	text := strings.TrimSpace(r.Text())
	n := Narration{Language: r.DetectedLanguage()}
	if text == "" {
		n.add(TagMessage, NoTextFound)
		return n
	}
	n.add(TagText, textFoundPrefix+" "+text)
	return n
}

func Currency(d classify.Denomination) Narration {
	switch d.Confidence {
	case classify.HighConfidence:
		return Narration{Fragments: []Fragment{{Tag: TagCurrency, Text: fmt.Sprintf("Detected %d rupees", d.Value)}}}
	case classify.LowConfidence:
		return Narration{Fragments: []Fragment{{Tag: TagCurrency, Text: fmt.Sprintf("Detected %d (possibly currency)", d.Value)}}}
	default:
		return Narration{Fragments: []Fragment{{Tag: TagCurrency, Text: "Could not identify the currency note."}}}
	}
}

func sentence(s string) string {
	if strings.HasSuffix(s, ".") {
		return s
	}
	return s + "."
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
