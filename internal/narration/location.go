package narration

import (
	"fmt"

	"vision-assistant/internal/domain"
)

const LocationApology = "Sorry, I couldn't retrieve the full location details."

type factWording struct {
	tag      Tag
	label    string
	notFound string
	apology  string
}

var factWordings = map[domain.Fact]factWording{
	domain.FactAddress: {
		tag:      TagAddress,
		notFound: "Current address could not be determined.",
		apology:  "Sorry, I could not fetch your address.",
	},
	domain.FactBusStop: {
		tag:      TagBusStop,
		label:    "bus stop",
		notFound: "No bus stop found nearby.",
		apology:  "Sorry, I could not look up the nearest bus stop.",
	},
	domain.FactRailwayStation: {
		tag:      TagStation,
		label:    "railway station",
		notFound: "No railway station found nearby.",
		apology:  "Sorry, I could not look up the nearest railway station.",
	},
}

// Location narrates the joined location facts in address, bus stop, railway
// station order. A fact missing from results is narrated as a failure.
func Location(results map[domain.Fact]domain.Partial[domain.Place]) Narration {
	var n Narration
	for _, fact := range domain.Facts {
		w := factWordings[fact]
		res, ok := results[fact]
		if !ok {
			res = domain.Failed[domain.Place](domain.ErrNotFound)
		}

		switch res.State {
		case domain.PartialValue:
			n.add(w.tag, placeSentence(fact, w, res.Value))
		case domain.PartialNotFound:
			n.add(w.tag, w.notFound)
		default:
			n.add(w.tag, w.apology)
		}
	}

	if n.Empty() {
		return Narration{Fragments: []Fragment{{Tag: TagApology, Text: LocationApology}}}
	}
	return n
}

func placeSentence(fact domain.Fact, w factWording, p domain.Place) string {
	if fact == domain.FactAddress {
		if p.Name == "" {
			return ""
		}
		return fmt.Sprintf("You are at %s.", p.Name)
	}
	if p.Name == "" {
		return w.notFound
	}
	if !p.HasDistance {
		return fmt.Sprintf("Nearest %s: %s.", w.label, p.Name)
	}
	return fmt.Sprintf("Nearest %s: %s, approximately %s meters away.", w.label, p.Name, Meters(p.Distance))
}
