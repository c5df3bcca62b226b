package application

import "vision-assistant/internal/domain"

// Route is the workflow chosen for a command. Unmatched commands get the
// help narration instead of a workflow.
type Route struct {
	Mode     domain.CaptureMode
	Language string
	Matched  bool
}

type dispatchRule struct {
	phrases  []string
	mode     domain.CaptureMode
	language string
}

// Rules are checked in order. A rule whose phrase contains another rule's
// phrase must come first: "read kannada text" before "read text", and
// "what is this thing" before "what is this".
var dispatchRules = []dispatchRule{
	{phrases: []string{"read kannada", "read kannada text"}, mode: domain.CaptureModeOCR, language: "kn-IN"},
	{phrases: []string{"read this", "read text"}, mode: domain.CaptureModeOCR},
	{phrases: []string{"where am i", "location"}, mode: domain.CaptureModeLocation},
	{phrases: []string{"analyse", "analyze", "describe this item", "what is this thing"}, mode: domain.CaptureModeObjectDetail},
	{phrases: []string{"what's around me", "what is around me", "describe scene", "what is this"}, mode: domain.CaptureModeScene},
	{phrases: []string{"identify currency", "recognize money", "recognise money"}, mode: domain.CaptureModeCurrency},
}

type Dispatcher struct {
	rules []dispatchRule
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{rules: dispatchRules}
}

func (d *Dispatcher) Route(cmd domain.VoiceCommand) Route {
	for _, r := range d.rules {
		for _, p := range r.phrases {
			if cmd.Contains(p) {
				return Route{Mode: r.mode, Language: r.language, Matched: true}
			}
		}
	}
	return Route{Mode: domain.CaptureModeNone}
}

// Apply routes cmd and writes the result into the session.
func (d *Dispatcher) Apply(cmd domain.VoiceCommand, s *domain.CaptureSession) Route {
	r := d.Route(cmd)
	s.Mode = r.Mode
	s.Language = r.Language
	return r
}
