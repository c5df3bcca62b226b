package narration

import (
	"errors"

	"vision-assistant/internal/domain"
)

const (
	Welcome        = "Welcome. Tell me what you need, or say help to hear the commands."
	Help           = "You can say read this, read Kannada text, where am I, what's around me, identify currency, or describe this item."
	ListeningCue   = "Listening."
	ImageSubmitted = "Image submitted, please wait."
	GettingPlace   = "Getting your location details."
	GenericFailure = "Sorry, something went wrong. Please try again."
	NotUnderstood  = "Sorry, I didn't catch that. Please try again."
)

var modePrompts = map[domain.CaptureMode]string{
	domain.CaptureModeOCR:          "Opening camera. Hold the text in front of the camera.",
	domain.CaptureModeScene:        "Opening camera to describe what is around you.",
	domain.CaptureModeCurrency:     "Opening camera. Hold the currency note steady.",
	domain.CaptureModeObjectDetail: "Opening camera. Hold the item in front of the camera.",
	domain.CaptureModeLocation:     GettingPlace,
}

// Prompt is spoken when a workflow starts, before any capture.
func Prompt(mode domain.CaptureMode, language string) string {
	if mode == domain.CaptureModeOCR && language == "kn-IN" {
		return "Opening camera for Kannada text."
	}
	if p, ok := modePrompts[mode]; ok {
		return p
	}
	return Help
}

var failureMessages = []struct {
	err  error
	text string
}{
	{domain.ErrNotConfigured, "This feature is not configured yet. Please add the service credentials."},
	{domain.ErrMissingHandle, "The image was accepted, but the service did not say where to find the result."},
	{domain.ErrTimedOut, "The service is taking too long. Please try again."},
	{domain.ErrOperationFailed, "The service could not process the image."},
	{domain.ErrParse, "I could not understand the service response."},
	{domain.ErrRejected, "The service rejected the request."},
	{domain.ErrTransport, "I could not reach the service. Please check your connection."},
	{domain.ErrCapture, "Failed to capture image."},
	{domain.ErrNoLocation, "I could not determine your current location."},
	{domain.ErrNotFound, "Nothing was found."},
}

// Failure picks the spoken message for a terminal error class.
func Failure(err error) Narration {
	for _, m := range failureMessages {
		if errors.Is(err, m.err) {
			return Narration{Fragments: []Fragment{{Tag: TagApology, Text: m.text}}}
		}
	}
	return Narration{Fragments: []Fragment{{Tag: TagApology, Text: GenericFailure}}}
}

// Transcription is spoken when a command could not be turned into text.
// Missing credentials are reported as such; anything else asks for a repeat.
func Transcription(err error) Narration {
	if errors.Is(err, domain.ErrNotConfigured) {
		return Failure(err)
	}
	return Message(NotUnderstood)
}
