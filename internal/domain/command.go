package domain

import "strings"

// TextCommandPrefix is the marker used to indicate text commands (vs audio)
const TextCommandPrefix = "__TEXT__:"

// VoiceCommand is a recognized utterance, lowercased and trimmed.
type VoiceCommand string

func NormalizeCommand(text string) VoiceCommand {
	text = strings.ReplaceAll(text, "’", "'")
	return VoiceCommand(strings.ToLower(strings.TrimSpace(text)))
}

func (c VoiceCommand) String() string {
	return string(c)
}

func (c VoiceCommand) Contains(phrase string) bool {
	return strings.Contains(string(c), phrase)
}

type CaptureMode string

const (
	CaptureModeNone         CaptureMode = "none"
	CaptureModeOCR          CaptureMode = "ocr"
	CaptureModeScene        CaptureMode = "scene_analysis"
	CaptureModeCurrency     CaptureMode = "currency"
	CaptureModeObjectDetail CaptureMode = "object_detail"
	CaptureModeLocation     CaptureMode = "location"
)

// NeedsImage reports whether the mode starts with a camera capture.
func (m CaptureMode) NeedsImage() bool {
	switch m {
	case CaptureModeOCR, CaptureModeScene, CaptureModeCurrency, CaptureModeObjectDetail:
		return true
	default:
		return false
	}
}
