package domain

import "strings"

// ReadResult is the recognized text of an OCR job, grouped by page.
type ReadResult struct {
	Pages []ReadPage
}

type ReadPage struct {
	Language string
	Lines    []string
}

// Text joins every line of every page with single spaces.
func (r ReadResult) Text() string {
	var n int
	for _, p := range r.Pages {
		n += len(p.Lines)
	}
	lines := make([]string, 0, n)
	for _, p := range r.Pages {
		for _, l := range p.Lines {
			if l != "" {
				lines = append(lines, l)
			}
		}
	}
	return strings.Join(lines, " ")
}

// DetectedLanguage returns the language reported for the first page.
func (r ReadResult) DetectedLanguage() string {
	if len(r.Pages) == 0 {
		return ""
	}
	return r.Pages[0].Language
}

type SceneAnalysis struct {
	Caption string
	Objects []string
}

type ObjectAnalysis struct {
	Objects        []string
	DominantColors []string
	Tags           []string
}

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type POI struct {
	Name     string
	Position Coordinate
}
