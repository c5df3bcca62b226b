package domain

// CaptureSession holds the parameters of one user request. A new command
// replaces it wholesale; nothing carries over from the previous request.
type CaptureSession struct {
	ID       string
	Mode     CaptureMode
	Language string
}

func (s *CaptureSession) Reset(id string) {
	s.ID = id
	s.Mode = CaptureModeNone
	s.Language = ""
}
