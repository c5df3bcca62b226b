package domain

// OperationStatus tracks a remote long-running job. Terminal states never change.
type OperationStatus int

const (
	StatusAccepted OperationStatus = iota
	StatusRunning
	StatusSucceeded
	StatusFailed
	StatusTimedOut
)

func (s OperationStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusTimedOut
}

func (s OperationStatus) String() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Submission is the answer to submitting work: either a handle to poll
// (Location set) or an immediate payload.
type Submission[T any] struct {
	Location  string
	Immediate bool
	Payload   T
}

func Accepted[T any](location string) Submission[T] {
	return Submission[T]{Location: location}
}

func ImmediateResult[T any](payload T) Submission[T] {
	return Submission[T]{Immediate: true, Payload: payload}
}

// PollResult is one classified status response. Only Running, Succeeded
// and Failed are valid here; transport and parse problems come back as errors.
type PollResult[T any] struct {
	Status  OperationStatus
	Payload T
}

// Outcome is the single terminal delivery of an asynchronous operation.
// Err is nil only when Status is StatusSucceeded.
type Outcome[T any] struct {
	Status   OperationStatus
	Payload  T
	Err      error
	Attempts int
}

func (o Outcome[T]) Succeeded() bool {
	return o.Status == StatusSucceeded
}
