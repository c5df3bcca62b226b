package domain

type PartialState int

const (
	PartialValue PartialState = iota
	PartialNotFound
	PartialError
)

// Sentinel distances kept for callers that still speak in meters only.
const (
	DistanceNotFound = -1
	DistanceError    = -2
)

// Partial is the result of one sub-request of a fan-out.
type Partial[T any] struct {
	State PartialState
	Value T
	Err   error
}

func Found[T any](v T) Partial[T] {
	return Partial[T]{State: PartialValue, Value: v}
}

func NotFound[T any]() Partial[T] {
	return Partial[T]{State: PartialNotFound}
}

func Failed[T any](err error) Partial[T] {
	return Partial[T]{State: PartialError, Err: err}
}

// Fact names one piece of the location answer. Facts are narrated in Facts order.
type Fact string

const (
	FactAddress        Fact = "address"
	FactBusStop        Fact = "bus_stop"
	FactRailwayStation Fact = "railway_station"
)

var Facts = []Fact{FactAddress, FactBusStop, FactRailwayStation}

// Place is a named spot; Distance is only meaningful when HasDistance is set.
type Place struct {
	Name        string
	Distance    float64
	HasDistance bool
}

// SentinelDistance reports the distance in meters, or DistanceNotFound /
// DistanceError for the non-value states.
func SentinelDistance(p Partial[Place]) float64 {
	switch p.State {
	case PartialNotFound:
		return DistanceNotFound
	case PartialError:
		return DistanceError
	}
	if !p.Value.HasDistance {
		return DistanceNotFound
	}
	return p.Value.Distance
}
