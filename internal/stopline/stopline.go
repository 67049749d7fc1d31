// Package stopline implements controlled points on a link/lane (give-way,
// stop, traffic-light) and priority arbitration between conflicting streams,
// gating upstream vehicles via the same min-acceleration combinator the
// car-following model uses.
package stopline

// Kind is the stop-line's control type.
type Kind int

const (
	KindNone Kind = iota
	KindGiveWay
	KindStop
	KindTrafficLight
)

// LightState is the traffic-light phase, meaningful only when Kind is
// KindTrafficLight. Transitions are an external responsibility — the host
// mutates LightState between ticks (e.g. from a fixed-time or adaptive
// controller); this package only reacts to the current value.
type LightState int

const (
	LightGreen LightState = iota
	LightAmber
	LightRed
)

// Priority is the directed priority of a conflict edge: Yield means this
// stop-line's stream must give way to the other stream, Over means it
// has the right of way, Equal means neither stream is favored.
type Priority int8

const (
	PriorityYield Priority = -1
	PriorityEqual Priority = 0
	PriorityOver  Priority = 1
)

// Conflict is a directed edge from this stop-line to another, recording how
// deep into the other stream's link a committed vehicle may still sit while
// this stream is considered blocked.
type Conflict struct {
	StopLineID uint32
	Priority   Priority
	MaxPos     float32
}

// StopLine is a controlled point on a link/lane. CommittedVehicles records
// which vehicles have been granted passage through the controlled point.
type StopLine struct {
	ID         uint32
	Link       uint32
	Lane       uint8
	Pos        float32
	Len        float32
	Kind       Kind
	LightState LightState
	SightPos   float32
	Conflicts  []Conflict

	CommittedVehicles map[uint32]struct{}

	TimeUntilEnter float32
	MinArrival     float32
	ClearBefore    float32
}

// New constructs a stop-line with an empty commitment set.
func New(id, link uint32, lane uint8, pos, length float32, kind Kind) *StopLine {
	return &StopLine{
		ID:                id,
		Link:              link,
		Lane:               lane,
		Pos:               pos,
		Len:               length,
		Kind:              kind,
		CommittedVehicles: make(map[uint32]struct{}),
	}
}

// IsCommitted reports whether veh currently holds passage through this
// stop-line.
func (sl *StopLine) IsCommitted(veh uint32) bool {
	_, ok := sl.CommittedVehicles[veh]
	return ok
}
