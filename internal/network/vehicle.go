package network

import (
	"math"

	"trafficsim/internal/piecewise"
)

// ComfDecel is the comfortable deceleration used by the IDM follow model and
// the speed-limit envelope (negative, m/s^2).
const ComfDecel float32 = -2.5

// Vehicle is an individual traffic participant. ID is the internal pool
// index assigned on insert; UserID is the id supplied by the controller and
// echoed back in frames.
type Vehicle struct {
	ID     uint32
	UserID uint32

	// Fixed attributes.
	Len     float32
	Wid     float32
	MaxAcc  float32
	FollowC float32

	// Kinematics.
	Link uint32
	Lane uint8
	Pos  float32
	Vel  float32
	Acc  float32
	Lat  float32
	DLat float32

	// Lateral transition.
	ChangingLanes bool
	OldLane       uint8
	Path          *piecewise.Piece

	// Routing.
	linkRoute   []uint32
	laneRoute   []uint8
	laneDists   []laneDistances
	ArrivalStep *uint32
}

// laneDistances holds, for one route hop, a 4-tier forced-lane-change
// distance per lane on that hop's link.
type laneDistances struct {
	lanes [][4]float32
}

// NewVehicle creates a vehicle with default dimensions and dynamics,
// matching the reference implementation's defaults.
func NewVehicle(userID uint32) *Vehicle {
	const maxAcc float32 = 3.0
	return &Vehicle{
		UserID:  userID,
		Len:     4.6,
		Wid:     2.0,
		MaxAcc:  maxAcc,
		Acc:     maxAcc,
		FollowC: 2 * float32(math.Sqrt(float64(maxAcc*(-ComfDecel)))),
		Link:    NoLink,
	}
}

// SetPos places the vehicle at (link, lane, pos), resetting its route to a
// single-link route starting there.
func (v *Vehicle) SetPos(link uint32, lane uint8, pos float32) {
	v.Link = link
	v.Pos = pos
	v.Lane = lane
	v.linkRoute = []uint32{link}
	v.laneRoute = []uint8{lane}
}

// SetRoute assigns the vehicle's link route, prepending its current link if
// the route does not already start there, and invalidates the lane-distance
// cache so it is recomputed from the new route.
func (v *Vehicle) SetRoute(route []uint32) {
	v.linkRoute = route
	if len(v.linkRoute) == 0 || v.linkRoute[0] != v.Link {
		v.linkRoute = append([]uint32{v.Link}, v.linkRoute...)
	}
	v.laneDists = nil
}

// LinkAt returns the link at route hop i, and whether it exists.
func (v *Vehicle) LinkAt(i int) (uint32, bool) {
	if i < 0 || i >= len(v.linkRoute) {
		return 0, false
	}
	return v.linkRoute[i], true
}

// LaneAt returns the lane at route hop i, and whether it exists.
func (v *Vehicle) LaneAt(i int) (uint8, bool) {
	if i < 0 || i >= len(v.laneRoute) {
		return 0, false
	}
	return v.laneRoute[i], true
}

// LinkRoute returns the vehicle's remaining link route, starting with its
// current link.
func (v *Vehicle) LinkRoute() []uint32 {
	return v.linkRoute
}

// LaneRoute returns the vehicle's remaining lane route, parallel to LinkRoute.
func (v *Vehicle) LaneRoute() []uint8 {
	return v.laneRoute
}

// OnNetwork reports whether the vehicle is still on the network.
func (v *Vehicle) OnNetwork() bool {
	return v.Link != NoLink
}

// ApplyAcc takes the minimum of the vehicle's current acceleration and acc:
// the most restrictive constraint observed this tick wins. All per-tick
// constraints (leader, stop-line, speed limit) compose correctly this way
// because they are independent deceleration ceilings.
func (v *Vehicle) ApplyAcc(acc float32) {
	if acc < v.Acc {
		v.Acc = acc
	}
}
