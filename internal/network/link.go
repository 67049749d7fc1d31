// Package network implements the road network (links, lanes, connections),
// the per-tick obstacle list and forward car-following search, vehicle
// kinematics, routing, and lane-change decisions. These are kept in one
// package because car-following and lane decisions recurse across link
// boundaries into vehicle state and back (mirroring the mutually-visible
// `link`/`vehicle` submodules of the original simulation crate).
package network

import "trafficsim/internal/piecewise"

// NoLink is the sentinel link id meaning "not on the network". A vehicle
// carries this once it has exited, making it eligible for reaping.
const NoLink = ^uint32(0)

// NoLane is the sentinel lane index meaning "no compatible lane" — a forced
// stop before the lane route can continue.
const NoLane = ^uint8(0)

// Lane is a longitudinal traffic channel on a link, parameterized by its
// centerline geometry: Dist is the identity arc-length parameterization,
// Lat is the lateral offset from the link's reference line.
type Lane struct {
	Dist *piecewise.Linear
	Lat  *piecewise.Cubic
}

// LanePair pairs a lane on a connection's source link with a lane on its
// destination link.
type LanePair struct {
	LaneIn, LaneOut uint8
}

// Connection is a directed, permitted transition between two links, with the
// lane pairings valid across the boundary and the lateral offset needed to
// align the two lanes' centerlines.
type Connection struct {
	FromLink, ToLink uint32
	Lanes            []LanePair
	Offset           float32
}

// LaneOut returns the destination lane paired with laneIn across this
// connection, and whether a pairing exists.
func (c *Connection) LaneOut(laneIn uint8) (uint8, bool) {
	for _, p := range c.Lanes {
		if p.LaneIn == laneIn {
			return p.LaneOut, true
		}
	}
	return 0, false
}

// Link is a directed one-way road segment, identified by a user-assigned id.
type Link struct {
	ID         uint32
	Length     float32
	SpeedLimit float32
	Lanes      []Lane
	LinksIn    []Connection
	LinksOut   []Connection

	obstacles []Obstacle
}

// NewLink constructs a link with no lanes or connections yet.
func NewLink(id uint32, length, speedLimit float32) *Link {
	return &Link{ID: id, Length: length, SpeedLimit: speedLimit}
}

// ConnectionTo returns the outbound connection to the given link, if any.
func (l *Link) ConnectionTo(toLink uint32) (*Connection, bool) {
	for i := range l.LinksOut {
		if l.LinksOut[i].ToLink == toLink {
			return &l.LinksOut[i], true
		}
	}
	return nil, false
}

// OffsetTo returns the lateral offset of the connection to toLink.
func (l *Link) OffsetTo(toLink uint32) float32 {
	c, ok := l.ConnectionTo(toLink)
	if !ok {
		return 0
	}
	return c.Offset
}

// GetLat evaluates the lateral centerline offset of lane at pos.
func (l *Link) GetLat(lane uint8, pos float32) float32 {
	return l.Lanes[lane].Lat.GetY(pos)
}

// AddVehicle inserts a vehicle onto the link's obstacle list with a zeroed
// footprint; it is refreshed by the next UpdateObstacles.
func (l *Link) AddVehicle(vehID uint32) {
	l.obstacles = append([]Obstacle{{VehicleID: vehID}}, l.obstacles...)
}

// RemoveVehicle removes a vehicle from the link's obstacle list by id.
func (l *Link) RemoveVehicle(vehID uint32) {
	for i := len(l.obstacles) - 1; i >= 0; i-- {
		if l.obstacles[i].VehicleID == vehID {
			l.obstacles = append(l.obstacles[:i], l.obstacles[i+1:]...)
			return
		}
	}
}

// Obstacles returns the link's current-tick obstacle list, sorted ascending
// by pos after UpdateObstacles has run.
func (l *Link) Obstacles() []Obstacle {
	return l.obstacles
}

// VehicleIDs returns the ids of vehicles currently on the link, in obstacle
// order.
func (l *Link) VehicleIDs() []uint32 {
	ids := make([]uint32, len(l.obstacles))
	for i, o := range l.obstacles {
		ids[i] = o.VehicleID
	}
	return ids
}
