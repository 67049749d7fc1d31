package network

import (
	"math"

	"trafficsim/internal/idpool"
)

// Headway and min-gap parameters for the IDM follow model.
const (
	followHeadway float32 = 2.0
	followMinGap  float32 = 2.0
)

// Follow applies the IDM-style car-following constraint toward a leader at
// (pos, vel). If the gap has already closed (dist <= 0), this hard-brakes by
// driving acc to -Inf, which always wins the min-combinator in ApplyAcc.
func (v *Vehicle) Follow(pos, vel float32) {
	dist := pos - (v.Pos + 0.5*v.Len)
	if dist <= 0 {
		v.Acc = float32(math.Inf(-1))
		return
	}
	approachRate := v.Vel - vel
	sStar := followMinGap + followHeadway*v.Vel + (approachRate*v.Vel)/v.FollowC
	ratio := sStar / dist
	acc := v.MaxAcc * (1 - ratio*ratio)
	v.ApplyAcc(acc)
}

// Stop is Follow toward a stationary point.
func (v *Vehicle) Stop(pos float32) {
	v.Follow(pos, 0)
}

// ApplySpeedLimit applies the speed-limit envelope for the current link and,
// if present, the next link on the route.
func (v *Vehicle) ApplySpeedLimit(links *idpool.Pool[Link]) {
	link := links.MustGet(v.Link)
	applySpeedLimit(v, link.SpeedLimit, 0)

	if nextID, ok := v.LinkAt(1); ok {
		next := links.MustGet(nextID)
		applySpeedLimit(v, next.SpeedLimit, link.Length-v.Pos)
	}
}

func applySpeedLimit(v *Vehicle, limit, distToChange float32) {
	effLimit := limit
	if distToChange > 0 {
		effLimit = float32(math.Sqrt(float64(limit*limit - 2*ComfDecel*distToChange)))
	}
	ratio := v.Vel / effLimit
	acc := v.MaxAcc * (1 - ratio*ratio*ratio*ratio)
	v.ApplyAcc(acc)
}

// CarFollowModel runs the forward car-following search for every vehicle
// currently on the link, in ascending obstacle (pos) order.
func (l *Link) CarFollowModel(vehs *idpool.Pool[Vehicle], links *idpool.Pool[Link]) {
	for i := range l.obstacles {
		veh := vehs.MustGet(l.obstacles[i].VehicleID)
		l.carFollowInner(i+1, veh, veh.Lane, 0, 0, 0, links)
	}
}

// carFollowInner searches forward from obstacle index i on this link for the
// binding leader or blocking obstacle for veh, which may be travelling in
// lane (its route lane at hop r, not necessarily veh.Lane when r > 0).
// offset accumulates connection lateral offsets and dist accumulates link
// lengths already crossed, so positions recovered here are relative to veh's
// own longitudinal frame.
func (l *Link) carFollowInner(i int, veh *Vehicle, lane uint8, r int, offset, dist float32, links *idpool.Pool[Link]) {
	for j := i; j < len(l.obstacles); j++ {
		obst := &l.obstacles[j]
		if obst.Lane == lane {
			veh.Follow(dist+obst.Pos, obst.Vel)
			return
		}

		pos := obst.Pos - (0.5*veh.Len + 1)
		var lat, halfWid float32
		onCurrPath := veh.Path != nil && pos+dist <= veh.Path.MaxX
		if onCurrPath {
			path := *veh.Path
			lat = path.GetY(pos + dist)
			halfWid = 0.5 * veh.Wid
			if veh.ChangingLanes {
				halfDelta := 0.5 * (path.GetY2() - lat)
				lat += halfDelta
				halfWid += abs32(halfDelta)
			}
			lat += offset
		} else {
			lat = l.GetLat(lane, pos)
			halfWid = 0.5 * veh.Wid
		}

		gap := abs32(lat-obst.Lat) - (halfWid + obst.HalfWidth)
		if gap < 0.5 {
			veh.Follow(dist+obst.Pos, obst.Vel)
		}
	}

	r++
	nextLink, hasNext := veh.LinkAt(r)
	if !hasNext {
		return
	}
	nextLane, hasLane := veh.LaneAt(r)
	if hasLane && nextLane != NoLane {
		newOffset := offset + l.OffsetTo(nextLink)
		links.MustGet(nextLink).carFollowInner(0, veh, nextLane, r, newOffset, dist+l.Length, links)
		return
	}
	// The lane route terminates before the link route does: this vehicle
	// cannot assume a lane on the next link, so it must stop at this link's end.
	veh.Stop(dist + l.Length)
}

// Integrate advances the vehicle's kinematics by delta seconds
// (semi-implicit Euler), possibly crossing into the next route link, and
// resets Acc to MaxAcc for the next tick's constraint phase.
func (v *Vehicle) Integrate(delta float32, links *idpool.Pool[Link]) {
	v.Vel += v.Acc * delta
	if v.Vel < 0 {
		v.Vel = 0
	}
	v.Pos += v.Vel * delta
	v.Acc = v.MaxAcc

	length := links.MustGet(v.Link).Length
	if v.Pos > length {
		links.MustGet(v.Link).RemoveVehicle(v.ID)
		v.linkRoute = v.linkRoute[1:]
		v.laneRoute = v.laneRoute[1:]
		if len(v.laneDists) > 0 {
			v.laneDists = v.laneDists[1:]
		}
		if len(v.linkRoute) > 0 {
			oldLink := v.Link
			nextLink := v.linkRoute[0]
			latOff := links.MustGet(oldLink).OffsetTo(nextLink)
			v.Link = nextLink
			links.MustGet(nextLink).AddVehicle(v.ID)
			v.Pos -= length
			v.Lane = v.laneRoute[0]
			if v.ChangingLanes && v.Path != nil {
				translated := v.Path.Translate(-length, latOff)
				v.Path = &translated
			} else {
				v.Path = nil
			}
		} else {
			v.Link = NoLink
			return
		}
	}

	v.UpdatePath(links)
}

// UpdatePath refreshes the vehicle's lateral path piece when it is absent or
// exhausted, then recomputes (Lat, DLat) from the current path at Pos.
func (v *Vehicle) UpdatePath(links *idpool.Pool[Link]) {
	if v.Path == nil || v.Pos > v.Path.MaxX {
		piece := links.MustGet(v.Link).Lanes[v.Lane].Lat.GetPiece(v.Pos)
		v.Path = &piece
		v.ChangingLanes = false
	}
	lat, dlat := v.Path.GetYAndDY(v.Pos)
	v.Lat = lat
	v.DLat = dlat
}
