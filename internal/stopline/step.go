package stopline

import (
	"math"

	"trafficsim/internal/idpool"
	"trafficsim/internal/network"
)

// maxUpstreamHops bounds the recursive upstream scan from a stop-line's own
// link into its predecessors' predecessors. Two to three hops is typical:
// further back, an approaching vehicle is governed by normal car-following
// and rarely needs to be held at a stop-line it cannot yet see.
const maxUpstreamHops = 3

// stopGap is the distance upstream of a stop-line's position beyond which an
// approaching vehicle is always told to stop there rather than considered for
// commitment; see applyToVeh's far-upstream stop case.
const stopGap float32 = 6.0

// Step advances every stop-line in the network by one tick, in ascending id
// order. Ascending order is the full arbitration contract: a conflict whose
// other stop-line has a lower id observes that stop-line's clear_before
// already updated this tick, while a conflict whose other stop-line has a
// higher id observes last tick's value. Go has no aliasing restriction
// forcing a detach/mutate/reattach dance here (unlike a borrow-checked
// language, reading stoplines.MustGet(other) while mutating the stop-line
// under iteration is perfectly safe) — ascending iteration over the pool
// alone reproduces the intended sequencing.
func Step(stoplines *idpool.Pool[StopLine], vehs *idpool.Pool[network.Vehicle], links *idpool.Pool[network.Link]) {
	stoplines.Iter(func(id uint32, sl *StopLine) {
		sl.step(stoplines, vehs, links)
	})
}

func (sl *StopLine) step(stoplines *idpool.Pool[StopLine], vehs *idpool.Pool[network.Vehicle], links *idpool.Pool[network.Link]) {
	sl.TimeUntilEnter = float32(math.Inf(1))
	sl.MinArrival = float32(math.Inf(1))
	sl.ClearBefore = float32(math.Inf(1))

	for vehID := range sl.CommittedVehicles {
		veh, ok := vehs.Get(vehID)
		if !ok {
			delete(sl.CommittedVehicles, vehID)
			continue
		}
		switch {
		case veh.Link == sl.Link:
			clear := veh.Pos - 0.5*veh.Len
			if clear < sl.ClearBefore {
				sl.ClearBefore = clear
			}
		case !linkInRoute(veh, sl.Link):
			delete(sl.CommittedVehicles, vehID)
		case linkWithinDownstreamHorizon(links, sl.Link, veh.Link, maxUpstreamHops):
			if sl.Pos < sl.ClearBefore {
				sl.ClearBefore = sl.Pos
			}
		}
	}

	link := links.MustGet(sl.Link)
	sl.applyToLink(link, sl.Lane, sl.Pos, vehs, links, stoplines, 0)
}

func linkInRoute(veh *network.Vehicle, link uint32) bool {
	for _, l := range veh.LinkRoute() {
		if l == link {
			return true
		}
	}
	return false
}

// linkWithinDownstreamHorizon reports whether target is reachable from src by
// following outbound connections within depth hops, i.e. a committed vehicle
// now sitting on target may still occupy the conflict region src's stop-line
// guards.
func linkWithinDownstreamHorizon(links *idpool.Pool[network.Link], src, target uint32, depth int) bool {
	if depth <= 0 {
		return false
	}
	link, ok := links.Get(src)
	if !ok {
		return false
	}
	for _, conn := range link.LinksOut {
		if conn.ToLink == target {
			return true
		}
		if linkWithinDownstreamHorizon(links, conn.ToLink, target, depth-1) {
			return true
		}
	}
	return false
}

// applyToLink scans vehicles on link in descending pos order, gating any
// with matching lane and pos <= pos via applyToVeh. If the scan finds no
// blocking vehicle, it recurses upstream through inbound connections whose
// lane-out matches lane, stopping at maxUpstreamHops. Returns whether a
// blocking vehicle was found on this link (used only to short-circuit this
// link's own scan; sibling inbound connections are always visited
// independently since they represent physically distinct approaches).
func (sl *StopLine) applyToLink(link *network.Link, lane uint8, pos float32, vehs *idpool.Pool[network.Vehicle], links *idpool.Pool[network.Link], stoplines *idpool.Pool[StopLine], depth int) bool {
	obstacles := link.Obstacles()
	for i := len(obstacles) - 1; i >= 0; i-- {
		o := obstacles[i]
		if o.Lane != lane || o.Pos > pos {
			continue
		}
		veh := vehs.MustGet(o.VehicleID)
		if sl.applyToVeh(veh, pos, stoplines) {
			return true
		}
	}

	if depth >= maxUpstreamHops {
		return false
	}
	for _, conn := range link.LinksIn {
		fromLink, ok := links.Get(conn.FromLink)
		if !ok {
			continue
		}
		for _, pair := range conn.Lanes {
			if pair.LaneOut != lane {
				continue
			}
			sl.applyToLink(fromLink, pair.LaneIn, fromLink.Length, vehs, links, stoplines, depth+1)
		}
	}
	return false
}

// applyToVeh gates a single approaching vehicle against this stop-line.
// Returns true when the vehicle was stopped (and thus further upstream
// scanning along this lane is already accounted for by this leader).
func (sl *StopLine) applyToVeh(veh *network.Vehicle, pos float32, stoplines *idpool.Pool[StopLine]) bool {
	if sl.IsCommitted(veh.ID) {
		return false
	}
	if veh.Pos < pos-stopGap {
		veh.Stop(pos)
		return true
	}
	if !sl.isClear(stoplines) {
		veh.Stop(pos)
		return true
	}
	sl.CommittedVehicles[veh.ID] = struct{}{}
	sl.ClearBefore = 0
	return false
}

// isClear reports whether this stop-line currently grants passage: every
// registered conflict must show its other stream clear past that conflict's
// max_pos, and a red or amber light forces non-clear outright. A stop-line
// with no conflicts (e.g. a plain give-way onto an empty major road) is
// always clear.
func (sl *StopLine) isClear(stoplines *idpool.Pool[StopLine]) bool {
	if sl.Kind == KindTrafficLight {
		switch sl.LightState {
		case LightRed, LightAmber:
			return false
		}
	}
	for _, c := range sl.Conflicts {
		other, ok := stoplines.Get(c.StopLineID)
		if !ok {
			continue
		}
		if other.ClearBefore < c.MaxPos {
			return false
		}
	}
	return true
}
