package network

import (
	"math"

	"trafficsim/internal/idpool"
	"trafficsim/internal/piecewise"
)

// laneChangeHorizon is the fixed longitudinal distance over which a lane
// change's lateral path is built.
const laneChangeHorizon float32 = 40.0

// LaneDecisionPeriod is the default amortization period P: lane decisions for
// a vehicle are only refreshed on ticks where vehicle.ID mod P == step mod P.
const LaneDecisionPeriod = 5

// ShouldRefreshLaneDecision reports whether vehicle id should have its lane
// decision refreshed on the given step, under the amortization period p.
func ShouldRefreshLaneDecision(id uint32, step uint32, p uint32) bool {
	if p == 0 {
		return true
	}
	return id%p == step%p
}

// computeLaneDists performs the backward pass building, for every remaining
// route hop, a 4-tuple per lane of "distance to a forced lane change",
// indexed by route hop so that index 0 is the current hop.
func (v *Vehicle) computeLaneDists(links *idpool.Pool[Link]) {
	n := len(v.linkRoute)
	dists := make([]laneDistances, n)

	lastLink := links.MustGet(v.linkRoute[n-1])
	lanes := make([][4]float32, len(lastLink.Lanes))
	for i := range lanes {
		lanes[i] = [4]float32{infP, infP, infP, infP}
	}
	dists[n-1] = laneDistances{lanes: lanes}

	succLinkID := v.linkRoute[n-1]
	for hop := n - 2; hop >= 0; hop-- {
		link := links.MustGet(v.linkRoute[hop])
		lanes := make([][4]float32, len(link.Lanes))

		succDists := dists[hop+1].lanes
		minOffset := 4
		conn, hasConn := link.ConnectionTo(succLinkID)
		if hasConn {
			for _, pair := range conn.Lanes {
				laneIn := int(pair.LaneIn)
				for i := range lanes {
					offset := absInt(i - laneIn)
					if offset < minOffset {
						minOffset = offset
					}
					for k := offset; k < 4; k++ {
						if b := succDists[pair.LaneOut][k-offset]; b > lanes[i][k] {
							lanes[i][k] = b
						}
					}
				}
			}
		}
		for i := range lanes {
			shifted := lanes[i]
			for k := 0; k < 4-minOffset; k++ {
				shifted[k] = lanes[i][k+minOffset] + link.Length
			}
			for k := 4 - minOffset; k < 4; k++ {
				shifted[k] = infP
			}
			lanes[i] = shifted
		}

		dists[hop] = laneDistances{lanes: lanes}
		succLinkID = v.linkRoute[hop]
	}

	v.laneDists = dists
}

const infP = float32(math.MaxFloat32)

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// compareLanes compares the 4-tuples for lane1 and lane2 at route hop i,
// lexicographically from the highest tier (3, the strongest preference) down
// to the lowest (0). A missing (out-of-range) lane is worse than any present
// lane. Returns <0, 0, >0 as lane1 is worse, equal, or better than lane2.
func (v *Vehicle) compareLanes(hop int, lane1, lane2 uint8) int {
	dists := v.laneDists[hop].lanes
	l1, ok1 := laneTuple(dists, lane1)
	l2, ok2 := laneTuple(dists, lane2)
	switch {
	case !ok1 && !ok2:
		return 0
	case !ok1:
		return -1
	case !ok2:
		return 1
	}
	for k := 3; k >= 0; k-- {
		switch {
		case l1[k] < l2[k]:
			return -1
		case l1[k] > l2[k]:
			return 1
		}
	}
	return 0
}

func laneTuple(dists [][4]float32, lane uint8) ([4]float32, bool) {
	if int(lane) >= len(dists) {
		return [4]float32{}, false
	}
	return dists[lane], true
}

// LaneDecisions selects the best lane on the vehicle's current hop and
// propagates a compatible lane choice along the remainder of the route. It
// is a no-op while already mid lane-change, or when the route is a single
// link (no lane preference to plan toward).
func (v *Vehicle) LaneDecisions(links *idpool.Pool[Link]) {
	if v.ChangingLanes || len(v.linkRoute) < 2 {
		return
	}

	if len(v.laneDists) < len(v.linkRoute) {
		v.computeLaneDists(links)
	}

	v.OldLane = v.Lane
	leftBetter := v.Lane > 0 && v.compareLanes(0, v.Lane-1, v.Lane) > 0
	rightBetter := v.compareLanes(0, v.Lane+1, v.Lane) > 0

	changed := true
	switch {
	case !leftBetter && !rightBetter:
		changed = false
	case leftBetter && !rightBetter:
		v.Lane--
	case !leftBetter && rightBetter:
		v.Lane++
	default:
		if v.compareLanes(0, v.Lane-1, v.Lane+1) < 0 {
			v.Lane++
		} else {
			v.Lane--
		}
	}
	if changed {
		v.ChangingLanes = true
		v.laneRoute = []uint8{v.Lane}
	}

	for len(v.laneRoute) < len(v.linkRoute) {
		i := len(v.laneRoute) - 1
		prevLane := v.laneRoute[i]
		prevLink := links.MustGet(v.linkRoute[i])
		nextLink := v.linkRoute[i+1]

		best := NoLane
		if conn, ok := prevLink.ConnectionTo(nextLink); ok {
			for _, pair := range conn.Lanes {
				if pair.LaneIn != prevLane {
					continue
				}
				if best == NoLane || v.compareLanes(i, pair.LaneOut, best) > 0 {
					best = pair.LaneOut
				}
			}
		}
		if best == NoLane {
			for len(v.laneRoute) < len(v.linkRoute) {
				v.laneRoute = append(v.laneRoute, NoLane)
			}
			break
		}
		v.laneRoute = append(v.laneRoute, best)
	}

	if !changed {
		return
	}
	dist := laneChangeHorizon
	endLat := v.getLatAtPos(v.Pos+dist, links)
	v.Path = &piecewise.Piece{
		MinX: v.Pos,
		MaxX: v.Pos + dist,
		Y1:   v.Lat,
		Yd:   endLat - v.Lat,
	}
}

// getLatAtPos walks forward link-by-link from the vehicle's current link to
// find the target lane's centerline at the given longitudinal position,
// accounting for per-connection lateral offsets.
func (v *Vehicle) getLatAtPos(pos float32, links *idpool.Pool[Link]) float32 {
	ind := 0
	offset := float32(0)
	link := links.MustGet(v.Link)
	for pos > link.Length {
		pos -= link.Length
		ind++
		nextLink := v.linkRoute[ind]
		offset += link.OffsetTo(nextLink)
		link = links.MustGet(nextLink)
	}
	return link.GetLat(v.laneRoute[ind], pos) - offset
}
