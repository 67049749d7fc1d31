package network

import "trafficsim/internal/idpool"

// Obstacle is a per-tick snapshot of a vehicle used for car-following only.
// It is recomputed every tick from current vehicle state and never persisted
// across ticks.
type Obstacle struct {
	VehicleID uint32
	Pos       float32
	Vel       float32
	Lat       float32
	HalfWidth float32
	Lane      uint8
}

// GetObstacle snapshots v's footprint for car-following. When v is mid lane
// change, the footprint is widened and laterally biased by half the distance
// still to travel, reserving the corridor swept during the maneuver.
func (v *Vehicle) GetObstacle() Obstacle {
	pos := v.Pos - 0.5*v.Len
	if v.ChangingLanes && v.Path != nil {
		halfDelta := 0.5 * (v.Path.GetY2() - v.Lat)
		return Obstacle{
			VehicleID: v.ID,
			Pos:       pos,
			Vel:       v.Vel,
			Lat:       v.Lat + halfDelta,
			HalfWidth: 0.5*v.Wid + abs32(halfDelta),
			Lane:      v.Lane,
		}
	}
	return Obstacle{
		VehicleID: v.ID,
		Pos:       pos,
		Vel:       v.Vel,
		Lat:       v.Lat,
		HalfWidth: 0.5 * v.Wid,
		Lane:      v.Lane,
	}
}

// UpdateObstacles resyncs every obstacle on the link from current vehicle
// state, then re-sorts ascending by pos. An insertion sort is used
// deliberately: the list is near-sorted between ticks (vehicles move a small
// distance per tick), and insertion sort is stable, preserving the relative
// order of vehicles that tie on pos (important when bumper-to-bumper).
func (l *Link) UpdateObstacles(vehs *idpool.Pool[Vehicle]) {
	for i := range l.obstacles {
		l.obstacles[i] = vehs.MustGet(l.obstacles[i].VehicleID).GetObstacle()
	}
	insertionSortObstacles(l.obstacles)
}

func insertionSortObstacles(o []Obstacle) {
	for i := 1; i < len(o); i++ {
		key := o[i]
		j := i - 1
		for j >= 0 && o[j].Pos > key.Pos {
			o[j+1] = o[j]
			j--
		}
		o[j+1] = key
	}
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
