package simulation

import (
	"math"
	"testing"

	"trafficsim/internal/network"
	"trafficsim/internal/piecewise"
	"trafficsim/internal/stopline"

	. "github.com/smartystreets/goconvey/convey"
)

func straightLane() ([]piecewise.Point, []piecewise.Point) {
	dist := []piecewise.Point{{X: 0, Y: 0}, {X: 10000, Y: 10000}}
	lat := []piecewise.Point{{X: 0, Y: 0}, {X: 10000, Y: 0}}
	return dist, lat
}

func TestFreeFlowSingleVehicle(t *testing.T) {
	Convey("A single vehicle on an open link with no destination", t, func() {
		sim := New(Config{TickDelta: 0.1})
		So(sim.AddLink(0, 1000, 25), ShouldBeNil)
		dist, lat := straightLane()
		So(sim.AddLane(0, dist, lat), ShouldBeNil)

		vehID, err := sim.AddVehicle(0, 0, 0, 0)
		So(err, ShouldBeNil)
		_ = vehID

		Convey("reaches the speed limit and the link's end within 400 ticks", func() {
			var states []VehicleState
			for i := 0; i < 400; i++ {
				states = sim.Step()
			}
			So(states, ShouldHaveLength, 1)
			So(states[0].Pos, ShouldAlmostEqual, 1000, 1)
			So(states[0].Vel, ShouldAlmostEqual, 25, 0.5)
		})
	})
}

func TestCarFollowConvergence(t *testing.T) {
	Convey("A following vehicle behind a slower leader", t, func() {
		sim := New(Config{TickDelta: 0.1})
		So(sim.AddLink(0, 1000, 25), ShouldBeNil)
		dist, lat := straightLane()
		So(sim.AddLane(0, dist, lat), ShouldBeNil)

		aID, _ := sim.AddVehicle(0, 0, 0, 100)
		bID, _ := sim.AddVehicle(1, 0, 0, 50)
		_, _ = aID, bID

		Convey("settles to a safe following gap within 100 ticks", func() {
			var states []VehicleState
			for i := 0; i < 100; i++ {
				states = sim.Step()
			}
			var aPos, bPos, bVel float32
			for _, s := range states {
				if s.UserID == 0 {
					aPos = s.Pos
				} else {
					bPos = s.Pos
					bVel = s.Vel
				}
			}
			const g0, headwayT = 2.0, 2.0
			So(bPos, ShouldBeLessThan, aPos-(g0+headwayT*bVel)+1)
		})
	})
}

func TestLinkTransition(t *testing.T) {
	Convey("A vehicle near the end of its link with a viable downstream connection", t, func() {
		sim := New(Config{TickDelta: 0.1})
		So(sim.AddLink(0, 100, 25), ShouldBeNil)
		So(sim.AddLink(1, 100, 25), ShouldBeNil)
		dist, lat := straightLane()
		So(sim.AddLane(0, dist, lat), ShouldBeNil)
		So(sim.AddLane(1, dist, lat), ShouldBeNil)
		So(sim.AddConnection(0, 1, []network.LanePair{{LaneIn: 0, LaneOut: 0}}, 0), ShouldBeNil)

		vehID, _ := sim.AddVehicle(0, 0, 0, 95)
		So(sim.SetVehicleDest(vehID, 1), ShouldBeNil)
		veh := sim.vehicles.MustGet(vehID)
		veh.Vel = 10

		Convey("advances onto the next link after one tick", func() {
			states := sim.Step()
			So(states, ShouldHaveLength, 1)
			So(states[0].Link, ShouldEqual, uint32(1))
			So(states[0].Pos, ShouldAlmostEqual, 5, 0.2)
		})
	})
}

func TestStopAtGiveWay(t *testing.T) {
	Convey("A vehicle approaching an always-clear give-way", t, func() {
		sim := New(Config{TickDelta: 0.1})
		So(sim.AddLink(0, 1000, 25), ShouldBeNil)
		dist, lat := straightLane()
		So(sim.AddLane(0, dist, lat), ShouldBeNil)
		So(sim.AddStopLine(0, 0, 0, 90, 1, stopline.KindGiveWay), ShouldBeNil)

		vehID, _ := sim.AddVehicle(0, 0, 0, 0)
		_ = vehID

		Convey("passes without sustained braking", func() {
			var minVel float32 = math.MaxFloat32
			for i := 0; i < 200; i++ {
				states := sim.Step()
				if states[0].Pos > 95 && states[0].Vel < minVel {
					minVel = states[0].Vel
				}
			}
			So(minVel, ShouldBeGreaterThan, 15)
		})
	})
}

func TestPriorityConflictHoldsVehicle(t *testing.T) {
	Convey("A lower-priority stop-line facing an occupied conflict zone", t, func() {
		sim := New(Config{TickDelta: 0.1})
		So(sim.AddLink(0, 1000, 25), ShouldBeNil)
		So(sim.AddLink(1, 1000, 25), ShouldBeNil)
		dist, lat := straightLane()
		So(sim.AddLane(0, dist, lat), ShouldBeNil)
		So(sim.AddLane(1, dist, lat), ShouldBeNil)

		So(sim.AddStopLine(10, 0, 0, 50, 1, stopline.KindGiveWay), ShouldBeNil)
		So(sim.AddStopLine(20, 1, 0, 50, 1, stopline.KindNone), ShouldBeNil)
		So(sim.AddConflict(10, 20, stopline.PriorityYield, 10), ShouldBeNil)

		v2ID, _ := sim.AddVehicle(2, 1, 0, 5)
		v1ID, _ := sim.AddVehicle(1, 0, 0, 46)
		// V2 already holds passage through S2, so it occupies the conflict zone.
		sim.stoplines.MustGet(20).CommittedVehicles[v2ID] = struct{}{}

		Convey("holds V1 uncommitted every tick until V2 clears past max_pos", func() {
			for i := 0; i < 5; i++ {
				sim.Step()
				So(sim.stoplines.MustGet(10).IsCommitted(v1ID), ShouldBeFalse)
			}

			// S2's clear_before tracks V2's rear (pos - 0.5*len), and S1 reads
			// the value S2 computed on the previous tick.
			for i := 0; i < 200 && sim.stoplines.MustGet(20).ClearBefore < 10; i++ {
				sim.Step()
				if sim.stoplines.MustGet(20).ClearBefore < 10 {
					So(sim.stoplines.MustGet(10).IsCommitted(v1ID), ShouldBeFalse)
				}
			}
			So(sim.stoplines.MustGet(20).ClearBefore, ShouldBeGreaterThanOrEqualTo, 10)

			sim.Step()
			So(sim.stoplines.MustGet(10).IsCommitted(v1ID), ShouldBeTrue)
		})
	})
}

func TestLaneChange(t *testing.T) {
	Convey("A vehicle whose only downstream connection requires lane 1", t, func() {
		sim := New(Config{TickDelta: 0.1})
		So(sim.AddLink(0, 1000, 25), ShouldBeNil)
		So(sim.AddLink(1, 1000, 25), ShouldBeNil)
		dist := []piecewise.Point{{X: 0, Y: 0}, {X: 10000, Y: 10000}}
		lat0 := []piecewise.Point{{X: 0, Y: 0}, {X: 10000, Y: 0}}
		lat1 := []piecewise.Point{{X: 0, Y: 3}, {X: 10000, Y: 3}}
		So(sim.AddLane(0, dist, lat0), ShouldBeNil)
		So(sim.AddLane(0, dist, lat1), ShouldBeNil)
		So(sim.AddLane(1, dist, lat0), ShouldBeNil)
		// Only lane 1 on link 0 connects onward; lane 0 is a dead end.
		So(sim.AddConnection(0, 1, []network.LanePair{{LaneIn: 1, LaneOut: 0}}, 0), ShouldBeNil)

		vehID, _ := sim.AddVehicle(0, 0, 0, 100)
		veh := sim.vehicles.MustGet(vehID)
		veh.SetRoute([]uint32{0, 1})

		Convey("builds a lane-change path toward lane 1 and completes it within ~40m", func() {
			veh.LaneDecisions(sim.links)
			So(veh.Lane, ShouldEqual, uint8(1))
			So(veh.Path, ShouldNotBeNil)
			So(veh.Path.GetY2(), ShouldAlmostEqual, 3, 0.1)

			for i := 0; i < 500 && veh.ChangingLanes; i++ {
				sim.Step()
			}
			So(veh.ChangingLanes, ShouldBeFalse)
			So(veh.Lat, ShouldAlmostEqual, 3, 0.2)
			So(veh.DLat, ShouldAlmostEqual, 0, 0.2)
		})
	})
}
