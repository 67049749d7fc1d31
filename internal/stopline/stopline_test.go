package stopline

import (
	"testing"

	"trafficsim/internal/idpool"
	"trafficsim/internal/network"

	. "github.com/smartystreets/goconvey/convey"
)

func newTestLink(id uint32, length float32) *network.Link {
	link := network.NewLink(id, length, 20)
	link.Lanes = []network.Lane{{Dist: nil, Lat: nil}}
	return link
}

func TestGiveWayNoConflicts(t *testing.T) {
	Convey("A give-way stop-line with no registered conflicts", t, func() {
		links := idpool.New[network.Link]()
		link := newTestLink(0, 100)
		links.Insert(0, *link)

		vehs := idpool.New[network.Vehicle]()
		veh := network.NewVehicle(1)
		veh.SetPos(0, 0, 10)
		veh.SetRoute([]uint32{0})
		vehs.Insert(0, *veh)
		l := links.MustGet(0)
		l.AddVehicle(0)
		l.UpdateObstacles(vehs)

		sl := New(0, 0, 0, 50, 1, KindGiveWay)
		stoplines := idpool.New[StopLine]()
		stoplines.Insert(0, *sl)

		Convey("is always clear and commits the approaching vehicle", func() {
			Step(stoplines, vehs, links)
			got := stoplines.MustGet(0)
			So(got.IsCommitted(0), ShouldBeTrue)
			So(got.ClearBefore, ShouldEqual, float32(0))
		})
	})
}

func TestPriorityConflictBlocks(t *testing.T) {
	Convey("A lower-priority stop-line with an unclear conflict", t, func() {
		links := idpool.New[network.Link]()
		minorLink := newTestLink(0, 100)
		majorLink := newTestLink(1, 100)
		links.Insert(0, *minorLink)
		links.Insert(1, *majorLink)

		vehs := idpool.New[network.Vehicle]()

		minor := network.NewVehicle(10)
		minor.SetPos(0, 0, 40)
		minor.SetRoute([]uint32{0})
		vehs.Insert(0, *minor)

		major := network.NewVehicle(20)
		major.SetPos(1, 0, 10)
		major.SetRoute([]uint32{1})
		vehs.Insert(1, *major)

		links.MustGet(0).AddVehicle(0)
		links.MustGet(0).UpdateObstacles(vehs)
		links.MustGet(1).AddVehicle(1)
		links.MustGet(1).UpdateObstacles(vehs)

		majorSL := New(1, 1, 0, 80, 1, KindNone)
		minorSL := New(0, 0, 0, 50, 1, KindGiveWay)
		minorSL.Conflicts = []Conflict{{StopLineID: 1, Priority: PriorityYield, MaxPos: 30}}

		stoplines := idpool.New[StopLine]()
		stoplines.Insert(0, *minorSL)
		stoplines.Insert(1, *majorSL)

		Convey("the minor stream is held while the major stream occupies the conflict zone", func() {
			Step(stoplines, vehs, links)
			got := stoplines.MustGet(0)
			So(got.IsCommitted(0), ShouldBeFalse)

			mVeh := vehs.MustGet(0)
			So(mVeh.Acc < 3.0, ShouldBeTrue)
		})
	})
}

func TestUncommitOnRouteExit(t *testing.T) {
	Convey("A committed vehicle that leaves the stop-line's link out of its route", t, func() {
		links := idpool.New[network.Link]()
		links.Insert(0, *newTestLink(0, 100))
		links.Insert(1, *newTestLink(1, 100))

		vehs := idpool.New[network.Vehicle]()
		veh := network.NewVehicle(1)
		veh.SetPos(1, 0, 10)
		veh.SetRoute([]uint32{1})
		vehs.Insert(0, *veh)
		links.MustGet(1).AddVehicle(0)
		links.MustGet(1).UpdateObstacles(vehs)

		sl := New(0, 0, 0, 50, 1, KindGiveWay)
		sl.CommittedVehicles[0] = struct{}{}
		stoplines := idpool.New[StopLine]()
		stoplines.Insert(0, *sl)

		Convey("is uncommitted once its route no longer contains the stop-line's link", func() {
			Step(stoplines, vehs, links)
			got := stoplines.MustGet(0)
			So(got.IsCommitted(0), ShouldBeFalse)
		})
	})
}
