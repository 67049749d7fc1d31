package protocol

import (
	"bytes"
	"encoding/binary"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Parsing well-formed commands", t, func() {
		cmd, err := Parse("link 3 100.5 0,0;3,3 25")
		So(err, ShouldBeNil)
		link, ok := cmd.(AddLink)
		So(ok, ShouldBeTrue)
		So(link.ID, ShouldEqual, uint32(3))
		So(link.Length, ShouldEqual, float32(100.5))
		So(link.SpeedLimit, ShouldEqual, float32(25))

		lanes, err := ParseLanesSpec(link.LanesSpec)
		So(err, ShouldBeNil)
		So(lanes, ShouldResemble, []LaneSpec{{YStart: 0, YEnd: 0}, {YStart: 3, YEnd: 3}})

		cmd, err = Parse("conn 0 1 0:0;1:1 0.0")
		So(err, ShouldBeNil)
		conn, ok := cmd.(AddConnection)
		So(ok, ShouldBeTrue)
		pairs, err := ParsePairs(conn.Pairs)
		So(err, ShouldBeNil)
		So(pairs, ShouldResemble, []LanePair{{LaneIn: 0, LaneOut: 0}, {LaneIn: 1, LaneOut: 1}})

		cmd, err = Parse("step 10")
		So(err, ShouldBeNil)
		step, ok := cmd.(Step)
		So(ok, ShouldBeTrue)
		So(step.NumSteps, ShouldEqual, uint32(10))
	})

	Convey("Parsing malformed commands", t, func() {
		_, err := Parse("veh 1 2")
		So(err, ShouldNotBeNil)

		_, err = Parse("bogus 1 2 3")
		So(err, ShouldNotBeNil)

		_, err = Parse("step notanumber")
		So(err, ShouldNotBeNil)

		_, err = Parse("")
		So(err, ShouldNotBeNil)
	})
}

func TestEncodeFrame(t *testing.T) {
	Convey("Encoding a frame with two vehicles", t, func() {
		var buf bytes.Buffer
		err := EncodeFrame(&buf, 7, []VehicleFrame{
			{UserID: 1, Link: 0, Pos: 10, Vel: 5, Lat: 0, DLat: 0},
			{UserID: 2, Link: 1, Pos: 20, Vel: 8, Lat: 1, DLat: 0.2},
		})
		So(err, ShouldBeNil)

		r := bytes.NewReader(buf.Bytes())
		var msgCode, stepIndex uint32
		So(binary.Read(r, binary.BigEndian, &msgCode), ShouldBeNil)
		So(binary.Read(r, binary.BigEndian, &stepIndex), ShouldBeNil)
		So(msgCode, ShouldEqual, uint32(1))
		So(stepIndex, ShouldEqual, uint32(7))

		var v1 VehicleFrame
		So(binary.Read(r, binary.BigEndian, &v1.UserID), ShouldBeNil)
		So(binary.Read(r, binary.BigEndian, &v1.Link), ShouldBeNil)
		So(binary.Read(r, binary.BigEndian, &v1.Pos), ShouldBeNil)
		So(binary.Read(r, binary.BigEndian, &v1.Vel), ShouldBeNil)
		So(binary.Read(r, binary.BigEndian, &v1.Lat), ShouldBeNil)
		So(binary.Read(r, binary.BigEndian, &v1.DLat), ShouldBeNil)
		So(v1.UserID, ShouldEqual, uint32(1))
		So(v1.Pos, ShouldEqual, float32(10))
	})
}
