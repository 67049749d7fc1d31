package piecewise

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLinear(t *testing.T) {
	Convey("Given a piecewise linear function through sample points", t, func() {
		f := NewLinear([]Point{{X: 0, Y: 0}, {X: 10, Y: 20}, {X: 20, Y: 0}})

		Convey("GetY reproduces the sample points exactly", func() {
			So(f.GetY(0), ShouldEqual, float32(0))
			So(f.GetY(10), ShouldEqual, float32(20))
		})

		Convey("GetY interpolates linearly between samples", func() {
			So(f.GetY(5), ShouldEqual, float32(10))
			So(f.GetY(15), ShouldEqual, float32(10))
		})
	})

	Convey("Given a constant linear function", t, func() {
		f := NewConstLinear(0, 100, 7)
		Convey("GetY is constant across the domain", func() {
			So(f.GetY(0), ShouldEqual, float32(7))
			So(f.GetY(99), ShouldEqual, float32(7))
		})
	})
}

func TestCubicPiece(t *testing.T) {
	Convey("Given a cubic-Hermite piece", t, func() {
		p := Piece{MinX: 0, MaxX: 10, Y1: 2, Yd: 4}

		Convey("GetY at the endpoints matches y1 and y1+yd", func() {
			So(p.GetY(0), ShouldEqual, float32(2))
			So(p.GetY(10), ShouldEqual, float32(6))
			So(p.GetY2(), ShouldEqual, float32(6))
		})

		Convey("GetDY is zero at both endpoints", func() {
			So(p.GetDY(0), ShouldEqual, float32(0))
			So(p.GetDY(10), ShouldEqual, float32(0))
		})

		Convey("Values beyond the domain clamp to the nearest endpoint", func() {
			So(p.GetY(-5), ShouldEqual, float32(2))
			So(p.GetY(15), ShouldEqual, float32(6))
			So(p.GetDY(-5), ShouldEqual, float32(0))
		})

		Convey("Translate shifts the domain and baseline but preserves shape", func() {
			t2 := p.Translate(100, -1)
			So(t2.MinX, ShouldEqual, float32(100))
			So(t2.MaxX, ShouldEqual, float32(110))
			So(t2.GetY(100), ShouldEqual, float32(1))
			So(t2.Yd, ShouldEqual, p.Yd)
		})
	})
}

func TestCubic(t *testing.T) {
	Convey("Given a piecewise cubic function", t, func() {
		f := NewCubic([]Point{{X: 0, Y: 0}, {X: 10, Y: 4}})

		Convey("GetPiece at a domain point returns y1 unchanged", func() {
			So(f.GetY(0), ShouldEqual, float32(0))
		})

		Convey("GetY at the far endpoint returns y1+yd", func() {
			So(f.GetY(10), ShouldEqual, float32(4))
		})

		Convey("dy/dx vanishes at both endpoints", func() {
			So(f.GetDY(0), ShouldEqual, float32(0))
			So(f.GetDY(10), ShouldEqual, float32(0))
		})
	})
}
