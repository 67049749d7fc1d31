// Package piecewise implements the piecewise linear and cubic-Hermite
// functions used for lane geometry: dist(x) (longitudinal arc
// parameterization) and lat(x) (lateral centerline offset).
package piecewise

import "sort"

// Point is an (x, y) sample used to build a piecewise function.
type Point struct {
	X, Y float32
}

// Linear is a piecewise linear function y(x), evaluated by binary-searching
// the segment containing x.
type Linear struct {
	pieces []linearPiece
}

type linearPiece struct {
	minX, maxX float32
	m, b       float32
}

// NewLinear builds a piecewise linear function through the given points, in
// order. There must be at least two points.
func NewLinear(points []Point) *Linear {
	pieces := make([]linearPiece, 0, len(points)-1)
	for i := 0; i+1 < len(points); i++ {
		x1, y1 := points[i].X, points[i].Y
		x2, y2 := points[i+1].X, points[i+1].Y
		pieces = append(pieces, linearPiece{
			minX: x1,
			maxX: x2,
			m:    (y2 - y1) / (x2 - x1),
			b:    y1,
		})
	}
	return &Linear{pieces: pieces}
}

// NewConstLinear returns a linear function that is constant y over [minX, maxX].
func NewConstLinear(minX, maxX, y float32) *Linear {
	return &Linear{pieces: []linearPiece{{minX: minX, maxX: maxX, m: 0, b: y}}}
}

// GetY evaluates y(x), clamping to the nearest segment when x falls outside
// the function's domain.
func (f *Linear) GetY(x float32) float32 {
	p := f.pieces[f.find(x)]
	return p.m*(x-p.minX) + p.b
}

func (f *Linear) find(x float32) int {
	n := len(f.pieces)
	i := sort.Search(n, func(i int) bool {
		return x < f.pieces[i].maxX
	})
	if i >= n {
		i = n - 1
	}
	return i
}
