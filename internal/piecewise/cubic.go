package piecewise

import "sort"

// Piece is a standalone cubic-Hermite segment with zero endpoint slope:
// y = y1 + u(t)*yd, where t = (x-minX)/(maxX-minX) and u(t) = t^2(3-2t).
// It parameterizes a vehicle's lateral offset during a lane change, or one
// segment of a lane's centerline.
type Piece struct {
	MinX, MaxX float32
	Y1         float32
	Yd         float32
}

// GetY2 returns the lateral offset at MaxX (y1 + yd).
func (p Piece) GetY2() float32 {
	return p.Y1 + p.Yd
}

// GetYAndDY evaluates y(x) and dy/dx, clamping to the endpoints (with zero
// slope) outside [MinX, MaxX].
func (p Piece) GetYAndDY(x float32) (y, dy float32) {
	if p.Yd == 0 || x <= p.MinX {
		return p.Y1, 0
	}
	if x >= p.MaxX {
		return p.Y1 + p.Yd, 0
	}
	xd := p.MaxX - p.MinX
	t := (x - p.MinX) / xd
	u := t * t * (3 - 2*t)
	y = p.Y1 + u*p.Yd
	dy = (p.Yd / xd) * 6 * t * (1 - t)
	return y, dy
}

// GetY evaluates y(x) only.
func (p Piece) GetY(x float32) float32 {
	y, _ := p.GetYAndDY(x)
	return y
}

// GetDY evaluates dy/dx only.
func (p Piece) GetDY(x float32) float32 {
	_, dy := p.GetYAndDY(x)
	return dy
}

// Translate shifts the piece's domain by dx and its baseline by dy, keeping
// its shape (Yd) unchanged. Used when a vehicle crosses a link boundary
// mid-lane-change: the path is translated by (-oldLinkLength, lateralOffset).
func (p Piece) Translate(dx, dy float32) Piece {
	return Piece{
		MinX: p.MinX + dx,
		MaxX: p.MaxX + dx,
		Y1:   p.Y1 + dy,
		Yd:   p.Yd,
	}
}

// Cubic is a piecewise cubic-Hermite function y(x) built from sample points,
// with zero slope at every sample (used for lane centerlines).
type Cubic struct {
	pieces []Piece
}

// NewCubic builds a piecewise cubic function through the given points, in
// order. There must be at least two points.
func NewCubic(points []Point) *Cubic {
	pieces := make([]Piece, 0, len(points)-1)
	for i := 0; i+1 < len(points); i++ {
		x1, y1 := points[i].X, points[i].Y
		x2, y2 := points[i+1].X, points[i+1].Y
		pieces = append(pieces, Piece{MinX: x1, MaxX: x2, Y1: y1, Yd: y2 - y1})
	}
	return &Cubic{pieces: pieces}
}

// GetPiece returns the segment covering x, clamping to the first or last
// segment when x falls outside the function's domain.
func (f *Cubic) GetPiece(x float32) Piece {
	n := len(f.pieces)
	i := sort.Search(n, func(i int) bool {
		return x < f.pieces[i].MaxX
	})
	switch {
	case i >= n:
		i = n - 1
	case i < 0:
		i = 0
	}
	return f.pieces[i]
}

// GetY evaluates y(x).
func (f *Cubic) GetY(x float32) float32 {
	return f.GetPiece(x).GetY(x)
}

// GetDY evaluates dy/dx.
func (f *Cubic) GetDY(x float32) float32 {
	return f.GetPiece(x).GetDY(x)
}

// GetYAndDY evaluates y(x) and dy/dx together.
func (f *Cubic) GetYAndDY(x float32) (y, dy float32) {
	return f.GetPiece(x).GetYAndDY(x)
}
