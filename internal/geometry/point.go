package geometry

import "math"

// Point is an image-space location. SequenceIndex records the click order
// within the blob being drawn (0-3) and is only used as a rendering hint.
type Point struct {
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	SequenceIndex int     `json:"idx"`
}

// Pt creates a Point with a zero sequence index.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the component-wise sum.
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the component-wise difference.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale multiplies both coordinates by a factor.
func (p Point) Scale(factor float64) Point {
	return Point{X: p.X * factor, Y: p.Y * factor}
}

// Dot treats both points as vectors.
func (p Point) Dot(other Point) float64 {
	return p.X*other.X + p.Y*other.Y
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Line is a directed segment from (X1,Y1) to (X2,Y2).
type Line struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// LineBetween builds a line from two points.
func LineBetween(a, b Point) Line {
	return Line{X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y}
}

// Start returns the first endpoint.
func (l Line) Start() Point { return Point{X: l.X1, Y: l.Y1} }

// End returns the second endpoint.
func (l Line) End() Point { return Point{X: l.X2, Y: l.Y2} }

// Length is the Euclidean length of the segment.
func (l Line) Length() float64 {
	return Distance(l.Start(), l.End())
}

// Midpoint returns the centre of the segment.
func (l Line) Midpoint() Point {
	return Point{X: (l.X1 + l.X2) / 2, Y: (l.Y1 + l.Y2) / 2}
}

// WithEnd returns a copy of the line with its second endpoint moved.
func (l Line) WithEnd(p Point) Line {
	l.X2, l.Y2 = p.X, p.Y
	return l
}

// Blob is a completed two-axis measurement. Line1 is the longer axis.
type Blob struct {
	ID       string `json:"id,omitempty"`
	Line1    Line   `json:"line1"`
	Line2    Line   `json:"line2"`
	Detected bool   `json:"detected,omitempty"`
}

// NewBlob orders the two axes so that Line1 is never shorter than Line2.
func NewBlob(a, b Line) Blob {
	if b.Length() > a.Length() {
		a, b = b, a
	}
	return Blob{Line1: a, Line2: b}
}

// Axes returns the lengths of Line1 and Line2.
func (b Blob) Axes() (major, minor float64) {
	return b.Line1.Length(), b.Line2.Length()
}

// Contains reports whether p lies inside both perpendicular bands of the
// blob. This is the hit test used to delete a blob.
func (b Blob) Contains(p Point) bool {
	return IsBetweenPerpendiculars(p, b.Line1.Start(), b.Line1.End()) &&
		IsBetweenPerpendiculars(p, b.Line2.Start(), b.Line2.End())
}

// Bounds returns the axis-aligned bounding box of both axes.
func (b Blob) Bounds() (min, max Point) {
	xs := [4]float64{b.Line1.X1, b.Line1.X2, b.Line2.X1, b.Line2.X2}
	ys := [4]float64{b.Line1.Y1, b.Line1.Y2, b.Line2.Y1, b.Line2.Y2}
	min = Point{X: xs[0], Y: ys[0]}
	max = min
	for i := 1; i < 4; i++ {
		min.X = math.Min(min.X, xs[i])
		min.Y = math.Min(min.Y, ys[i])
		max.X = math.Max(max.X, xs[i])
		max.Y = math.Max(max.Y, ys[i])
	}
	return min, max
}
