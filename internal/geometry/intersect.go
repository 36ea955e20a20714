package geometry

import "math"

// Intersection is the result of a segment-segment test. Point is nil when
// the segments do not meet.
type Intersection struct {
	Intersects bool   `json:"intersects"`
	Point      *Point `json:"point,omitempty"`
}

// orientation returns 0 for collinear triplets, 1 for clockwise and -1 for
// counter-clockwise.
func orientation(p, q, r Point) int {
	val := (q.Y-p.Y)*(r.X-q.X) - (q.X-p.X)*(r.Y-q.Y)
	if val == 0 {
		return 0
	}
	if val > 0 {
		return 1
	}
	return -1
}

// onSegment reports whether p lies inside the bounding box of a-b.
func onSegment(p, a, b Point) bool {
	return p.X <= math.Max(a.X, b.X) && p.X >= math.Min(a.X, b.X) &&
		p.Y <= math.Max(a.Y, b.Y) && p.Y >= math.Min(a.Y, b.Y)
}

// SegmentIntersection tests segment p1-q1 against segment p2-q2.
//
// In the general case the crossing point is solved parametrically. A zero
// denominator there means the segments are parallel and no intersection is
// reported. Collinear touching cases return the shared endpoint.
func SegmentIntersection(p1, q1, p2, q2 Point) Intersection {
	o1 := orientation(p1, q1, p2)
	o2 := orientation(p1, q1, q2)
	o3 := orientation(p2, q2, p1)
	o4 := orientation(p2, q2, q1)

	if o1 != o2 && o3 != o4 {
		denom := (p1.X-q1.X)*(p2.Y-q2.Y) - (p1.Y-q1.Y)*(p2.X-q2.X)
		if denom == 0 {
			return Intersection{}
		}
		t := ((p1.X-p2.X)*(p2.Y-q2.Y) - (p1.Y-p2.Y)*(p2.X-q2.X)) / denom
		u := -((p1.X-q1.X)*(p1.Y-p2.Y) - (p1.Y-q1.Y)*(p1.X-p2.X)) / denom
		if t >= 0 && t <= 1 && u >= 0 && u <= 1 {
			pt := Point{X: p1.X + t*(q1.X-p1.X), Y: p1.Y + t*(q1.Y-p1.Y)}
			return Intersection{Intersects: true, Point: &pt}
		}
		return Intersection{}
	}

	switch {
	case o1 == 0 && onSegment(p2, p1, q1):
		return hit(p2)
	case o2 == 0 && onSegment(q2, p1, q1):
		return hit(q2)
	case o3 == 0 && onSegment(p1, p2, q2):
		return hit(p1)
	case o4 == 0 && onSegment(q1, p2, q2):
		return hit(q1)
	}
	return Intersection{}
}

// LinesIntersect is SegmentIntersection over two Line values.
func LinesIntersect(a, b Line) Intersection {
	return SegmentIntersection(a.Start(), a.End(), b.Start(), b.End())
}

func hit(p Point) Intersection {
	pt := Point{X: p.X, Y: p.Y}
	return Intersection{Intersects: true, Point: &pt}
}
