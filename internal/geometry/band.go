package geometry

import "math"

// IsBetweenPerpendiculars reports whether the perpendicular foot of point
// falls within the segment start-end, i.e. whether point lies in the band
// bounded by the two perpendiculars through the endpoints. Points on either
// boundary are inside. A zero-length segment accepts every point.
func IsBetweenPerpendiculars(point, start, end Point) bool {
	seg := end.Sub(start)
	if seg.X == 0 && seg.Y == 0 {
		return true
	}
	dot1 := seg.Dot(point.Sub(start))
	dot2 := seg.Dot(point.Sub(end))
	return (dot1 <= 0 && dot2 >= 0) || (dot1 >= 0 && dot2 <= 0)
}

// PerpendicularEnd constrains the end of a line anchored at start so that
// it is exactly perpendicular to axis. The length follows the distance from
// start to pointer, and the normal pointing toward pointer is chosen. A
// zero-length axis leaves pointer unchanged.
func PerpendicularEnd(axis Line, start, pointer Point) Point {
	dx := axis.X2 - axis.X1
	dy := axis.Y2 - axis.Y1
	length := math.Hypot(dx, dy)
	if length == 0 {
		return Point{X: pointer.X, Y: pointer.Y}
	}
	normal := Point{X: -dy / length, Y: dx / length}
	delta := pointer.Sub(start)
	if normal.Dot(delta) < 0 {
		normal = normal.Scale(-1)
	}
	magnitude := math.Hypot(delta.X, delta.Y)
	return start.Add(normal.Scale(magnitude))
}
