package geometry

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want float64
	}{
		{"same point", Pt(3, 4), Pt(3, 4), 0},
		{"3-4-5", Pt(0, 0), Pt(3, 4), 5},
		{"horizontal", Pt(-2, 1), Pt(8, 1), 10},
		{"negative coords", Pt(-1, -1), Pt(-4, -5), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if !almostEqual(got, tt.want) {
				t.Errorf("Distance: got %v, want %v", got, tt.want)
			}
			if got < 0 {
				t.Errorf("Distance is negative: %v", got)
			}
		})
	}
}

func TestLine_LengthZeroOnlyWhenDegenerate(t *testing.T) {
	if got := (Line{X1: 2, Y1: 2, X2: 2, Y2: 2}).Length(); got != 0 {
		t.Errorf("degenerate length: got %v, want 0", got)
	}
	if got := (Line{X1: 2, Y1: 2, X2: 2, Y2: 2.0001}).Length(); got <= 0 {
		t.Errorf("non-degenerate length: got %v, want > 0", got)
	}
}

func TestLine_Midpoint(t *testing.T) {
	if got := LineBetween(Pt(2, -4), Pt(10, 8)).Midpoint(); !pointsClose(got, Pt(6, 2)) {
		t.Errorf("Midpoint: got %v, want (6,2)", got)
	}
}

func TestNewBlob_OrdersAxes(t *testing.T) {
	short := Line{X1: 0, Y1: 0, X2: 0, Y2: 4}
	long := Line{X1: -5, Y1: 2, X2: 5, Y2: 2}

	b := NewBlob(short, long)
	if b.Line1 != long || b.Line2 != short {
		t.Errorf("NewBlob did not swap: got line1=%v line2=%v", b.Line1, b.Line2)
	}

	b = NewBlob(long, short)
	if b.Line1 != long {
		t.Errorf("NewBlob swapped an already ordered pair: %v", b.Line1)
	}

	equal := Line{X1: 0, Y1: 0, X2: 10, Y2: 0}
	other := Line{X1: 5, Y1: -5, X2: 5, Y2: 5}
	b = NewBlob(equal, other)
	if b.Line1 != equal {
		t.Errorf("equal lengths should keep the first line as line1, got %v", b.Line1)
	}
}

func TestSegmentIntersection(t *testing.T) {
	tests := []struct {
		name           string
		p1, q1, p2, q2 Point
		wantIntersects bool
		wantPoint      *Point
	}{
		{
			name: "diagonals cross at centre",
			p1:   Pt(0, 0), q1: Pt(4, 4), p2: Pt(0, 4), q2: Pt(4, 0),
			wantIntersects: true, wantPoint: &Point{X: 2, Y: 2},
		},
		{
			name: "axis aligned cross",
			p1:   Pt(0, 0), q1: Pt(0, 10), p2: Pt(5, 5), q2: Pt(-5, 5),
			wantIntersects: true, wantPoint: &Point{X: 0, Y: 5},
		},
		{
			name: "T junction touches",
			p1:   Pt(0, 0), q1: Pt(4, 0), p2: Pt(2, 0), q2: Pt(2, 3),
			wantIntersects: true, wantPoint: &Point{X: 2, Y: 0},
		},
		{
			name: "parallel offset",
			p1:   Pt(0, 0), q1: Pt(1, 0), p2: Pt(0, 1), q2: Pt(1, 1),
			wantIntersects: false,
		},
		{
			name: "short of crossing",
			p1:   Pt(0, 0), q1: Pt(0, 10), p2: Pt(5, 5), q2: Pt(1, 5),
			wantIntersects: false,
		},
		{
			name: "collinear overlap reports first shared endpoint",
			p1:   Pt(0, 0), q1: Pt(4, 0), p2: Pt(2, 0), q2: Pt(6, 0),
			wantIntersects: true, wantPoint: &Point{X: 2, Y: 0},
		},
		{
			name: "collinear disjoint",
			p1:   Pt(0, 0), q1: Pt(1, 0), p2: Pt(2, 0), q2: Pt(3, 0),
			wantIntersects: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SegmentIntersection(tt.p1, tt.q1, tt.p2, tt.q2)
			if got.Intersects != tt.wantIntersects {
				t.Fatalf("Intersects: got %v, want %v", got.Intersects, tt.wantIntersects)
			}
			if !tt.wantIntersects {
				if got.Point != nil {
					t.Errorf("Point: got %v, want nil", *got.Point)
				}
				return
			}
			if got.Point == nil {
				t.Fatal("Point: got nil")
			}
			if !almostEqual(got.Point.X, tt.wantPoint.X) || !almostEqual(got.Point.Y, tt.wantPoint.Y) {
				t.Errorf("Point: got %v, want %v", *got.Point, *tt.wantPoint)
			}
		})
	}
}

func TestSegmentIntersection_Symmetry(t *testing.T) {
	segments := [][4]Point{
		{Pt(0, 0), Pt(4, 4), Pt(0, 4), Pt(4, 0)},
		{Pt(1, 1), Pt(9, 3), Pt(4, -2), Pt(5, 8)},
		{Pt(0, 0), Pt(1, 0), Pt(0, 1), Pt(1, 1)},
		{Pt(0, 0), Pt(0, 10), Pt(5, 5), Pt(1, 5)},
		{Pt(-3, 2), Pt(7, 2), Pt(2, -6), Pt(2, 9)},
	}

	for i, s := range segments {
		base := SegmentIntersection(s[0], s[1], s[2], s[3])
		variants := []Intersection{
			SegmentIntersection(s[2], s[3], s[0], s[1]),
			SegmentIntersection(s[1], s[0], s[2], s[3]),
			SegmentIntersection(s[0], s[1], s[3], s[2]),
			SegmentIntersection(s[3], s[2], s[1], s[0]),
		}
		for j, v := range variants {
			if v.Intersects != base.Intersects {
				t.Errorf("case %d variant %d: Intersects got %v, want %v", i, j, v.Intersects, base.Intersects)
				continue
			}
			if base.Intersects && (math.Abs(v.Point.X-base.Point.X) > 1e-6 || math.Abs(v.Point.Y-base.Point.Y) > 1e-6) {
				t.Errorf("case %d variant %d: Point got %v, want %v", i, j, *v.Point, *base.Point)
			}
		}
	}
}

func TestIsBetweenPerpendiculars(t *testing.T) {
	tests := []struct {
		name       string
		point      Point
		start, end Point
		want       bool
	}{
		{"midpoint", Pt(0, 5), Pt(0, 0), Pt(0, 10), true},
		{"beyond end", Pt(0, 20), Pt(0, 0), Pt(0, 10), false},
		{"before start", Pt(0, -1), Pt(0, 0), Pt(0, 10), false},
		{"off to the side inside band", Pt(50, 3), Pt(0, 0), Pt(0, 10), true},
		{"on start perpendicular", Pt(7, 0), Pt(0, 0), Pt(0, 10), true},
		{"on end perpendicular", Pt(-7, 10), Pt(0, 0), Pt(0, 10), true},
		{"reversed segment", Pt(3, 4), Pt(0, 10), Pt(0, 0), true},
		{"diagonal inside", Pt(0, 4), Pt(0, 0), Pt(4, 4), true},
		{"diagonal outside", Pt(10, 0), Pt(0, 0), Pt(4, 4), false},
		{"degenerate segment", Pt(100, 100), Pt(1, 1), Pt(1, 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBetweenPerpendiculars(tt.point, tt.start, tt.end); got != tt.want {
				t.Errorf("IsBetweenPerpendiculars(%v, %v, %v): got %v, want %v", tt.point, tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestBlob_Contains(t *testing.T) {
	b := NewBlob(Line{X1: 0, Y1: 0, X2: 0, Y2: 10}, Line{X1: 4, Y1: 5, X2: -4, Y2: 5})

	if !b.Contains(Pt(1, 5)) {
		t.Error("centre should be inside both bands")
	}
	if b.Contains(Pt(1, 12)) {
		t.Error("point past the long axis should be outside")
	}
	if b.Contains(Pt(6, 5)) {
		t.Error("point past the short axis should be outside")
	}
}

func TestPerpendicularEnd(t *testing.T) {
	axis := Line{X1: 0, Y1: 0, X2: 0, Y2: 10}

	tests := []struct {
		name           string
		start, pointer Point
		want           Point
	}{
		{"snaps left", Pt(5, 5), Pt(-5, 5), Pt(-5, 5)},
		{"snaps right", Pt(5, 5), Pt(9, 5), Pt(9, 5)},
		{"off-axis pointer keeps magnitude", Pt(0, 5), Pt(3, 9), Pt(5, 5)},
		{"pointer at start", Pt(2, 2), Pt(2, 2), Pt(2, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PerpendicularEnd(axis, tt.start, tt.pointer)
			if !almostEqual(got.X, tt.want.X) || !almostEqual(got.Y, tt.want.Y) {
				t.Errorf("PerpendicularEnd: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPerpendicularEnd_IsPerpendicular(t *testing.T) {
	axis := Line{X1: 1, Y1: 2, X2: 7, Y2: 5}
	start := Pt(4, 3.5)
	for _, pointer := range []Point{Pt(0, 0), Pt(9, -3), Pt(2, 8), Pt(4.2, 3.4)} {
		end := PerpendicularEnd(axis, start, pointer)
		dir := axis.End().Sub(axis.Start())
		if dot := dir.Dot(end.Sub(start)); math.Abs(dot) > 1e-9 {
			t.Errorf("pointer %v: dot got %v, want 0", pointer, dot)
		}
		if got, want := Distance(start, end), Distance(start, pointer); !almostEqual(got, want) {
			t.Errorf("pointer %v: length got %v, want %v", pointer, got, want)
		}
	}
}

func TestPerpendicularEnd_DegenerateAxis(t *testing.T) {
	axis := Line{X1: 3, Y1: 3, X2: 3, Y2: 3}
	got := PerpendicularEnd(axis, Pt(3, 3), Pt(8, 1))
	if got.X != 8 || got.Y != 1 {
		t.Errorf("degenerate axis: got %v, want (8,1)", got)
	}
}
