package geometry

import (
	"errors"
	"math"
)

// ErrSingular is returned when a transform has no inverse.
var ErrSingular = errors.New("transform is not invertible")

// Transform is a 2x3 affine matrix.
//
//	[A B TX]
//	[C D TY]
type Transform struct {
	A, B, TX float64
	C, D, TY float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{A: 1, D: 1}
}

// Translation returns a translation transform.
func Translation(tx, ty float64) Transform {
	return Transform{A: 1, D: 1, TX: tx, TY: ty}
}

// Scaling returns a scaling transform about the origin.
func Scaling(sx, sy float64) Transform {
	return Transform{A: sx, D: sy}
}

// Apply maps a point through the transform. The sequence index is kept.
func (t Transform) Apply(p Point) Point {
	return Point{
		X:             t.A*p.X + t.B*p.Y + t.TX,
		Y:             t.C*p.X + t.D*p.Y + t.TY,
		SequenceIndex: p.SequenceIndex,
	}
}

// Compose returns t * other: other is applied first.
func (t Transform) Compose(other Transform) Transform {
	return Transform{
		A:  t.A*other.A + t.B*other.C,
		B:  t.A*other.B + t.B*other.D,
		TX: t.A*other.TX + t.B*other.TY + t.TX,
		C:  t.C*other.A + t.D*other.C,
		D:  t.C*other.B + t.D*other.D,
		TY: t.C*other.TX + t.D*other.TY + t.TY,
	}
}

// Invert returns the inverse transform.
func (t Transform) Invert() (Transform, error) {
	det := t.A*t.D - t.B*t.C
	if math.Abs(det) < 1e-12 {
		return Transform{}, ErrSingular
	}
	inv := 1.0 / det
	return Transform{
		A:  t.D * inv,
		B:  -t.B * inv,
		TX: (t.B*t.TY - t.D*t.TX) * inv,
		C:  -t.C * inv,
		D:  t.A * inv,
		TY: (t.C*t.TX - t.A*t.TY) * inv,
	}, nil
}

// ZoomStep is the zoom factor applied per wheel step.
const ZoomStep = 1.1

// View tracks the image-to-device transform of a pan/zoom viewport.
// The zero value is not usable; call NewView.
type View struct {
	m Transform
}

// NewView returns a view with no pan or zoom.
func NewView() *View {
	return &View{m: Identity()}
}

// Matrix returns the current image-to-device transform.
func (v *View) Matrix() Transform {
	return v.m
}

// ToImageSpace maps a device point to image space. If the view has become
// singular the point is returned unchanged.
func (v *View) ToImageSpace(device Point) Point {
	inv, err := v.m.Invert()
	if err != nil {
		return device
	}
	return inv.Apply(device)
}

// Pan drags the image so that the image point under from ends up under to.
func (v *View) Pan(from, to Point) {
	a := v.ToImageSpace(from)
	b := v.ToImageSpace(to)
	v.m = v.m.Compose(Translation(b.X-a.X, b.Y-a.Y))
}

// ZoomAt scales by factor about the device point p, keeping the image
// point under p fixed. Non-positive factors are ignored.
func (v *View) ZoomAt(p Point, factor float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	pt := v.ToImageSpace(p)
	v.m = v.m.
		Compose(Translation(pt.X, pt.Y)).
		Compose(Scaling(factor, factor)).
		Compose(Translation(-pt.X, -pt.Y))
}

// Zoom applies steps wheel steps of ZoomStep about p.
func (v *View) Zoom(p Point, steps float64) {
	v.ZoomAt(p, math.Pow(ZoomStep, steps))
}

// Reset restores the identity view.
func (v *View) Reset() {
	v.m = Identity()
}
