// Package stats aggregates axis lengths over a collection of blobs.
package stats

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/spore-measure-mcp/internal/calibration"
	"github.com/ironsheep/spore-measure-mcp/internal/geometry"
)

// Length units.
const (
	UnitPixels      = "px"
	UnitMicrometres = "µm"
)

// Summary describes both axes of a blob collection. Axis A is Line1 (the
// major axis) and axis B is Line2. Standard deviations are population
// values.
//
// With no blobs the minimums are +Inf, the maximums -Inf and everything
// else 0; check Empty before treating the result as a measurement.
type Summary struct {
	Count       int     `json:"count"`
	MeanA       float64 `json:"meanA"`
	MeanB       float64 `json:"meanB"`
	MinA        float64 `json:"minA"`
	MaxA        float64 `json:"maxA"`
	MinB        float64 `json:"minB"`
	MaxB        float64 `json:"maxB"`
	RangeA      float64 `json:"rangeA"`
	RangeB      float64 `json:"rangeB"`
	StdDevA     float64 `json:"stddevA"`
	StdDevB     float64 `json:"stddevB"`
	Unit        string  `json:"unit"`
	Calibration string  `json:"calibration,omitempty"`
}

// Empty reports whether the summary is the zero-blob sentinel.
func (s Summary) Empty() bool {
	return s.Count == 0
}

// MarshalJSON writes the infinite sentinels as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	out := struct {
		plain
		MinA *float64 `json:"minA"`
		MaxA *float64 `json:"maxA"`
		MinB *float64 `json:"minB"`
		MaxB *float64 `json:"maxB"`
	}{
		plain: plain(s),
		MinA:  finite(s.MinA),
		MaxA:  finite(s.MaxA),
		MinB:  finite(s.MinB),
		MaxB:  finite(s.MaxB),
	}
	return json.Marshal(out)
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// AxisLengths returns the Line1 and Line2 lengths of every blob divided by
// ratio. A ratio that is not a positive number is treated as 1.
func AxisLengths(blobs []geometry.Blob, ratio float64) (a, b []float64) {
	if !(ratio > 0) {
		ratio = 1
	}
	a = make([]float64, len(blobs))
	b = make([]float64, len(blobs))
	for i, blob := range blobs {
		major, minor := blob.Axes()
		a[i] = major / ratio
		b[i] = minor / ratio
	}
	return a, b
}

// Compute summarizes blobs with lengths divided by ratio. The unit is
// pixels when ratio is 1 (or unset) and micrometres otherwise.
func Compute(blobs []geometry.Blob, ratio float64) Summary {
	unit := UnitMicrometres
	if !(ratio > 0) || ratio == 1 {
		unit = UnitPixels
	}
	s := compute(blobs, ratio)
	s.Unit = unit
	return s
}

// ComputeCalibrated summarizes blobs using the registry's active
// calibration, if any.
func ComputeCalibrated(blobs []geometry.Blob, reg *calibration.Registry) Summary {
	if reg != nil {
		if c, ok := reg.Active(); ok {
			s := compute(blobs, c.Value)
			s.Unit = UnitMicrometres
			s.Calibration = c.Name
			return s
		}
	}
	s := compute(blobs, 1)
	s.Unit = UnitPixels
	return s
}

func compute(blobs []geometry.Blob, ratio float64) Summary {
	if len(blobs) == 0 {
		return Summary{
			MinA: math.Inf(1),
			MaxA: math.Inf(-1),
			MinB: math.Inf(1),
			MaxB: math.Inf(-1),
		}
	}

	a, b := AxisLengths(blobs, ratio)
	s := Summary{Count: len(blobs)}
	s.MeanA, s.StdDevA = stat.PopMeanStdDev(a, nil)
	s.MeanB, s.StdDevB = stat.PopMeanStdDev(b, nil)
	s.MinA, s.MaxA = floats.Min(a), floats.Max(a)
	s.MinB, s.MaxB = floats.Min(b), floats.Max(b)
	s.RangeA = s.MaxA - s.MinA
	s.RangeB = s.MaxB - s.MinB
	return s
}
