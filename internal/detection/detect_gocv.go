//go:build gocv

package detection

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"sort"

	"gocv.io/x/gocv"

	"github.com/ironsheep/spore-measure-mcp/internal/geometry"
)

// Run uses the OpenCV detector in gocv builds.
func Run(img image.Image, params Params) ([]Candidate, error) {
	return DetectCV(img, params)
}

// DetectCV is Detect backed by OpenCV. Components are external contours
// and axes come from FitEllipse.
func DetectCV(img image.Image, params Params) ([]Candidate, error) {
	p := params.withDefaults()

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, ErrEmptyImage
	}
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	mat, err := gocv.NewMatFromBytes(rgba.Bounds().Dy(), rgba.Bounds().Dx(), gocv.MatTypeCV8UC4, rgba.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to create mat: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorRGBAToGray)

	if p.BlurRadius > 0 {
		k := 2*int(math.Ceil(p.BlurRadius*3)) + 1
		gocv.GaussianBlur(gray, &gray, image.Pt(k, k), p.BlurRadius, p.BlurRadius, gocv.BorderDefault)
	}

	// FindContours traces white regions, so dark spores need the inverted
	// threshold.
	thresholdType := gocv.ThresholdBinaryInv
	if p.Invert {
		thresholdType = gocv.ThresholdBinary
	}
	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, float32(p.Threshold), 255, thresholdType)

	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()

	offset := geometry.Pt(float64(bounds.Min.X), float64(bounds.Min.Y))
	var candidates []Candidate
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		if contour.Size() < 5 {
			continue
		}
		area := gocv.ContourArea(contour)
		if area < float64(p.MinArea) || (p.MaxArea > 0 && area > float64(p.MaxArea)) {
			continue
		}
		perimeter := gocv.ArcLength(contour, true)
		circ := 0.0
		if perimeter > 0 {
			circ = math.Min(4*math.Pi*area/(perimeter*perimeter), 1)
		}
		if circ < p.MinCircularity {
			continue
		}

		ellipse := gocv.FitEllipse(contour)
		center := geometry.Pt(float64(ellipse.Center.X), float64(ellipse.Center.Y)).Add(offset)
		theta := ellipse.Angle * math.Pi / 180
		along := geometry.Pt(math.Cos(theta), math.Sin(theta))
		across := geometry.Pt(-along.Y, along.X)
		w, h := float64(ellipse.Width)/2, float64(ellipse.Height)/2

		blob := geometry.NewBlob(
			geometry.LineBetween(center.Sub(along.Scale(w)), center.Add(along.Scale(w))),
			geometry.LineBetween(center.Sub(across.Scale(h)), center.Add(across.Scale(h))),
		)
		blob.Detected = true
		candidates = append(candidates, Candidate{
			Blob:        blob,
			Area:        int(math.Round(area)),
			Perimeter:   int(math.Round(perimeter)),
			Circularity: circ,
			Centroid:    center,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Area > candidates[j].Area
	})
	return candidates, nil
}
