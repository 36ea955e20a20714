package detection

import (
	"errors"
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/spore-measure-mcp/internal/geometry"
)

// ErrEmptyImage is returned for images with no pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// Params tunes Detect. Zero values are replaced by DefaultParams.
type Params struct {
	// BlurRadius is the Gaussian radius applied before thresholding.
	// Negative disables blurring.
	BlurRadius float64 `json:"blur_radius"`
	// Threshold is the luminance split between foreground and background.
	Threshold uint8 `json:"threshold"`
	// Invert selects light spores on a dark background.
	Invert         bool    `json:"invert"`
	MinArea        int     `json:"min_area"`
	MaxArea        int     `json:"max_area"` // 0 means unbounded
	MinCircularity float64 `json:"min_circularity"`
}

// DefaultParams suit dark spores on a bright-field background.
func DefaultParams() Params {
	return Params{
		BlurRadius:     1.0,
		Threshold:      128,
		MinArea:        30,
		MinCircularity: 0.6,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.BlurRadius == 0 {
		p.BlurRadius = d.BlurRadius
	}
	if p.Threshold == 0 {
		p.Threshold = d.Threshold
	}
	if p.MinArea <= 0 {
		p.MinArea = d.MinArea
	}
	if p.MinCircularity <= 0 {
		p.MinCircularity = d.MinCircularity
	}
	return p
}

// Candidate is a detected spore. Blob holds its principal axes, major first.
type Candidate struct {
	Blob        geometry.Blob  `json:"blob"`
	Area        int            `json:"area"`
	Perimeter   int            `json:"perimeter"`
	Circularity float64        `json:"circularity"`
	Centroid    geometry.Point `json:"centroid"`
}

type pixel struct {
	X, Y int
}

// Detect finds isolated spores in img and measures each one.
//
// The image is converted to grayscale, blurred and thresholded. Each
// 8-connected foreground component that passes the area and circularity
// filters becomes a Candidate whose axes come from the eigen decomposition
// of the component's second moments. For a filled ellipse the axis length
// 4*sqrt(eigenvalue) equals its diameter along that axis.
//
// Candidates are sorted by area, largest first.
func Detect(img image.Image, params Params) ([]Candidate, error) {
	p := params.withDefaults()

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, ErrEmptyImage
	}

	var src image.Image = effect.Grayscale(img)
	if p.BlurRadius > 0 {
		src = blur.Gaussian(src, p.BlurRadius)
	}
	binary := segment.Threshold(src, p.Threshold)

	mask := foregroundMask(binary, p.Invert)
	components := connectedComponents(mask)

	candidates := make([]Candidate, 0, len(components))
	for _, comp := range components {
		area := len(comp)
		if area < p.MinArea || (p.MaxArea > 0 && area > p.MaxArea) {
			continue
		}
		perimeter := boundaryLength(mask, comp)
		circ := circularity(area, perimeter)
		if circ < p.MinCircularity {
			continue
		}
		blob, centroid, ok := principalAxes(comp)
		if !ok {
			continue
		}
		offset := geometry.Pt(float64(bounds.Min.X), float64(bounds.Min.Y))
		blob.Line1 = shiftLine(blob.Line1, offset)
		blob.Line2 = shiftLine(blob.Line2, offset)
		candidates = append(candidates, Candidate{
			Blob:        blob,
			Area:        area,
			Perimeter:   perimeter,
			Circularity: circ,
			Centroid:    centroid.Add(offset),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Area > candidates[j].Area
	})
	return candidates, nil
}

// Blobs returns the blobs of cs in order.
func Blobs(cs []Candidate) []geometry.Blob {
	blobs := make([]geometry.Blob, len(cs))
	for i, c := range cs {
		blobs[i] = c.Blob
	}
	return blobs
}

func shiftLine(l geometry.Line, by geometry.Point) geometry.Line {
	return geometry.LineBetween(l.Start().Add(by), l.End().Add(by))
}

// foregroundMask marks black threshold pixels, or white ones when invert
// is set. The mask is indexed [y][x] from zero.
func foregroundMask(binary *image.Gray, invert bool) [][]bool {
	b := binary.Bounds()
	width, height := b.Dx(), b.Dy()
	mask := make([][]bool, height)
	for y := 0; y < height; y++ {
		mask[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			white := binary.GrayAt(x+b.Min.X, y+b.Min.Y).Y >= 128
			mask[y][x] = white == invert
		}
	}
	return mask
}

// connectedComponents groups 8-connected foreground pixels.
func connectedComponents(mask [][]bool) [][]pixel {
	height := len(mask)
	if height == 0 {
		return nil
	}
	width := len(mask[0])

	visited := make([][]bool, height)
	for y := range visited {
		visited[y] = make([]bool, width)
	}

	var components [][]pixel
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mask[y][x] && !visited[y][x] {
				components = append(components, floodFill(mask, visited, x, y))
			}
		}
	}
	return components
}

// floodFill collects the component containing (startX, startY). It uses an
// explicit stack; spores on large micrographs can span many thousands of
// pixels.
func floodFill(mask, visited [][]bool, startX, startY int) []pixel {
	height, width := len(mask), len(mask[0])
	var comp []pixel
	stack := []pixel{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !mask[p.Y][p.X] {
			continue
		}
		visited[p.Y][p.X] = true
		comp = append(comp, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, pixel{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
	return comp
}

// boundaryLength counts component pixels with a 4-neighbour outside the
// foreground or outside the image.
func boundaryLength(mask [][]bool, comp []pixel) int {
	height, width := len(mask), len(mask[0])
	inside := func(x, y int) bool {
		return x >= 0 && x < width && y >= 0 && y < height && mask[y][x]
	}
	n := 0
	for _, p := range comp {
		if !inside(p.X-1, p.Y) || !inside(p.X+1, p.Y) || !inside(p.X, p.Y-1) || !inside(p.X, p.Y+1) {
			n++
		}
	}
	return n
}

// circularity is 4πA/P², capped at 1. Pixel-counted perimeters run short
// for round shapes, which pushes small discs above 1.
func circularity(area, perimeter int) float64 {
	if perimeter == 0 {
		return 0
	}
	c := 4 * math.Pi * float64(area) / float64(perimeter*perimeter)
	return math.Min(c, 1)
}

// principalAxes fits the major and minor axes of a component through its
// centroid.
func principalAxes(comp []pixel) (geometry.Blob, geometry.Point, bool) {
	n := float64(len(comp))
	var mx, my float64
	for _, p := range comp {
		mx += float64(p.X)
		my += float64(p.Y)
	}
	mx /= n
	my /= n

	var sxx, syy, sxy float64
	for _, p := range comp {
		dx, dy := float64(p.X)-mx, float64(p.Y)-my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	// Each pixel is a unit square; add its own variance of 1/12 per axis.
	sxx = sxx/n + 1.0/12
	syy = syy/n + 1.0/12
	sxy /= n

	cov := mat.NewSymDense(2, []float64{sxx, sxy, sxy, syy})
	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return geometry.Blob{}, geometry.Point{}, false
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	centroid := geometry.Pt(mx, my)
	axis := func(col int) geometry.Line {
		half := 2 * math.Sqrt(math.Max(values[col], 0))
		dir := geometry.Pt(vectors.At(0, col), vectors.At(1, col))
		return geometry.LineBetween(centroid.Sub(dir.Scale(half)), centroid.Add(dir.Scale(half)))
	}

	// Values are ascending.
	blob := geometry.NewBlob(axis(1), axis(0))
	blob.Detected = true
	return blob, centroid, true
}
