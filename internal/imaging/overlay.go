package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/spore-measure-mcp/internal/geometry"
)

// Scene is the measurement state drawn over an image. All coordinates are
// in image space.
type Scene struct {
	Points      []geometry.Point
	Lines       []geometry.Line
	PendingLine *geometry.Line
	Blobs       []geometry.Blob
}

// OverlayOptions controls RenderOverlay.
type OverlayOptions struct {
	// Ratio is the active calibration in px/µm. Zero disables the scale bar.
	Ratio         float64
	ScaleBarColor string
	LabelBlobs    bool
	// Highlight draws the blob with this ID thicker.
	Highlight string
	LineWidth int
}

// OverlayResult is the rendered PNG plus what was drawn.
type OverlayResult struct {
	EncodedImage
	BlobCount       int     `json:"blob_count"`
	ScaleBarMicrons float64 `json:"scale_bar_um,omitempty"`
	ScaleBarPixels  float64 `json:"scale_bar_px,omitempty"`
}

var (
	lineInProgressColor = mustHex("#ff4040")
	pendingLineColor    = mustHex("#ffd700")
	pointColor          = mustHex("#00ff7f")
	labelBackground     = color.RGBA{0, 0, 0, 180}
)

func mustHex(s string) color.RGBA {
	c, err := parseHexColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// parseHexColor accepts "#rgb" or "#rrggbb".
func parseHexColor(s string) (color.RGBA, error) {
	if len(s) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if s[0] != '#' {
		s = "#" + s
	}
	if len(s) == 4 {
		s = string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}
	if len(s) != 7 {
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// blobColors returns the axis colors for the i-th blob. Hues advance by the
// golden angle so neighbouring blobs stay distinguishable.
func blobColors(i int) (major, minor color.RGBA) {
	hue := math.Mod(float64(i)*137.508, 360)
	toRGBA := func(c colorful.Color) color.RGBA {
		r, g, b := c.Clamped().RGB255()
		return color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return toRGBA(colorful.Hsv(hue, 0.85, 1)), toRGBA(colorful.Hsv(hue, 0.4, 1))
}

// RenderOverlay draws the scene on a copy of img and encodes it as PNG.
func RenderOverlay(img image.Image, scene Scene, opts OverlayOptions) (*OverlayResult, error) {
	bounds := img.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, img, bounds.Min, draw.Src)

	width := opts.LineWidth
	if width <= 0 {
		width = 2
	}

	for i, b := range scene.Blobs {
		major, minor := blobColors(i)
		w := width
		if opts.Highlight != "" && b.ID == opts.Highlight {
			w = width * 2
		}
		drawSegment(canvas, b.Line1, major, w)
		drawSegment(canvas, b.Line2, minor, w)
		if opts.LabelBlobs {
			at := b.Line1.Midpoint()
			drawLabel(canvas, int(at.X)+3, int(at.Y)+3, strconv.Itoa(i+1), major, labelBackground)
		}
	}

	for _, l := range scene.Lines {
		drawSegment(canvas, l, lineInProgressColor, width)
	}
	if scene.PendingLine != nil {
		drawSegment(canvas, *scene.PendingLine, pendingLineColor, width)
	}
	for _, p := range scene.Points {
		fillSquare(canvas, int(math.Round(p.X)), int(math.Round(p.Y)), width+1, pointColor)
	}

	result := &OverlayResult{BlobCount: len(scene.Blobs)}

	if opts.Ratio > 0 {
		barColor := color.RGBA{255, 255, 255, 255}
		if opts.ScaleBarColor != "" {
			c, err := parseHexColor(opts.ScaleBarColor)
			if err != nil {
				return nil, fmt.Errorf("invalid scale bar color: %w", err)
			}
			barColor = c
		}
		microns, pixels := drawScaleBar(canvas, opts.Ratio, barColor)
		result.ScaleBarMicrons = microns
		result.ScaleBarPixels = pixels
	}

	enc, err := encodePNG(canvas)
	if err != nil {
		return nil, err
	}
	result.EncodedImage = *enc
	return result, nil
}

// niceLength rounds target down to 1, 2 or 5 times a power of ten.
func niceLength(target float64) float64 {
	if target <= 0 || math.IsInf(target, 0) || math.IsNaN(target) {
		return 0
	}
	exp := math.Floor(math.Log10(target))
	base := math.Pow(10, exp)
	for _, m := range []float64{5, 2, 1} {
		if m*base <= target {
			return m * base
		}
	}
	return base
}

// drawScaleBar puts a bar about a fifth of the image width in the bottom
// right corner and returns its length in µm and px.
func drawScaleBar(img *image.RGBA, ratio float64, c color.RGBA) (float64, float64) {
	b := img.Bounds()
	microns := niceLength(float64(b.Dx()) * 0.2 / ratio)
	if microns == 0 {
		return 0, 0
	}
	pixels := microns * ratio

	const margin, thickness = 10, 4
	x2 := b.Max.X - margin
	x1 := x2 - int(math.Round(pixels))
	y := b.Max.Y - margin - thickness
	for dy := 0; dy < thickness; dy++ {
		for x := x1; x < x2; x++ {
			setClipped(img, x, y+dy, c)
		}
	}

	label := strconv.FormatFloat(microns, 'f', -1, 64) + "um"
	drawLabel(img, x1, y-8, label, c, labelBackground)
	return microns, pixels
}

func drawSegment(img *image.RGBA, l geometry.Line, c color.RGBA, width int) {
	dx, dy := l.X2-l.X1, l.Y2-l.Y1
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		fillSquare(img, int(math.Round(l.X1)), int(math.Round(l.Y1)), width, c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(math.Round(l.X1 + dx*t))
		y := int(math.Round(l.Y1 + dy*t))
		fillSquare(img, x, y, width, c)
	}
}

// fillSquare paints a size x size square centered on (x, y).
func fillSquare(img *image.RGBA, x, y, size int, c color.RGBA) {
	lo := -(size - 1) / 2
	for dy := lo; dy < lo+size; dy++ {
		for dx := lo; dx < lo+size; dx++ {
			setClipped(img, x+dx, y+dy, c)
		}
	}
}

func setClipped(img *image.RGBA, x, y int, c color.Color) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.Set(x, y, c)
	}
}

// 3x5 bitmap glyphs for labels and scale bar units.
var glyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	'.': {"000", "000", "000", "000", "010"},
	'u': {"000", "000", "101", "101", "111"},
	'm': {"000", "000", "111", "111", "101"},
}

const charWidth = 4

func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	labelWidth := len([]rune(text)) * charWidth
	const labelHeight = 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setClipped(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		if glyph, ok := glyphs[ch]; ok {
			for row, line := range glyph {
				for col, pixel := range line {
					if pixel == '1' {
						setClipped(img, cx+col, y+row, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}
