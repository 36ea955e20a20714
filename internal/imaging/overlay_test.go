package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/ironsheep/spore-measure-mcp/internal/geometry"
)

func decodeResult(t *testing.T, enc EncodedImage) image.Image {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}
	return img
}

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestRenderOverlay_DrawsScene(t *testing.T) {
	src := createInMemoryImage(100, 100, color.RGBA{0, 0, 0, 255})
	pending := geometry.LineBetween(geometry.Pt(60, 80), geometry.Pt(90, 80))
	scene := Scene{
		Points:      []geometry.Point{geometry.Pt(10, 10)},
		Lines:       []geometry.Line{geometry.LineBetween(geometry.Pt(60, 60), geometry.Pt(90, 60))},
		PendingLine: &pending,
		Blobs:       []geometry.Blob{testBlob()},
	}

	result, err := RenderOverlay(src, scene, OverlayOptions{})
	if err != nil {
		t.Fatalf("RenderOverlay failed: %v", err)
	}
	if result.BlobCount != 1 {
		t.Errorf("BlobCount: got %d, want 1", result.BlobCount)
	}
	if result.ScaleBarMicrons != 0 {
		t.Errorf("ScaleBarMicrons without ratio: got %v, want 0", result.ScaleBarMicrons)
	}

	img := decodeResult(t, result.EncodedImage)
	major, minor := blobColors(0)

	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"major axis", 25, 30, major},
		{"minor axis", 30, 27, minor},
		{"line in progress", 75, 60, lineInProgressColor},
		{"pending line", 75, 80, pendingLineColor},
		{"point", 10, 10, pointColor},
		{"untouched", 50, 50, color.RGBA{0, 0, 0, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rgbaAt(img, tt.x, tt.y); got != tt.want {
				t.Errorf("pixel (%d,%d): got %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}

	if got := rgbaAt(src, 25, 30); got != (color.RGBA{0, 0, 0, 255}) {
		t.Error("RenderOverlay modified the source image")
	}
}

func TestRenderOverlay_LabelAtMajorAxisMidpoint(t *testing.T) {
	white := color.RGBA{255, 255, 255, 255}
	src := createInMemoryImage(100, 100, white)
	scene := Scene{Blobs: []geometry.Blob{testBlob()}}

	result, err := RenderOverlay(src, scene, OverlayOptions{LabelBlobs: true})
	if err != nil {
		t.Fatalf("RenderOverlay failed: %v", err)
	}
	img := decodeResult(t, result.EncodedImage)

	// The major axis runs (20,30)-(40,30); its label sits just past (30,30).
	if got := rgbaAt(img, 32, 38); got == white {
		t.Error("no label next to the major axis midpoint")
	}
	if got := rgbaAt(img, 22, 38); got != white {
		t.Errorf("label drawn at the axis start: pixel (22,38) is %v", got)
	}
}

func TestRenderOverlay_ScaleBar(t *testing.T) {
	src := createInMemoryImage(200, 200, color.RGBA{0, 0, 0, 255})

	result, err := RenderOverlay(src, Scene{}, OverlayOptions{Ratio: 2, ScaleBarColor: "#0f0"})
	if err != nil {
		t.Fatalf("RenderOverlay failed: %v", err)
	}
	if result.ScaleBarMicrons != 20 {
		t.Errorf("ScaleBarMicrons: got %v, want 20", result.ScaleBarMicrons)
	}
	if result.ScaleBarPixels != 40 {
		t.Errorf("ScaleBarPixels: got %v, want 40", result.ScaleBarPixels)
	}

	img := decodeResult(t, result.EncodedImage)
	green := color.RGBA{0, 255, 0, 255}
	if got := rgbaAt(img, 189, 186); got != green {
		t.Errorf("bar right end: got %v, want %v", got, green)
	}
	if got := rgbaAt(img, 150, 186); got != green {
		t.Errorf("bar left end: got %v, want %v", got, green)
	}
	if got := rgbaAt(img, 149, 186); got == green {
		t.Error("bar extends past its length")
	}
}

func TestRenderOverlay_InvalidColor(t *testing.T) {
	src := createInMemoryImage(50, 50, color.White)
	if _, err := RenderOverlay(src, Scene{}, OverlayOptions{Ratio: 1, ScaleBarColor: "#12"}); err == nil {
		t.Error("RenderOverlay should reject an invalid scale bar color")
	}
}

func TestNiceLength(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{20, 20},
		{37, 20},
		{99, 50},
		{1, 1},
		{0.7, 0.5},
		{0.15, 0.1},
		{0, 0},
		{math.Inf(1), 0},
	}
	for _, tt := range tests {
		if got := niceLength(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("niceLength(%v): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#FF0000", color.RGBA{255, 0, 0, 255}, false},
		{"00ff00", color.RGBA{0, 255, 0, 255}, false},
		{"#fff", color.RGBA{255, 255, 255, 255}, false},
		{"", color.RGBA{}, true},
		{"#12345", color.RGBA{}, true},
		{"#GGGGGG", color.RGBA{}, true},
	}
	for _, tt := range tests {
		got, err := parseHexColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseHexColor(%q) error: got %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseHexColor(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDrawLabel_Clipped(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 5, 5))
	// Must not panic when the label runs off the canvas.
	drawLabel(img, 3, 3, "123um", color.RGBA{255, 255, 255, 255}, labelBackground)
	drawLabel(img, -10, -10, "9", color.RGBA{255, 255, 255, 255}, labelBackground)
}
