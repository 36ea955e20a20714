package ocr

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestParseScaleLabel(t *testing.T) {
	tests := []struct {
		text    string
		value   float64
		unit    string
		microns float64
		ok      bool
	}{
		{"50 µm", 50, "µm", 50, true},
		{"50um", 50, "µm", 50, true},
		{"100 μm", 100, "µm", 100, true},
		{"1,5 µm", 1.5, "µm", 1.5, true},
		{"0.05 mm", 0.05, "mm", 50, true},
		{"500 nm", 500, "nm", 0.5, true},
		{"  scale: 20 UM\n", 20, "µm", 20, true},
		{"50", 0, "", 0, false},
		{"µm", 0, "", 0, false},
		{"0 µm", 0, "", 0, false},
		{"", 0, "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseScaleLabel(tt.text)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.Value != tt.value {
				t.Errorf("Value: got %v, want %v", got.Value, tt.value)
			}
			if got.Unit != tt.unit {
				t.Errorf("Unit: got %q, want %q", got.Unit, tt.unit)
			}
			if math.Abs(got.Microns-tt.microns) > 1e-9 {
				t.Errorf("Microns: got %v, want %v", got.Microns, tt.microns)
			}
		})
	}
}

func barImage(w, h int, bg, fg color.Color, x1, x2, y1, y2 int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := bg
			if x >= x1 && x < x2 && y >= y1 && y < y2 {
				c = fg
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestMeasureBar(t *testing.T) {
	tests := []struct {
		name   string
		bg, fg color.Color
	}{
		{"light on dark", color.Black, color.White},
		{"dark on light", color.White, color.Black},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := barImage(200, 40, tt.bg, tt.fg, 150, 190, 30, 34)
			bar, err := MeasureBar(img, 128)
			if err != nil {
				t.Fatalf("MeasureBar failed: %v", err)
			}
			if bar.Pixels != 40 || bar.X1 != 150 || bar.X2 != 190 {
				t.Errorf("bar: got %+v, want 40px from 150 to 190", bar)
			}
			if bar.Y < 30 || bar.Y >= 34 {
				t.Errorf("bar row: got %d, want 30..33", bar.Y)
			}
		})
	}
}

func TestMeasureBar_SubImageOffset(t *testing.T) {
	img := barImage(300, 100, color.Black, color.White, 200, 260, 80, 83)
	sub := img.SubImage(image.Rect(150, 60, 300, 100))

	bar, err := MeasureBar(sub, 128)
	if err != nil {
		t.Fatalf("MeasureBar failed: %v", err)
	}
	if bar.X1 != 200 || bar.X2 != 260 || bar.Y != 80 {
		t.Errorf("bar: got %+v, want X1=200 X2=260 Y=80", bar)
	}
}

func TestMeasureBar_NoBar(t *testing.T) {
	img := barImage(50, 20, color.White, color.White, 0, 0, 0, 0)
	if _, err := MeasureBar(img, 128); err != ErrNoBar {
		t.Errorf("error: got %v, want ErrNoBar", err)
	}
}
