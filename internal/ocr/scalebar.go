package ocr

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ScaleBarResult is a recognized scale bar. Ratio is in px/µm.
type ScaleBarResult struct {
	Label ScaleLabel `json:"label"`
	Bar   Bar        `json:"bar"`
	Ratio float64    `json:"ratio"`
	Raw   string     `json:"raw_text"`
}

// ReadScaleBar recognizes the label and measures the bar inside region.
// An empty region means the whole image.
func ReadScaleBar(img image.Image, region image.Rectangle, language string) (*ScaleBarResult, error) {
	if region.Empty() {
		region = img.Bounds()
	}
	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return nil, fmt.Errorf("region lies outside the image")
	}
	if language == "" {
		language = "eng"
	}

	cropped := imaging.Crop(img, region)
	text, err := recognize(cropped, language)
	if err != nil {
		return nil, err
	}

	label, ok := ParseScaleLabel(text)
	if !ok {
		return nil, fmt.Errorf("%w in %q", ErrNoLabel, text)
	}

	bar, err := MeasureBar(cropped, 128)
	if err != nil {
		return nil, err
	}
	bar.X1 += region.Min.X
	bar.X2 += region.Min.X
	bar.Y += region.Min.Y

	return &ScaleBarResult{
		Label: label,
		Bar:   bar,
		Ratio: float64(bar.Pixels) / label.Microns,
		Raw:   text,
	}, nil
}
