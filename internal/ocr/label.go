package ocr

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrUnavailable is returned when the binary was built without Tesseract.
	ErrUnavailable = errors.New("ocr: tesseract not available in this build")
	// ErrNoLabel means no length with a unit was found in the text.
	ErrNoLabel = errors.New("ocr: no scale label found")
	// ErrNoBar means no horizontal bar was found in the region.
	ErrNoBar = errors.New("ocr: no scale bar found")
)

// ScaleLabel is a parsed scale bar label. Microns is the length converted
// to µm; Unit is the unit as written.
type ScaleLabel struct {
	Text    string  `json:"text"`
	Value   float64 `json:"value"`
	Unit    string  `json:"unit"`
	Microns float64 `json:"microns"`
}

var labelPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(µm|μm|um|mm|nm)\b`)

// ParseScaleLabel finds the first "<number> <unit>" in text. Commas are
// accepted as decimal separators.
func ParseScaleLabel(text string) (ScaleLabel, bool) {
	m := labelPattern.FindStringSubmatch(text)
	if m == nil {
		return ScaleLabel{}, false
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil || value <= 0 {
		return ScaleLabel{}, false
	}

	unit := strings.ToLower(m[2])
	var microns float64
	switch unit {
	case "mm":
		microns = value * 1000
	case "nm":
		microns = value / 1000
	default:
		unit = "µm"
		microns = value
	}
	return ScaleLabel{
		Text:    strings.TrimSpace(m[0]),
		Value:   value,
		Unit:    unit,
		Microns: microns,
	}, true
}
