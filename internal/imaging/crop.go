package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/spore-measure-mcp/internal/geometry"
)

// EncodedImage is a PNG returned inline to the client.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

func encodePNG(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// CropResult is a zoomed view of one blob. Origin is the image-space
// position of the crop's top-left pixel.
type CropResult struct {
	EncodedImage
	Origin geometry.Point `json:"origin"`
	Scale  float64        `json:"scale"`
}

// CropBlob cuts out the bounding box of a blob, grown by margin pixels on
// every side and clipped to the image, and scales it by scale.
func CropBlob(img image.Image, blob geometry.Blob, margin int, scale float64) (*CropResult, error) {
	lo, hi := blob.Bounds()
	bounds := img.Bounds()

	rect := image.Rect(
		int(math.Floor(lo.X))-margin,
		int(math.Floor(lo.Y))-margin,
		int(math.Ceil(hi.X))+margin+1,
		int(math.Ceil(hi.Y))+margin+1,
	).Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("blob %s lies outside the image", blob.ID)
	}

	cropped := imaging.Crop(img, rect)
	if scale <= 0 {
		scale = 1
	}
	if scale != 1 {
		w := int(math.Max(1, math.Round(float64(cropped.Bounds().Dx())*scale)))
		h := int(math.Max(1, math.Round(float64(cropped.Bounds().Dy())*scale)))
		cropped = imaging.Resize(cropped, w, h, imaging.Lanczos)
	}

	enc, err := encodePNG(cropped)
	if err != nil {
		return nil, err
	}
	return &CropResult{
		EncodedImage: *enc,
		Origin:       geometry.Pt(float64(rect.Min.X), float64(rect.Min.Y)),
		Scale:        scale,
	}, nil
}
