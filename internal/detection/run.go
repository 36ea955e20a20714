//go:build !gocv

package detection

import "image"

// Run is the detector used by the server and CLI: Detect, or DetectCV in
// builds tagged gocv.
func Run(img image.Image, params Params) ([]Candidate, error) {
	return Detect(img, params)
}
