//go:build !(cgo && linux)

package ocr

import "image"

func recognize(image.Image, string) (string, error) {
	return "", ErrUnavailable
}
