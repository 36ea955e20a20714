// Package ocr reads the scale bar burned into a micrograph.
//
// A scale bar is a solid horizontal bar with a label such as "50 µm". The
// label is recognized with Tesseract (gosseract/v2) and the bar length is
// measured from the pixels, giving a px/µm ratio that can seed a
// calibration.
//
// Tesseract is only linked on Linux builds with CGO enabled. Other builds
// return ErrUnavailable from ReadScaleBar; ParseScaleLabel and MeasureBar
// work everywhere.
package ocr
