// Package detection finds spores in a micrograph without user clicks.
//
// The pure Go detector thresholds the image and measures each connected
// component with a second-moment ellipse fit. Builds with the gocv tag also
// get DetectCV, which uses OpenCV contours and FitEllipse instead.
//
// Both return candidates in image pixel coordinates with the major axis in
// Line1, ready to be merged into a session.
package detection
