// Package geometry holds the pure measurement kernel: points, axis lines,
// blobs, and the tests that constrain how a blob may be drawn.
//
// # Coordinates
//
// Every value in this package is in image space (source pixels). Device
// coordinates from a pointer are converted with a [Transform] before they
// reach any other function here.
//
// # Gates
//
// Two predicates decide whether a click is accepted while a blob is being
// drawn:
//
//   - [IsBetweenPerpendiculars] constrains the start of the short axis to the
//     band swept by the long axis.
//   - [SegmentIntersection] requires the finished short axis to cross the
//     long axis.
//
// Both compare orientation and projection values against zero exactly. Do
// not add tolerances here; the session's gates depend on these boundaries.
//
// # Parallel segments
//
// When two segments have distinct orientations but a zero denominator,
// [SegmentIntersection] reports no intersection. Collinear overlapping
// segments are only reported through the endpoint checks. This matches the
// behaviour existing measurements were validated against.
package geometry
