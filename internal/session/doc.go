// Package session implements the interactive measurement state machine.
//
// A blob is drawn with four clicks:
//
//  1. start of the long axis
//  2. end of the long axis
//  3. start of the short axis, which must lie in the long axis's
//     perpendicular band
//  4. end of the short axis, snapped perpendicular to the long axis, which
//     must cross the long axis
//
// A click that fails a gate is rejected: the state does not change and the
// caller gets a *RejectionError. On the fourth click the axes are ordered so
// that Line1 is the longer one and the blob is appended.
//
// Between clicks, Move updates the line under construction: it follows the
// pointer freely for the long axis and is held perpendicular for the short
// axis.
//
// # Calibration mode
//
// In [ModeCalibrate] the second click does not continue to a blob. The
// session emits a [CalibrationRequest] and suspends: every pointer
// operation returns [ErrCalibrationPending] until the host calls
// [Session.ResolveCalibration] or [Session.CancelCalibration].
//
// # Right click
//
// With three points placed a right click rolls back to the finished long
// axis; with one or two it discards the measurement in progress. Every
// stored blob whose two perpendicular bands both contain the click is
// deleted.
//
// A Session is not safe for concurrent use. Pointer coordinates are device
// coordinates and pass through the injected [PointMapper].
package session
