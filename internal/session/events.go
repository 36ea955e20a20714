package session

import (
	"errors"
	"fmt"

	"github.com/ironsheep/spore-measure-mcp/internal/calibration"
	"github.com/ironsheep/spore-measure-mcp/internal/geometry"
)

var (
	// ErrRejected is matched by every *RejectionError.
	ErrRejected = errors.New("click rejected")

	// ErrCalibrationPending is returned by pointer operations while a
	// calibration request is waiting for the host.
	ErrCalibrationPending = errors.New("calibration request pending")

	// ErrNoCalibrationPending is returned when resolving with nothing
	// outstanding.
	ErrNoCalibrationPending = errors.New("no calibration request pending")

	// ErrNoRegistry is returned when a calibration is resolved on a session
	// built without a registry.
	ErrNoRegistry = errors.New("session has no calibration registry")

	// ErrBlobNotFound is returned by DeleteBlob for an unknown ID.
	ErrBlobNotFound = errors.New("blob not found")
)

// Gate names the validation a click failed.
type Gate string

const (
	GatePerpendicularBand Gate = "perpendicular_band"
	GateIntersection      Gate = "intersection"
)

// RejectionError describes a click that failed a geometric gate.
type RejectionError struct {
	Gate  Gate           `json:"gate"`
	Point geometry.Point `json:"point"`
}

func (e *RejectionError) Error() string {
	switch e.Gate {
	case GatePerpendicularBand:
		return fmt.Sprintf("point (%.2f, %.2f) is not between the perpendiculars of the first line", e.Point.X, e.Point.Y)
	case GateIntersection:
		return fmt.Sprintf("second line ending at (%.2f, %.2f) does not intersect the first line", e.Point.X, e.Point.Y)
	}
	return fmt.Sprintf("click at (%.2f, %.2f) rejected", e.Point.X, e.Point.Y)
}

func (e *RejectionError) Is(target error) bool { return target == ErrRejected }

// CalibrationRequest is emitted when a reference line is complete in
// calibration mode.
type CalibrationRequest struct {
	ReferenceLine   geometry.Line `json:"referenceLine"`
	ReferenceLength float64       `json:"referenceLength"`
}

// EventType identifies a session event.
type EventType int

const (
	EventBlobCompleted EventType = iota
	EventBlobsDeleted
	EventClickRejected
	EventCalibrationRequested
	EventCalibrationCreated
	EventCalibrationCancelled
	EventReset
	EventBlobsDetected
)

var eventNames = map[EventType]string{
	EventBlobCompleted:        "blob_completed",
	EventBlobsDeleted:         "blobs_deleted",
	EventClickRejected:        "click_rejected",
	EventCalibrationRequested: "calibration_requested",
	EventCalibrationCreated:   "calibration_created",
	EventCalibrationCancelled: "calibration_cancelled",
	EventReset:                "reset",
	EventBlobsDetected:        "blobs_detected",
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// MarshalText encodes the event name.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Event is delivered to listeners after the state change that caused it.
type Event struct {
	Type        EventType                `json:"type"`
	Blob        *geometry.Blob           `json:"blob,omitempty"`
	Deleted     []geometry.Blob          `json:"deleted,omitempty"`
	Detected    []geometry.Blob          `json:"detected,omitempty"`
	Rejection   *RejectionError          `json:"rejection,omitempty"`
	Request     *CalibrationRequest      `json:"request,omitempty"`
	Calibration *calibration.Calibration `json:"calibration,omitempty"`
}

// Listener receives session events.
type Listener func(Event)

func errorsIsAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

func isDuplicate(err error) bool {
	var dup *calibration.DuplicateNameError
	return errors.As(err, &dup)
}
