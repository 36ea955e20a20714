package session

import (
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/ironsheep/spore-measure-mcp/internal/calibration"
	"github.com/ironsheep/spore-measure-mcp/internal/geometry"
)

// Mode selects what a completed pair of points is used for.
type Mode int

const (
	// ModeMeasure draws blobs.
	ModeMeasure Mode = iota
	// ModeCalibrate turns the first line into a calibration reference.
	ModeCalibrate
)

func (m Mode) String() string {
	if m == ModeCalibrate {
		return "calibrate"
	}
	return "measure"
}

// MarshalText encodes the mode name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseMode accepts "measure"/"spore" and "calibrate"/"scale".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "measure", "spore", "":
		return ModeMeasure, nil
	case "calibrate", "calibration", "scale":
		return ModeCalibrate, nil
	}
	return ModeMeasure, fmt.Errorf("unknown mode: %s", s)
}

// Phase is the position in the click protocol.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLongAxis
	PhaseShortAxisStart
	PhaseShortAxis
	PhaseAwaitingCalibration
)

var phaseNames = [...]string{"idle", "long_axis", "short_axis_start", "short_axis", "awaiting_calibration"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText encodes the phase name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// PointMapper converts device coordinates to image space.
type PointMapper interface {
	ToImageSpace(device geometry.Point) geometry.Point
}

type identityMapper struct{}

func (identityMapper) ToImageSpace(p geometry.Point) geometry.Point { return p }

// Option configures a Session.
type Option func(*Session)

// WithMapper sets the device-to-image mapping. The default is identity.
func WithMapper(m PointMapper) Option {
	return func(s *Session) { s.mapper = m }
}

// WithRegistry sets the registry that receives calibrations.
func WithRegistry(r *calibration.Registry) Option {
	return func(s *Session) { s.registry = r }
}

// WithLogger enables diagnostic logging, including rejected clicks.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithIDGenerator replaces the UUID generator used for blob IDs.
func WithIDGenerator(fn func() string) Option {
	return func(s *Session) { s.newID = fn }
}

// Session holds the measurement in progress and the completed blobs.
type Session struct {
	mapper   PointMapper
	registry *calibration.Registry
	logger   *log.Logger
	newID    func() string

	mode        Mode
	points      []geometry.Point
	lines       []geometry.Line
	pendingLine *geometry.Line
	blobs       []geometry.Blob
	request     *CalibrationRequest

	listeners []Listener
}

// New creates an idle session in measure mode.
func New(opts ...Option) *Session {
	s := &Session{
		mapper: identityMapper{},
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// On registers a listener for every event.
func (s *Session) On(l Listener) {
	s.listeners = append(s.listeners, l)
}

func (s *Session) emit(e Event) {
	for _, l := range s.listeners {
		l(e)
	}
}

func (s *Session) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// Mode returns the current mode.
func (s *Session) Mode() Mode { return s.mode }

// Phase reports where the session is in the click protocol.
func (s *Session) Phase() Phase {
	if s.request != nil {
		return PhaseAwaitingCalibration
	}
	return Phase(len(s.points))
}

// PendingRequest returns the outstanding calibration request, if any.
func (s *Session) PendingRequest() (CalibrationRequest, bool) {
	if s.request == nil {
		return CalibrationRequest{}, false
	}
	return *s.request, true
}

// ClickResult reports what a click did.
type ClickResult struct {
	Accepted bool                `json:"accepted"`
	Point    geometry.Point      `json:"point"`
	Phase    Phase               `json:"phase"`
	Blob     *geometry.Blob      `json:"blob,omitempty"`
	Request  *CalibrationRequest `json:"calibrationRequest,omitempty"`
}

// Click places the next point. A click that fails a gate returns a
// *RejectionError and leaves the session unchanged.
func (s *Session) Click(device geometry.Point) (ClickResult, error) {
	if s.request != nil {
		return ClickResult{Phase: PhaseAwaitingCalibration}, ErrCalibrationPending
	}

	pt := s.mapper.ToImageSpace(device)
	pt.SequenceIndex = len(s.points)
	res := ClickResult{Point: pt}

	switch len(s.points) {
	case 0:
		s.points = append(s.points, pt)
		s.pendingLine = &geometry.Line{X1: pt.X, Y1: pt.Y, X2: pt.X, Y2: pt.Y}

	case 1:
		s.points = append(s.points, pt)
		s.lines = append(s.lines[:0], s.pendingLine.WithEnd(pt))
		s.pendingLine = nil
		if s.mode == ModeCalibrate {
			req := &CalibrationRequest{ReferenceLine: s.lines[0], ReferenceLength: s.lines[0].Length()}
			s.request = req
			res.Request = req
		}

	case 2:
		axis := s.lines[0]
		if !geometry.IsBetweenPerpendiculars(pt, axis.Start(), axis.End()) {
			return s.reject(GatePerpendicularBand, pt)
		}
		s.points = append(s.points, pt)
		s.pendingLine = &geometry.Line{X1: pt.X, Y1: pt.Y, X2: pt.X, Y2: pt.Y}

	case 3:
		axis := s.lines[0]
		start := s.pendingLine.Start()
		// The raw click must cross the first line; the stored end is snapped.
		if !geometry.LinesIntersect(axis, geometry.LineBetween(start, pt)).Intersects {
			return s.reject(GateIntersection, pt)
		}
		end := geometry.PerpendicularEnd(axis, start, pt)
		end.SequenceIndex = 3
		blob := geometry.NewBlob(axis, geometry.LineBetween(start, end))
		blob.ID = s.newID()
		s.blobs = append(s.blobs, blob)
		s.clearInProgress()
		res.Point = end
		res.Blob = &blob
	}

	res.Accepted = true
	res.Phase = s.Phase()

	if res.Blob != nil {
		b := *res.Blob
		s.emit(Event{Type: EventBlobCompleted, Blob: &b})
	}
	if res.Request != nil {
		r := *res.Request
		s.emit(Event{Type: EventCalibrationRequested, Request: &r})
	}
	return res, nil
}

func (s *Session) reject(gate Gate, pt geometry.Point) (ClickResult, error) {
	err := &RejectionError{Gate: gate, Point: pt}
	s.logf("%v", err)
	s.emit(Event{Type: EventClickRejected, Rejection: err})
	return ClickResult{Point: pt, Phase: s.Phase()}, err
}

// Move updates the line under construction and returns it. It returns nil
// when no line is being drawn.
func (s *Session) Move(device geometry.Point) (*geometry.Line, error) {
	if s.request != nil {
		return nil, ErrCalibrationPending
	}
	if s.pendingLine == nil {
		return nil, nil
	}

	pt := s.mapper.ToImageSpace(device)
	switch len(s.points) {
	case 1:
		*s.pendingLine = s.pendingLine.WithEnd(pt)
	case 3:
		end := geometry.PerpendicularEnd(s.lines[0], s.pendingLine.Start(), pt)
		*s.pendingLine = s.pendingLine.WithEnd(end)
	}
	l := *s.pendingLine
	return &l, nil
}

// RightClickResult reports what a right click did.
type RightClickResult struct {
	RolledBack bool            `json:"rolledBack"`
	Cleared    bool            `json:"cleared"`
	Deleted    []geometry.Blob `json:"deleted,omitempty"`
	Phase      Phase           `json:"phase"`
}

// RightClick rolls back the measurement in progress and deletes every blob
// whose bands contain the click.
func (s *Session) RightClick(device geometry.Point) (RightClickResult, error) {
	if s.request != nil {
		return RightClickResult{Phase: PhaseAwaitingCalibration}, ErrCalibrationPending
	}

	pt := s.mapper.ToImageSpace(device)
	var res RightClickResult

	switch {
	case len(s.points) > 2:
		s.points = s.points[:2]
		s.lines = s.lines[:1]
		s.pendingLine = nil
		res.RolledBack = true
	case len(s.points) > 0:
		s.clearInProgress()
		res.Cleared = true
	}

	for i := len(s.blobs) - 1; i >= 0; i-- {
		if s.blobs[i].Contains(pt) {
			res.Deleted = append(res.Deleted, s.blobs[i])
			s.blobs = append(s.blobs[:i], s.blobs[i+1:]...)
		}
	}

	res.Phase = s.Phase()
	if len(res.Deleted) > 0 {
		s.emit(Event{Type: EventBlobsDeleted, Deleted: append([]geometry.Blob(nil), res.Deleted...)})
	}
	return res, nil
}

// ResolveCalibration completes the outstanding calibration request with a
// name and the true length of the reference line in micrometres.
//
// An invalid length, an empty name, or a duplicate name without overwrite
// leaves the request outstanding so the host can ask again. Otherwise the
// points are cleared and the session returns to idle, even when the store
// write fails.
func (s *Session) ResolveCalibration(name string, trueLength float64, overwrite bool) (calibration.Calibration, error) {
	if s.request == nil {
		return calibration.Calibration{}, ErrNoCalibrationPending
	}
	if s.registry == nil {
		return calibration.Calibration{}, ErrNoRegistry
	}

	c, err := calibration.FromReference(strings.TrimSpace(name), s.request.ReferenceLine, trueLength)
	if err != nil {
		if errorsIsAny(err, calibration.ErrInvalidLength, calibration.ErrEmptyName) {
			return calibration.Calibration{}, err
		}
		// The reference itself is unusable.
		s.finishCalibration()
		s.emit(Event{Type: EventCalibrationCancelled})
		return calibration.Calibration{}, err
	}

	err = s.registry.Add(c, overwrite)
	if isDuplicate(err) {
		return calibration.Calibration{}, err
	}

	s.finishCalibration()
	created := c
	s.emit(Event{Type: EventCalibrationCreated, Calibration: &created})
	return c, err
}

// CancelCalibration abandons the outstanding request and clears the
// reference line.
func (s *Session) CancelCalibration() error {
	if s.request == nil {
		return ErrNoCalibrationPending
	}
	s.finishCalibration()
	s.emit(Event{Type: EventCalibrationCancelled})
	return nil
}

func (s *Session) finishCalibration() {
	s.request = nil
	s.clearInProgress()
}

// SetMode switches modes. The measurement in progress, and any outstanding
// calibration request, is discarded.
func (s *Session) SetMode(m Mode) {
	hadRequest := s.request != nil
	s.request = nil
	s.clearInProgress()
	s.mode = m
	if hadRequest {
		s.emit(Event{Type: EventCalibrationCancelled})
	}
}

// Reset discards the measurement in progress and every blob. Used when a
// new image is loaded.
func (s *Session) Reset() {
	s.request = nil
	s.clearInProgress()
	s.blobs = nil
	s.emit(Event{Type: EventReset})
}

func (s *Session) clearInProgress() {
	s.points = s.points[:0]
	s.lines = s.lines[:0]
	s.pendingLine = nil
}

// Blobs returns a copy of the completed blobs.
func (s *Session) Blobs() []geometry.Blob {
	return append([]geometry.Blob(nil), s.blobs...)
}

// ClearBlobs deletes every blob but keeps the measurement in progress.
func (s *Session) ClearBlobs() {
	if len(s.blobs) == 0 {
		return
	}
	deleted := s.blobs
	s.blobs = nil
	s.emit(Event{Type: EventBlobsDeleted, Deleted: deleted})
}

// DeleteBlob removes the blob with the given ID.
func (s *Session) DeleteBlob(id string) error {
	for i, b := range s.blobs {
		if b.ID == id {
			s.blobs = append(s.blobs[:i], s.blobs[i+1:]...)
			s.emit(Event{Type: EventBlobsDeleted, Deleted: []geometry.Blob{b}})
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrBlobNotFound, id)
}

// MergeDetected replaces the previously detected blobs with candidates.
// Hand-drawn blobs are kept. The merged blobs, with IDs, are returned.
func (s *Session) MergeDetected(candidates []geometry.Blob) []geometry.Blob {
	kept := s.blobs[:0]
	for _, b := range s.blobs {
		if !b.Detected {
			kept = append(kept, b)
		}
	}
	s.blobs = kept

	merged := make([]geometry.Blob, 0, len(candidates))
	for _, c := range candidates {
		b := geometry.NewBlob(c.Line1, c.Line2)
		b.ID = s.newID()
		b.Detected = true
		merged = append(merged, b)
	}
	s.blobs = append(s.blobs, merged...)
	if len(merged) > 0 {
		s.emit(Event{Type: EventBlobsDetected, Detected: append([]geometry.Blob(nil), merged...)})
	}
	return merged
}

// Snapshot is a read-only copy of the session for rendering.
type Snapshot struct {
	Mode        Mode                `json:"mode"`
	Phase       Phase               `json:"phase"`
	Points      []geometry.Point    `json:"points"`
	Lines       []geometry.Line     `json:"lines"`
	PendingLine *geometry.Line      `json:"pendingLine,omitempty"`
	Blobs       []geometry.Blob     `json:"blobs"`
	Request     *CalibrationRequest `json:"calibrationRequest,omitempty"`
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Mode:   s.mode,
		Phase:  s.Phase(),
		Points: append([]geometry.Point{}, s.points...),
		Lines:  append([]geometry.Line{}, s.lines...),
		Blobs:  append([]geometry.Blob{}, s.blobs...),
	}
	if s.pendingLine != nil {
		l := *s.pendingLine
		snap.PendingLine = &l
	}
	if s.request != nil {
		r := *s.request
		snap.Request = &r
	}
	return snap
}
