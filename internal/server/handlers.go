package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"os"
	"strings"

	"gonum.org/v1/plot/vg"

	"github.com/ironsheep/spore-measure-mcp/internal/calibration"
	"github.com/ironsheep/spore-measure-mcp/internal/detection"
	"github.com/ironsheep/spore-measure-mcp/internal/geometry"
	"github.com/ironsheep/spore-measure-mcp/internal/imaging"
	"github.com/ironsheep/spore-measure-mcp/internal/ocr"
	"github.com/ironsheep/spore-measure-mcp/internal/session"
	"github.com/ironsheep/spore-measure-mcp/internal/stats"
	"github.com/ironsheep/spore-measure-mcp/internal/store"
)

var errNoImage = errors.New("no image loaded; call image_load first")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "session_click").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// A click that fails a geometric check is not an error; it is reported in
// the result with "accepted": false.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.debugf("tool %s failed: %v", params.Name, err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image
	case "image_load":
		return s.handleImageLoad(args)
	case "image_overlay":
		return s.handleImageOverlay(args)
	case "blob_crop":
		return s.handleBlobCrop(args)

	// Session
	case "session_click":
		return s.handleSessionClick(args)
	case "session_move":
		return s.handleSessionMove(args)
	case "session_right_click":
		return s.handleSessionRightClick(args)
	case "session_state":
		return s.handleSessionState()
	case "session_set_mode":
		return s.handleSessionSetMode(args)
	case "session_reset":
		return s.handleSessionReset()
	case "session_clear_blobs":
		return s.handleSessionClearBlobs()
	case "session_delete_blob":
		return s.handleSessionDeleteBlob(args)
	case "session_save":
		return s.handleSessionSave(args)
	case "session_load":
		return s.handleSessionLoad(args)
	case "session_export_csv":
		return s.handleSessionExportCSV(args)

	// View
	case "view_pan":
		return s.handleViewPan(args)
	case "view_zoom":
		return s.handleViewZoom(args)
	case "view_reset":
		s.view.Reset()
		return newViewState(s.view), nil

	// Calibration
	case "calibration_resolve":
		return s.handleCalibrationResolve(args)
	case "calibration_cancel":
		return s.handleCalibrationCancel()
	case "calibration_list":
		return s.calibrationList(), nil
	case "calibration_add":
		return s.handleCalibrationAdd(args)
	case "calibration_remove":
		return s.handleCalibrationRemove(args)
	case "calibration_activate":
		return s.handleCalibrationActivate(args)
	case "calibration_import":
		return s.handleCalibrationImport(args)
	case "calibration_export":
		return s.handleCalibrationExport(args)
	case "calibration_reset":
		return s.handleCalibrationReset()

	// Statistics
	case "stats_summary":
		return stats.ComputeCalibrated(s.session.Blobs(), s.registry), nil
	case "stats_histogram":
		return s.handleStatsHistogram(args)

	// Detection
	case "detect_blobs":
		return s.handleDetectBlobs(args)
	case "scalebar_read":
		return s.handleScalebarRead(args)

	// Preferences
	case "preferences_get":
		return s.prefs, nil
	case "preferences_set":
		return s.handlePreferencesSet(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Tools whose arguments are all
// optional may be called with none.
func decodeArgs(args json.RawMessage, v interface{}) error {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func (s *Server) activeImage() (image.Image, error) {
	if s.imagePath == "" {
		return nil, errNoImage
	}
	return s.cache.Load(s.imagePath)
}

// calibratedRatio returns the px/µm ratio, unit and calibration name used
// for reporting lengths.
func (s *Server) calibratedRatio() (float64, string, string) {
	if c, ok := s.registry.Active(); ok {
		return c.Value, stats.UnitMicrometres, c.Name
	}
	return 1, stats.UnitPixels, ""
}

// === Image Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

type imageLoadResult struct {
	*imaging.ImageInfo
	ActiveCalibration string `json:"active_calibration,omitempty"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}

	// Always decode fresh; the file may have changed since it was cached.
	s.cache.Evict(a.Path)
	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}

	if s.imagePath != "" && s.imagePath != a.Path {
		s.cache.Evict(s.imagePath)
	}
	s.watchImage(a.Path)
	s.imagePath = a.Path
	s.session.Reset()
	s.view.Reset()

	_, _, name := s.calibratedRatio()
	return imageLoadResult{ImageInfo: info, ActiveCalibration: name}, nil
}

type imageOverlayArgs struct {
	LabelBlobs *bool  `json:"label_blobs"`
	Highlight  string `json:"highlight"`
	ScaleBar   *bool  `json:"scale_bar"`
	LineWidth  int    `json:"line_width"`
}

func (s *Server) handleImageOverlay(args json.RawMessage) (interface{}, error) {
	var a imageOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.activeImage()
	if err != nil {
		return nil, err
	}

	snap := s.session.Snapshot()
	opts := imaging.OverlayOptions{
		LabelBlobs:    boolOr(a.LabelBlobs, true),
		Highlight:     a.Highlight,
		ScaleBarColor: s.prefs.ScaleBarColor,
		LineWidth:     a.LineWidth,
	}
	if c, ok := s.registry.Active(); ok && boolOr(a.ScaleBar, true) {
		opts.Ratio = c.Value
	}
	return imaging.RenderOverlay(img, imaging.Scene{
		Points:      snap.Points,
		Lines:       snap.Lines,
		PendingLine: snap.PendingLine,
		Blobs:       snap.Blobs,
	}, opts)
}

type blobCropArgs struct {
	ID     string  `json:"id"`
	Margin *int    `json:"margin"`
	Scale  float64 `json:"scale"`
}

func (s *Server) handleBlobCrop(args json.RawMessage) (interface{}, error) {
	var a blobCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	margin := 10
	if a.Margin != nil && *a.Margin >= 0 {
		margin = *a.Margin
	}
	if a.Scale == 0 {
		a.Scale = 4.0
	}

	img, err := s.activeImage()
	if err != nil {
		return nil, err
	}
	for _, b := range s.session.Blobs() {
		if b.ID == a.ID {
			return imaging.CropBlob(img, b, margin, a.Scale)
		}
	}
	return nil, fmt.Errorf("%w: %s", session.ErrBlobNotFound, a.ID)
}

// === Session Handlers ===

type pointArgs struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (a pointArgs) point() (geometry.Point, error) {
	if a.X == nil || a.Y == nil {
		return geometry.Point{}, errors.New("x and y are required")
	}
	return geometry.Pt(*a.X, *a.Y), nil
}

func decodePoint(args json.RawMessage) (geometry.Point, error) {
	var a pointArgs
	if err := decodeArgs(args, &a); err != nil {
		return geometry.Point{}, err
	}
	return a.point()
}

type clickRejected struct {
	Accepted bool           `json:"accepted"`
	Reason   string         `json:"reason"`
	Gate     session.Gate   `json:"gate"`
	Point    geometry.Point `json:"point"`
	Phase    session.Phase  `json:"phase"`
}

func (s *Server) handleSessionClick(args json.RawMessage) (interface{}, error) {
	pt, err := decodePoint(args)
	if err != nil {
		return nil, err
	}

	res, err := s.session.Click(pt)
	var rej *session.RejectionError
	if errors.As(err, &rej) {
		s.debugf("click rejected: %v", rej)
		return clickRejected{
			Accepted: false,
			Reason:   rej.Error(),
			Gate:     rej.Gate,
			Point:    rej.Point,
			Phase:    res.Phase,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Server) handleSessionMove(args json.RawMessage) (interface{}, error) {
	pt, err := decodePoint(args)
	if err != nil {
		return nil, err
	}
	line, err := s.session.Move(pt)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"pendingLine": line,
		"phase":       s.session.Phase(),
	}, nil
}

func (s *Server) handleSessionRightClick(args json.RawMessage) (interface{}, error) {
	pt, err := decodePoint(args)
	if err != nil {
		return nil, err
	}
	return s.session.RightClick(pt)
}

type sessionStateResult struct {
	session.Snapshot
	Image             string                   `json:"image,omitempty"`
	View              viewState                `json:"view"`
	ActiveCalibration *calibration.Calibration `json:"activeCalibration,omitempty"`
}

func (s *Server) handleSessionState() (interface{}, error) {
	res := sessionStateResult{
		Snapshot: s.session.Snapshot(),
		Image:    s.imagePath,
		View:     newViewState(s.view),
	}
	if c, ok := s.registry.Active(); ok {
		res.ActiveCalibration = &c
	}
	return res, nil
}

type sessionSetModeArgs struct {
	Mode string `json:"mode"`
}

func (s *Server) handleSessionSetMode(args json.RawMessage) (interface{}, error) {
	var a sessionSetModeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	mode, err := session.ParseMode(a.Mode)
	if err != nil {
		return nil, err
	}
	s.session.SetMode(mode)
	return map[string]interface{}{
		"mode":  s.session.Mode(),
		"phase": s.session.Phase(),
	}, nil
}

func (s *Server) handleSessionReset() (interface{}, error) {
	s.session.Reset()
	return map[string]interface{}{
		"mode":  s.session.Mode(),
		"phase": s.session.Phase(),
	}, nil
}

func (s *Server) handleSessionClearBlobs() (interface{}, error) {
	cleared := len(s.session.Blobs())
	s.session.ClearBlobs()
	return map[string]interface{}{
		"cleared": cleared,
		"phase":   s.session.Phase(),
	}, nil
}

type idArgs struct {
	ID string `json:"id"`
}

func (s *Server) handleSessionDeleteBlob(args json.RawMessage) (interface{}, error) {
	var a idArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.session.DeleteBlob(a.ID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"deleted": a.ID, "remaining": len(s.session.Blobs())}, nil
}

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleSessionSave(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	f, err := os.Create(a.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	if err := s.session.WriteBlobs(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write blobs: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return map[string]interface{}{"path": a.Path, "count": len(s.session.Blobs())}, nil
}

func (s *Server) handleSessionLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	f, err := os.Open(a.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	n, err := s.session.ReadBlobs(f)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"path": a.Path, "count": n}, nil
}

func (s *Server) handleSessionExportCSV(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	ratio, unit, name := s.calibratedRatio()
	var buf bytes.Buffer
	if err := session.WriteCSV(&buf, s.session.Blobs(), ratio, unit); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}

	result := map[string]interface{}{
		"count":       len(s.session.Blobs()),
		"unit":        unit,
		"calibration": name,
	}
	if a.Path == "" {
		result["csv"] = buf.String()
		return result, nil
	}
	if err := os.WriteFile(a.Path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	result["path"] = a.Path
	return result, nil
}

// === View Handlers ===

type viewState struct {
	Matrix [6]float64 `json:"matrix"` // a, b, tx, c, d, ty
	Zoom   float64    `json:"zoom"`
}

func newViewState(v *geometry.View) viewState {
	m := v.Matrix()
	return viewState{
		Matrix: [6]float64{m.A, m.B, m.TX, m.C, m.D, m.TY},
		Zoom:   math.Sqrt(math.Abs(m.A*m.D - m.B*m.C)),
	}
}

type viewPanArgs struct {
	FromX float64 `json:"from_x"`
	FromY float64 `json:"from_y"`
	ToX   float64 `json:"to_x"`
	ToY   float64 `json:"to_y"`
}

func (s *Server) handleViewPan(args json.RawMessage) (interface{}, error) {
	var a viewPanArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	s.view.Pan(geometry.Pt(a.FromX, a.FromY), geometry.Pt(a.ToX, a.ToY))
	return newViewState(s.view), nil
}

type viewZoomArgs struct {
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Steps *float64 `json:"steps"`
}

func (s *Server) handleViewZoom(args json.RawMessage) (interface{}, error) {
	var a viewZoomArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	steps := 1.0
	if a.Steps != nil {
		steps = *a.Steps
	}
	s.view.Zoom(geometry.Pt(a.X, a.Y), steps)
	return newViewState(s.view), nil
}

// === Calibration Handlers ===

type calibrationResolveArgs struct {
	Name       string  `json:"name"`
	TrueLength float64 `json:"true_length"`
	Overwrite  bool    `json:"overwrite"`
	Activate   bool    `json:"activate"`
}

type calibrationResolveResult struct {
	Calibration calibration.Calibration `json:"calibration"`
	Label       string                  `json:"label"`
	Active      bool                    `json:"active"`
	Warning     string                  `json:"warning,omitempty"`
}

func (s *Server) handleCalibrationResolve(args json.RawMessage) (interface{}, error) {
	var a calibrationResolveArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	c, err := s.session.ResolveCalibration(a.Name, a.TrueLength, a.Overwrite)
	var storageErr *calibration.StorageError
	res := calibrationResolveResult{Calibration: c, Label: c.String()}
	switch {
	case errors.As(err, &storageErr):
		// Kept in memory for this run only.
		log.Printf("Calibration %q not persisted: %v", c.Name, err)
		res.Warning = err.Error()
	case err != nil:
		return nil, err
	}

	if a.Activate {
		if err := s.registry.SetActive(c.Name); err != nil && res.Warning == "" {
			res.Warning = err.Error()
		}
	}
	_, _, active := s.calibratedRatio()
	res.Active = active == c.Name
	return res, nil
}

func (s *Server) handleCalibrationCancel() (interface{}, error) {
	if err := s.session.CancelCalibration(); err != nil {
		return nil, err
	}
	return map[string]interface{}{"cancelled": true, "phase": s.session.Phase()}, nil
}

type calibrationListResult struct {
	Calibrations []calibrationEntry `json:"calibrations"`
	Active       string             `json:"active,omitempty"`
}

type calibrationEntry struct {
	calibration.Calibration
	Label string `json:"label"`
}

func (s *Server) calibrationList() calibrationListResult {
	items := s.registry.List()
	res := calibrationListResult{Calibrations: make([]calibrationEntry, len(items))}
	for i, c := range items {
		res.Calibrations[i] = calibrationEntry{Calibration: c, Label: c.String()}
	}
	if c, ok := s.registry.Active(); ok {
		res.Active = c.Name
	}
	return res
}

type calibrationAddArgs struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Overwrite bool    `json:"overwrite"`
	Activate  bool    `json:"activate"`
}

func (s *Server) handleCalibrationAdd(args json.RawMessage) (interface{}, error) {
	var a calibrationAddArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	c := calibration.Calibration{Name: strings.TrimSpace(a.Name), Value: calibration.RoundRatio(a.Value)}
	if err := s.registry.Add(c, a.Overwrite); err != nil {
		return nil, err
	}
	if a.Activate {
		if err := s.registry.SetActive(c.Name); err != nil {
			return nil, err
		}
	}
	return s.calibrationList(), nil
}

type nameArgs struct {
	Name string `json:"name"`
}

func (s *Server) handleCalibrationRemove(args json.RawMessage) (interface{}, error) {
	var a nameArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.registry.Remove(a.Name); err != nil {
		return nil, err
	}
	return s.calibrationList(), nil
}

func (s *Server) handleCalibrationActivate(args json.RawMessage) (interface{}, error) {
	var a nameArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.registry.SetActive(a.Name); err != nil {
		return nil, err
	}
	return s.calibrationList(), nil
}

type calibrationImportArgs struct {
	Path string `json:"path"`
	JSON string `json:"json"`
}

func (s *Server) handleCalibrationImport(args json.RawMessage) (interface{}, error) {
	var a calibrationImportArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var data []byte
	switch {
	case a.Path != "":
		b, err := os.ReadFile(a.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		data = b
	case a.JSON != "":
		data = []byte(a.JSON)
	default:
		return nil, errors.New("path or json is required")
	}

	if err := s.registry.Import(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return s.calibrationList(), nil
}

func (s *Server) handleCalibrationExport(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.registry.Export(&buf); err != nil {
		return nil, fmt.Errorf("failed to export calibrations: %w", err)
	}
	if a.Path == "" {
		return map[string]interface{}{"json": buf.String(), "count": len(s.registry.List())}, nil
	}
	if err := os.WriteFile(a.Path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	return map[string]interface{}{"path": a.Path, "count": len(s.registry.List())}, nil
}

func (s *Server) handleCalibrationReset() (interface{}, error) {
	if err := s.registry.Reset(); err != nil {
		return nil, err
	}
	return s.calibrationList(), nil
}

// === Statistics Handlers ===

type statsHistogramArgs struct {
	Bins     int     `json:"bins"`
	WidthIn  float64 `json:"width_in"`
	HeightIn float64 `json:"height_in"`
}

type histogramResult struct {
	Count       int    `json:"count"`
	Unit        string `json:"unit"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

func (s *Server) handleStatsHistogram(args json.RawMessage) (interface{}, error) {
	var a statsHistogramArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	ratio, unit, _ := s.calibratedRatio()
	blobs := s.session.Blobs()

	var buf bytes.Buffer
	err := stats.WriteHistogram(&buf, blobs, ratio, stats.HistogramOptions{
		Bins:   a.Bins,
		Width:  vg.Length(a.WidthIn) * vg.Inch,
		Height: vg.Length(a.HeightIn) * vg.Inch,
		Unit:   unit,
	})
	if err != nil {
		return nil, err
	}
	return histogramResult{
		Count:       len(blobs),
		Unit:        unit,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// === Detection Handlers ===

type detectBlobsArgs struct {
	Threshold      *int     `json:"threshold"`
	Invert         *bool    `json:"invert"`
	BlurRadius     *float64 `json:"blur_radius"`
	MinArea        *int     `json:"min_area"`
	MaxArea        *int     `json:"max_area"`
	MinCircularity *float64 `json:"min_circularity"`
	Merge          *bool    `json:"merge"`
}

func (a detectBlobsArgs) params(base detection.Params) (detection.Params, error) {
	p := base
	if a.Threshold != nil {
		if *a.Threshold < 1 || *a.Threshold > 255 {
			return p, fmt.Errorf("threshold must be between 1 and 255, got %d", *a.Threshold)
		}
		p.Threshold = uint8(*a.Threshold)
	}
	if a.Invert != nil {
		p.Invert = *a.Invert
	}
	if a.BlurRadius != nil {
		p.BlurRadius = *a.BlurRadius
	}
	if a.MinArea != nil {
		p.MinArea = *a.MinArea
	}
	if a.MaxArea != nil {
		p.MaxArea = *a.MaxArea
	}
	if a.MinCircularity != nil {
		p.MinCircularity = *a.MinCircularity
	}
	return p, nil
}

type detectBlobsResult struct {
	Count      int                   `json:"count"`
	Candidates []detection.Candidate `json:"candidates"`
	Merged     []geometry.Blob       `json:"merged,omitempty"`
	Params     detection.Params      `json:"params"`
}

func (s *Server) handleDetectBlobs(args json.RawMessage) (interface{}, error) {
	var a detectBlobsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	params, err := a.params(s.cfg.GetDetectionParams())
	if err != nil {
		return nil, err
	}
	img, err := s.activeImage()
	if err != nil {
		return nil, err
	}

	candidates, err := detection.Run(img, params)
	if err != nil {
		return nil, err
	}
	res := detectBlobsResult{Count: len(candidates), Candidates: candidates, Params: params}
	if boolOr(a.Merge, true) {
		res.Merged = s.session.MergeDetected(detection.Blobs(candidates))
	}
	return res, nil
}

type scalebarReadArgs struct {
	X1       int    `json:"x1"`
	Y1       int    `json:"y1"`
	X2       int    `json:"x2"`
	Y2       int    `json:"y2"`
	Language string `json:"language"`
	SaveAs   string `json:"save_as"`
}

type scalebarReadResult struct {
	*ocr.ScaleBarResult
	Calibration *calibration.Calibration `json:"calibration,omitempty"`
}

func (s *Server) handleScalebarRead(args json.RawMessage) (interface{}, error) {
	var a scalebarReadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = s.cfg.GetOCRLanguage()
	}
	img, err := s.activeImage()
	if err != nil {
		return nil, err
	}

	sb, err := ocr.ReadScaleBar(img, image.Rect(a.X1, a.Y1, a.X2, a.Y2), a.Language)
	if err != nil {
		return nil, err
	}
	res := scalebarReadResult{ScaleBarResult: sb}
	if name := strings.TrimSpace(a.SaveAs); name != "" {
		c := calibration.Calibration{Name: name, Value: calibration.RoundRatio(sb.Ratio)}
		if err := s.registry.Add(c, false); err != nil {
			return nil, err
		}
		res.Calibration = &c
	}
	return res, nil
}

// === Preferences Handlers ===

type preferencesSetArgs struct {
	BackgroundColor *string `json:"background_color"`
	ScaleBarColor   *string `json:"scale_bar_color"`
	Notes           *string `json:"notes"`
}

func (s *Server) handlePreferencesSet(args json.RawMessage) (interface{}, error) {
	var a preferencesSetArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	prefs := s.prefs
	if a.BackgroundColor != nil {
		prefs.BackgroundColor = *a.BackgroundColor
	}
	if a.ScaleBarColor != nil {
		prefs.ScaleBarColor = *a.ScaleBarColor
	}
	if a.Notes != nil {
		prefs.Notes = *a.Notes
	}
	saved, err := store.SavePreferences(s.store, prefs)
	if err != nil {
		return nil, err
	}
	s.prefs = saved
	return saved, nil
}
