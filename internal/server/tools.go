package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var emptySchema = map[string]interface{}{
	"type":       "object",
	"properties": map[string]interface{}{},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image
		{
			Name:        "image_load",
			Description: "Load a micrograph and make it the active image. Discards the measurement in progress and every blob, and resets pan/zoom.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file (PNG, JPEG, GIF, TIFF, BMP)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_overlay",
			Description: "Render the active image with every blob, the line in progress and a scale bar for the active calibration. Returns a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"label_blobs": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw the 1-based blob index next to each blob. Default true",
						"default":     true,
					},
					"highlight": map[string]interface{}{
						"type":        "string",
						"description": "ID of a blob to draw with thicker lines",
					},
					"scale_bar": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw a scale bar when a calibration is active. Default true",
						"default":     true,
					},
					"line_width": map[string]interface{}{
						"type":        "integer",
						"description": "Stroke width in pixels. Default 2",
						"default":     2,
					},
				},
			},
		},
		{
			Name:        "blob_crop",
			Description: "Crop the area around one blob and return it as a base64-encoded PNG for close inspection.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Blob ID from session_state",
					},
					"margin": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels added on every side of the blob. Default 10",
						"default":     10,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor for the crop. Default 4.0",
						"default":     4.0,
					},
				},
				"required": []string{"id"},
			},
		},

		// Session
		{
			Name:        "session_click",
			Description: "Place the next point. Points 1-2 draw the first axis; point 3 must lie between the perpendiculars of the first axis; point 4 is snapped perpendicular to the first axis and must cross it. In calibrate mode the second point requests a calibration. Coordinates are in view space, which equals image pixels until the view is panned or zoomed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "number",
						"description": "X coordinate",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Y coordinate",
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "session_move",
			Description: "Move the pointer. Updates and returns the line being drawn, if any.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "number",
						"description": "X coordinate",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Y coordinate",
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "session_right_click",
			Description: "Undo the second axis in progress (or clear a first axis), then delete every blob that contains the point.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "number",
						"description": "X coordinate",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Y coordinate",
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "session_state",
			Description: "Return the mode, phase, points, lines, blobs, pending calibration request, view and active calibration.",
			InputSchema: emptySchema,
		},
		{
			Name:        "session_set_mode",
			Description: "Switch between measuring spores and drawing a calibration reference. Discards the measurement in progress.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"measure", "calibrate"},
						"description": "New mode",
					},
				},
				"required": []string{"mode"},
			},
		},
		{
			Name:        "session_reset",
			Description: "Discard the measurement in progress and every blob.",
			InputSchema: emptySchema,
		},
		{
			Name:        "session_clear_blobs",
			Description: "Delete every blob but keep the measurement in progress.",
			InputSchema: emptySchema,
		},
		{
			Name:        "session_delete_blob",
			Description: "Delete one blob by ID.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Blob ID from session_state",
					},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "session_save",
			Description: "Write the blobs to a JSON file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of the JSON file to write",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "session_load",
			Description: "Replace the blobs with those in a JSON file written by session_save.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of the JSON file to read",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "session_export_csv",
			Description: "Export one CSV row per blob with both axis lengths, in µm when a calibration is active. Writes to path if given, otherwise returns the CSV text.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Optional absolute path of the CSV file to write",
					},
				},
			},
		},

		// View
		{
			Name:        "view_pan",
			Description: "Drag the view so the image point under (from_x, from_y) ends up under (to_x, to_y).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"from_x": map[string]interface{}{"type": "number", "description": "Drag start X"},
					"from_y": map[string]interface{}{"type": "number", "description": "Drag start Y"},
					"to_x":   map[string]interface{}{"type": "number", "description": "Drag end X"},
					"to_y":   map[string]interface{}{"type": "number", "description": "Drag end Y"},
				},
				"required": []string{"from_x", "from_y", "to_x", "to_y"},
			},
		},
		{
			Name:        "view_zoom",
			Description: "Zoom about a view point. Each step scales by 1.1; negative steps zoom out.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "number",
						"description": "X coordinate to zoom about",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Y coordinate to zoom about",
					},
					"steps": map[string]interface{}{
						"type":        "number",
						"description": "Wheel steps. Default 1",
						"default":     1,
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "view_reset",
			Description: "Remove all pan and zoom.",
			InputSchema: emptySchema,
		},

		// Calibration
		{
			Name:        "calibration_resolve",
			Description: "Answer the pending calibration request with a name and the true length of the reference line in µm. A bad length, empty name or duplicate name leaves the request pending.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Calibration name, e.g. the objective",
					},
					"true_length": map[string]interface{}{
						"type":        "number",
						"description": "Length of the reference line in µm",
					},
					"overwrite": map[string]interface{}{
						"type":        "boolean",
						"description": "Replace an existing calibration with the same name. Default false",
						"default":     false,
					},
					"activate": map[string]interface{}{
						"type":        "boolean",
						"description": "Make the new calibration active. Default false",
						"default":     false,
					},
				},
				"required": []string{"name", "true_length"},
			},
		},
		{
			Name:        "calibration_cancel",
			Description: "Abandon the pending calibration request.",
			InputSchema: emptySchema,
		},
		{
			Name:        "calibration_list",
			Description: "List stored calibrations and the active one.",
			InputSchema: emptySchema,
		},
		{
			Name:        "calibration_add",
			Description: "Store a calibration with a known px/µm ratio.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Calibration name",
					},
					"value": map[string]interface{}{
						"type":        "number",
						"description": "Pixels per µm",
					},
					"overwrite": map[string]interface{}{
						"type":        "boolean",
						"description": "Replace an existing calibration with the same name. Default false",
						"default":     false,
					},
					"activate": map[string]interface{}{
						"type":        "boolean",
						"description": "Make it the active calibration. Default false",
						"default":     false,
					},
				},
				"required": []string{"name", "value"},
			},
		},
		{
			Name:        "calibration_remove",
			Description: "Delete a calibration. Removing the active one leaves no calibration active.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Calibration name",
					},
				},
				"required": []string{"name"},
			},
		},
		{
			Name:        "calibration_activate",
			Description: "Select the calibration used for statistics, CSV export and the scale bar. An empty name deactivates.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Calibration name, or empty for none",
					},
				},
				"required": []string{"name"},
			},
		},
		{
			Name:        "calibration_import",
			Description: "Replace every calibration with a JSON array of {name, value}, read from path or given inline.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of a JSON file",
					},
					"json": map[string]interface{}{
						"type":        "string",
						"description": "Inline JSON, used when path is empty",
					},
				},
			},
		},
		{
			Name:        "calibration_export",
			Description: "Export every calibration as a JSON array. Writes to path if given, otherwise returns the JSON.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Optional absolute path of the JSON file to write",
					},
				},
			},
		},
		{
			Name:        "calibration_reset",
			Description: "Delete every calibration.",
			InputSchema: emptySchema,
		},

		// Statistics
		{
			Name:        "stats_summary",
			Description: "Count, mean, min, max, range and population standard deviation of both axes, in µm when a calibration is active.",
			InputSchema: emptySchema,
		},
		{
			Name:        "stats_histogram",
			Description: "Plot a histogram of both axis lengths. Returns a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"bins": map[string]interface{}{
						"type":        "integer",
						"description": "Number of bins. Default 10",
						"default":     10,
					},
					"width_in": map[string]interface{}{
						"type":        "number",
						"description": "Plot width in inches. Default 8",
						"default":     8,
					},
					"height_in": map[string]interface{}{
						"type":        "number",
						"description": "Plot height in inches. Default 4",
						"default":     4,
					},
				},
			},
		},

		// Detection
		{
			Name:        "detect_blobs",
			Description: "Find spores automatically and measure their principal axes. By default the results replace earlier detections in the session; hand-drawn blobs are kept.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Luminance threshold 1-255. Default from config (128)",
					},
					"invert": map[string]interface{}{
						"type":        "boolean",
						"description": "Spores are lighter than the background",
					},
					"blur_radius": map[string]interface{}{
						"type":        "number",
						"description": "Gaussian blur radius before thresholding. Negative disables",
					},
					"min_area": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum spore area in pixels",
					},
					"max_area": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum spore area in pixels, 0 for no limit",
					},
					"min_circularity": map[string]interface{}{
						"type":        "number",
						"description": "Minimum 4πA/P², 0-1",
					},
					"merge": map[string]interface{}{
						"type":        "boolean",
						"description": "Add the detections to the session. Default true",
						"default":     true,
					},
				},
			},
		},
		{
			Name:        "scalebar_read",
			Description: "Read the scale bar printed on the image: OCR the label and measure the bar. Optionally stores the result as a calibration.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge of the region holding the bar and label",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Right edge (exclusive)",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Bottom edge (exclusive)",
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Default from config (eng)",
					},
					"save_as": map[string]interface{}{
						"type":        "string",
						"description": "Store the ratio as a calibration with this name",
					},
				},
			},
		},

		// Preferences
		{
			Name:        "preferences_get",
			Description: "Return the display preferences.",
			InputSchema: emptySchema,
		},
		{
			Name:        "preferences_set",
			Description: "Update display preferences. Omitted fields keep their value.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"background_color": map[string]interface{}{
						"type":        "string",
						"description": "Hex colour such as #1e1e1e",
					},
					"scale_bar_color": map[string]interface{}{
						"type":        "string",
						"description": "Hex colour such as #ffffff",
					},
					"notes": map[string]interface{}{
						"type":        "string",
						"description": "Free text",
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
