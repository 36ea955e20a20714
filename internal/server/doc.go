// Package server implements the MCP (Model Context Protocol) server for
// spore measurement.
//
// The server keeps one measurement session over one loaded micrograph. A
// client drives it with pointer events (click, move, right click) in view
// coordinates, exactly as a mouse would drive the desktop tool, and reads
// back rendered overlays, statistics and CSV.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Tools
//
// Image:
//   - image_load: Load a micrograph and start a fresh session
//   - image_overlay: Render points, lines, blobs and scale bar as PNG
//   - blob_crop: Magnified crop around one blob
//
// Session:
//   - session_click, session_move, session_right_click: Pointer events
//   - session_state, session_set_mode, session_reset
//   - session_clear_blobs, session_delete_blob, session_save, session_load, session_export_csv
//
// View:
//   - view_pan, view_zoom, view_reset
//
// Calibration:
//   - calibration_resolve, calibration_cancel: Answer a calibration request
//   - calibration_list, calibration_add, calibration_remove
//   - calibration_activate, calibration_import, calibration_export
//   - calibration_reset
//
// Statistics and detection:
//   - stats_summary, stats_histogram
//   - detect_blobs: Threshold-based automatic detection
//   - scalebar_read: OCR of an embedded scale bar
//
// Preferences:
//   - preferences_get, preferences_set
//
// # Notifications
//
// Session events (blob completed, blobs deleted, click rejected,
// calibration requested/created/cancelled, reset) are sent as
// notifications/session_event after the response to the request that
// caused them. When image watching is enabled, rewriting the loaded image
// on disk sends notifications/image_changed.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A click rejected by a geometric check is not an error. It is returned as
// a normal result with "accepted": false and the failed gate.
//
// # Usage
//
//	srv, err := server.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
