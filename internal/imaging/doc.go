// Package imaging loads micrograph images and renders measurement output.
//
// Coordinates are image pixels with (0,0) at the top-left corner, X growing
// rightward and Y growing downward. This is the same space the session
// stores points and blobs in, so overlays need no further transform.
//
// ImageCache is safe for concurrent use. Rendering functions never modify
// the source image; they draw on a copy and return it PNG-encoded as
// base64 so it can be embedded in an MCP tool result.
package imaging
