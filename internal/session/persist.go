package session

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/ironsheep/spore-measure-mcp/internal/geometry"
)

const documentVersion = 1

type blobDocument struct {
	Version int             `json:"version"`
	Blobs   []geometry.Blob `json:"blobs"`
}

// WriteBlobs saves the completed blobs as an indented JSON document.
func (s *Session) WriteBlobs(w io.Writer) error {
	doc := blobDocument{Version: documentVersion, Blobs: s.Blobs()}
	if doc.Blobs == nil {
		doc.Blobs = []geometry.Blob{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ReadBlobs loads a document written by WriteBlobs and replaces the blob
// collection. Axes are re-ordered so Line1 is the longer, and blobs without
// an ID get one. The measurement in progress is discarded.
func (s *Session) ReadBlobs(r io.Reader) (int, error) {
	blobs, err := DecodeBlobs(r)
	if err != nil {
		return 0, err
	}
	for i := range blobs {
		if blobs[i].ID == "" {
			blobs[i].ID = s.newID()
		}
	}
	s.request = nil
	s.clearInProgress()
	s.blobs = blobs
	return len(blobs), nil
}

// DecodeBlobs parses a blob document without a session.
func DecodeBlobs(r io.Reader) ([]geometry.Blob, error) {
	var doc blobDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse blob document: %w", err)
	}
	if doc.Version > documentVersion {
		return nil, fmt.Errorf("unsupported blob document version %d", doc.Version)
	}
	blobs := make([]geometry.Blob, 0, len(doc.Blobs))
	for _, b := range doc.Blobs {
		n := geometry.NewBlob(b.Line1, b.Line2)
		n.ID = b.ID
		n.Detected = b.Detected
		blobs = append(blobs, n)
	}
	return blobs, nil
}

// WriteCSV writes one row per blob with both axis lengths divided by ratio.
// A ratio of 0 is treated as 1.
func WriteCSV(w io.Writer, blobs []geometry.Blob, ratio float64, unit string) error {
	if ratio == 0 {
		ratio = 1
	}
	cw := csv.NewWriter(w)
	header := []string{"index", "id", "axis_a_" + unit, "axis_b_" + unit, "detected"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, b := range blobs {
		a, bb := b.Axes()
		row := []string{
			strconv.Itoa(i + 1),
			b.ID,
			strconv.FormatFloat(a/ratio, 'f', 3, 64),
			strconv.FormatFloat(bb/ratio, 'f', 3, 64),
			strconv.FormatBool(b.Detected),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
