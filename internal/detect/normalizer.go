// Package detect converts raw object-detector output into annotation
// drafts carrying validated geometry and resolved ontology classes.
package detect

import (
	"encoding/json"
	"fmt"

	"github.com/lewtec/transcritor/internal/geometry"
	"github.com/lewtec/transcritor/internal/ontology"
)

// Detection is one raw detector hit in center-coordinate form: X and Y
// name the box center, not its top-left corner.
type Detection struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// Response is the detector's reply envelope.
type Response struct {
	Predictions []Detection `json:"predictions"`
}

// Draft is a normalized detection, ready to be persisted as an
// annotation. The raw detector class and confidence travel in Metadata
// so resolution stays auditable after the fact.
type Draft struct {
	Region         geometry.Region
	Classification string
	Label          string
	ReadingOrder   int
	Metadata       map[string]any
}

// ParseResponse decodes a detector reply. A bare JSON array of
// detections is accepted as well as the {"predictions": [...]} envelope.
func ParseResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err == nil && resp.Predictions != nil {
		return &resp, nil
	}
	var bare []Detection
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("while decoding detector response: %w", err)
	}
	return &Response{Predictions: bare}, nil
}

// Normalize converts detections into annotation drafts: center
// coordinates become top-left boxes clipped to the image bounds, the raw
// class is classified zone-vs-line and resolved against the ontology.
// Detector order is preserved and nothing is deduplicated; overlap
// policy belongs to the caller. Detections that clip down to nothing are
// dropped, and the kept drafts are numbered 1..n.
func Normalize(resp *Response, imageWidth, imageHeight float64, user ontology.UserContext) []Draft {
	drafts := make([]Draft, 0, len(resp.Predictions))
	for _, det := range resp.Predictions {
		region, ok := clipToBounds(det, imageWidth, imageHeight)
		if !ok {
			continue
		}
		family := ontology.ClassifyRegionType(det.Class, det.Width, det.Height)
		code := ontology.Resolve(det.Class, family, user)
		drafts = append(drafts, Draft{
			Region:         region,
			Classification: code,
			Label:          det.Class,
			ReadingOrder:   len(drafts) + 1,
			Metadata: map[string]any{
				"detection_class":      det.Class,
				"detection_confidence": det.Confidence,
			},
		})
	}
	return drafts
}

// clipToBounds converts a center-form box to top-left form and clips it
// to [0, imageWidth] x [0, imageHeight]. Returns false when the clipped
// box has no area.
func clipToBounds(det Detection, imageWidth, imageHeight float64) (geometry.Region, bool) {
	left := det.X - det.Width/2
	top := det.Y - det.Height/2
	right := det.X + det.Width/2
	bottom := det.Y + det.Height/2

	left = max(left, 0)
	top = max(top, 0)
	if imageWidth > 0 {
		right = min(right, imageWidth)
	}
	if imageHeight > 0 {
		bottom = min(bottom, imageHeight)
	}
	if right <= left || bottom <= top {
		return geometry.Region{}, false
	}

	region, err := geometry.NewBBox(left, top, right-left, bottom-top)
	if err != nil {
		return geometry.Region{}, false
	}
	return region, true
}
