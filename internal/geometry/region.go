package geometry

import (
	"encoding/json"
	"fmt"
)

// RegionType discriminates the two shapes an annotation can carry.
type RegionType string

const (
	RegionBBox    RegionType = "bbox"
	RegionPolygon RegionType = "polygon"
)

// Point is a single coordinate pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BBox is an axis-aligned rectangle anchored at its top-left corner.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Polygon is an ordered, closed point sequence. Simplicity (no
// self-intersection) is assumed, not enforced.
type Polygon struct {
	Points []Point `json:"points"`
}

// Region is the shape attached to an annotation: exactly one of BBox or
// Polygon is set, selected by Type. Regions are validated at construction,
// never at extraction time.
type Region struct {
	Type    RegionType
	BBox    *BBox
	Polygon *Polygon
}

// InvalidGeometryError reports a region that failed construction-time
// validation.
type InvalidGeometryError struct {
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("invalid geometry: %s", e.Reason)
}

// NewBBox validates and builds a bounding-box region. Origin must be
// non-negative and both dimensions strictly positive.
func NewBBox(x, y, width, height float64) (Region, error) {
	if x < 0 || y < 0 {
		return Region{}, &InvalidGeometryError{Reason: fmt.Sprintf("bbox origin must be non-negative, got (%g, %g)", x, y)}
	}
	if width <= 0 || height <= 0 {
		return Region{}, &InvalidGeometryError{Reason: fmt.Sprintf("bbox dimensions must be positive, got %gx%g", width, height)}
	}
	return Region{
		Type: RegionBBox,
		BBox: &BBox{X: x, Y: y, Width: width, Height: height},
	}, nil
}

// NewPolygon validates and builds a polygon region from at least 3 points.
func NewPolygon(points []Point) (Region, error) {
	if len(points) < 3 {
		return Region{}, &InvalidGeometryError{Reason: fmt.Sprintf("polygon needs at least 3 points, got %d", len(points))}
	}
	pts := make([]Point, len(points))
	copy(pts, points)
	return Region{
		Type:    RegionPolygon,
		Polygon: &Polygon{Points: pts},
	}, nil
}

// ParseRegion rebuilds a validated region from its stored form: the
// annotation_type discriminator plus the coordinates JSON payload
// ({"x":..,"y":..,"width":..,"height":..} or {"points":[...]}).
func ParseRegion(regionType RegionType, coordinates []byte) (Region, error) {
	switch regionType {
	case RegionBBox:
		var b BBox
		if err := json.Unmarshal(coordinates, &b); err != nil {
			return Region{}, &InvalidGeometryError{Reason: fmt.Sprintf("bad bbox coordinates: %v", err)}
		}
		return NewBBox(b.X, b.Y, b.Width, b.Height)
	case RegionPolygon:
		var p Polygon
		if err := json.Unmarshal(coordinates, &p); err != nil {
			return Region{}, &InvalidGeometryError{Reason: fmt.Sprintf("bad polygon coordinates: %v", err)}
		}
		return NewPolygon(p.Points)
	default:
		return Region{}, &InvalidGeometryError{Reason: fmt.Sprintf("unknown region type %q", regionType)}
	}
}

// CoordinatesJSON serializes the shape payload without the discriminator,
// matching the stored coordinates column and the JSON export format.
func (r Region) CoordinatesJSON() ([]byte, error) {
	switch r.Type {
	case RegionBBox:
		return json.Marshal(r.BBox)
	case RegionPolygon:
		return json.Marshal(r.Polygon)
	default:
		return nil, &InvalidGeometryError{Reason: fmt.Sprintf("unknown region type %q", r.Type)}
	}
}

// Outline returns the region's boundary as an ordered point list. For a
// bbox the corners are emitted clockwise from top-left, which is also the
// order PageXML Coords expect.
func (r Region) Outline() []Point {
	switch r.Type {
	case RegionBBox:
		b := r.BBox
		return []Point{
			{X: b.X, Y: b.Y},
			{X: b.X + b.Width, Y: b.Y},
			{X: b.X + b.Width, Y: b.Y + b.Height},
			{X: b.X, Y: b.Y + b.Height},
		}
	case RegionPolygon:
		pts := make([]Point, len(r.Polygon.Points))
		copy(pts, r.Polygon.Points)
		return pts
	}
	return nil
}

// BoundingBox returns the axis-aligned extent of the region.
func (r Region) BoundingBox() BBox {
	if r.Type == RegionBBox {
		return *r.BBox
	}
	pts := r.Polygon.Points
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return BBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// BBoxFromPoints collapses a point list into its axis-aligned extrema.
// Used when a bbox annotation comes back from PageXML as four corners.
func BBoxFromPoints(points []Point) (Region, error) {
	if len(points) < 3 {
		return Region{}, &InvalidGeometryError{Reason: fmt.Sprintf("need at least 3 points to recover a bbox, got %d", len(points))}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := points[0].X, points[0].Y
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return NewBBox(minX, minY, maxX-minX, maxY-minY)
}
