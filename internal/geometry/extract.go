package geometry

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"sort"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ExtractRegion crops the region out of the source image and returns it
// PNG-encoded. BBox regions are clipped to the image bounds rather than
// failing. Polygon regions are cut out with an even-odd binary mask applied
// as alpha, then cropped to the mask's tight bounding box; the result keeps
// its alpha channel.
func ExtractRegion(imageData []byte, region Region) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("while decoding source image: %w", err)
	}

	var out image.Image
	switch region.Type {
	case RegionBBox:
		out, err = cropBBox(src, *region.BBox)
	case RegionPolygon:
		out, err = cropPolygon(src, region.Polygon.Points)
	default:
		err = &InvalidGeometryError{Reason: fmt.Sprintf("unknown region type %q", region.Type)}
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("while encoding region crop: %w", err)
	}
	return buf.Bytes(), nil
}

func cropBBox(src image.Image, b BBox) (image.Image, error) {
	rect := image.Rect(
		int(math.Floor(b.X)),
		int(math.Floor(b.Y)),
		int(math.Ceil(b.X+b.Width)),
		int(math.Ceil(b.Y+b.Height)),
	).Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("bbox %gx%g at (%g, %g) lies entirely outside the image", b.Width, b.Height, b.X, b.Y)
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
	return dst, nil
}

func cropPolygon(src image.Image, points []Point) (image.Image, error) {
	bounds := src.Bounds()

	ext := polygonExtent(points)
	rect := image.Rect(
		int(math.Floor(ext.X)),
		int(math.Floor(ext.Y)),
		int(math.Ceil(ext.X+ext.Width)),
		int(math.Ceil(ext.Y+ext.Height)),
	).Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("polygon lies entirely outside the image")
	}

	dst := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		spans := scanlineSpans(points, float64(y)+0.5)
		for i := 0; i+1 < len(spans); i += 2 {
			x0 := int(math.Ceil(spans[i] - 0.5))
			x1 := int(math.Floor(spans[i+1] - 0.5))
			if x0 < rect.Min.X {
				x0 = rect.Min.X
			}
			if x1 >= rect.Max.X {
				x1 = rect.Max.X - 1
			}
			for x := x0; x <= x1; x++ {
				dst.Set(x-rect.Min.X, y-rect.Min.Y, src.At(x, y))
			}
		}
	}
	return dst, nil
}

// scanlineSpans returns the sorted x coordinates where the polygon boundary
// crosses the horizontal line at y. Pairs of crossings delimit interior
// spans under the even-odd rule.
func scanlineSpans(points []Point, y float64) []float64 {
	var xs []float64
	n := len(points)
	for i := 0; i < n; i++ {
		a := points[i]
		b := points[(i+1)%n]
		if (a.Y <= y && b.Y > y) || (b.Y <= y && a.Y > y) {
			t := (y - a.Y) / (b.Y - a.Y)
			xs = append(xs, a.X+t*(b.X-a.X))
		}
	}
	sort.Float64s(xs)
	return xs
}

func polygonExtent(points []Point) BBox {
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := points[0].X, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return BBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
