package importer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lewtec/transcritor/internal/geometry"
	"github.com/lewtec/transcritor/internal/pagexml"
)

// PageAnnotation is one annotation recovered from a PageXML region,
// ready to persist. Text is the newline-joined line content; empty means
// no transcription record gets created.
type PageAnnotation struct {
	Region         geometry.Region
	Classification string
	Label          string
	ReadingOrder   int
	Metadata       map[string]any
	Text           string
}

// ParsePageAnnotations walks every recognized region element of a
// PageXML document and recovers the annotations embedded in it. Regions
// with fewer than 3 coordinate points or unparsable geometry are
// reported in skipped and left out; only a document that fails to parse
// at all returns an error.
func ParsePageAnnotations(data []byte) ([]PageAnnotation, []string, error) {
	doc, err := pagexml.Unmarshal(data)
	if err != nil {
		return nil, nil, &ParseError{Reason: err.Error()}
	}

	var (
		annotations []PageAnnotation
		skipped     []string
	)
	counter := 0
	for _, page := range doc.Pages {
		for _, region := range page.Regions {
			if !pagexml.IsRecognizedRegion(region.XMLName.Local) {
				continue
			}
			counter++
			ann, reason := parseRegion(region, counter)
			if reason != "" {
				skipped = append(skipped, fmt.Sprintf("region %s: %s", region.ID, reason))
				continue
			}
			annotations = append(annotations, *ann)
		}
	}
	return annotations, skipped, nil
}

// parseRegion recovers one annotation. A non-empty reason means the
// region should be skipped.
func parseRegion(region pagexml.Region, counter int) (*PageAnnotation, string) {
	points, err := pagexml.ParsePoints(region.Coords.Points)
	if err != nil {
		return nil, err.Error()
	}
	if len(points) < 3 {
		return nil, fmt.Sprintf("only %d coordinate points", len(points))
	}

	custom := pagexml.ParseCustom(region.Custom)
	annotationType := custom["annotation_type"]
	if annotationType == "" {
		annotationType = string(geometry.RegionPolygon)
	}
	classification := custom["classification"]
	if classification == "" {
		classification = "text_region"
	}
	readingOrder := counter
	if raw, ok := custom["reading_order"]; ok {
		if parsed, err := strconv.Atoi(raw); err == nil {
			readingOrder = parsed
		}
	}

	var geom geometry.Region
	if annotationType == string(geometry.RegionBBox) {
		geom, err = geometry.BBoxFromPoints(points)
	} else {
		geom, err = geometry.NewPolygon(points)
	}
	if err != nil {
		return nil, err.Error()
	}

	ann := &PageAnnotation{
		Region:         geom,
		Classification: classification,
		Label:          custom["label"],
		ReadingOrder:   readingOrder,
		Text:           regionText(region),
	}
	for _, attr := range region.UserAttributes {
		if attr.Name != "metadata" {
			continue
		}
		var metadata map[string]any
		if err := json.Unmarshal([]byte(attr.Value), &metadata); err == nil {
			ann.Metadata = metadata
		}
	}
	return ann, ""
}

// regionText joins the text of every line in document order.
func regionText(region pagexml.Region) string {
	var lines []string
	for _, line := range region.TextLines {
		lines = append(lines, line.TextEquiv.Unicode)
	}
	return strings.Join(lines, "\n")
}
