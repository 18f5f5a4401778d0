// Package pagexml models the PageXML interchange format: the element
// tree, the Coords points encoding, and the custom-attribute codec that
// carries fields PageXML has no native slot for.
package pagexml

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/lewtec/transcritor/internal/geometry"
)

// Namespace is the PAGE content schema this package reads and writes.
const Namespace = "http://schema.primaresearch.org/PAGE/gts/pagecontent/2013-07-15"

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// PcGts is the document root.
type PcGts struct {
	XMLName  xml.Name `xml:"PcGts"`
	Xmlns    string   `xml:"xmlns,attr"`
	Metadata Metadata `xml:"Metadata"`
	Pages    []Page   `xml:"Page"`
}

// Metadata carries the export provenance block.
type Metadata struct {
	Creator    string `xml:"Creator"`
	Created    string `xml:"Created"`
	LastChange string `xml:"LastChange"`
	Comments   string `xml:"Comments,omitempty"`
}

// Page is one image with its regions. Regions capture every child
// element; unrecognized tags are filtered at walk time, not parse time.
type Page struct {
	ID            string   `xml:"id,attr,omitempty"`
	ImageFilename string   `xml:"imageFilename,attr"`
	ImageWidth    int      `xml:"imageWidth,attr"`
	ImageHeight   int      `xml:"imageHeight,attr"`
	Regions       []Region `xml:",any"`
}

// Region is one layout region. The element tag name (TextRegion,
// TableRegion, ...) lives in XMLName.
type Region struct {
	XMLName        xml.Name
	ID             string          `xml:"id,attr"`
	Custom         string          `xml:"custom,attr,omitempty"`
	Coords         Coords          `xml:"Coords"`
	TextLines      []TextLine      `xml:"TextLine"`
	UserAttributes []UserAttribute `xml:"UserAttribute"`
}

// Coords holds the space-separated "x,y" point list.
type Coords struct {
	Points string `xml:"points,attr"`
}

// TextLine holds one line of recognized text.
type TextLine struct {
	ID        string    `xml:"id,attr,omitempty"`
	Coords    Coords    `xml:"Coords"`
	TextEquiv TextEquiv `xml:"TextEquiv"`
}

// TextEquiv wraps the Unicode text node.
type TextEquiv struct {
	Unicode string `xml:"Unicode"`
}

// UserAttribute is a free-form name/value pair; the export codec uses
// one named "metadata" to round-trip the annotation metadata map.
type UserAttribute struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// recognizedRegions are the tags the import walk accepts.
var recognizedRegions = map[string]bool{
	"TextRegion":        true,
	"GraphicRegion":     true,
	"ImageRegion":       true,
	"LineDrawingRegion": true,
	"ChartRegion":       true,
	"TableRegion":       true,
	"CustomRegion":      true,
}

// IsRecognizedRegion reports whether tag is a region element the import
// walk should visit.
func IsRecognizedRegion(tag string) bool {
	return recognizedRegions[tag]
}

// Marshal renders the document with the XML declaration prepended.
func Marshal(doc *PcGts) ([]byte, error) {
	if doc.Xmlns == "" {
		doc.Xmlns = Namespace
	}
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("while rendering page XML: %w", err)
	}
	return append([]byte(xmlHeader), body...), nil
}

// Unmarshal parses a PageXML document.
func Unmarshal(data []byte) (*PcGts, error) {
	var doc PcGts
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("while parsing page XML: %w", err)
	}
	return &doc, nil
}

// FormatPoints renders a point list as "x1,y1 x2,y2 ...". Coordinates
// use the shortest float form so integral values stay integral.
func FormatPoints(points []geometry.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = formatCoord(p.X) + "," + formatCoord(p.Y)
	}
	return strings.Join(parts, " ")
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParsePoints recovers a point list from a Coords points attribute:
// whitespace-separated pairs, each comma-separated.
func ParsePoints(s string) ([]geometry.Point, error) {
	fields := strings.Fields(s)
	points := make([]geometry.Point, 0, len(fields))
	for _, field := range fields {
		xy := strings.SplitN(field, ",", 2)
		if len(xy) != 2 {
			return nil, fmt.Errorf("malformed coordinate pair %q", field)
		}
		x, err := strconv.ParseFloat(xy[0], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed coordinate pair %q: %w", field, err)
		}
		y, err := strconv.ParseFloat(xy[1], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed coordinate pair %q: %w", field, err)
		}
		points = append(points, geometry.Point{X: x, Y: y})
	}
	return points, nil
}

// customOrder fixes the key order of the custom attribute so exports are
// byte-stable.
var customOrder = []string{"annotation_type", "classification", "label", "reading_order"}

// EncodeCustom renders the custom attribute string "key:value;key:value".
// Known keys come first in fixed order; anything else is dropped since
// the metadata map travels in its own UserAttribute. Semicolons inside
// values are escaped so a free-text label cannot split into a bogus
// segment.
func EncodeCustom(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for _, key := range customOrder {
		if value, ok := fields[key]; ok && value != "" {
			parts = append(parts, key+":"+escapeCustomValue(value))
		}
	}
	return strings.Join(parts, ";")
}

// ParseCustom splits a custom attribute string back into its fields.
// Segments without a colon are ignored; values keep any embedded colons.
func ParseCustom(s string) map[string]string {
	fields := map[string]string{}
	for _, segment := range strings.Split(s, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		key, value, ok := strings.Cut(segment, ":")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(key)] = unescapeCustomValue(strings.TrimSpace(value))
	}
	return fields
}

// escapeCustomValue hides the segment separator inside values. "%" is
// escaped first so decoding stays unambiguous.
func escapeCustomValue(v string) string {
	v = strings.ReplaceAll(v, "%", "%25")
	return strings.ReplaceAll(v, ";", "%3B")
}

func unescapeCustomValue(v string) string {
	v = strings.ReplaceAll(v, "%3B", ";")
	return strings.ReplaceAll(v, "%25", "%")
}
