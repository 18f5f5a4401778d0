// Package ontology holds the fixed Segmonto-derived zone and line taxonomy
// used to classify annotations, plus the resolution logic that maps raw
// detector class names onto it.
package ontology

// Family separates region-scale classifications from text-line-scale ones.
type Family string

const (
	FamilyZone Family = "zone"
	FamilyLine Family = "line"
)

// Entry pairs an ontology code with its human-readable label.
type Entry struct {
	Code  string
	Label string
}

// ZoneTypes is the built-in zone-family code list.
var ZoneTypes = []Entry{
	{"CustomZone", "Custom Zone"},
	{"DamageZone", "Damage Zone"},
	{"DigitizationArtefactZone", "Digitization Artefact Zone"},
	{"DropCapitalZone", "Drop Capital Zone"},
	{"GraphicZone", "Graphic Zone"},
	{"MainZone", "Main Zone"},
	{"MarginTextZone", "Margin Text Zone"},
	{"MusicZone", "Music Zone"},
	{"NumberingZone", "Numbering Zone"},
	{"QuireMarksZone", "Quire Marks Zone"},
	{"RunningTitleZone", "Running Title Zone"},
	{"SealZone", "Seal Zone"},
	{"StampZone", "Stamp Zone"},
	{"TableZone", "Table Zone"},
	{"TitlePageZone", "Title Page Zone"},
}

// LineTypes is the built-in line-family code list.
var LineTypes = []Entry{
	{"CustomLine", "Custom Line"},
	{"DefaultLine", "Default Line"},
	{"DropCapitalLine", "Drop Capital Line"},
	{"HeadingLine", "Heading Line"},
	{"InterlinearLine", "Interlinear Line"},
	{"MusicLine", "Music Line"},
}

// pageXMLMappings maps ontology codes to PageXML region element names.
var pageXMLMappings = map[string]string{
	"CustomZone":               "CustomRegion",
	"DamageZone":               "NoiseRegion",
	"DigitizationArtefactZone": "NoiseRegion",
	"DropCapitalZone":          "TextRegion",
	"GraphicZone":              "GraphicRegion",
	"MainZone":                 "TextRegion",
	"MarginTextZone":           "TextRegion",
	"MusicZone":                "MusicRegion",
	"NumberingZone":            "TextRegion",
	"QuireMarksZone":           "TextRegion",
	"RunningTitleZone":         "TextRegion",
	"SealZone":                 "ImageRegion",
	"StampZone":                "ImageRegion",
	"TableZone":                "TableRegion",
	"TitlePageZone":            "TextRegion",
	"CustomLine":               "TextLine",
	"DefaultLine":              "TextLine",
	"DropCapitalLine":          "TextLine",
	"HeadingLine":              "TextLine",
	"InterlinearLine":          "TextLine",
	"MusicLine":                "TextLine",
}

// DefaultEnabledZoneTypes is the zone subset enabled for a fresh profile.
var DefaultEnabledZoneTypes = []string{
	"MainZone", "GraphicZone", "TableZone", "DropCapitalZone",
	"MusicZone", "MarginTextZone", "CustomZone",
}

// DefaultEnabledLineTypes is the line subset enabled for a fresh profile.
var DefaultEnabledLineTypes = []string{
	"DefaultLine", "HeadingLine", "DropCapitalLine",
	"InterlinearLine", "CustomLine",
}

var (
	zoneCodes = codeSet(ZoneTypes)
	lineCodes = codeSet(LineTypes)
)

func codeSet(entries []Entry) map[string]bool {
	set := make(map[string]bool, len(entries))
	for _, e := range entries {
		set[e.Code] = true
	}
	return set
}

// IsBuiltin reports whether code belongs to the family's built-in list.
func IsBuiltin(code string, family Family) bool {
	if family == FamilyLine {
		return lineCodes[code]
	}
	return zoneCodes[code]
}

// PageXMLRegionType maps a classification to its PageXML region element
// name. Unknown or empty classifications get the caller's fallback
// ("TextRegion" or "UnknownRegion" depending on the call site).
func PageXMLRegionType(classification, fallback string) string {
	if t, ok := pageXMLMappings[classification]; ok {
		return t
	}
	return fallback
}
