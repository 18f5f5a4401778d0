package ontology

import "strings"

// UserContext carries the per-user ontology state consulted during
// resolution: which codes the user enabled and their custom detector-class
// remap table.
type UserContext struct {
	EnabledZoneTypes        []string
	EnabledLineTypes        []string
	CustomDetectionMappings map[string]string
}

// DefaultUserContext returns the context a fresh profile starts with.
func DefaultUserContext() UserContext {
	return UserContext{
		EnabledZoneTypes:        append([]string(nil), DefaultEnabledZoneTypes...),
		EnabledLineTypes:        append([]string(nil), DefaultEnabledLineTypes...),
		CustomDetectionMappings: map[string]string{},
	}
}

// fallbackMappings is the heuristic table consulted after user overrides.
// Keys are lowercased with spaces collapsed to underscores.
var fallbackMappings = map[string]string{
	"text":        "MainZone",
	"paragraph":   "MainZone",
	"main":        "MainZone",
	"table":       "TableZone",
	"image":       "GraphicZone",
	"figure":      "GraphicZone",
	"picture":     "GraphicZone",
	"graphic":     "GraphicZone",
	"title":       "RunningTitleZone",
	"header":      "RunningTitleZone",
	"margin":      "MarginTextZone",
	"marginalia":  "MarginTextZone",
	"number":      "NumberingZone",
	"page_number": "NumberingZone",
	"stamp":       "StampZone",
	"seal":        "SealZone",
	"music":       "MusicZone",
	"damage":      "DamageZone",
	"line":        "DefaultLine",
	"text_line":   "DefaultLine",
	"baseline":    "DefaultLine",
	"heading":     "HeadingLine",
}

// Resolve maps a raw detector class name onto an ontology code. The
// resolution order is fixed: built-in exact match, then the user's custom
// mapping, then the user's enabled custom zones, then the normalized
// fallback table, then the family default. Built-in matches outrank user
// overrides so a custom mapping can never shadow a canonical code.
func Resolve(rawCode string, family Family, user UserContext) string {
	if IsBuiltin(rawCode, family) {
		return rawCode
	}
	if mapped, ok := user.CustomDetectionMappings[rawCode]; ok {
		return mapped
	}
	if family == FamilyZone {
		for _, code := range user.EnabledZoneTypes {
			if code == rawCode {
				return rawCode
			}
		}
	}
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(rawCode)), " ", "_")
	if mapped, ok := fallbackMappings[normalized]; ok {
		return mapped
	}
	if family == FamilyLine {
		return "DefaultLine"
	}
	return "CustomZone"
}

// lineKeywords flag raw detector classes that describe text lines rather
// than zones.
var lineKeywords = []string{"line", "baseline", "row"}

// ClassifyRegionType decides whether a raw detection is a zone or a line,
// ahead of ontology resolution: keyword match on the class name first, then
// an aspect-ratio heuristic (wide and short means line), defaulting to zone.
func ClassifyRegionType(rawClass string, width, height float64) Family {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(rawClass)), " ", "_")
	for _, kw := range lineKeywords {
		if strings.Contains(normalized, kw) {
			return FamilyLine
		}
	}
	if height > 0 && width/height > 3.0 {
		return FamilyLine
	}
	return FamilyZone
}
