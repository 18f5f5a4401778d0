package ontology

import "testing"

func TestResolve(t *testing.T) {
	user := DefaultUserContext()

	t.Run("built-in code passes through", func(t *testing.T) {
		if got := Resolve("MainZone", FamilyZone, user); got != "MainZone" {
			t.Errorf("Resolve(MainZone) = %q", got)
		}
		if got := Resolve("HeadingLine", FamilyLine, user); got != "HeadingLine" {
			t.Errorf("Resolve(HeadingLine) = %q", got)
		}
	})

	t.Run("built-in outranks custom mapping", func(t *testing.T) {
		u := DefaultUserContext()
		u.CustomDetectionMappings["MainZone"] = "CustomLine"
		if got := Resolve("MainZone", FamilyZone, u); got != "MainZone" {
			t.Errorf("Resolve(MainZone) = %q, want MainZone despite override", got)
		}
	})

	t.Run("custom mapping applies to unknown classes", func(t *testing.T) {
		u := DefaultUserContext()
		u.CustomDetectionMappings["handwriting"] = "MarginTextZone"
		if got := Resolve("handwriting", FamilyZone, u); got != "MarginTextZone" {
			t.Errorf("Resolve(handwriting) = %q, want MarginTextZone", got)
		}
	})

	t.Run("enabled custom zone name matches", func(t *testing.T) {
		u := DefaultUserContext()
		u.EnabledZoneTypes = append(u.EnabledZoneTypes, "RecipeZone")
		if got := Resolve("RecipeZone", FamilyZone, u); got != "RecipeZone" {
			t.Errorf("Resolve(RecipeZone) = %q, want RecipeZone", got)
		}
	})

	t.Run("fallback table normalizes case and spaces", func(t *testing.T) {
		cases := map[string]string{
			"Text":        "MainZone",
			"PAGE NUMBER": "NumberingZone",
			"figure":      "GraphicZone",
			" table ":     "TableZone",
		}
		for raw, want := range cases {
			if got := Resolve(raw, FamilyZone, user); got != want {
				t.Errorf("Resolve(%q) = %q, want %q", raw, got, want)
			}
		}
	})

	t.Run("unknown classes get the family default", func(t *testing.T) {
		if got := Resolve("xyzzy", FamilyZone, user); got != "CustomZone" {
			t.Errorf("Resolve(xyzzy, zone) = %q, want CustomZone", got)
		}
		if got := Resolve("xyzzy", FamilyLine, user); got != "DefaultLine" {
			t.Errorf("Resolve(xyzzy, line) = %q, want DefaultLine", got)
		}
	})
}

func TestClassifyRegionType(t *testing.T) {
	t.Run("line keywords win regardless of shape", func(t *testing.T) {
		if got := ClassifyRegionType("Text Line", 10, 100); got != FamilyLine {
			t.Errorf("ClassifyRegionType(Text Line) = %v, want line", got)
		}
		if got := ClassifyRegionType("baseline", 50, 50); got != FamilyLine {
			t.Errorf("ClassifyRegionType(baseline) = %v, want line", got)
		}
		if got := ClassifyRegionType("table_row", 50, 50); got != FamilyLine {
			t.Errorf("ClassifyRegionType(table_row) = %v, want line", got)
		}
	})

	t.Run("wide short boxes classify as lines", func(t *testing.T) {
		if got := ClassifyRegionType("text", 400, 100); got != FamilyLine {
			t.Errorf("ClassifyRegionType(400x100) = %v, want line", got)
		}
	})

	t.Run("everything else is a zone", func(t *testing.T) {
		if got := ClassifyRegionType("text", 300, 100); got != FamilyZone {
			t.Errorf("ClassifyRegionType(300x100) = %v, want zone", got)
		}
		if got := ClassifyRegionType("figure", 100, 0); got != FamilyZone {
			t.Errorf("zero height should not divide by zero, got %v", got)
		}
	})
}

func TestPageXMLRegionType(t *testing.T) {
	if got := PageXMLRegionType("MainZone", "TextRegion"); got != "TextRegion" {
		t.Errorf("PageXMLRegionType(MainZone) = %q", got)
	}
	if got := PageXMLRegionType("SealZone", "TextRegion"); got != "ImageRegion" {
		t.Errorf("PageXMLRegionType(SealZone) = %q, want ImageRegion", got)
	}
	if got := PageXMLRegionType("NotAZone", "UnknownRegion"); got != "UnknownRegion" {
		t.Errorf("PageXMLRegionType(NotAZone) = %q, want fallback", got)
	}
}

func TestIsBuiltin(t *testing.T) {
	if !IsBuiltin("TableZone", FamilyZone) {
		t.Error("TableZone should be a built-in zone")
	}
	if IsBuiltin("TableZone", FamilyLine) {
		t.Error("TableZone is not a line code")
	}
	if !IsBuiltin("DefaultLine", FamilyLine) {
		t.Error("DefaultLine should be a built-in line")
	}
}
