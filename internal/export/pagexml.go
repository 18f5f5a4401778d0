package export

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/lewtec/transcritor/internal/ontology"
	"github.com/lewtec/transcritor/internal/pagexml"
)

const creator = "transcritor export"

// textBearingRegions are the region tags that get a TextLine when a
// current transcription exists.
var textBearingRegions = map[string]bool{
	"TextRegion":   true,
	"CustomRegion": true,
}

// BuildImagePage renders one image as a single-page PageXML document.
// Each annotation becomes a region whose tag comes from the ontology
// mapping (TextRegion for unknown codes); the annotation fields PageXML
// has no slot for travel in the custom attribute, and the metadata map
// in a UserAttribute. An image with no annotations but a current
// full-image transcription gets one synthetic full-page TextRegion.
func BuildImagePage(snap *ImageSnapshot, imageFilename string, exportedAt time.Time) (*pagexml.PcGts, error) {
	page := pagexml.Page{
		ImageFilename: imageFilename,
		ImageWidth:    snap.Image.Width,
		ImageHeight:   snap.Image.Height,
	}

	for i, annSnap := range snap.Annotations {
		region, err := annotationRegion(annSnap, i+1)
		if err != nil {
			return nil, err
		}
		page.Regions = append(page.Regions, *region)
	}

	if len(snap.Annotations) == 0 && snap.Transcription != nil {
		page.Regions = append(page.Regions, fullPageRegion(
			"region_full", "line_full_001",
			snap.Image.Width, snap.Image.Height, snap.Transcription.TextContent))
	}

	return &pagexml.PcGts{
		Xmlns: pagexml.Namespace,
		Metadata: pagexml.Metadata{
			Creator:    creator,
			Created:    exportedAt.Format(time.RFC3339),
			LastChange: exportedAt.Format(time.RFC3339),
		},
		Pages: []pagexml.Page{page},
	}, nil
}

// BuildDocumentPages renders one document as a multi-page PageXML
// document, each page carrying its image's full annotation detail.
func BuildDocumentPages(snap *DocumentSnapshot, exportedAt time.Time) (*pagexml.PcGts, error) {
	doc := &pagexml.PcGts{
		Xmlns: pagexml.Namespace,
		Metadata: pagexml.Metadata{
			Creator:    creator,
			Created:    exportedAt.Format(time.RFC3339),
			LastChange: exportedAt.Format(time.RFC3339),
			Comments:   "Document: " + snap.Document.Name,
		},
	}
	for i, imgSnap := range snap.Images {
		filename := imgSnap.Image.OriginalFilename
		if filename == "" {
			filename = imgSnap.Image.Name
		}
		page, err := BuildImagePage(imgSnap, filename, exportedAt)
		if err != nil {
			return nil, err
		}
		page.Pages[0].ID = fmt.Sprintf("page_%04d", i+1)
		doc.Pages = append(doc.Pages, page.Pages[0])
	}
	return doc, nil
}

// BuildProjectPages renders a whole project as one multi-page document.
// Pages carry only the full-image transcription; per-annotation detail
// belongs to the single-image form.
func BuildProjectPages(snap *ProjectSnapshot, exportedAt time.Time) *pagexml.PcGts {
	doc := &pagexml.PcGts{
		Xmlns: pagexml.Namespace,
		Metadata: pagexml.Metadata{
			Creator:    creator,
			Created:    exportedAt.Format(time.RFC3339),
			LastChange: exportedAt.Format(time.RFC3339),
			Comments:   "Project: " + snap.Project.Name,
		},
	}

	pageID := 1
	for _, docSnap := range snap.Documents {
		for _, imgSnap := range docSnap.Images {
			filename := imgSnap.Image.OriginalFilename
			if filename == "" {
				filename = imgSnap.Image.Name
			}
			page := pagexml.Page{
				ID:            fmt.Sprintf("page_%04d", pageID),
				ImageFilename: filename,
				ImageWidth:    imgSnap.Image.Width,
				ImageHeight:   imgSnap.Image.Height,
			}
			if imgSnap.Transcription != nil {
				page.Regions = append(page.Regions, fullPageRegion(
					fmt.Sprintf("region_%04d_001", pageID),
					fmt.Sprintf("line_%04d_001", pageID),
					imgSnap.Image.Width, imgSnap.Image.Height,
					imgSnap.Transcription.TextContent))
			}
			doc.Pages = append(doc.Pages, page)
			pageID++
		}
	}
	return doc
}

func annotationRegion(snap *AnnotationSnapshot, index int) (*pagexml.Region, error) {
	ann := snap.Annotation
	regionType := ontology.PageXMLRegionType(ann.Classification, "TextRegion")
	points := pagexml.FormatPoints(ann.Region.Outline())

	custom := pagexml.EncodeCustom(map[string]string{
		"annotation_type": string(ann.Region.Type),
		"classification":  ann.Classification,
		"label":           ann.Label,
		"reading_order":   strconv.Itoa(ann.ReadingOrder),
	})

	region := &pagexml.Region{
		XMLName: xmlName(regionType),
		ID:      fmt.Sprintf("region_%04d", index),
		Custom:  custom,
		Coords:  pagexml.Coords{Points: points},
	}

	if len(ann.Metadata) > 0 {
		encoded, err := json.Marshal(ann.Metadata)
		if err != nil {
			return nil, fmt.Errorf("while encoding metadata of annotation %s: %w", ann.ID, err)
		}
		region.UserAttributes = append(region.UserAttributes, pagexml.UserAttribute{
			Name:  "metadata",
			Value: string(encoded),
		})
	}

	if textBearingRegions[regionType] && snap.Transcription != nil {
		region.TextLines = append(region.TextLines, pagexml.TextLine{
			ID:        fmt.Sprintf("line_%04d_001", index),
			Coords:    pagexml.Coords{Points: points},
			TextEquiv: pagexml.TextEquiv{Unicode: snap.Transcription.TextContent},
		})
	}
	return region, nil
}

func xmlName(tag string) xml.Name {
	return xml.Name{Local: tag}
}

func fullPageRegion(regionID, lineID string, width, height int, text string) pagexml.Region {
	points := fmt.Sprintf("0,0 %d,0 %d,%d 0,%d", width, width, height, height)
	return pagexml.Region{
		XMLName: xmlName("TextRegion"),
		ID:      regionID,
		Coords:  pagexml.Coords{Points: points},
		TextLines: []pagexml.TextLine{{
			ID:        lineID,
			Coords:    pagexml.Coords{Points: points},
			TextEquiv: pagexml.TextEquiv{Unicode: text},
		}},
	}
}
