package render

import (
	"archive/zip"
	"bytes"
	"embed"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

//go:embed parts/*
var partsFS embed.FS

const (
	relTypeBase = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
	ctBase      = "application/vnd.openxmlformats-officedocument."

	// MIMEType is the content type of a rendered deck.
	MIMEType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// zipEpoch keeps entry timestamps fixed so identical decks are byte-identical.
var zipEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

type relationship struct {
	id, relType, target string
}

func relsXML(rels []relationship) string {
	var b strings.Builder
	b.WriteString(xml.Header + `<Relationships xmlns="` + nsRel + `">`)
	for _, r := range rels {
		relType := r.relType
		if !strings.HasPrefix(relType, "http") {
			relType = relTypeBase + relType
		}
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="%s"/>`, r.id, relType, r.target)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

// renderedSlide is one slide ready to be packaged.
type renderedSlide struct {
	xml      string
	notes    string
	media    []byte
	mediaExt string
	chart    string
}

// pkg assembles the parts of a presentation into a zip archive.
type pkg struct {
	title  string
	slides []renderedSlide
}

type part struct {
	name string
	data []byte
}

func (p *pkg) write() ([]byte, error) {
	var (
		parts      []part
		overrides  []string
		slideRels  []relationship
		sldIDs     strings.Builder
		chartCount int
		notesCount int
	)
	add := func(name, contentType string, data []byte) {
		parts = append(parts, part{name: name, data: data})
		if contentType != "" {
			overrides = append(overrides, fmt.Sprintf(`<Override PartName="/%s" ContentType="%s"/>`, name, contentType))
		}
	}

	for i, s := range p.slides {
		n := i + 1
		rid := fmt.Sprintf("rId%d", n+10)
		slideRels = append(slideRels, relationship{rid, "slide", fmt.Sprintf("slides/slide%d.xml", n)})
		fmt.Fprintf(&sldIDs, `<p:sldId id="%d" r:id="%s"/>`, 255+n, rid)

		rels := []relationship{{"rId1", "slideLayout", "../slideLayouts/slideLayout1.xml"}}
		if s.media != nil {
			media := fmt.Sprintf("media/image%d.%s", n, s.mediaExt)
			parts = append(parts, part{name: "ppt/" + media, data: s.media})
			rels = append(rels, relationship{"rId2", "image", "../" + media})
		}
		if s.chart != "" {
			chartCount++
			chart := fmt.Sprintf("charts/chart%d.xml", chartCount)
			add("ppt/"+chart, ctBase+"drawingml.chart+xml", []byte(s.chart))
			rels = append(rels, relationship{"rId2", "chart", "../" + chart})
		}
		if s.notes != "" {
			notesCount++
			notes := fmt.Sprintf("notesSlides/notesSlide%d.xml", notesCount)
			add("ppt/"+notes, ctBase+"presentationml.notesSlide+xml", []byte(notesXML(s.notes)))
			add(fmt.Sprintf("ppt/notesSlides/_rels/notesSlide%d.xml.rels", notesCount), "", []byte(relsXML([]relationship{
				{"rId1", "notesMaster", "../notesMasters/notesMaster1.xml"},
				{"rId2", "slide", fmt.Sprintf("../slides/slide%d.xml", n)},
			})))
			rels = append(rels, relationship{"rId3", "notesSlide", "../" + notes})
		}
		add(fmt.Sprintf("ppt/slides/slide%d.xml", n), ctBase+"presentationml.slide+xml", []byte(s.xml))
		add(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), "", []byte(relsXML(rels)))
	}

	static := []struct{ file, name, contentType string }{
		{"slideMaster1.xml", "ppt/slideMasters/slideMaster1.xml", ctBase + "presentationml.slideMaster+xml"},
		{"slideMaster1.xml.rels", "ppt/slideMasters/_rels/slideMaster1.xml.rels", ""},
		{"slideLayout1.xml", "ppt/slideLayouts/slideLayout1.xml", ctBase + "presentationml.slideLayout+xml"},
		{"slideLayout1.xml.rels", "ppt/slideLayouts/_rels/slideLayout1.xml.rels", ""},
		{"notesMaster1.xml", "ppt/notesMasters/notesMaster1.xml", ctBase + "presentationml.notesMaster+xml"},
		{"notesMaster1.xml.rels", "ppt/notesMasters/_rels/notesMaster1.xml.rels", ""},
		{"theme1.xml", "ppt/theme/theme1.xml", ctBase + "theme+xml"},
		{"theme1.xml", "ppt/theme/theme2.xml", ctBase + "theme+xml"},
		{"presProps.xml", "ppt/presProps.xml", ctBase + "presentationml.presProps+xml"},
		{"viewProps.xml", "ppt/viewProps.xml", ctBase + "presentationml.viewProps+xml"},
		{"tableStyles.xml", "ppt/tableStyles.xml", ctBase + "presentationml.tableStyles+xml"},
	}
	for _, s := range static {
		data, err := partsFS.ReadFile("parts/" + s.file)
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", s.file, err)
		}
		add(s.name, s.contentType, data)
	}

	presentation := xml.Header + `<p:presentation ` + slideNamespaces + ` saveSubsetFonts="1">` +
		`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>` +
		`<p:notesMasterIdLst><p:notesMasterId r:id="rId2"/></p:notesMasterIdLst>` +
		`<p:sldIdLst>` + sldIDs.String() + `</p:sldIdLst>` +
		fmt.Sprintf(`<p:sldSz cx="%d" cy="%d" type="screen4x3"/><p:notesSz cx="6858000" cy="9144000"/>`, inches(slideWidthIn), inches(slideHeightIn)) +
		`</p:presentation>`
	add("ppt/presentation.xml", ctBase+"presentationml.presentation.main+xml", []byte(presentation))
	add("ppt/_rels/presentation.xml.rels", "", []byte(relsXML(append([]relationship{
		{"rId1", "slideMaster", "slideMasters/slideMaster1.xml"},
		{"rId2", "notesMaster", "notesMasters/notesMaster1.xml"},
		{"rId3", "theme", "theme/theme1.xml"},
		{"rId4", "presProps", "presProps.xml"},
		{"rId5", "viewProps", "viewProps.xml"},
		{"rId6", "tableStyles", "tableStyles.xml"},
	}, slideRels...))))

	core := xml.Header + `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
		`xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>` + escape(p.title) + `</dc:title><dc:creator>Slidewise</dc:creator></cp:coreProperties>`
	add("docProps/core.xml", "application/vnd.openxmlformats-package.core-properties+xml", []byte(core))
	app := xml.Header + `<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">` +
		fmt.Sprintf(`<Application>Slidewise</Application><Slides>%d</Slides><Notes>%d</Notes></Properties>`, len(p.slides), notesCount)
	add("docProps/app.xml", ctBase+"extended-properties+xml", []byte(app))

	rootRels := relsXML([]relationship{
		{"rId1", "officeDocument", "ppt/presentation.xml"},
		{"rId2", "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties", "docProps/core.xml"},
		{"rId3", "extended-properties", "docProps/app.xml"},
	})

	contentTypes := xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Default Extension="jpeg" ContentType="image/jpeg"/>` +
		`<Default Extension="png" ContentType="image/png"/>` +
		`<Default Extension="gif" ContentType="image/gif"/>` +
		strings.Join(overrides, "") + `</Types>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entries := append([]part{
		{"[Content_Types].xml", []byte(contentTypes)},
		{"_rels/.rels", []byte(rootRels)},
	}, parts...)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Deflate, Modified: zipEpoch})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}
