package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
)

// SlideText is the readable content of one rendered slide.
type SlideText struct {
	// Paragraphs holds each text paragraph; soft line breaks become spaces.
	Paragraphs []string
	Notes      string
	HasImage   bool
	HasChart   bool
}

// Inspect reads a rendered deck back into its slide texts, in slide order.
func Inspect(data []byte) ([]SlideText, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	var slideNums []int
	for _, f := range zr.File {
		files[f.Name] = f
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(f.Name, "ppt/slides/slide"), ".xml"))
			if err == nil {
				slideNums = append(slideNums, n)
			}
		}
	}
	sort.Ints(slideNums)

	out := make([]SlideText, 0, len(slideNums))
	for _, n := range slideNums {
		raw, err := readZipFile(files[fmt.Sprintf("ppt/slides/slide%d.xml", n)])
		if err != nil {
			return nil, err
		}
		st := SlideText{}
		if st.Paragraphs, err = paragraphs(raw); err != nil {
			return nil, fmt.Errorf("slide %d: %w", n, err)
		}

		relsRaw, err := readZipFile(files[fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n)])
		if err != nil {
			return nil, err
		}
		var rels struct {
			Items []struct {
				Type   string `xml:"Type,attr"`
				Target string `xml:"Target,attr"`
			} `xml:"Relationship"`
		}
		if err := xml.Unmarshal(relsRaw, &rels); err != nil {
			return nil, fmt.Errorf("slide %d rels: %w", n, err)
		}
		for _, r := range rels.Items {
			switch path.Base(r.Type) {
			case "image":
				st.HasImage = true
			case "chart":
				st.HasChart = true
			case "notesSlide":
				notesRaw, err := readZipFile(files[path.Join("ppt/slides", r.Target)])
				if err != nil {
					return nil, err
				}
				notes, err := paragraphs(notesRaw)
				if err != nil {
					return nil, fmt.Errorf("slide %d notes: %w", n, err)
				}
				st.Notes = strings.Join(notes, "\n")
			}
		}
		out = append(out, st)
	}
	return out, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	if f == nil {
		return nil, fmt.Errorf("missing part")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// paragraphs collects the text of every <a:p> that has any.
func paragraphs(raw []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	var (
		out    []string
		runs   []string
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == nsA && t.Name.Local == "p" {
				runs = runs[:0]
			}
			inText = t.Name.Space == nsA && t.Name.Local == "t"
		case xml.CharData:
			if inText {
				runs = append(runs, string(t))
			}
		case xml.EndElement:
			if t.Name.Space == nsA && t.Name.Local == "t" {
				inText = false
			}
			if t.Name.Space == nsA && t.Name.Local == "p" && len(runs) > 0 {
				out = append(out, strings.Join(runs, " "))
			}
		}
	}
}
