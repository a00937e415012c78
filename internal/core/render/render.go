// Package render turns an outline into a PresentationML (.pptx) document.
// Rendering is a pure function of its Input: no clock, randomness or I/O.
package render

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/markdave123-py/Slidewise/internal/models"
)

const (
	slideWidthIn  = 10.0
	slideHeightIn = 7.5

	imageWidthIn     = 3.5
	imageMaxHeightIn = 5.0

	closingText = "Thank You!"
)

// Image is the raw bytes of a slide picture. The format is sniffed.
type Image struct {
	Data []byte
}

// Input is everything a deck is rendered from.
type Input struct {
	Outline     models.Outline
	Images      map[int]Image // keyed by slide number
	Theme       string
	BrandColors []string
}

// Render produces the deck: a title slide, one slide per outline entry in
// slide-number order and a closing slide.
func Render(in Input) ([]byte, error) {
	theme := ResolveTheme(in.Theme, in.BrandColors)

	slides := append([]models.SlideOutline(nil), in.Outline.Slides...)
	sort.SliceStable(slides, func(i, j int) bool { return slides[i].Number < slides[j].Number })

	p := &pkg{title: in.Outline.Title}
	p.slides = append(p.slides, titleSlide(in.Outline, theme))
	for _, s := range slides {
		p.slides = append(p.slides, contentSlide(s, in.Images[s.Number], theme))
	}
	p.slides = append(p.slides, closingSlide(theme))

	return p.write()
}

func titleSlide(o models.Outline, theme Theme) renderedSlide {
	t := newSpTree()
	lines := wrapText(o.Title, titleSlideWrap)
	t.textBox("Title", box(1, 2.5, 8, 1.5), "ctr", []paragraph{{
		lines:  lines,
		sizePt: titleSizeForLines(len(lines)),
		bold:   true,
		color:  theme.Title,
		align:  "ctr",
	}})
	if strings.TrimSpace(o.Subtitle) != "" {
		t.textBox("Subtitle", box(1, 4.5, 8, 1), "t", []paragraph{{
			lines:  wrapText(o.Subtitle, subtitleWrap),
			sizePt: 24,
			color:  theme.Text,
			align:  "ctr",
		}})
	}
	t.filledRect("Accent", box(3.5, 4.2, 3, 0.06), theme.Accent)
	return renderedSlide{xml: t.slideXML(theme.Background)}
}

// titleSizeForLines keeps long deck titles inside the title box.
func titleSizeForLines(lines int) int {
	switch {
	case lines <= 1:
		return 54
	case lines == 2:
		return 40
	default:
		return 32
	}
}

func contentSlide(s models.SlideOutline, img Image, theme Theme) renderedSlide {
	t := newSpTree()

	titleLines := wrapText(s.Title, contentTitleWrap)
	t.textBox("Title", box(0.5, 0.5, 9, 0.75), "ctr", []paragraph{{
		lines:  titleLines,
		sizePt: fitTitleSize(len(titleLines)),
		bold:   true,
		color:  theme.Title,
	}})
	// 3pt accent rule under the title
	t.filledRect("Accent", rect{inches(0.5), inches(1.4), inches(9), 3 * emuPerPt}, theme.Accent)

	out := renderedSlide{notes: strings.TrimSpace(s.SpeakerNotes)}

	if s.Chart != nil && len(s.Chart.Categories) > 0 && len(s.Chart.Values) > 0 {
		out.chart = chartXML(s.Chart, theme)
		t.chartFrame("Chart", box(1, 2, 8, 5), "rId2")
		out.xml = t.slideXML(theme.Background)
		return out
	}

	media, ext, ratio := prepareImage(img)
	bodyBox, wrap := box(0.5, 1.7, 9, 5), bodyWrapFull
	if media != nil {
		bodyBox, wrap = box(0.5, 1.7, 5, 5), bodyWrapWithImage
		w := imageWidthIn
		h := w * ratio
		if h > imageMaxHeightIn {
			h = imageMaxHeightIn
			w = h / ratio
		}
		t.picture("Picture", box(6, 2, w, h), "rId2")
		out.media, out.mediaExt = media, ext
	}

	size := fitBodySize(s.Bullets, wrap)
	width := bodyWidthAt(wrap, size)
	paras := make([]paragraph, 0, len(s.Bullets))
	for _, b := range s.Bullets {
		if strings.TrimSpace(b) == "" {
			continue
		}
		paras = append(paras, paragraph{
			lines:       wrapText(b, width),
			sizePt:      size,
			color:       theme.Text,
			bullet:      true,
			spaceBefore: 12,
		})
	}
	if len(paras) > 0 {
		t.textBox("Content", bodyBox, "t", paras)
	}

	out.xml = t.slideXML(theme.Background)
	return out
}

func closingSlide(theme Theme) renderedSlide {
	t := newSpTree()
	t.textBox("Closing", box(1, 3, 8, 1.5), "ctr", []paragraph{{
		lines:  []string{closingText},
		sizePt: 60,
		bold:   true,
		color:  theme.Title,
		align:  "ctr",
	}})
	return renderedSlide{xml: t.slideXML(theme.Background)}
}

// prepareImage sniffs the picture and returns its bytes, package extension and
// height/width ratio. Unsupported or empty images return nil data.
func prepareImage(img Image) ([]byte, string, float64) {
	if len(img.Data) == 0 {
		return nil, "", 0
	}
	var ext string
	switch mtype := mimetype.Detect(img.Data); {
	case mtype.Is("image/jpeg"):
		ext = "jpeg"
	case mtype.Is("image/png"):
		ext = "png"
	case mtype.Is("image/gif"):
		ext = "gif"
	default:
		return nil, "", 0
	}
	ratio := 0.75
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data)); err == nil && cfg.Width > 0 && cfg.Height > 0 {
		ratio = float64(cfg.Height) / float64(cfg.Width)
	}
	return img.Data, ext, ratio
}
