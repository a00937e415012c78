package render

import (
	"strings"
	"unicode/utf8"
)

// Wrap widths are in characters at the starting body size. They are rough
// averages for a proportional font, not measurements.
const (
	titleSlideWrap    = 30
	contentTitleWrap  = 40
	bodyWrapFull      = 60
	bodyWrapWithImage = 38
	subtitleWrap      = 50

	bodyStartPt = 20
	bodyFloorPt = 12
	bodyStepPt  = 2

	// body box is 5in tall
	bodyHeightPt   = 360
	bulletSpacePt  = 12
	lineHeightMult = 1.2

	fitBulletThreshold = 5
	fitCharThreshold   = 400
)

// wrapText breaks s into lines of at most width runes, splitting on spaces
// and hard-splitting words longer than a line.
func wrapText(s string, width int) []string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return []string{""}
	}
	if width <= 0 {
		return []string{s}
	}

	var (
		lines []string
		cur   strings.Builder
		n     int
	)
	flush := func() {
		if n > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
			n = 0
		}
	}
	for _, word := range strings.Split(s, " ") {
		for utf8.RuneCountInString(word) > width {
			flush()
			r := []rune(word)
			lines = append(lines, string(r[:width]))
			word = string(r[width:])
		}
		if word == "" {
			continue
		}
		wl := utf8.RuneCountInString(word)
		if n > 0 && n+1+wl > width {
			flush()
		}
		if n > 0 {
			cur.WriteByte(' ')
			n++
		}
		cur.WriteString(word)
		n += wl
	}
	flush()
	return lines
}

// bodyWidthAt scales the reference wrap width to a font size.
func bodyWidthAt(base, sizePt int) int {
	return base * bodyStartPt / sizePt
}

// estimateBodyHeight is the height in points of bullets wrapped at width for sizePt.
func estimateBodyHeight(bullets []string, base, sizePt int) float64 {
	width := bodyWidthAt(base, sizePt)
	lines := 0
	for _, b := range bullets {
		lines += len(wrapText(b, width))
	}
	return float64(lines)*float64(sizePt)*lineHeightMult + float64(len(bullets)*bulletSpacePt)
}

// fitBodySize picks the body font size. Short slides keep the start size;
// long ones step down until the estimate fits or the floor is reached.
func fitBodySize(bullets []string, base int) int {
	chars := 0
	for _, b := range bullets {
		chars += utf8.RuneCountInString(b)
	}
	if len(bullets) <= fitBulletThreshold && chars <= fitCharThreshold {
		return bodyStartPt
	}
	size := bodyStartPt
	for size > bodyFloorPt && estimateBodyHeight(bullets, base, size) > bodyHeightPt {
		size -= bodyStepPt
	}
	return size
}

// fitTitleSize shrinks long content titles.
func fitTitleSize(lines int) int {
	if lines > 1 {
		return 28
	}
	return 36
}
