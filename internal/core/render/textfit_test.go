package render

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestWrapText(t *testing.T) {
	assert.Equal(t, []string{""}, wrapText("   ", 10))
	assert.Equal(t, []string{"short"}, wrapText("short", 10))
	assert.Equal(t, []string{"the quick", "brown fox"}, wrapText("the quick brown fox", 10))
	assert.Equal(t, []string{"abcde", "fghij", "k"}, wrapText("abcdefghijk", 5))
	assert.Equal(t, []string{"ab", "abcde", "fg"}, wrapText("ab abcdefg", 5))
}

func TestWrapTextRespectsWidth(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 20)
	for _, line := range wrapText(text, 37) {
		assert.LessOrEqual(t, utf8.RuneCountInString(line), 37)
	}
}

func TestTextFitConstants(t *testing.T) {
	assert.Equal(t, 30, titleSlideWrap)
	assert.Equal(t, 40, contentTitleWrap)
	assert.Equal(t, 60, bodyWrapFull)
	assert.Equal(t, 38, bodyWrapWithImage)
	assert.Equal(t, 20, bodyStartPt)
	assert.Equal(t, 12, bodyFloorPt)
	assert.Equal(t, 2, bodyStepPt)

	assert.Equal(t, bodyWrapFull, bodyWidthAt(bodyWrapFull, bodyStartPt))
	assert.Equal(t, 100, bodyWidthAt(bodyWrapFull, bodyFloorPt), "smaller text fits more per line")
}

func TestFitBodySizeSteps(t *testing.T) {
	long := make([]string, 6)
	for i := range long {
		long[i] = strings.Repeat("word ", 30)
	}
	size := fitBodySize(long, bodyWrapFull)
	assert.Equal(t, 16, size, "20pt and 18pt overflow the body area")
	assert.LessOrEqual(t, estimateBodyHeight(long, bodyWrapFull, size), float64(bodyHeightPt))
}

func TestFitBodySize(t *testing.T) {
	short := []string{"one", "two", "three"}
	assert.Equal(t, bodyStartPt, fitBodySize(short, bodyWrapFull))

	long := make([]string, 9)
	for i := range long {
		long[i] = strings.Repeat("word ", 30)
	}
	size := fitBodySize(long, bodyWrapFull)
	assert.Less(t, size, bodyStartPt)
	assert.GreaterOrEqual(t, size, bodyFloorPt)

	huge := make([]string, 30)
	for i := range huge {
		huge[i] = strings.Repeat("word ", 60)
	}
	assert.Equal(t, bodyFloorPt, fitBodySize(huge, bodyWrapWithImage))
}

func TestFitBodySizeIsMonotonic(t *testing.T) {
	var bullets []string
	prev := bodyStartPt
	for i := 0; i < 20; i++ {
		bullets = append(bullets, strings.Repeat("text ", 15))
		size := fitBodySize(bullets, bodyWrapFull)
		assert.LessOrEqual(t, size, prev)
		prev = size
	}
}

func TestResolveTheme(t *testing.T) {
	assert.Equal(t, themes["modern"], ResolveTheme("no-such-theme", nil))
	assert.Equal(t, themes["dark"], ResolveTheme(" DARK ", nil))

	th := ResolveTheme("business", []string{"#00ff00", "zzz"})
	assert.Equal(t, "00FF00", th.Accent)
	assert.Equal(t, themes["business"].Title, th.Title, "invalid colour ignored")
}

func TestNormalizeHex(t *testing.T) {
	c, ok := NormalizeHex("#1f4e79")
	assert.True(t, ok)
	assert.Equal(t, "1F4E79", c)

	_, ok = NormalizeHex("#12345")
	assert.False(t, ok)
	_, ok = NormalizeHex("GGGGGG")
	assert.False(t, ok)
}
