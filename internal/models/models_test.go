package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDeck() *Deck {
	return &Deck{
		ID:          "deck-1",
		OwnerID:     "user-1",
		Topic:       "Rust",
		Theme:       "dark",
		BrandColors: []string{"#112233"},
		Outline: Outline{
			Title: "Rust",
			Slides: []SlideOutline{
				{Number: 1, Title: "Intro", Bullets: []string{"a", "b"}},
				{Number: 2, Title: "Chart", Chart: &ChartSpec{Type: ChartPie, Categories: []string{"x"}, Values: []float64{1}}},
			},
		},
		ImageRefs:      ImageRefs{1: {URL: "http://img/1.jpg", Key: "k1"}},
		RenderedBinary: []byte{1, 2, 3},
	}
}

func TestDeckCloneIsDeep(t *testing.T) {
	d := sampleDeck()
	c := d.Clone()

	c.Outline.Slides[0].Bullets[0] = "changed"
	c.Outline.Slides[1].Chart.Values[0] = 99
	c.ImageRefs[2] = ImageRef{URL: "x"}
	c.RenderedBinary[0] = 9
	c.BrandColors[0] = "#000000"

	assert.Equal(t, "a", d.Outline.Slides[0].Bullets[0])
	assert.Equal(t, float64(1), d.Outline.Slides[1].Chart.Values[0])
	assert.Len(t, d.ImageRefs, 1)
	assert.Equal(t, byte(1), d.RenderedBinary[0])
	assert.Equal(t, "#112233", d.BrandColors[0])
}

func TestFingerprintTracksRenderInputs(t *testing.T) {
	d := sampleDeck()
	base := d.ContentFingerprint()
	require.Equal(t, base, d.Clone().ContentFingerprint())

	d.RenderFingerprint = base
	assert.False(t, d.IsStale())

	d.Outline.Slides[0].Title = "Other"
	assert.True(t, d.IsStale())

	d = sampleDeck()
	d.Theme = "modern"
	assert.NotEqual(t, base, d.ContentFingerprint())

	d = sampleDeck()
	d.ImageRefs[2] = ImageRef{URL: "y"}
	assert.NotEqual(t, base, d.ContentFingerprint())
}

func TestFingerprintIgnoresNilVersusEmpty(t *testing.T) {
	a := Fingerprint(Outline{Title: "t", Slides: []SlideOutline{{Number: 1, Bullets: []string{}}}}, ImageRefs{}, "modern", []string{})
	b := Fingerprint(Outline{Title: "t", Slides: []SlideOutline{{Number: 1}}}, nil, "modern", nil)
	assert.Equal(t, a, b)
}

func TestOutlineStripNUL(t *testing.T) {
	o := Outline{
		Title: "A\x00B",
		Slides: []SlideOutline{{
			Title:        "\x00x",
			Bullets:      []string{"b\x00\x00", "clean"},
			SpeakerNotes: "n\x00",
			Chart:        &ChartSpec{SeriesName: "s\x00", Categories: []string{"c\x00"}},
		}},
	}
	o.StripNUL()
	assert.Equal(t, "AB", o.Title)
	assert.Equal(t, "x", o.Slides[0].Title)
	assert.Equal(t, []string{"b", "clean"}, o.Slides[0].Bullets)
	assert.Equal(t, "n", o.Slides[0].SpeakerNotes)
	assert.Equal(t, "s", o.Slides[0].Chart.SeriesName)
	assert.Equal(t, []string{"c"}, o.Slides[0].Chart.Categories)
	assert.Equal(t, "plain", StripNUL("plain"))
}

func TestRenumber(t *testing.T) {
	o := Outline{Slides: []SlideOutline{{Number: 7}, {Number: 7}, {Number: 2}}}
	o.Renumber()
	for i, s := range o.Slides {
		assert.Equal(t, i+1, s.Number)
	}
}

func TestIsOwnedBy(t *testing.T) {
	d := sampleDeck()
	assert.True(t, d.IsOwnedBy("user-1"))
	assert.False(t, d.IsOwnedBy("user-2"))
	assert.False(t, d.IsOwnedBy(AnonymousOwner))

	d.OwnerID = AnonymousOwner
	assert.True(t, d.IsOwnedBy("user-2"))
}

func TestSummaryUsesFirstImage(t *testing.T) {
	d := sampleDeck()
	s := d.Summary()
	assert.Equal(t, 2, s.SlideCount)
	assert.Equal(t, "http://img/1.jpg", s.ThumbnailURL)
}

func TestPatchChangesContent(t *testing.T) {
	assert.False(t, DeckPatch{RenderedBinary: []byte{1}}.ChangesContent())
	theme := "dark"
	assert.True(t, DeckPatch{Theme: &theme}.ChangesContent())
	assert.True(t, DeckPatch{ImageRefs: ImageRefs{}}.ChangesContent())
}

func TestCandidateFullURL(t *testing.T) {
	assert.Equal(t, "large", ImageCandidate{LargeURL: "large", WebformatURL: "web"}.FullURL())
	assert.Equal(t, "web", ImageCandidate{WebformatURL: "web"}.FullURL())
}
