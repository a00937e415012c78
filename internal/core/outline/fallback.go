package outline

import (
	"fmt"

	"github.com/markdave123-py/Slidewise/internal/models"
)

// Fallback is the deterministic outline used when the model gives nothing usable.
func Fallback(topic string, n int) *models.Outline {
	o := &models.Outline{Title: topic}
	for i := 1; i <= n; i++ {
		o.Slides = append(o.Slides, fallbackSlide(topic, i))
	}
	return o
}

func fallbackSlide(topic string, i int) models.SlideOutline {
	return models.SlideOutline{
		Number: i,
		Title:  fmt.Sprintf("Section %d: %s", i, topic),
		Bullets: []string{
			fmt.Sprintf("Key point %d.1", i),
			fmt.Sprintf("Key point %d.2", i),
			fmt.Sprintf("Key point %d.3", i),
		},
		ImageKeywords: topic,
		SpeakerNotes:  fmt.Sprintf("Discuss section %d of %s", i, topic),
	}
}
