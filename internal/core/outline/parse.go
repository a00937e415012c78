package outline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/markdave123-py/Slidewise/internal/core"
	"github.com/markdave123-py/Slidewise/internal/models"
)

// rawOutline is the loose shape models actually return.
type rawOutline struct {
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle"`
	Slides   []rawSlide `json:"slides"`
}

type rawSlide struct {
	Title         string     `json:"title"`
	Content       stringList `json:"content"`
	Bullets       stringList `json:"bullets"`
	ImageKeywords stringList `json:"image_keywords"`
	SpeakerNotes  string     `json:"speaker_notes"`
	ChartType     string     `json:"chart_type"`
	ChartData     *struct {
		Categories []string  `json:"categories"`
		Values     []float64 `json:"values"`
	} `json:"chart_data"`
}

// stringList accepts either a JSON string or an array of strings.
type stringList []string

func (s *stringList) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*s = list
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	if one = strings.TrimSpace(one); one != "" {
		*s = strings.Split(one, "\n")
	}
	return nil
}

// ParseOutline extracts an outline of exactly n slides from a model reply.
// Slides are renumbered in reply order, extras are dropped and missing ones
// are padded from the fallback for topic.
func ParseOutline(raw, topic string, n int) (*models.Outline, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	var ro rawOutline
	if err := json.Unmarshal([]byte(body), &ro); err != nil {
		return nil, fmt.Errorf("%w: decode outline: %v", core.ErrGenerationFailed, err)
	}

	out := &models.Outline{
		Title:    strings.TrimSpace(ro.Title),
		Subtitle: strings.TrimSpace(ro.Subtitle),
	}
	for _, rs := range ro.Slides {
		s, ok := rs.toSlide()
		if !ok {
			continue
		}
		out.Slides = append(out.Slides, s)
	}
	if len(out.Slides) == 0 {
		return nil, fmt.Errorf("%w: reply has no slides", core.ErrGenerationFailed)
	}
	if out.Title == "" {
		out.Title = topic
	}

	if len(out.Slides) > n {
		out.Slides = out.Slides[:n]
	}
	for i := len(out.Slides) + 1; i <= n; i++ {
		out.Slides = append(out.Slides, fallbackSlide(topic, i))
	}
	out.Renumber()
	return out, nil
}

func (rs rawSlide) toSlide() (models.SlideOutline, bool) {
	bullets := rs.Content
	if len(bullets) == 0 {
		bullets = rs.Bullets
	}
	s := models.SlideOutline{
		Title:         strings.TrimSpace(rs.Title),
		SpeakerNotes:  strings.TrimSpace(rs.SpeakerNotes),
		ImageKeywords: strings.TrimSpace(strings.Join(rs.ImageKeywords, " ")),
	}
	for _, b := range bullets {
		b = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(b), "-•*"))
		if b != "" {
			s.Bullets = append(s.Bullets, b)
		}
	}
	if rs.ChartData != nil && len(rs.ChartData.Categories) > 0 && len(rs.ChartData.Values) > 0 {
		s.Chart = &models.ChartSpec{
			Type:       strings.ToLower(strings.TrimSpace(rs.ChartType)),
			SeriesName: "Series 1",
			Categories: rs.ChartData.Categories,
			Values:     rs.ChartData.Values,
		}
	}
	if s.Title == "" && len(s.Bullets) == 0 {
		return s, false
	}
	return s, true
}

// extractJSON strips code fences and prose around the outermost object.
func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON object in reply", core.ErrGenerationFailed)
	}
	return s[start : end+1], nil
}
