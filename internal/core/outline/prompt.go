package outline

import "fmt"

const systemPrompt = "You are an expert presentation designer. Generate well-structured, engaging presentation content in JSON format."

// buildUserPrompt asks for exactly n slides in the JSON shape ParseOutline reads.
func buildUserPrompt(topic string, n int) string {
	return fmt.Sprintf(`Create a detailed presentation structure for the topic: "%s"

Generate exactly %d slides with the following JSON format:
{
    "title": "Presentation Title",
    "subtitle": "Optional one line subtitle",
    "slides": [
        {
            "slide_number": 1,
            "title": "Slide Title",
            "content": ["Bullet point 1", "Bullet point 2", "Bullet point 3"],
            "image_keywords": "relevant keywords for image search",
            "speaker_notes": "Detailed notes for the presenter"
        }
    ]
}

When a slide is best shown as numbers, add "chart_type" (bar, column, line or pie) and
"chart_data": {"categories": ["A", "B"], "values": [1, 2]} to that slide.

Make the content engaging, informative, and well-structured. Each slide should have 3-5 bullet points.
Return ONLY the JSON, no additional text.`, topic, n)
}
