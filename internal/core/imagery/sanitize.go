package imagery

import (
	"fmt"
	"strings"
)

// SanitizeTopic maps every rune outside [A-Za-z0-9_-] to '_'.
func SanitizeTopic(topic string) string {
	var b strings.Builder
	for _, r := range topic {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Scope is the key prefix shared by every slide image of one owner and topic.
func Scope(ownerID, topic string) string {
	return fmt.Sprintf("users/%s/presentations/%s", SanitizeTopic(ownerID), SanitizeTopic(topic))
}

// SlideKey is the storage key of a slide's image.
func SlideKey(ownerID, topic string, slideNumber int, ext string) string {
	return fmt.Sprintf("%s/slide_%d.%s", Scope(ownerID, topic), slideNumber, ext)
}
