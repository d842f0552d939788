package script

import "strings"

const queryWords = 5

// ExtractQuery builds a stock-footage search phrase from the leading words of
// a scene.
func ExtractQuery(text string) string {
	words := strings.Fields(text)
	if len(words) > queryWords {
		words = words[:queryWords]
	}
	return strings.Join(words, " ")
}
