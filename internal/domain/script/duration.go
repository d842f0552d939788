package script

import (
	"strings"
	"time"
)

// MinSceneDuration keeps very short scenes on screen long enough to register.
const MinSceneDuration = 2 * time.Second

// EstimateDuration converts the word count of text into narration time at
// wpm words per minute.
func EstimateDuration(text string, wpm int) time.Duration {
	if wpm <= 0 {
		return MinSceneDuration
	}
	words := WordCount(text)
	sec := float64(words) / (float64(wpm) / 60)
	d := time.Duration(sec * float64(time.Second))
	if d < MinSceneDuration {
		return MinSceneDuration
	}
	return d
}

func WordCount(text string) int {
	return len(strings.Fields(text))
}
