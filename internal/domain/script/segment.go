package script

import (
	"regexp"
	"strings"

	"github.com/forPelevin/scenereel/internal/types"
)

// A run of whitespace holding at least two line breaks, i.e. one or more
// blank lines.
var reSceneBreak = regexp.MustCompile(`\n\s*\n`)

// Split cuts the script into scenes on blank lines. Pieces that are empty
// after trimming are dropped and ordinals are assigned to the survivors, so
// they are always 1..n without gaps.
func Split(text string) []types.Scene {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var out []types.Scene
	for _, p := range reSceneBreak.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, types.Scene{Ordinal: len(out) + 1, Text: p})
	}
	return out
}
