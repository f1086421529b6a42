// Package visuals turns segments into prompts and prompts into processed
// frame images, degrading to procedural placeholders when the external
// generation service is unavailable.
package visuals

import (
	"fmt"
	"strings"

	"shortform-pipeline/types"
)

// styleSuffix is appended to every prompt verbatim so segments extracting the
// same concept produce byte-identical prompts and share one cache entry.
const styleSuffix = "cinematic dramatic lighting, dark moody atmosphere, vertical composition 9:16, professional photography, no text no words"

// visualMappings maps domain keywords to B-roll concept phrases.
var visualMappings = []struct {
	keyword string
	visual  string
}{
	// Science/Tech
	{"scientist", "scientist in modern laboratory with glowing equipment"},
	{"research", "researcher analyzing data on holographic screens"},
	{"study", "academic study with books and digital displays"},
	{"experiment", "dramatic scientific experiment with light beams"},

	// Space/Universe
	{"universe", "vast cosmic galaxy with stars and nebulae"},
	{"space", "deep space with galaxies and cosmic dust"},
	{"cosmos", "cosmic nebula with swirling stars"},
	{"galaxy", "spiral galaxy with brilliant stars"},
	{"simulation", "digital matrix code reality simulation"},

	// Technology
	{"computer", "futuristic computer with holographic display"},
	{"ai", "artificial intelligence neural network visualization"},
	{"technology", "advanced futuristic technology interface"},
	{"digital", "digital world with flowing data streams"},
	{"code", "programming code on glowing screens"},

	// Abstract
	{"reality", "abstract reality bending visual"},
	{"consciousness", "ethereal consciousness visualization"},
	{"future", "futuristic cityscape with flying vehicles"},
	{"mystery", "mysterious dark atmospheric scene"},
	{"question", "philosophical question mark in cosmic setting"},
}

// matchConcepts returns concept phrases for every keyword found in text,
// case-insensitive, deduplicated, in table order.
func matchConcepts(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	var concepts []string
	for _, m := range visualMappings {
		if !strings.Contains(lower, m.keyword) || seen[m.visual] {
			continue
		}
		seen[m.visual] = true
		concepts = append(concepts, m.visual)
	}
	return concepts
}

// ExtractPrompt derives the image prompt for one segment. Keywords in the
// segment win; otherwise the article title is consulted; with no match at all
// a generic dramatic concept keeps the pipeline moving. The style suffix is
// always appended.
func ExtractPrompt(seg types.Segment, title string) types.VisualPrompt {
	concepts := matchConcepts(seg.Text)
	if len(concepts) == 0 {
		concepts = matchConcepts(title)
	}

	var base string
	if len(concepts) > 0 {
		base = strings.Join(concepts, ", ")
	} else {
		base = fmt.Sprintf("dramatic cinematic visualization of: %s", seg.Text)
	}

	return types.VisualPrompt{
		Text:         base + ", " + styleSuffix,
		SegmentIndex: seg.OrderIndex,
	}
}

// HookPrompt builds the attention-grab prompt for the opening hook segment.
func HookPrompt(title string) string {
	return fmt.Sprintf("dramatic attention-grabbing visual for: %s, epic cinematic lighting, intense atmosphere, %s", title, styleSuffix)
}
