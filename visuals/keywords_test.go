package visuals

import (
	"strings"
	"testing"

	"shortform-pipeline/types"
)

func seg(text string) types.Segment {
	return types.Segment{Text: text, WordCount: len(strings.Fields(text))}
}

func TestExtractPromptKeywordMatch(t *testing.T) {
	p := ExtractPrompt(seg("Scientists made a discovery"), "Some Title")
	if !strings.Contains(p.Text, "scientist in modern laboratory") {
		t.Errorf("prompt %q missing scientist concept", p.Text)
	}
	if !strings.HasSuffix(p.Text, styleSuffix) {
		t.Errorf("prompt %q missing style suffix", p.Text)
	}
}

func TestExtractPromptCombinesMatches(t *testing.T) {
	p := ExtractPrompt(seg("AI code running in deep space"), "")
	for _, want := range []string{"neural network", "programming code", "deep space"} {
		if !strings.Contains(p.Text, want) {
			t.Errorf("prompt %q missing %q", p.Text, want)
		}
	}
}

func TestExtractPromptFallsBackToTitle(t *testing.T) {
	p := ExtractPrompt(seg("nothing matches here right now"), "The Universe Explained")
	if !strings.Contains(p.Text, "cosmic galaxy") {
		t.Errorf("prompt %q should use the title's universe concept", p.Text)
	}
}

func TestExtractPromptGenericFallback(t *testing.T) {
	p := ExtractPrompt(seg("bananas are yellow"), "Fruit Report")
	if !strings.Contains(p.Text, "dramatic cinematic visualization of: bananas are yellow") {
		t.Errorf("prompt %q should fall back to generic concept", p.Text)
	}
	if !strings.HasSuffix(p.Text, styleSuffix) {
		t.Errorf("generic prompt %q missing style suffix", p.Text)
	}
}

func TestExtractPromptDeterministic(t *testing.T) {
	a := ExtractPrompt(seg("the universe is big"), "")
	b := ExtractPrompt(seg("THE UNIVERSE looks endless"), "")
	if a.CacheKey() != b.CacheKey() {
		t.Errorf("same concept should share a cache key: %q vs %q", a.CacheKey(), b.CacheKey())
	}
}
