package types

import "strings"

// NormalizePromptKey lowercases and collapses whitespace so prompts that
// differ only in spacing or case map to the same cache entry.
func NormalizePromptKey(prompt string) string {
	return strings.Join(strings.Fields(strings.ToLower(prompt)), " ")
}
