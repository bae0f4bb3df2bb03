// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

import (
	"encoding/json"
	"strings"
)

// MaxQuestions is the number of suggestions a set carries.
const MaxQuestions = 5

// ParseQuestions extracts follow-up questions from a model reply.
// The happy path is a JSON array of strings, but models drift, so the
// parser degrades gracefully: fenced JSON is unwrapped, and replies
// formatted as bullet or numbered lists are scanned line by line.
// Returns nil when nothing usable was found; it never panics on
// malformed input.
func ParseQuestions(raw string) []string {
	text := stripCodeFence(strings.TrimSpace(raw))

	if qs := parseJSONArray(text); len(qs) > 0 {
		return qs
	}
	return parseListLines(text)
}

// stripCodeFence removes a surrounding Markdown code fence, if any.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}
	// Drop the opening fence line (possibly "```json") and a closing
	// fence line if present.
	lines = lines[1:]
	if last := strings.TrimSpace(lines[len(lines)-1]); last == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// parseJSONArray tries to decode the first JSON array found in the
// text as a list of strings.
func parseJSONArray(text string) []string {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil
	}

	var items []string
	if err := json.Unmarshal([]byte(text[start:end+1]), &items); err != nil {
		return nil
	}
	return cleanQuestions(items)
}

// parseListLines scans for bullet or numbered list items.
func parseListLines(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		item, ok := stripListMarker(line)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return cleanQuestions(items)
}

// stripListMarker removes a leading list marker ("- ", "* ", "• ",
// "1." or "1)") and reports whether the line was a list item.
func stripListMarker(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(line[len(marker):]), true
		}
	}

	// Numbered markers: digits followed by '.' or ')'.
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:]), true
	}

	return "", false
}

// cleanQuestions trims wrapping quotes and whitespace, drops empties
// and caps the list at MaxQuestions.
func cleanQuestions(items []string) []string {
	var out []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		item = strings.Trim(item, `"'`)
		item = strings.TrimSuffix(strings.TrimSpace(item), ",")
		item = strings.Trim(item, `"'`)
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
		if len(out) == MaxQuestions {
			break
		}
	}
	return out
}

// DefaultQuestions is the fixed fallback used when a reply yields
// nothing parseable. The suggestion row is never empty.
func DefaultQuestions() []string {
	return []string{
		"What are the key points of this note?",
		"Can you summarize this note in a few sentences?",
		"Are there any gaps or open questions in this note?",
		"What topics should I explore next?",
		"How could this note be organized better?",
	}
}
