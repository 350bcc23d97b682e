package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ErrCoercion is returned when model output cannot be turned into valid
// structured data after the bounded recovery passes below.
var ErrCoercion = errors.New("cannot coerce model output into structured data")

var trailingCommaExpr = regexp.MustCompile(`,\s*([}\]])`)

// coerceStructured turns loosely formatted model output into a valid JSON
// document. The recovery passes are a closed set: strip code fences, strip
// control/format characters, normalize unicode punctuation, drop trailing
// commas, and finally cut the first JSON-looking segment out of surrounding
// prose. Anything still invalid after that fails explicitly; output is never
// silently truncated.
func coerceStructured(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = stripCodeFence(s)
	s = stripControl(s)
	s = normalizePunctuation(s)
	s = trailingCommaExpr.ReplaceAllString(s, "$1")

	if json.Valid([]byte(s)) {
		return s, nil
	}

	if segment, ok := extractSegment(s); ok && json.Valid([]byte(segment)) {
		return segment, nil
	}

	preview := raw
	if len(preview) > 120 {
		preview = preview[:120] + "..."
	}
	return "", fmt.Errorf("%w: %q", ErrCoercion, preview)
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:] // drop the language tag line
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// stripControl removes control and invisible format characters. U+200D
// (zero-width joiner) is kept: some scripts need it inside otherwise plain
// text and dropping it corrupts translated content.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '‍' {
			return r
		}
		if r < 0x20 || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
}

var punctuationReplacer = strings.NewReplacer(
	"“", `"`, // left double quotation mark
	"”", `"`, // right double quotation mark
	"„", `"`, // double low-9 quotation mark
	"‘", "'", // left single quotation mark
	"’", "'", // right single quotation mark
)

func normalizePunctuation(s string) string {
	return punctuationReplacer.Replace(s)
}

// extractSegment cuts the outermost {...} or [...] span out of surrounding
// prose, anchored on whichever opener appears first.
func extractSegment(s string) (string, bool) {
	pairs := [][2]string{{"{", "}"}, {"[", "]"}}
	if obj, arr := strings.Index(s, "{"), strings.Index(s, "["); arr >= 0 && (obj < 0 || arr < obj) {
		pairs[0], pairs[1] = pairs[1], pairs[0]
	}
	for _, pair := range pairs {
		start := strings.Index(s, pair[0])
		end := strings.LastIndex(s, pair[1])
		if start >= 0 && end > start {
			return s[start : end+1], true
		}
	}
	return "", false
}
