package translate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultChunkSize is the largest chunk, in runes, sent to an engine.
const DefaultChunkSize = 4800

var sentenceEndRe = regexp.MustCompile(`[.!?。！？]+["')\]]*\s+`)

// splitters break text into pieces whose concatenation is the input, from
// the coarsest boundary to the finest.
var splitters = []func(string) []string{
	func(s string) []string { return strings.SplitAfter(s, "\n\n") },
	func(s string) []string { return strings.SplitAfter(s, "\n") },
	splitSentences,
	splitWords,
}

// SplitChunks cuts text into chunks of at most max runes, preferring
// paragraph, then line, sentence, word and finally rune boundaries.
// Concatenating the chunks yields text unchanged.
func SplitChunks(text string, max int) []string {
	if max <= 0 {
		max = DefaultChunkSize
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return pack(text, max, 0)
}

func pack(text string, max, level int) []string {
	if utf8.RuneCountInString(text) <= max {
		return []string{text}
	}
	if level == len(splitters) {
		return splitRunes(text, max)
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, part := range splitters[level](text) {
		if part == "" {
			continue
		}
		n := utf8.RuneCountInString(part)
		if n > max {
			flush()
			chunks = append(chunks, pack(part, max, level+1)...)
			continue
		}
		if curLen+n > max {
			flush()
		}
		cur.WriteString(part)
		curLen += n
	}
	flush()
	return chunks
}

func splitSentences(s string) []string {
	var parts []string
	last := 0
	for _, m := range sentenceEndRe.FindAllStringIndex(s, -1) {
		parts = append(parts, s[last:m[1]])
		last = m[1]
	}
	return append(parts, s[last:])
}

func splitWords(s string) []string {
	var parts []string
	start := 0
	inSpace := false
	for i, r := range s {
		space := unicode.IsSpace(r)
		if inSpace && !space {
			parts = append(parts, s[start:i])
			start = i
		}
		inSpace = space
	}
	return append(parts, s[start:])
}

func splitRunes(s string, max int) []string {
	var parts []string
	for len(s) > 0 {
		i, n := 0, 0
		for i < len(s) && n < max {
			_, size := utf8.DecodeRuneInString(s[i:])
			i += size
			n++
		}
		parts = append(parts, s[:i])
		s = s[i:]
	}
	return parts
}

// keepSpacing re-applies the leading and trailing whitespace of orig to
// translated, which engines commonly trim.
func keepSpacing(orig, translated string) string {
	lead := orig[:len(orig)-len(strings.TrimLeftFunc(orig, unicode.IsSpace))]
	trail := orig[len(strings.TrimRightFunc(orig, unicode.IsSpace)):]
	if strings.TrimSpace(orig) == "" {
		return orig
	}
	return lead + strings.TrimSpace(translated) + trail
}
