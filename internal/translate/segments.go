package translate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var markerRe = regexp.MustCompile(`(?m)^\s*\[#(\d+)\]\s?`)

// JoinSegments places each text on its own line behind a [#n] marker so a
// batch of independent texts can be translated as one document.
func JoinSegments(texts []string) string {
	var sb strings.Builder
	for i, t := range texts {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "[#%d] %s", i, strings.Join(strings.Fields(t), " "))
	}
	return sb.String()
}

// SplitSegments recovers the texts behind each marker of translated. A
// segment whose marker went missing, or came back empty, keeps its
// original text and is counted in lost.
func SplitSegments(translated string, originals []string) (out []string, lost int) {
	found := make(map[int]string, len(originals))
	locs := markerRe.FindAllStringSubmatchIndex(translated, -1)
	for i, loc := range locs {
		idx, err := strconv.Atoi(translated[loc[2]:loc[3]])
		if err != nil || idx < 0 || idx >= len(originals) {
			continue
		}
		end := len(translated)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if _, dup := found[idx]; dup {
			continue
		}
		found[idx] = strings.Join(strings.Fields(translated[loc[1]:end]), " ")
	}

	out = make([]string, len(originals))
	for i, orig := range originals {
		if t := found[i]; t != "" {
			out[i] = t
			continue
		}
		out[i] = orig
		if strings.TrimSpace(orig) != "" {
			lost++
		}
	}
	return out, lost
}
