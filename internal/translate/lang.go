package translate

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// NormalizeLang validates a BCP 47 code and returns its canonical form.
func NormalizeLang(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" || code == "auto" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	if base, conf := tag.Base(); conf == language.No || base.String() == "und" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	return tag.String(), nil
}

func baseLang(code string) string {
	if i := strings.IndexAny(code, "-_"); i > 0 {
		return code[:i]
	}
	return code
}

// langName returns the English display name used in model prompts.
func langName(code string) string {
	if code == "" || code == "auto" {
		return "the detected source language"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

func systemPrompt(source, target string) string {
	return fmt.Sprintf(
		"You are a professional translator of video transcripts. Translate the user's text from %s to %s. "+
			"Preserve meaning, tone and line breaks. Keep every marker of the form [#n] exactly as written "+
			"at the start of its line. Respond with ONLY the translated text.",
		langName(source), langName(target),
	)
}
