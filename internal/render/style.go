package render

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// stylePresets maps the chat keyboard labels to the qualifier sent to the
// model. Keys are normalized with normalizeStyle.
var stylePresets = map[string]string{
	"реализм":   "realistic",
	"аниме":     "anime",
	"фэнтези":   "fantasy",
	"киберпанк": "cyberpunk",
	"realism":   "realistic",
	"realistic": "realistic",
	"anime":     "anime",
	"fantasy":   "fantasy",
	"cyberpunk": "cyberpunk",
}

// StylePresets lists the keyboard labels offered to end users.
func StylePresets() []string {
	return []string{"Реализм", "Аниме", "Фэнтези", "Киберпанк"}
}

// StyleQualifier turns a user-chosen style into the qualifier folded into the
// prompt. Known presets are translated, anything else is normalized.
func StyleQualifier(style string) string {
	key := normalizeStyle(style)
	if key == "" {
		return ""
	}
	if preset, ok := stylePresets[key]; ok {
		return preset
	}
	return key
}

// ComposePrompt folds the style qualifier into the prompt text.
func ComposePrompt(prompt, style string) string {
	prompt = strings.TrimSpace(norm.NFC.String(prompt))
	qualifier := StyleQualifier(style)
	if prompt == "" || qualifier == "" {
		return prompt
	}
	return fmt.Sprintf("%s, %s style", prompt, qualifier)
}

func normalizeStyle(style string) string {
	s := strings.TrimSpace(norm.NFC.String(style))
	s = strings.TrimSuffix(cases.Lower(language.Und).String(s), " style")
	return strings.Join(strings.Fields(s), " ")
}
