package tui

import (
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// maxInputLen is the maximum number of runes allowed in search and form inputs.
const maxInputLen = 2000

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
// Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	}
	if utf8.RuneCountInString(key) == 1 {
		if utf8.RuneCountInString(text) >= maxInputLen {
			return text
		}
		return text + key
	}
	return text
}

// editKey applies a key message to text. Typed and pasted runes are appended
// up to maxInputLen; named keys go through editRune.
func editKey(text string, msg tea.KeyMsg) string {
	switch msg.Type {
	case tea.KeySpace:
		return editRune(text, " ")
	case tea.KeyRunes:
		if msg.Alt {
			return text
		}
		room := maxInputLen - utf8.RuneCountInString(text)
		runes := msg.Runes
		if room <= 0 {
			return text
		}
		if len(runes) > room {
			runes = runes[:room]
		}
		return text + string(runes)
	}
	return editRune(text, msg.String())
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// renderInput renders a labelled single-line input with a block cursor when
// focused and a placeholder when empty.
func renderInput(label, value, placeholder string, focused, masked bool) string {
	shown := value
	if masked {
		shown = ""
		for range []rune(value) {
			shown += "*"
		}
	}
	prompt := metaStyle.Render(label + ": ")
	if focused {
		prompt = inputPromptStyle.Render(label + ": ")
		return prompt + normalStyle.Render(shown) + accentStyle.Render("█")
	}
	if shown == "" {
		return prompt + inputPlaceholderStyle.Render(placeholder)
	}
	return prompt + dimStyle.Render(shown)
}
