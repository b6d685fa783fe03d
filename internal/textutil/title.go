package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that do not decompose into a base letter plus combining marks.
var ligatures = strings.NewReplacer(
	"ß", "ss",
	"Æ", "AE", "æ", "ae",
	"Œ", "OE", "œ", "oe",
	"Ø", "O", "ø", "o",
	"Ł", "L", "ł", "l",
	"Đ", "D", "đ", "d",
	"Þ", "Th", "þ", "th",
	"’", "'", "‘", "'",
)

var titleCaser = cases.Title(language.English, cases.NoLower)

// Transliterate folds s to ASCII where a Latin equivalent exists. Characters
// without one are dropped.
func Transliterate(s string) string {
	s = ligatures.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeTitle reduces a title to the characters allowed in a folder name:
// ASCII letters, digits, spaces, underscores and hyphens. Runs of spaces
// collapse to one. The result may be empty.
func SanitizeTitle(title string) string {
	ascii := Transliterate(title)
	var b strings.Builder
	b.Grow(len(ascii))
	space := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
			space = false
		case r == ' ' || r == '\t':
			if !space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// DisplayTitle title-cases a topic for use in generated metadata without
// lowering acronyms.
func DisplayTitle(title string) string {
	return titleCaser.String(strings.TrimSpace(title))
}
