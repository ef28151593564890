package core

import "strings"

// Validate compares the rendering of p with source, ignoring blank lines
// and NBSP. The first differing line is reported as a *RoundTripError.
func Validate(source string, p *Page) error {
	want := nonBlankLines(canonicalSource(source))
	got := nonBlankLines(p.Content())

	for i := 0; i < max(len(want), len(got)); i++ {
		var w, g string
		if i < len(want) {
			w = want[i]
		}
		if i < len(got) {
			g = got[i]
		}
		if w != g {
			return &RoundTripError{Line: i + 1, Expected: w, Got: g}
		}
	}
	return nil
}

// canonicalSource normalizes line endings, NBSP and '*' bullets, removes the
// indentation shared by every line and trims the document.
func canonicalSource(s string) string {
	lines := strings.Split(strings.Trim(normalizeSource(s), "\n"), "\n")
	for i, line := range lines {
		lines[i] = normalizeBullet(line)
	}
	return strings.TrimSpace(dedent(strings.Join(lines, "\n")))
}
