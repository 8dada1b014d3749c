package service

import "strings"

// Slugify derives a URL slug from a page title: lowercase, every run of
// characters outside [a-z0-9-] collapsed to a single hyphen, leading and
// trailing hyphens trimmed.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
			lastHyphen = r == '-'
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
