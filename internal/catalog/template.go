package catalog

import "regexp"

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_-]+)\s*\}\}`)

// ResolveTemplate substitutes {{fieldName}} placeholders in a bound prop
// value with entries from a section's data bag. A placeholder whose field is
// absent is left verbatim. Display-only; nothing here is persisted.
func ResolveTemplate(template string, data map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if value, ok := data[name]; ok {
			return value
		}
		return match
	})
}
