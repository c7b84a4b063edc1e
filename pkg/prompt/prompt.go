// Package prompt renders llm prompt templates with {key} placeholders.
package prompt

import "strings"

// Render replaces every literal {key} occurrence in template with the value
// from vars, for all provided keys. Substitution happens in a single pass over
// the original template: substituted text is never re-scanned, and the result
// does not depend on the iteration order of vars.
func Render(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}

	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{"+key+"}", value)
	}

	return strings.NewReplacer(pairs...).Replace(template)
}
