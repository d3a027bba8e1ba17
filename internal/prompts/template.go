package prompts

import (
	"regexp"
)

// placeholder matches `{{.variable_name}}`.
var placeholder = regexp.MustCompile(`\{\{\.([A-Za-z_][A-Za-z0-9_]*)\}\}`)

// PromptTemplate represents a string template that can be formatted.
type PromptTemplate struct {
	Template string
}

// NewPromptTemplate creates a new prompt template.
func NewPromptTemplate(template string) PromptTemplate {
	return PromptTemplate{Template: template}
}

// Format substitutes variables in the template string in a single pass.
// Variables are in the format `{{.variable_name}}`. Placeholders without a
// value are left untouched, and substituted values are never re-expanded,
// so source code containing `{{.x}}` passes through verbatim.
func (p PromptTemplate) Format(vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(p.Template, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		if value, ok := vars[key]; ok {
			return value
		}
		return m
	})
}

// Variables lists the placeholder names used by the template, in order of
// first appearance.
func (p PromptTemplate) Variables() []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(p.Template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
