// Package prompt holds the instruction templates sent to the generative
// service and renders their {{variable}} placeholders.
package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

var variablePattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Template is a system/user prompt pair.
type Template struct {
	Name   string
	System string
	User   string
}

// Render fills both halves of the template. Every placeholder must have a value.
func (t Template) Render(vars map[string]string) (system, user string, err error) {
	if system, err = Render(t.System, vars); err != nil {
		return "", "", fmt.Errorf("render %s system prompt: %w", t.Name, err)
	}
	if user, err = Render(t.User, vars); err != nil {
		return "", "", fmt.Errorf("render %s user prompt: %w", t.Name, err)
	}
	return system, user, nil
}

// Render replaces {{variable}} placeholders in the template with values from vars.
func Render(template string, vars map[string]string) (string, error) {
	missing := findMissingVars(template, vars)
	if len(missing) > 0 {
		return "", fmt.Errorf("missing template variables: %s", strings.Join(missing, ", "))
	}

	// single pass, so values containing braces are never re-expanded
	return variablePattern.ReplaceAllStringFunc(template, func(match string) string {
		return vars[match[2:len(match)-2]]
	}), nil
}

// ExtractVariables returns the variable names found in the template, in order of first use.
func ExtractVariables(template string) []string {
	matches := variablePattern.FindAllStringSubmatch(template, -1)
	seen := make(map[string]bool)
	var vars []string
	for _, m := range matches {
		if !seen[m[1]] {
			vars = append(vars, m[1])
			seen[m[1]] = true
		}
	}
	return vars
}

func findMissingVars(template string, vars map[string]string) []string {
	var missing []string
	for _, v := range ExtractVariables(template) {
		if _, ok := vars[v]; !ok {
			missing = append(missing, v)
		}
	}
	return missing
}

// List joins values for inclusion in a prompt, or returns empty when there are none.
func List(values []string, empty string) string {
	var kept []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return empty
	}
	return strings.Join(kept, ", ")
}
