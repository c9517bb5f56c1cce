package strategy

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Template variable names
const (
	VarFeatureName = "featurename"
	VarBranchName  = "branchname"
	VarIssueID     = "issueid"
	VarProjectName = "projectname"
	VarCommitCount = "commitcount"
	VarWildcard    = "wildcard" // wildcard1..N
)

var (
	placeholderRegex = regexp.MustCompile(`\{([A-Za-z][A-Za-z0-9]*)\}`)
	invalidCharRegex = regexp.MustCompile(`[^0-9A-Za-z.-]+`)
	dotsRegex        = regexp.MustCompile(`\.{2,}`)
)

// textTemplate is a prerelease or metadata template.
//
// Simple templates use {name} placeholders. Templates containing "{{" are
// executed as text/template with the sprig function map; their {name}
// placeholders are turned into {{ .name }} actions first.
type textTemplate struct {
	source string
	tmpl   *template.Template
}

func parseTemplate(name, source string) (textTemplate, error) {
	t := textTemplate{source: source}
	if !strings.Contains(source, "{{") {
		return t, nil
	}

	// {name} placeholders become actions so both syntaxes can be mixed
	actions := placeholderRegex.ReplaceAllStringFunc(source, func(match string) string {
		variable := match[1 : len(match)-1]
		if !isVariable(variable) {
			return match
		}
		return "{{ ." + variable + " }}"
	})

	tmpl, err := template.New(name).Funcs(sprig.TxtFuncMap()).Option("missingkey=zero").Parse(actions)
	if err != nil {
		return t, fmt.Errorf("failed to parse %s template %q: %w", name, source, err)
	}
	t.tmpl = tmpl
	return t, nil
}

// isVariable reports whether name is a template variable
func isVariable(name string) bool {
	switch name {
	case VarFeatureName, VarBranchName, VarIssueID, VarProjectName, VarCommitCount:
		return true
	}
	return strings.HasPrefix(name, VarWildcard) && isDigits(strings.TrimPrefix(name, VarWildcard))
}

// isEmpty reports whether the template has no source text
func (t textTemplate) isEmpty() bool {
	return strings.TrimSpace(t.source) == ""
}

// references reports whether the template uses a variable in either syntax
func (t textTemplate) references(variable string) bool {
	return strings.Contains(t.source, "{"+variable+"}") || strings.Contains(t.source, "."+variable)
}

func (t textTemplate) render(vars map[string]string) (string, error) {
	if t.tmpl == nil {
		return substitute(t.source, vars), nil
	}

	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", t.source, err)
	}
	return buf.String(), nil
}

// substitute replaces known {name} placeholders; unknown placeholders are kept
func substitute(source string, vars map[string]string) string {
	return placeholderRegex.ReplaceAllStringFunc(source, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := vars[name]; ok {
			return value
		}
		return match
	})
}

// sanitizeIdentifiers turns arbitrary text into dot-separated semver identifiers.
// Runs of invalid characters become '-'; numeric identifiers lose leading zeros
// when numeric is set (prerelease rules).
func sanitizeIdentifiers(s string, numeric bool) string {
	s = invalidCharRegex.ReplaceAllString(strings.TrimSpace(s), "-")
	s = dotsRegex.ReplaceAllString(s, ".")
	s = strings.Trim(s, ".")
	if s == "" {
		return ""
	}

	if !numeric {
		return s
	}

	parts := strings.Split(s, ".")
	for i, part := range parts {
		if isDigits(part) {
			trimmed := strings.TrimLeft(part, "0")
			if trimmed == "" {
				trimmed = "0"
			}
			parts[i] = trimmed
		}
	}
	return strings.Join(parts, ".")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
