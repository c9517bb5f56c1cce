package strategy

import (
	"strings"
)

const headsPrefix = "refs/heads/"

// QualifyBranch returns the fully qualified ref name of a branch.
// Names already under refs/ are returned unchanged.
func QualifyBranch(name string) string {
	if strings.HasPrefix(name, "refs/") {
		return name
	}
	return headsPrefix + name
}

// ShortBranch strips the refs/heads/ prefix from a branch ref.
func ShortBranch(name string) string {
	return strings.TrimPrefix(name, headsPrefix)
}

// matchPattern matches a branch ref against a pattern.
//
// Patterns starting with refs/ match the fully qualified name, all other
// patterns match the short branch name. Segments are separated by '/' and a
// '*' segment matches exactly one non-empty segment. The captured segments are
// returned in order.
func matchPattern(pattern, branch string) ([]string, bool) {
	target := ShortBranch(QualifyBranch(branch))
	if strings.HasPrefix(pattern, "refs/") {
		target = QualifyBranch(branch)
	}

	patternSegments := strings.Split(pattern, "/")
	branchSegments := strings.Split(target, "/")
	if len(patternSegments) != len(branchSegments) {
		return nil, false
	}

	captures := []string{}
	for i, segment := range patternSegments {
		switch {
		case segment == "*":
			if branchSegments[i] == "" {
				return nil, false
			}
			captures = append(captures, branchSegments[i])
		case segment != branchSegments[i]:
			return nil, false
		}
	}

	return captures, true
}
