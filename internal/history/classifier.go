package history

import (
	"regexp"
	"strings"

	"github.com/jakoblorz/go-gbuild/internal/models"
)

var (
	// DefaultBreakingMarkers flag a breaking change anywhere in a commit message
	DefaultBreakingMarkers = []string{"BREAKING CHANGE", "BREAKING-CHANGE"}

	// DefaultFeaturePrefixes flag a feature when a commit subject starts with them
	DefaultFeaturePrefixes = []string{"feat:", "feat("}
)

// bangSubjectRegex matches conventional commit subjects like "feat!:" or "fix(api)!:"
var bangSubjectRegex = regexp.MustCompile(`^[A-Za-z]+(\([^)]*\))?!:`)

// Classifier decides the ChangeType of a commit from its message.
type Classifier struct {
	BreakingMarkers []string
	FeaturePrefixes []string
}

// DefaultClassifier returns a Classifier using the conventional commit defaults.
func DefaultClassifier() Classifier {
	return Classifier{
		BreakingMarkers: append([]string(nil), DefaultBreakingMarkers...),
		FeaturePrefixes: append([]string(nil), DefaultFeaturePrefixes...),
	}
}

// Classify returns the change type of a commit message. Breaking wins over feature.
func (c Classifier) Classify(message string) models.ChangeType {
	if c.IsBreaking(message) {
		return models.ChangeTypeBreaking
	}
	if c.IsFeature(message) {
		return models.ChangeTypeFeature
	}
	return models.ChangeTypeOther
}

// IsBreaking reports whether a message contains a breaking marker or uses the "type!:" subject form.
func (c Classifier) IsBreaking(message string) bool {
	for _, marker := range c.BreakingMarkers {
		if marker != "" && strings.Contains(message, marker) {
			return true
		}
	}
	return bangSubjectRegex.MatchString(subject(message))
}

// IsFeature reports whether the subject starts with a feature prefix.
func (c Classifier) IsFeature(message string) bool {
	s := subject(message)
	for _, prefix := range c.FeaturePrefixes {
		if prefix != "" && strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func subject(message string) string {
	return models.Commit{Message: message}.Subject()
}
