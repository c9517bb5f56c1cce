package models

import (
	"fmt"
	"strings"
)

// BumpType represents the type of version bump a branch applies to a changed project.
type BumpType string

const (
	BumpPatch BumpType = "patch"
	BumpMinor BumpType = "minor"
	BumpMajor BumpType = "major"
)

// IsValid checks if the bump type is valid
func (b BumpType) IsValid() bool {
	switch b {
	case BumpPatch, BumpMinor, BumpMajor:
		return true
	default:
		return false
	}
}

// String returns the string representation of BumpType
func (b BumpType) String() string {
	return string(b)
}

// ParseBumpType parses a string into a BumpType.
// Empty input yields BumpMinor.
func ParseBumpType(s string) (BumpType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return BumpMinor, nil
	}

	bt := BumpType(s)
	if !bt.IsValid() {
		return "", fmt.Errorf("invalid increment: %s (must be patch, minor, or major)", s)
	}
	return bt, nil
}
