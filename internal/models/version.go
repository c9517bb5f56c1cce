package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// prereleaseIdent is a numeric identifier without leading zeros or an alphanumeric one
const prereleaseIdent = `(?:0|[1-9]\d*|\d*[A-Za-z-][0-9A-Za-z-]*)`

// semVerRegex matches MAJOR.MINOR.PATCH[-PRERELEASE][+METADATA] with an optional leading 'v'.
var semVerRegex = regexp.MustCompile(`^v?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
	`(?:-(` + prereleaseIdent + `(?:\.` + prereleaseIdent + `)*))?` +
	`(?:\+([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?$`)

// FormatError is returned when text is not a valid semantic version.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid semantic version %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("invalid semantic version %q (expected major.minor.patch[-prerelease][+metadata])", e.Input)
}

// SemanticVersion is an immutable semantic version.
//
// Metadata is informational only: it never takes part in ordering or equality.
type SemanticVersion struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string // e.g. "dev-7"
	Metadata   string // e.g. "sha.1234abc"
}

// NewSemanticVersion creates a release version without prerelease or metadata.
func NewSemanticVersion(major, minor, patch int) SemanticVersion {
	return SemanticVersion{Major: major, Minor: minor, Patch: patch}
}

// ParseSemanticVersion parses a version string (e.g. "1.2.3", "v1.2.3-dev-4+meta").
func ParseSemanticVersion(s string) (SemanticVersion, error) {
	trimmed := strings.TrimSpace(s)

	m := semVerRegex.FindStringSubmatch(trimmed)
	if m == nil {
		return SemanticVersion{}, &FormatError{Input: s}
	}

	major, err := strconv.Atoi(m[1])
	if err != nil {
		return SemanticVersion{}, &FormatError{Input: s, Reason: "major version out of range"}
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return SemanticVersion{}, &FormatError{Input: s, Reason: "minor version out of range"}
	}
	patch, err := strconv.Atoi(m[3])
	if err != nil {
		return SemanticVersion{}, &FormatError{Input: s, Reason: "patch version out of range"}
	}

	return SemanticVersion{
		Major:      major,
		Minor:      minor,
		Patch:      patch,
		Prerelease: m[4],
		Metadata:   m[5],
	}, nil
}

// MustParseSemanticVersion is like ParseSemanticVersion but panics on malformed input.
// Intended for constants and tests.
func MustParseSemanticVersion(s string) SemanticVersion {
	v, err := ParseSemanticVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// CreateFrom copies major.minor.patch from base and sets prerelease and metadata.
func CreateFrom(base SemanticVersion, prerelease, metadata string) SemanticVersion {
	return SemanticVersion{
		Major:      base.Major,
		Minor:      base.Minor,
		Patch:      base.Patch,
		Prerelease: prerelease,
		Metadata:   metadata,
	}
}

// String returns the version without 'v' prefix.
func (v SemanticVersion) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		b.WriteString("-")
		b.WriteString(v.Prerelease)
	}
	if v.Metadata != "" {
		b.WriteString("+")
		b.WriteString(v.Metadata)
	}
	return b.String()
}

// IncrementMajor returns v with major bumped and minor/patch reset.
func (v SemanticVersion) IncrementMajor() SemanticVersion {
	return SemanticVersion{Major: v.Major + 1}
}

// IncrementMinor returns v with minor bumped and patch reset.
func (v SemanticVersion) IncrementMinor() SemanticVersion {
	return SemanticVersion{Major: v.Major, Minor: v.Minor + 1}
}

// IncrementPatch returns v with patch bumped.
func (v SemanticVersion) IncrementPatch() SemanticVersion {
	return SemanticVersion{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
}

// Increment applies a bump type. Unknown bump types fall back to a minor bump.
func (v SemanticVersion) Increment(bump BumpType) SemanticVersion {
	switch bump {
	case BumpMajor:
		return v.IncrementMajor()
	case BumpPatch:
		return v.IncrementPatch()
	default:
		return v.IncrementMinor()
	}
}

// Compare compares two versions.
// Returns -1 if v < other, 0 if v == other, 1 if v > other.
// A prerelease orders before the release of the same major.minor.patch.
func (v SemanticVersion) Compare(other SemanticVersion) int {
	if c := compareInt(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareInt(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := compareInt(v.Patch, other.Patch); c != 0 {
		return c
	}

	switch {
	case v.Prerelease == "" && other.Prerelease == "":
		return 0
	case v.Prerelease == "":
		return 1
	case other.Prerelease == "":
		return -1
	}

	// Both are prereleases of the same core version; identifiers follow semver precedence.
	core := fmt.Sprintf("v%d.%d.%d-", v.Major, v.Minor, v.Patch)
	return semver.Compare(core+v.Prerelease, core+other.Prerelease)
}

// Equal reports whether both versions have the same precedence. Metadata is ignored.
func (v SemanticVersion) Equal(other SemanticVersion) bool {
	return v.Major == other.Major &&
		v.Minor == other.Minor &&
		v.Patch == other.Patch &&
		v.Prerelease == other.Prerelease
}

// LessThan reports whether v orders before other.
func (v SemanticVersion) LessThan(other SemanticVersion) bool {
	return v.Compare(other) < 0
}

// MarshalText implements encoding.TextMarshaler.
func (v SemanticVersion) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *SemanticVersion) UnmarshalText(text []byte) error {
	parsed, err := ParseSemanticVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
