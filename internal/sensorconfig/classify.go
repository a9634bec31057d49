package sensorconfig

import (
	"regexp"
	"strings"
)

// LineKind classifies one line of configuration text.
type LineKind uint8

// Line kinds.
const (
	LineBlank LineKind = iota
	LineComment
	LineSection
	LineKeyValue
	LineMalformed
)

// String returns the kind name.
func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineComment:
		return "comment"
	case LineSection:
		return "section"
	case LineKeyValue:
		return "key_value"
	default:
		return "malformed"
	}
}

var sectionPattern = regexp.MustCompile(`^\[(.+)\]$`)

// Line is a classified line. Name is set for LineSection; Key and RawValue
// (trimmed, not yet coerced) for LineKeyValue.
type Line struct {
	Kind     LineKind
	Name     string
	Key      string
	RawValue string
}

// Classify trims a line and decides what it is.
//
// Section headers are recognised before key=value pairs, so "[a=b]" is a
// section named "a=b". The key of a pair is everything before the first "=".
//
// Returns ErrEmptySectionName for "[ ]" and ErrEmptyKey for "=value".
// A malformed line is not an error here; the caller decides.
func Classify(line string) (Line, error) {
	trimmed := strings.TrimSpace(line)

	switch {
	case trimmed == "":
		return Line{Kind: LineBlank}, nil
	case trimmed[0] == ';' || trimmed[0] == '#':
		return Line{Kind: LineComment}, nil
	}

	if m := sectionPattern.FindStringSubmatch(trimmed); m != nil {
		name := strings.TrimSpace(m[1])
		if name == "" {
			return Line{}, ErrEmptySectionName
		}
		return Line{Kind: LineSection, Name: name}, nil
	}

	if key, value, ok := strings.Cut(trimmed, "="); ok {
		key = strings.TrimSpace(key)
		if key == "" {
			return Line{}, ErrEmptyKey
		}
		return Line{Kind: LineKeyValue, Key: key, RawValue: strings.TrimSpace(value)}, nil
	}

	return Line{Kind: LineMalformed}, nil
}
