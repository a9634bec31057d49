package sensorconfig

import (
	"fmt"
	"math"
	"strings"
)

// ValidateKey reports whether key can be written as the left side of a
// key=value line and parsed back as the same key.
//
// Rejected: empty keys, surrounding whitespace, '=', line breaks, and a
// leading ';', '#' or '[' (which would read as a comment or header).
func ValidateKey(key string) error {
	switch {
	case key == "":
		return ErrEmptyKey
	case strings.TrimSpace(key) != key:
		return fmt.Errorf("%w: key %q has surrounding whitespace", ErrInvalidName, key)
	case strings.ContainsAny(key, "=\r\n"):
		return fmt.Errorf("%w: key %q contains '=' or a line break", ErrInvalidName, key)
	case strings.ContainsRune(";#[", rune(key[0])):
		return fmt.Errorf("%w: key %q starts with %q", ErrInvalidName, key, key[0])
	}
	return nil
}

// ValidateSectionName reports whether name can be written as a [name]
// header and parsed back unchanged.
func ValidateSectionName(name string) error {
	switch {
	case name == "":
		return ErrEmptySectionName
	case strings.TrimSpace(name) != name:
		return fmt.Errorf("%w: section %q has surrounding whitespace", ErrInvalidName, name)
	case strings.ContainsAny(name, "]\r\n"):
		return fmt.Errorf("%w: section %q contains ']' or a line break", ErrInvalidName, name)
	}
	return nil
}

// ValidateValue reports whether v has a text form: numbers must be finite
// and strings must fit on one line.
func ValidateValue(v Value) error {
	switch v.kind {
	case KindNumber:
		return v.checkFinite()
	case KindString:
		if strings.ContainsAny(v.s, "\r\n") {
			return ErrMultilineValue
		}
	}
	return nil
}

// Validate checks every name in c with ValidateKey or ValidateSectionName
// and every value with ValidateValue. A Config that validates always
// survives Stringify then Parse with the same names.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if err := validateEntries(c.root); err != nil {
		return err
	}
	for _, s := range c.sections {
		if err := ValidateSectionName(s.name); err != nil {
			return err
		}
		if err := validateEntries(s); err != nil {
			return fmt.Errorf("section %q: %w", s.name, err)
		}
	}
	return nil
}

func validateEntries(s *Section) error {
	for _, e := range s.Entries() {
		if err := ValidateKey(e.Key); err != nil {
			return err
		}
		if err := ValidateValue(e.Value); err != nil {
			return fmt.Errorf("key %q: %w", e.Key, err)
		}
	}
	return nil
}

func (v Value) checkFinite() error {
	if v.kind == KindNumber && (math.IsInf(v.n, 0) || math.IsNaN(v.n)) {
		return ErrNonFiniteNumber
	}
	return nil
}
