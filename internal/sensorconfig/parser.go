package sensorconfig

import (
	"fmt"
	"io"
	"regexp"
)

var newlinePattern = regexp.MustCompile(`\r?\n`)

// Parse builds a Config from configuration text.
//
// Keys before the first section header go to the root scope; keys after a
// header go to that section. A repeated header reopens the section, and a
// repeated key overwrites the earlier value in place.
//
// Parsing stops at the first problem and returns a *ParseError wrapping one
// of ErrEmptyInput, ErrEmptySectionName, ErrEmptyKey, ErrMalformedLine or
// ErrEmptyConfig. No partial Config is returned.
func Parse(text string) (*Config, error) {
	if text == "" {
		return nil, &ParseError{Err: ErrEmptyInput}
	}

	cfg := New()
	current := cfg.root

	for i, raw := range newlinePattern.Split(text, -1) {
		line, err := Classify(raw)
		if err != nil {
			return nil, &ParseError{Err: err, Line: i + 1, Raw: raw}
		}

		switch line.Kind {
		case LineSection:
			current = cfg.AddSection(line.Name)
		case LineKeyValue:
			current.Set(line.Key, Coerce(line.RawValue))
		case LineMalformed:
			return nil, &ParseError{Err: ErrMalformedLine, Line: i + 1, Raw: raw}
		case LineBlank, LineComment:
		}
	}

	if cfg.Len() == 0 {
		return nil, &ParseError{Err: ErrEmptyConfig}
	}
	return cfg, nil
}

// ParseReader reads all of r and parses it.
func ParseReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading configuration text: %w", err)
	}
	return Parse(string(data))
}
