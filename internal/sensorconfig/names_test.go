package sensorconfig

import (
	"errors"
	"math"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key  string
		want error
	}{
		{"baudRate", nil},
		{"wild*card.x", nil},
		{"unit of measure", nil},
		{"a]", nil},
		{"", ErrEmptyKey},
		{"a=b", ErrInvalidName},
		{"#note", ErrInvalidName},
		{";note", ErrInvalidName},
		{"[S", ErrInvalidName},
		{"k\nbad", ErrInvalidName},
		{"k\rbad", ErrInvalidName},
		{" padded", ErrInvalidName},
		{"padded\t", ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.want == nil && err != nil {
				t.Errorf("ValidateKey(%q) error = %v", tt.key, err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("ValidateKey(%q) error = %v, want %v", tt.key, err, tt.want)
			}
		})
	}
}

func TestValidateSectionName(t *testing.T) {
	tests := []struct {
		name string
		want error
	}{
		{"Communication", nil},
		{"a=b", nil},
		{"#tag", nil},
		{"", ErrEmptySectionName},
		{"a]b", ErrInvalidName},
		{"two\nlines", ErrInvalidName},
		{" Range", ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSectionName(tt.name)
			if tt.want == nil && err != nil {
				t.Errorf("ValidateSectionName(%q) error = %v", tt.name, err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("ValidateSectionName(%q) error = %v, want %v", tt.name, err, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	bad, err := FromJSON([]byte(`{"a=b":1,"#note":"x","S":{"k\nbad":2}}`))
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Validate() error = %v, want ErrInvalidName", err)
	}

	inf := New()
	inf.Set("Range", "max", NumberValue(math.Inf(1)))
	if err := inf.Validate(); !errors.Is(err, ErrNonFiniteNumber) {
		t.Errorf("Validate() error = %v, want ErrNonFiniteNumber", err)
	}

	multi := New()
	multi.Set("", "note", StringValue("two\nlines"))
	if err := multi.Validate(); !errors.Is(err, ErrMultilineValue) {
		t.Errorf("Validate() error = %v, want ErrMultilineValue", err)
	}

	var nilCfg *Config
	if err := nilCfg.Validate(); err != nil {
		t.Errorf("nil Validate() error = %v", err)
	}
}

// Every Config that validates must survive Stringify then Parse once
// ambiguous strings are quoted.
func TestValidatedConfigRoundTrip(t *testing.T) {
	blobs := []string{
		`{"a]":"x","wild*card":" spaced ","General":{"unit":"℃","on":"true","n":"-0.5","hex":"0x40"}}`,
		`{"S=1":{"k":1},"Empty":{},"[x]":{"v":"[y]"}}`,
	}
	for _, blob := range blobs {
		cfg, err := FromJSON([]byte(blob))
		if err != nil {
			t.Fatalf("FromJSON(%s) error = %v", blob, err)
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate(%s) error = %v", blob, err)
		}
		back, err := Parse(Stringify(cfg, WithQuotedAmbiguousStrings()))
		if err != nil {
			t.Fatalf("Parse(Stringify(%s)) error = %v", blob, err)
		}
		if !back.Equal(cfg) {
			t.Errorf("round trip of %s = %q", blob, Stringify(back, WithQuotedAmbiguousStrings()))
		}
	}
}
