package sensortype

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "Temperature", false},
		{"with separators", "PT-100_v2.1", false},
		{"empty", "", true},
		{"leading space", " Flow", true},
		{"leading dash", "-Flow", true},
		{"slash", "a/b", true},
		{"mqtt wildcard", "a+b", true},
		{"too long", strings.Repeat("x", maxNameLength+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidName) {
				t.Errorf("error %v does not wrap ErrInvalidName", err)
			}
		})
	}
}

func TestValidateDescription(t *testing.T) {
	if err := ValidateDescription("温湿度传感器"); err != nil {
		t.Errorf("unicode description rejected: %v", err)
	}
	if err := ValidateDescription("   "); !errors.Is(err, ErrInvalidDescription) {
		t.Errorf("blank description error = %v", err)
	}
	if err := ValidateDescription(strings.Repeat("é", maxDescriptionLength+1)); !errors.Is(err, ErrInvalidDescription) {
		t.Errorf("long description error = %v", err)
	}
}
