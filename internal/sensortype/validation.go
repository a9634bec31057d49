package sensortype

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nerrad567/gray-logic-sensors/internal/sensorconfig"
)

const (
	maxNameLength        = 64
	maxDescriptionLength = 255
	maxConfigKeys        = 200
)

// Names appear in URLs and MQTT topics, so they are limited to a safe set.
var nameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// ValidateName checks a sensor type name.
func ValidateName(name string) error {
	if name == "" || name != strings.TrimSpace(name) {
		return fmt.Errorf("%w: must be non-empty without surrounding spaces", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q may only contain letters, digits, '.', '_' and '-'", ErrInvalidName, name)
	}
	return nil
}

// ValidateDescription checks a sensor type description.
func ValidateDescription(desc string) error {
	if strings.TrimSpace(desc) == "" {
		return fmt.Errorf("%w: required", ErrInvalidDescription)
	}
	if utf8.RuneCountInString(desc) > maxDescriptionLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidDescription, maxDescriptionLength)
	}
	return nil
}

// Validate checks every field of a sensor type.
func Validate(t *SensorType) error {
	if t == nil {
		return fmt.Errorf("%w: nil sensor type", ErrInvalidName)
	}
	if err := ValidateName(t.Name); err != nil {
		return err
	}
	if err := ValidateDescription(t.Description); err != nil {
		return err
	}
	if t.Config == nil || t.Config.Len() == 0 {
		return fmt.Errorf("%w: at least one key is required", ErrInvalidConfig)
	}
	if t.Config.Len() > maxConfigKeys {
		return fmt.Errorf("%w: more than %d keys", ErrInvalidConfig, maxConfigKeys)
	}
	if err := t.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ValidateConfigValue checks a single value addressed by section and key.
// An empty section is the root scope.
func ValidateConfigValue(section, key string, v sensorconfig.Value) error {
	if section != "" {
		if err := sensorconfig.ValidateSectionName(section); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if err := sensorconfig.ValidateKey(key); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := sensorconfig.ValidateValue(v); err != nil {
		return fmt.Errorf("%w: key %q: %w", ErrInvalidConfig, key, err)
	}
	return nil
}
