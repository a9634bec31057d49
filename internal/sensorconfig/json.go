package sensorconfig

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// MarshalJSON encodes the Config as an ordered JSON object: root keys as
// scalar members, then one nested object per section.
//
// A section that shares its name with a root key replaces that member.
func (c *Config) MarshalJSON() ([]byte, error) {
	out := []byte("{}")
	if c == nil {
		return out, nil
	}

	var err error
	for _, e := range c.root.Entries() {
		if out, err = setRaw(out, escapePath(e.Key), e.Value); err != nil {
			return nil, err
		}
	}

	for _, s := range c.sections {
		sp := escapePath(s.name)
		if out, err = sjson.SetRawBytes(out, sp, []byte("{}")); err != nil {
			return nil, fmt.Errorf("encoding section %q: %w", s.name, err)
		}
		for _, e := range s.Entries() {
			if out, err = setRaw(out, sp+"."+escapePath(e.Key), e.Value); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// UnmarshalJSON decodes an object produced by MarshalJSON (or any JSON
// object of the same shape). See FromJSON.
func (c *Config) UnmarshalJSON(data []byte) error {
	cfg, err := FromJSON(data)
	if err != nil {
		return err
	}
	*c = *cfg
	return nil
}

// FromJSON decodes a stored configuration object in document order.
//
// Object members become sections and scalar members become root keys.
// Members that are arrays, null, or nested deeper than one section level
// are skipped without error. An object with no usable members yields an
// empty Config; callers that require content check Len.
//
// A number outside the float64 range (e.g. 1e400) fails with
// ErrInvalidJSON wrapping ErrNonFiniteNumber. Names are not checked here;
// see Config.Validate.
func FromJSON(data []byte) (*Config, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, ErrInvalidJSON
	}

	cfg := New()
	var bad error
	set := func(s *Section, key string, r gjson.Result) bool {
		val, ok, err := scalarOf(r)
		if err != nil {
			bad = fmt.Errorf("%w: %q: %w", ErrInvalidJSON, key, err)
			return false
		}
		if ok && key != "" {
			s.Set(key, val)
		}
		return true
	}

	doc.ForEach(func(k, v gjson.Result) bool {
		name := k.String()
		if name == "" {
			return true
		}
		if v.IsObject() {
			s := cfg.AddSection(name)
			v.ForEach(func(kk, vv gjson.Result) bool {
				return set(s, kk.String(), vv)
			})
			return bad == nil
		}
		return set(cfg.root, name, v)
	})
	if bad != nil {
		return nil, bad
	}
	return cfg, nil
}

// SetJSONValue stores one value inside a JSON configuration blob, keeping
// every other member and its position. An empty section addresses the root
// object. A missing section object is created.
func SetJSONValue(blob []byte, section, key string, v Value) ([]byte, error) {
	blob, err := prepareBlob(blob)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, ErrEmptyKey
	}

	path := escapePath(key)
	if section != "" {
		sp := escapePath(section)
		if !gjson.GetBytes(blob, sp).IsObject() {
			if blob, err = sjson.SetRawBytes(blob, sp, []byte("{}")); err != nil {
				return nil, fmt.Errorf("creating section %q: %w", section, err)
			}
		}
		path = sp + "." + path
	}
	return setRaw(blob, path, v)
}

// DeleteJSONValue removes one value from a JSON configuration blob. Deleting
// a missing key is not an error.
func DeleteJSONValue(blob []byte, section, key string) ([]byte, error) {
	blob, err := prepareBlob(blob)
	if err != nil {
		return nil, err
	}
	path := escapePath(key)
	if section != "" {
		path = escapePath(section) + "." + path
	}
	out, err := sjson.DeleteBytes(blob, path)
	if err != nil {
		return nil, fmt.Errorf("deleting %q: %w", path, err)
	}
	return out, nil
}

func prepareBlob(blob []byte) ([]byte, error) {
	if len(bytes.TrimSpace(blob)) == 0 {
		return []byte("{}"), nil
	}
	if !gjson.ValidBytes(blob) || !gjson.ParseBytes(blob).IsObject() {
		return nil, ErrInvalidJSON
	}
	return blob, nil
}

func setRaw(blob []byte, path string, v Value) ([]byte, error) {
	raw, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding %q: %w", path, err)
	}
	out, err := sjson.SetRawBytes(blob, path, raw)
	if err != nil {
		return nil, fmt.Errorf("setting %q: %w", path, err)
	}
	return out, nil
}

func scalarOf(r gjson.Result) (Value, bool, error) {
	switch r.Type {
	case gjson.True:
		return BoolValue(true), true, nil
	case gjson.False:
		return BoolValue(false), true, nil
	case gjson.Number:
		v := NumberValue(r.Num)
		if err := v.checkFinite(); err != nil {
			return Value{}, false, err
		}
		return v, true, nil
	case gjson.String:
		return StringValue(r.Str), true, nil
	default:
		return Value{}, false, nil
	}
}

// pathEscaper escapes the characters gjson/sjson treat as path syntax.
var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`#`, `\#`,
	`|`, `\|`,
	`@`, `\@`,
	`:`, `\:`,
	`!`, `\!`,
	`=`, `\=`,
	`<`, `\<`,
	`>`, `\>`,
	`%`, `\%`,
)

func escapePath(component string) string {
	return pathEscaper.Replace(component)
}
