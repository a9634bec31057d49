package sensorconfig

import (
	"encoding/json"
	"math"
	"strconv"
)

// Kind identifies the scalar type held by a Value.
type Kind uint8

// Value kinds.
const (
	KindString Kind = iota
	KindBool
	KindNumber
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	default:
		return "string"
	}
}

// Value is a typed configuration scalar: a boolean, a number or a string.
// The zero Value is the empty string.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
}

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// NumberValue returns a numeric Value.
func NumberValue(f float64) Value { return Value{kind: KindNumber, n: f} }

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// Kind reports the scalar type.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean and whether v holds one.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Number returns the number and whether v holds one.
func (v Value) Number() (float64, bool) { return v.n, v.kind == KindNumber }

// Str returns the string and whether v holds one.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// String renders the value the way it is written in configuration text:
// true/false, the shortest decimal form of a number, or the raw string.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return formatNumber(v.n)
	default:
		return v.s
	}
}

// Interface returns the value as bool, float64 or string.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	default:
		return v.s
	}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	default:
		return v.s == o.s
	}
}

// MarshalJSON encodes the value as a JSON boolean, number or string.
// NaN and infinities fail with ErrNonFiniteNumber.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return []byte(strconv.FormatBool(v.b)), nil
	case KindNumber:
		if err := v.checkFinite(); err != nil {
			return nil, err
		}
		return []byte(formatNumber(v.n)), nil
	default:
		return json.Marshal(v.s)
	}
}

// ValueOf converts a decoded scalar (bool, any numeric type, string) into a
// Value. Other types report false.
func ValueOf(x any) (Value, bool) {
	switch t := x.(type) {
	case Value:
		return t, true
	case bool:
		return BoolValue(t), true
	case string:
		return StringValue(t), true
	case float64:
		return NumberValue(t), !math.IsInf(t, 0) && !math.IsNaN(t)
	case float32:
		return ValueOf(float64(t))
	case int:
		return NumberValue(float64(t)), true
	case int64:
		return NumberValue(float64(t)), true
	case int32:
		return NumberValue(float64(t)), true
	case uint:
		return NumberValue(float64(t)), true
	case uint64:
		return NumberValue(float64(t)), true
	case uint32:
		return NumberValue(float64(t)), true
	default:
		return Value{}, false
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Entry is one key and its value.
type Entry struct {
	Key   string
	Value Value
}

// Section is an ordered key → Value mapping. The root scope of a Config is a
// Section with an empty name.
//
// Setting an existing key replaces its value but keeps its original
// position.
type Section struct {
	name   string
	keys   []string
	values map[string]Value
}

func newSection(name string) *Section {
	return &Section{name: name, values: make(map[string]Value)}
}

// Name returns the section name ("" for the root scope).
func (s *Section) Name() string { return s.name }

// Len returns the number of keys.
func (s *Section) Len() int { return len(s.keys) }

// Set stores a value, overwriting any previous value for key.
func (s *Section) Set(key string, v Value) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = v
}

// Get returns the value for key.
func (s *Section) Get(key string) (Value, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Delete removes key and reports whether it was present.
func (s *Section) Delete(key string) bool {
	if _, ok := s.values[key]; !ok {
		return false
	}
	delete(s.values, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in insertion order.
func (s *Section) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Entries returns the key/value pairs in insertion order.
func (s *Section) Entries() []Entry {
	out := make([]Entry, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, Entry{Key: k, Value: s.values[k]})
	}
	return out
}

func (s *Section) equal(o *Section) bool {
	if s.name != o.name || len(s.keys) != len(o.keys) {
		return false
	}
	for i, k := range s.keys {
		if o.keys[i] != k || !s.values[k].Equal(o.values[k]) {
			return false
		}
	}
	return true
}

func (s *Section) clone() *Section {
	cpy := newSection(s.name)
	cpy.keys = make([]string, len(s.keys))
	copy(cpy.keys, s.keys)
	for k, v := range s.values {
		cpy.values[k] = v
	}
	return cpy
}

// Config is a parsed configuration: a root scope plus zero or more named
// sections, all kept in insertion order. A Config with no sections is in
// flat mode.
type Config struct {
	root     *Section
	sections []*Section
	index    map[string]*Section
}

// New returns an empty Config.
func New() *Config {
	return &Config{
		root:  newSection(""),
		index: make(map[string]*Section),
	}
}

// Root returns the root scope.
func (c *Config) Root() *Section { return c.root }

// Flat reports whether the config has no named sections.
func (c *Config) Flat() bool { return len(c.sections) == 0 }

// Sections returns the named sections in declaration order.
func (c *Config) Sections() []*Section {
	out := make([]*Section, len(c.sections))
	copy(out, c.sections)
	return out
}

// Section returns the named section.
func (c *Config) Section(name string) (*Section, bool) {
	s, ok := c.index[name]
	return s, ok
}

// AddSection returns the named section, creating it at the end if it does
// not exist yet. Reopening an existing section keeps its keys.
func (c *Config) AddSection(name string) *Section {
	if s, ok := c.index[name]; ok {
		return s
	}
	s := newSection(name)
	c.sections = append(c.sections, s)
	c.index[name] = s
	return s
}

// Get looks up a key. An empty section addresses the root scope.
func (c *Config) Get(section, key string) (Value, bool) {
	if section == "" {
		return c.root.Get(key)
	}
	s, ok := c.index[section]
	if !ok {
		return Value{}, false
	}
	return s.Get(key)
}

// Set stores a key. An empty section addresses the root scope; any other
// section is created on demand.
func (c *Config) Set(section, key string, v Value) {
	if section == "" {
		c.root.Set(key, v)
		return
	}
	c.AddSection(section).Set(key, v)
}

// Len returns the total number of keys across all scopes.
func (c *Config) Len() int {
	n := c.root.Len()
	for _, s := range c.sections {
		n += s.Len()
	}
	return n
}

// Equal reports whether both configs hold the same scopes, keys, values and
// ordering.
func (c *Config) Equal(o *Config) bool {
	if c == nil || o == nil {
		return c == o
	}
	if !c.root.equal(o.root) || len(c.sections) != len(o.sections) {
		return false
	}
	for i, s := range c.sections {
		if !s.equal(o.sections[i]) {
			return false
		}
	}
	return true
}

// Clone returns an independent deep copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cpy := New()
	cpy.root = c.root.clone()
	for _, s := range c.sections {
		sc := s.clone()
		cpy.sections = append(cpy.sections, sc)
		cpy.index[sc.name] = sc
	}
	return cpy
}
