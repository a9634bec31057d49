package sensorconfig

import (
	"errors"
	"strings"
	"testing"
)

// build constructs an expected Config: root pairs first, then sections.
func build(root []Entry, sections ...sectionSpec) *Config {
	cfg := New()
	for _, e := range root {
		cfg.Root().Set(e.Key, e.Value)
	}
	for _, s := range sections {
		sec := cfg.AddSection(s.name)
		for _, e := range s.entries {
			sec.Set(e.Key, e.Value)
		}
	}
	return cfg
}

type sectionSpec struct {
	name    string
	entries []Entry
}

func TestParseSectioned(t *testing.T) {
	text := "[General]\nunit=℃\nenable=true\n\n[Range]\nmin=-40\nmax=125\n"

	got, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := build(nil,
		sectionSpec{"General", []Entry{{"unit", StringValue("℃")}, {"enable", BoolValue(true)}}},
		sectionSpec{"Range", []Entry{{"min", NumberValue(-40)}, {"max", NumberValue(125)}}},
	)
	if !got.Equal(want) {
		t.Errorf("Parse() = %s, want %s", Stringify(got), Stringify(want))
	}
	if got.Flat() {
		t.Error("Flat() = true for sectioned document")
	}
	if got.Root().Len() != 0 {
		t.Errorf("Root().Len() = %d, want 0", got.Root().Len())
	}
}

func TestParseFlat(t *testing.T) {
	got, err := Parse("baudRate=9600\nparity=None\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !got.Flat() {
		t.Fatal("Flat() = false, want true")
	}
	want := build([]Entry{{"baudRate", NumberValue(9600)}, {"parity", StringValue("None")}})
	if !got.Equal(want) {
		t.Errorf("Parse() = %q, want %q", Stringify(got), Stringify(want))
	}
}

func TestParseRootBeforeSections(t *testing.T) {
	text := "sensorModel=PT100\n[Communication]\naddress=0x40\n"
	got, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if v, ok := got.Get("", "sensorModel"); !ok || !v.Equal(StringValue("PT100")) {
		t.Errorf("root sensorModel = %v, %v", v, ok)
	}
	if v, ok := got.Get("Communication", "address"); !ok || !v.Equal(StringValue("0x40")) {
		t.Errorf("Communication.address = %v, %v; want string 0x40", v, ok)
	}
	if _, ok := got.Get("", "address"); ok {
		t.Error("key after header leaked into root scope")
	}
}

func TestParseDuplicateKeyLastWins(t *testing.T) {
	got, err := Parse("[A]\nx=1\ny=2\nx=3\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	s, _ := got.Section("A")
	if keys := s.Keys(); strings.Join(keys, ",") != "x,y" {
		t.Errorf("keys = %v, want [x y]", keys)
	}
	if v, _ := s.Get("x"); !v.Equal(NumberValue(3)) {
		t.Errorf("x = %v, want 3", v)
	}
}

func TestParseRepeatedSectionMerges(t *testing.T) {
	got, err := Parse("[A]\nx=1\n[B]\ny=2\n[A]\nz=3\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := build(nil,
		sectionSpec{"A", []Entry{{"x", NumberValue(1)}, {"z", NumberValue(3)}}},
		sectionSpec{"B", []Entry{{"y", NumberValue(2)}}},
	)
	if !got.Equal(want) {
		t.Errorf("Parse() = %q, want %q", Stringify(got), Stringify(want))
	}
}

func TestParseLineEndings(t *testing.T) {
	unix, err := Parse("[A]\nx=1\ny=two\n")
	if err != nil {
		t.Fatalf("Parse(unix) error = %v", err)
	}
	windows, err := Parse("[A]\r\nx=1\r\ny=two\r\n")
	if err != nil {
		t.Fatalf("Parse(windows) error = %v", err)
	}
	if !unix.Equal(windows) {
		t.Errorf("CRLF parse differs: %q vs %q", Stringify(unix), Stringify(windows))
	}
}

func TestParseKeepsEmptySection(t *testing.T) {
	got, err := Parse("[Empty]\n[A]\nx=1\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(got.Sections()) != 2 {
		t.Fatalf("Sections() = %d, want 2", len(got.Sections()))
	}
	if got.Len() != 1 {
		t.Errorf("Len() = %d, want 1", got.Len())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantErr  error
		wantLine int
		wantRaw  string
		wantCode string
	}{
		{"empty input", "", ErrEmptyInput, 0, "", "empty_input"},
		{"comment only", "; just a comment\n", ErrEmptyConfig, 0, "", "empty_config"},
		{"whitespace only", "  \n\t\n", ErrEmptyConfig, 0, "", "empty_config"},
		{"sections without keys", "[A]\n[B]\n", ErrEmptyConfig, 0, "", "empty_config"},
		{"malformed first line", "General\nunit=C\n", ErrMalformedLine, 1, "General", "malformed_line"},
		{"malformed keeps raw text", "a=1\n  oops  \n", ErrMalformedLine, 2, "  oops  ", "malformed_line"},
		{"malformed duplicate content reports position", "a=1\nbad\nb=2\nbad\n", ErrMalformedLine, 2, "bad", "malformed_line"},
		{"empty key", "[A]\n=5\n", ErrEmptyKey, 2, "=5", "empty_key"},
		{"empty section name", "x=1\n[ ]\n", ErrEmptySectionName, 2, "[ ]", "empty_section_name"},
		{"fails fast", "bad\n=5\n", ErrMalformedLine, 1, "bad", "malformed_line"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse(tt.text)
			if cfg != nil {
				t.Errorf("Parse() returned partial config %q", Stringify(cfg))
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not *ParseError", err)
			}
			if pe.Line != tt.wantLine || pe.Raw != tt.wantRaw {
				t.Errorf("ParseError line/raw = %d/%q, want %d/%q", pe.Line, pe.Raw, tt.wantLine, tt.wantRaw)
			}
			if pe.Code() != tt.wantCode {
				t.Errorf("Code() = %q, want %q", pe.Code(), tt.wantCode)
			}
		})
	}
}

func TestParseErrorMessage(t *testing.T) {
	_, err := Parse("a=1\nGeneral\n")
	if err == nil {
		t.Fatal("Parse() error = nil")
	}
	msg := err.Error()
	if !strings.Contains(msg, "line 2") || !strings.Contains(msg, `"General"`) {
		t.Errorf("error message %q does not name line and content", msg)
	}
}

func TestParseReader(t *testing.T) {
	cfg, err := ParseReader(strings.NewReader("[A]\nx=1\n"))
	if err != nil {
		t.Fatalf("ParseReader() error = %v", err)
	}
	if v, ok := cfg.Get("A", "x"); !ok || !v.Equal(NumberValue(1)) {
		t.Errorf("A.x = %v, %v", v, ok)
	}
}

func TestConfigCloneIsIndependent(t *testing.T) {
	orig, err := Parse("root=1\n[A]\nx=1\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	cpy := orig.Clone()
	cpy.Set("A", "x", NumberValue(2))
	cpy.Set("B", "y", BoolValue(true))
	cpy.Root().Delete("root")

	if v, _ := orig.Get("A", "x"); !v.Equal(NumberValue(1)) {
		t.Errorf("original A.x changed to %v", v)
	}
	if _, ok := orig.Section("B"); ok {
		t.Error("original gained section B")
	}
	if _, ok := orig.Get("", "root"); !ok {
		t.Error("original lost root key")
	}
	if orig.Equal(cpy) {
		t.Error("Equal() = true after diverging edits")
	}
}
