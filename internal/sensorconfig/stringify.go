package sensorconfig

import (
	"strings"
)

type stringifyOptions struct {
	quoteAmbiguous bool
}

// StringifyOption adjusts Stringify output.
type StringifyOption func(*stringifyOptions)

// WithQuotedAmbiguousStrings wraps string values in double quotes when they
// would otherwise read back as a different value (e.g. "42", "true",
// surrounding whitespace or quotes). With it, Parse(Stringify(cfg)) equals
// cfg for every Config.
func WithQuotedAmbiguousStrings() StringifyOption {
	return func(o *stringifyOptions) { o.quoteAmbiguous = true }
}

// Stringify renders cfg as configuration text.
//
// Root keys come first without a header, then each section as a [Name]
// header followed by its key=value lines, sections separated by a blank
// line. Trailing whitespace is trimmed. A nil Config renders as "".
func Stringify(cfg *Config, opts ...StringifyOption) string {
	if cfg == nil {
		return ""
	}

	var o stringifyOptions
	for _, opt := range opts {
		opt(&o)
	}

	var b strings.Builder
	writeEntries(&b, cfg.root, o)
	if cfg.root.Len() > 0 && len(cfg.sections) > 0 {
		b.WriteByte('\n')
	}

	for _, s := range cfg.sections {
		b.WriteByte('[')
		b.WriteString(s.name)
		b.WriteString("]\n")
		writeEntries(&b, s, o)
		b.WriteByte('\n')
	}

	return strings.TrimRight(b.String(), " \t\r\n")
}

func writeEntries(b *strings.Builder, s *Section, o stringifyOptions) {
	for _, k := range s.keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(renderValue(s.values[k], o))
		b.WriteByte('\n')
	}
}

func renderValue(v Value, o stringifyOptions) string {
	if v.kind != KindString || !o.quoteAmbiguous {
		return v.String()
	}
	if strings.TrimSpace(v.s) != v.s || !Coerce(v.s).Equal(v) {
		return `"` + v.s + `"`
	}
	return v.s
}
