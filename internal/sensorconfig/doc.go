// Package sensorconfig implements the sensor configuration text format used
// to store per-sensor-type settings (communication parameters, measurement
// ranges, units).
//
// The format is a small line-oriented key=value notation with optional
// one-level [Section] grouping:
//
//	; Temperature probe
//	[General]
//	unit=℃
//	enable=true
//
//	[Range]
//	min=-40
//	max=125
//
// A document without section headers is in flat mode: every key sits in the
// root scope. Keys appearing before the first header in a sectioned document
// are kept in the same root scope alongside the named sections.
//
// # Components
//
//   - Coerce: turns a raw value token into a typed Value (bool, number, string)
//   - Classify: classifies one line (blank, comment, section, key=value, malformed)
//   - Parse: builds a Config from text, failing fast on the first bad line
//   - Stringify: renders a Config back to text (root keys first, then sections)
//   - Format: flattens a Config into labelled rows for read-only display
//
// Configs also convert to and from ordered JSON objects (see MarshalJSON and
// FromJSON), which is the shape stored by the sensor type catalogue.
//
// # Round-trip
//
// Parse(Stringify(cfg)) is semantically equal to cfg (same keys, values and
// grouping, not the same bytes) unless cfg holds a String that reads back as
// another kind, such as "42", "true" or " padded ". Stringify writes strings
// verbatim, so text like quoted="42" parses to String("42") but comes back
// as Number(42). WithQuotedAmbiguousStrings quotes exactly those strings and
// makes the round trip exact for every Config that passes Validate.
//
// # Thread Safety
//
// Parse, Stringify and Format are pure functions and may be called
// concurrently. A *Config is not safe for concurrent mutation.
package sensorconfig
