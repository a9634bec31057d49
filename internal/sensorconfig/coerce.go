package sensorconfig

import (
	"math"
	"regexp"
	"strconv"
)

// decimalPattern accepts optionally signed decimals with an optional
// fractional part. Hex, exponents, Infinity and NaN are deliberately absent.
var decimalPattern = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)$`)

// Coerce converts a trimmed value token into a typed Value.
//
// Rules, in order:
//  1. A token wrapped in a matching pair of double or single quotes is a
//     string with the quotes removed. Quoted tokens are never coerced further.
//  2. The literals true and false are booleans.
//  3. A finite decimal number (e.g. 42, -40, 3.5, .5) is a number.
//  4. Anything else, including hex such as 0x40, is the token verbatim.
func Coerce(token string) Value {
	if inner, ok := unquote(token); ok {
		return StringValue(inner)
	}

	switch token {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}

	if decimalPattern.MatchString(token) {
		f, err := strconv.ParseFloat(token, 64)
		if err == nil && !math.IsInf(f, 0) {
			return NumberValue(f)
		}
	}

	return StringValue(token)
}

// unquote strips one matching pair of surrounding quotes.
func unquote(token string) (string, bool) {
	if len(token) < 2 {
		return token, false
	}
	first, last := token[0], token[len(token)-1]
	if first != last || (first != '"' && first != '\'') {
		return token, false
	}
	return token[1 : len(token)-1], true
}
