package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// decimalPattern accepts plain decimal notation with an optional exponent.
// Go-only forms such as "inf", hex floats and digit separators are excluded.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// Amount holds a monetary value exactly as the client sent it: a JSON number
// or a numeric string. Any other JSON value is kept as its JSON text.
// Amounts are not validated; unparsable text yields NaN from Float.
type Amount struct {
	text    string
	numeric bool
	set     bool
}

// NumberAmount builds an amount from a numeric value.
func NumberAmount(v float64) Amount {
	return Amount{text: strconv.FormatFloat(v, 'f', -1, 64), numeric: true, set: true}
}

// StringAmount builds an amount from its textual form.
func StringAmount(s string) Amount {
	return Amount{text: s, set: true}
}

// IsNumeric reports whether the amount arrived as a JSON number.
func (a Amount) IsNumeric() bool { return a.numeric }

// IsZero reports whether the amount counts as absent: unset, null, false,
// an empty string or the number zero.
func (a Amount) IsZero() bool {
	if !a.set || a.text == "" {
		return true
	}
	if a.numeric {
		f, err := strconv.ParseFloat(a.text, 64)
		return err == nil && f == 0
	}
	return false
}

// String returns the amount verbatim.
func (a Amount) String() string { return a.text }

// Float converts the amount to a float64. Empty text is 0; text that is not
// a decimal number is NaN.
func (a Amount) Float() float64 {
	s := strings.TrimSpace(a.text)
	if s == "" {
		return 0
	}
	if !decimalPattern.MatchString(s) {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Overflow reports ErrRange alongside ±Inf.
		if errors.Is(err, strconv.ErrRange) {
			return f
		}
		return math.NaN()
	}
	return f
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.set {
		return []byte("null"), nil
	}
	if a.numeric {
		return []byte(a.text), nil
	}
	return json.Marshal(a.text)
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*a = Amount{}
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = StringAmount(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err == nil {
			*a = Amount{text: n.String(), numeric: true, set: true}
			return nil
		}
		*a = StringAmount(string(data))
	}
	return nil
}
