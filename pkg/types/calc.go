// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Calc is the partial numeric record attached to a growth claim. Any subset
// of the fields may be absent depending on which pattern produced the claim.
type Calc struct {
	Base    *float64 `json:"base" yaml:"base"`
	Current *float64 `json:"current" yaml:"current"`
	Delta   *float64 `json:"delta" yaml:"delta"`
	Pct     *float64 `json:"pct" yaml:"pct"`

	// malformed records fields that held non-numeric values when decoded.
	malformed map[string]string
}

// Float returns a pointer to v, for building Calc literals.
func Float(v float64) *float64 {
	return &v
}

// Calc field names, in the order they are reported and encoded.
const (
	FieldBase    = "base"
	FieldCurrent = "current"
	FieldDelta   = "delta"
	FieldPct     = "pct"
)

// Err reports the first malformed field seen while decoding, in field order.
// It returns nil for calcs built in code.
func (c Calc) Err() error {
	if len(c.malformed) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.malformed))
	for k := range c.malformed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return calcFieldRank(keys[i]) < calcFieldRank(keys[j]) })
	return c.FieldErr(keys[0])
}

// FieldErr reports whether the named field held a value that is not a number.
func (c Calc) FieldErr(name string) error {
	v, ok := c.malformed[name]
	if !ok {
		return nil
	}
	return fmt.Errorf("could not convert %s to float: %s", name, v)
}

// Has reports whether the named field was given at all, numeric or not.
func (c Calc) Has(name string) bool {
	if _, ok := c.malformed[name]; ok {
		return true
	}
	p, ok := c.fields()[name]
	return ok && *p != nil
}

func (c *Calc) fields() map[string]**float64 {
	return map[string]**float64{
		FieldBase:    &c.Base,
		FieldCurrent: &c.Current,
		FieldDelta:   &c.Delta,
		FieldPct:     &c.Pct,
	}
}

// IsEmpty reports whether no numeric field is populated.
func (c Calc) IsEmpty() bool {
	return c.Base == nil && c.Current == nil && c.Delta == nil && c.Pct == nil && len(c.malformed) == 0
}

var calcFields = []string{FieldBase, FieldCurrent, FieldDelta, FieldPct}

func calcFieldRank(name string) int {
	for i, f := range calcFields {
		if f == name {
			return i
		}
	}
	return len(calcFields)
}

// Spellings of non-finite values. encoding/json has no literal for them, so
// they travel as strings.
const (
	posInf = "Infinity"
	negInf = "-Infinity"
	notNum = "NaN"
)

// MarshalJSON writes every field, absent ones as null. Non-finite values
// are written as the strings "Infinity", "-Infinity" and "NaN".
func (c Calc) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	fields := c.fields()
	for i, name := range calcFields {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:", name)
		p := *fields[name]
		switch {
		case p == nil:
			buf.WriteString("null")
		case math.IsInf(*p, 1):
			fmt.Fprintf(&buf, "%q", posInf)
		case math.IsInf(*p, -1):
			fmt.Fprintf(&buf, "%q", negInf)
		case math.IsNaN(*p):
			fmt.Fprintf(&buf, "%q", notNum)
		default:
			b, err := json.Marshal(*p)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a calc leniently. Numbers populate their field and
// null leaves it absent. Strings are not numbers, with two exceptions: the
// non-finite spellings written by MarshalJSON, and pct, which also accepts
// a plain numeric string such as "12.5". Anything else is recorded and
// reported by FieldErr so that one bad claim does not prevent a whole claim
// graph from loading.
func (c *Calc) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding calc: %w", err)
	}

	*c = Calc{}
	targets := c.fields()
	for _, name := range calcFields {
		msg, ok := raw[name]
		if !ok {
			continue
		}
		v, present, err := decodeNumber(msg, name == FieldPct)
		if err != nil {
			if c.malformed == nil {
				c.malformed = make(map[string]string)
			}
			c.malformed[name] = err.Error()
			continue
		}
		if present {
			*targets[name] = Float(v)
		}
	}
	return nil
}

// decodeNumber interprets one JSON value as a float. Numeric strings are
// accepted only when numericString is set; thousands separators never are.
func decodeNumber(msg json.RawMessage, numericString bool) (v float64, present bool, err error) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0, false, nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return 0, false, fmt.Errorf("%s", trimmed)
		}
		switch s {
		case posInf:
			return math.Inf(1), true, nil
		case negInf:
			return math.Inf(-1), true, nil
		case notNum:
			return math.NaN(), true, nil
		}
		if numericString {
			if f, perr := strconv.ParseFloat(strings.TrimSpace(s), 64); perr == nil {
				return f, true, nil
			}
		}
		return 0, false, fmt.Errorf("%q", s)
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return 0, false, fmt.Errorf("%s", trimmed)
	}
	f, perr := n.Float64()
	if perr != nil && !errors.Is(perr, strconv.ErrRange) {
		return 0, false, fmt.Errorf("%s", trimmed)
	}
	return f, true, nil
}
