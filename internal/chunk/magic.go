package chunk

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// MagicNumber is a numeric literal found in source. Integers keep arbitrary
// precision; floats are float64 like the literal's runtime value.
type MagicNumber struct {
	i *big.Int
	f float64
}

// Int returns an integer magic number.
func Int(v int64) MagicNumber {
	return MagicNumber{i: big.NewInt(v)}
}

// Float returns a floating-point magic number.
func Float(v float64) MagicNumber {
	return MagicNumber{f: v}
}

// ParseLiteral parses the text of a numeric literal as written in source:
// decimal, hex, octal and binary integers with optional underscores, and
// decimal floats with optional exponent. It reports false for imaginary
// literals, Python 2 integer forms and text that is not a finite number.
func ParseLiteral(text string) (MagicNumber, bool) {
	s := strings.ReplaceAll(text, "_", "")
	if s == "" || IsLegacyInteger(text) {
		return MagicNumber{}, false
	}

	switch s[len(s)-1] {
	case 'j', 'J':
		return MagicNumber{}, false
	}

	if isIntegerLiteral(s) {
		v, ok := parseInteger(s)
		if !ok {
			return MagicNumber{}, false
		}
		return MagicNumber{i: v}, true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return MagicNumber{}, false
	}
	return MagicNumber{f: f}, true
}

// IsLegacyInteger reports whether text is a Python 2 integer literal that
// Python 3 rejects: a long suffix ("10L") or a decimal with leading zeros
// ("017"). Runs of zeros such as "00" are valid.
func IsLegacyInteger(text string) bool {
	s := strings.ReplaceAll(text, "_", "")
	if s == "" {
		return false
	}
	switch s[len(s)-1] {
	case 'l', 'L':
		return true
	case 'j', 'J':
		return false
	}
	if len(s) < 2 || s[0] != '0' || strings.ContainsAny(s, ".eExXoObB") {
		return false
	}
	return strings.Trim(s, "0") != ""
}

func isIntegerLiteral(s string) bool {
	if len(s) > 1 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			return true
		}
	}
	return !strings.ContainsAny(s, ".eE")
}

func parseInteger(s string) (*big.Int, bool) {
	base := 10
	if len(s) > 1 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			base, s = 16, s[2:]
		case 'o', 'O':
			base, s = 8, s[2:]
		case 'b', 'B':
			base, s = 2, s[2:]
		}
	}
	return new(big.Int).SetString(s, base)
}

// IsInt reports whether the literal was an integer.
func (m MagicNumber) IsInt() bool {
	return m.i != nil
}

// IsTrivial reports whether the value equals 0 or 1.
func (m MagicNumber) IsTrivial() bool {
	if m.i != nil {
		return m.i.IsInt64() && (m.i.Int64() == 0 || m.i.Int64() == 1)
	}
	return m.f == 0 || m.f == 1
}

// Float64 returns the value as a float64, rounding large integers.
func (m MagicNumber) Float64() float64 {
	if m.i != nil {
		f, _ := new(big.Float).SetInt(m.i).Float64()
		return f
	}
	return m.f
}

// Cmp compares numeric values exactly: -1, 0 or +1.
func (m MagicNumber) Cmp(o MagicNumber) int {
	if m.i != nil && o.i != nil {
		return m.i.Cmp(o.i)
	}
	return m.bigFloat().Cmp(o.bigFloat())
}

func (m MagicNumber) bigFloat() *big.Float {
	if m.i != nil {
		return new(big.Float).SetInt(m.i)
	}
	return new(big.Float).SetFloat64(m.f)
}

// String formats integers in decimal and floats in their shortest
// round-trip form, always with a fraction or exponent (5.0, 0.25, 1e+16).
func (m MagicNumber) String() string {
	if m.i != nil {
		return m.i.String()
	}
	return formatFloat(m.f)
}

func formatFloat(f float64) string {
	if f == 0 {
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// MarshalJSON writes the number as a bare JSON number.
func (m MagicNumber) MarshalJSON() ([]byte, error) {
	if m.i == nil && (math.IsInf(m.f, 0) || math.IsNaN(m.f)) {
		return nil, fmt.Errorf("unsupported magic number value: %v", m.f)
	}
	return []byte(m.String()), nil
}

// UnmarshalJSON reads a JSON number; numbers without a fraction or exponent
// are integers.
func (m *MagicNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	text := string(data)
	if !strings.ContainsAny(text, ".eE") {
		v, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return fmt.Errorf("invalid magic number: %s", text)
		}
		*m = MagicNumber{i: v}
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("invalid magic number: %w", err)
	}
	*m = MagicNumber{f: f}
	return nil
}

// SortedSet sorts numbers ascending and drops numerically equal duplicates,
// keeping the first occurrence.
func SortedSet(nums []MagicNumber) []MagicNumber {
	out := make([]MagicNumber, 0, len(nums))
	for _, n := range nums {
		dup := false
		for _, seen := range out {
			if seen.Cmp(n) == 0 {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Cmp(out[b]) < 0
	})
	return out
}
