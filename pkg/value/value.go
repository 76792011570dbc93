// Package value provides the script value representation used by the
// register VM: undefined, null, booleans, numbers, integers and strings.
//
// Values are small immutable structs. Strings are shared by reference and
// traced by the Go collector, so copying a Value between the register file
// and an environment never duplicates the payload.
package value

import (
	"math"
	"strconv"
	"strings"
)

// Type represents the type of a script value
type Type uint8

const (
	TypeUndefined Type = iota
	TypeNull
	TypeBool
	TypeInteger
	TypeNumber
	TypeString
)

// String returns the script-level type name.
func (t Type) String() string {
	switch t {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBool:
		return "boolean"
	case TypeInteger:
		return "integer"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	default:
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
}

// Value is the Go representation of a script value.
// The zero Value is undefined.
type Value struct {
	Type    Type    `cbor:"t"`
	IntVal  int32   `cbor:"i,omitempty"`
	NumVal  float64 `cbor:"n"`
	StrVal  string  `cbor:"s,omitempty"`
	BoolVal bool    `cbor:"b,omitempty"`
}

// Undefined returns the undefined sentinel
func Undefined() Value {
	return Value{Type: TypeUndefined}
}

// Null returns the null value
func Null() Value {
	return Value{Type: TypeNull}
}

// Bool creates a boolean value
func Bool(b bool) Value {
	return Value{Type: TypeBool, BoolVal: b}
}

// Integer creates an integer value
func Integer(n int32) Value {
	return Value{Type: TypeInteger, IntVal: n}
}

// Number creates a floating point number value
func Number(f float64) Value {
	return Value{Type: TypeNumber, NumVal: f}
}

// String creates a string value
func String(s string) Value {
	return Value{Type: TypeString, StrVal: s}
}

// IsUndefined returns true if the value is undefined
func (v Value) IsUndefined() bool {
	return v.Type == TypeUndefined
}

// IsNumeric returns true for integers and numbers.
func (v Value) IsNumeric() bool {
	return v.Type == TypeInteger || v.Type == TypeNumber
}

// ToNumber converts the value to a float64 using script coercion rules.
func (v Value) ToNumber() float64 {
	switch v.Type {
	case TypeInteger:
		return float64(v.IntVal)
	case TypeNumber:
		return v.NumVal
	case TypeBool:
		if v.BoolVal {
			return 1
		}
		return 0
	case TypeNull:
		return 0
	case TypeString:
		return stringToNumber(v.StrVal)
	default:
		return math.NaN()
	}
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if n, err := strconv.ParseUint(s[2:], 16, 64); err == nil {
			return float64(n)
		}
		return math.NaN()
	}
	// ParseFloat accepts spellings like "inf" and "1_0" that scripts do not
	if strings.ContainsAny(s, "_iInN") {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ToString converts the value to its script string form.
func (v Value) ToString() string {
	switch v.Type {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBool:
		if v.BoolVal {
			return "true"
		}
		return "false"
	case TypeInteger:
		return strconv.FormatInt(int64(v.IntVal), 10)
	case TypeNumber:
		return formatNumber(v.NumVal)
	case TypeString:
		return v.StrVal
	default:
		return ""
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// Go writes 1e+21 and 1e-07, scripts write 1e+21 and 1e-7
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		exp = strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + exp
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// String returns a debug representation. Strings are quoted so that the
// listing of LOAD r0, "7" can be told apart from LOAD r0, 7.
func (v Value) String() string {
	if v.Type == TypeString {
		return strconv.Quote(v.StrVal)
	}
	return v.ToString()
}

// Equal reports whether two values are the same type and payload.
// NaN is equal to NaN here, which is what tests and binding stores need.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeBool:
		return v.BoolVal == o.BoolVal
	case TypeInteger:
		return v.IntVal == o.IntVal
	case TypeNumber:
		if math.IsNaN(v.NumVal) && math.IsNaN(o.NumVal) {
			return true
		}
		return v.NumVal == o.NumVal
	case TypeString:
		return v.StrVal == o.StrVal
	default:
		return true
	}
}
