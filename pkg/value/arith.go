package value

import "math"

// Add implements the script "+" operator. When either side is a string the
// operands are concatenated, otherwise both are coerced to numbers. Integer
// operands stay integers while the result fits in 32 bits.
func Add(a, b Value) Value {
	if a.Type == TypeString || b.Type == TypeString {
		return String(a.ToString() + b.ToString())
	}
	if a.Type == TypeInteger && b.Type == TypeInteger {
		return fromInt64(int64(a.IntVal) + int64(b.IntVal))
	}
	return Number(a.ToNumber() + b.ToNumber())
}

// Sub implements the script "-" operator.
func Sub(a, b Value) Value {
	if a.Type == TypeInteger && b.Type == TypeInteger {
		return fromInt64(int64(a.IntVal) - int64(b.IntVal))
	}
	return Number(a.ToNumber() - b.ToNumber())
}

// Mul implements the script "*" operator.
func Mul(a, b Value) Value {
	if a.Type == TypeInteger && b.Type == TypeInteger {
		// 0 * -n is -0, which has no integer form
		if (a.IntVal == 0 && b.IntVal < 0) || (b.IntVal == 0 && a.IntVal < 0) {
			return Number(math.Copysign(0, -1))
		}
		return fromInt64(int64(a.IntVal) * int64(b.IntVal))
	}
	return Number(a.ToNumber() * b.ToNumber())
}

// Div implements the script "/" operator. The result is always a number.
func Div(a, b Value) Value {
	return Number(a.ToNumber() / b.ToNumber())
}

// Mod implements the script "%" operator (truncated remainder, sign of the
// dividend).
func Mod(a, b Value) Value {
	if a.Type == TypeInteger && b.Type == TypeInteger && b.IntVal != 0 {
		r := int64(a.IntVal) % int64(b.IntVal)
		if r == 0 && a.IntVal < 0 {
			return Number(math.Copysign(0, -1))
		}
		return fromInt64(r)
	}
	return Number(math.Mod(a.ToNumber(), b.ToNumber()))
}

func fromInt64(n int64) Value {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return Number(float64(n))
	}
	return Integer(int32(n))
}
