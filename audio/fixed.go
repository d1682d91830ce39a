package audio

import (
	"fmt"
	"math"
	"math/bits"
)

const (
	fracBits = 24
	fracOne  = 1 << fracBits
	fracMask = fracOne - 1
)

// Fixed is a signed 8.24 fixed point number. It covers [-128, 128) and is
// used for filter coefficients and other short-lived per-sample values.
type Fixed int32

// Wide is a signed 40.24 fixed point number used for absolute sample
// positions. At 48kHz it runs for more than two months before overflowing.
type Wide int64

// FixedFromFloat panics if f is outside the representable range.
func FixedFromFloat(f float64) Fixed {
	if f < -128 || f >= 128 || math.IsNaN(f) {
		panic(fmt.Sprintf("fixed: %v out of range", f))
	}
	return Fixed(f * fracOne)
}

func FixedFromInt(n int) Fixed {
	if n < -128 || n > 127 {
		panic(fmt.Sprintf("fixed: %d out of range", n))
	}
	return Fixed(int32(n) << fracBits)
}

func (a Fixed) Add(b Fixed) Fixed { return a + b }
func (a Fixed) Sub(b Fixed) Fixed { return a - b }

func (a Fixed) Mul(b Fixed) Fixed {
	return Fixed((int64(a) * int64(b)) >> fracBits)
}

func (a Fixed) Div(b Fixed) Fixed {
	return Fixed((int64(a) << fracBits) / int64(b))
}

// Int returns the integer part, rounded towards negative infinity.
func (a Fixed) Int() int { return int(a >> fracBits) }

// Frac returns the fractional part, always in [0, 1).
func (a Fixed) Frac() Fixed { return a & fracMask }

func (a Fixed) Float() float64 { return float64(a) / fracOne }

func (a Fixed) Cmp(b Fixed) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (a Fixed) String() string { return fmt.Sprintf("%.6f", a.Float()) }

// WideFromFloat truncates silently; positions are never negative and are
// bounded by practical song length.
func WideFromFloat(f float64) Wide { return Wide(f * fracOne) }

func WideFromInt(n int64) Wide { return Wide(n << fracBits) }

func (a Wide) Add(b Wide) Wide { return a + b }
func (a Wide) Sub(b Wide) Wide { return a - b }

// Mul uses a 128 bit intermediate product.
func (a Wide) Mul(b Wide) Wide {
	neg := (a < 0) != (b < 0)
	hi, lo := bits.Mul64(abs64(int64(a)), abs64(int64(b)))
	r := Wide(hi<<(64-fracBits) | lo>>fracBits)
	if neg {
		return -r
	}
	return r
}

// Div uses a 128 bit intermediate dividend. It panics on division by zero
// or if the quotient overflows.
func (a Wide) Div(b Wide) Wide {
	neg := (a < 0) != (b < 0)
	n, d := abs64(int64(a)), abs64(int64(b))
	q, _ := bits.Div64(n>>(64-fracBits), n<<fracBits, d)
	if neg {
		return -Wide(q)
	}
	return Wide(q)
}

// MulInt scales a by an integer without any rounding.
func (a Wide) MulInt(n int64) Wide { return a * Wide(n) }

func (a Wide) Int() int64 { return int64(a >> fracBits) }

func (a Wide) Frac() Fixed { return Fixed(a & fracMask) }

func (a Wide) Float() float64 { return float64(a) / fracOne }

func (a Wide) Cmp(b Wide) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (a Wide) String() string { return fmt.Sprintf("%.6f", a.Float()) }

func abs64(n int64) uint64 {
	if n < 0 {
		return uint64(-n)
	}
	return uint64(n)
}
