package audio

const (
	InterpScalar = "scalar"
	InterpBatch4 = "batch4"
)

// An interpolator computes dst[n] from the window at integer index idx[n]
// and fractional position frac[n]. win must hold at least idx[n]+2 values.
// All implementations produce identical results.
type interpolator interface {
	interpolate(dst, win []float32, idx []int32, frac []float32)
}

var interpolators = map[string]interpolator{
	InterpScalar: scalar{},
	InterpBatch4: batch4{},
}

func Interpolations() []string { return []string{InterpScalar, InterpBatch4} }

type scalar struct{}

func (scalar) interpolate(dst, win []float32, idx []int32, frac []float32) {
	for n := range dst {
		i := idx[n]
		y0, y1 := win[i], win[i+1]
		dst[n] = y0 + (y1-y0)*frac[n]
	}
}

// batch4 handles four outputs per iteration.
type batch4 struct{}

func (batch4) interpolate(dst, win []float32, idx []int32, frac []float32) {
	n := 0
	for ; n+4 <= len(dst); n += 4 {
		i0, i1, i2, i3 := idx[n], idx[n+1], idx[n+2], idx[n+3]
		a0, a1, a2, a3 := win[i0], win[i1], win[i2], win[i3]
		b0, b1, b2, b3 := win[i0+1], win[i1+1], win[i2+1], win[i3+1]
		dst[n] = a0 + (b0-a0)*frac[n]
		dst[n+1] = a1 + (b1-a1)*frac[n+1]
		dst[n+2] = a2 + (b2-a2)*frac[n+2]
		dst[n+3] = a3 + (b3-a3)*frac[n+3]
	}
	for ; n < len(dst); n++ {
		i := idx[n]
		y0, y1 := win[i], win[i+1]
		dst[n] = y0 + (y1-y0)*frac[n]
	}
}
