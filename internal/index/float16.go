package index

import "math"

// IEEE 754 half-precision conversion. Embeddings persisted with the
// float16 precision option lose ~3 decimal digits of mantissa; similarity
// scores for a fixed query stay within 1e-3 of the float32 values and the
// ranking order is unchanged in practice.

// float16bits converts a float32 to its nearest half-precision bit pattern
// (round to nearest, ties up).
func float16bits(f float32) uint16 {
	b := math.Float32bits(f)
	sign := uint16(b>>16) & 0x8000
	exp := int32(b>>23&0xff) - 127 + 15
	mant := b & 0x7fffff

	switch {
	case exp >= 0x1f:
		// Overflow and infinity map to inf, NaN stays NaN.
		if b>>23&0xff == 0xff && mant != 0 {
			return sign | 0x7e00
		}
		return sign | 0x7c00
	case exp <= 0:
		if exp < -10 {
			return sign // underflow to signed zero
		}
		mant |= 0x800000
		shift := uint32(14 - exp)
		half := uint16(mant >> shift)
		if mant>>(shift-1)&1 != 0 {
			half++
		}
		return sign | half
	default:
		half := sign | uint16(exp)<<10 | uint16(mant>>13)
		if mant&0x1000 != 0 {
			half++ // carry may roll into the exponent, which is correct
		}
		return half
	}
}

// float16frombits converts a half-precision bit pattern back to float32.
func float16frombits(h uint16) float32 {
	sign := uint32(h>>15) & 1
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h) & 0x3ff

	var bits uint32
	switch exp {
	case 0:
		if mant == 0 {
			bits = sign << 31
		} else {
			e := uint32(127 - 15 + 1)
			for mant&0x400 == 0 {
				mant <<= 1
				e--
			}
			bits = sign<<31 | e<<23 | (mant&0x3ff)<<13
		}
	case 0x1f:
		bits = sign<<31 | 0xff<<23 | mant<<13
	default:
		bits = sign<<31 | (exp-15+127)<<23 | mant<<13
	}
	return math.Float32frombits(bits)
}

// quantizeHalf rounds every component through half precision in place, so
// that in-memory scores match what a save/load cycle will produce.
func quantizeHalf(vec []float32) {
	for i, f := range vec {
		vec[i] = float16frombits(float16bits(f))
	}
}

func vectorToHalf(vec []float32) []uint16 {
	out := make([]uint16, len(vec))
	for i, f := range vec {
		out[i] = float16bits(f)
	}
	return out
}

func vectorFromHalf(bits []uint16) []float32 {
	out := make([]float32, len(bits))
	for i, h := range bits {
		out[i] = float16frombits(h)
	}
	return out
}
