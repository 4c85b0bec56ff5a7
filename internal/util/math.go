package util

import "math/bits"

// CheckedAdd returns a + b and whether the sum fits in a uint64. Fee math on
// network-supplied values goes through here instead of wrapping silently.
func CheckedAdd(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

// CheckedMul returns a * b and whether the product fits in a uint64.
func CheckedMul(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}
