package util

import (
	"math"
	"strconv"
)

// DisplayAmount is a floating-point rendering of a base-unit amount, used
// for UI strings and log fields only. Values of this type must never flow
// back into a transaction request; everything signed stays integral.
type DisplayAmount float64

// ToDisplay approximates base units in display units. Precision is capped
// by the float64 mantissa, which is fine for display.
func ToDisplay(baseUnits uint64, decimals int) DisplayAmount {
	return DisplayAmount(float64(baseUnits) / math.Pow10(decimals))
}

func (d DisplayAmount) String() string {
	return strconv.FormatFloat(float64(d), 'f', -1, 64)
}
