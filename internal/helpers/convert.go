// Package helpers holds small numeric conversions shared by the decoder, the
// journal and the API.
//
// Wire fields are fixed-width unsigned integers while Go lengths and query
// parameters are ints; the Clamp functions convert between them without
// wrapping around.
package helpers

import "math"

// ClampInt restricts v to the range [lowerLimit, upperLimit].
func ClampInt(v, lowerLimit, upperLimit int) int {
	if v < lowerLimit {
		return lowerLimit
	}
	if v > upperLimit {
		return upperLimit
	}
	return v
}

// ClampIntToUint16 converts v to uint16, saturating at 0 and math.MaxUint16.
// Section counts and RDLENGTH are built with it.
func ClampIntToUint16(v int) uint16 {
	return uint16(ClampInt(v, 0, math.MaxUint16)) //nolint:gosec // clamped to valid range
}
