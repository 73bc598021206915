package domain

import "math"

// Cents converts a price expressed in major currency units to integer minor
// units. All amount arithmetic and comparisons downstream of the cart use this
// representation; floats never survive past the conversion.
func Cents(price float64) int64 {
	return int64(math.Round(price * 100))
}
