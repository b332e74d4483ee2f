package spatialmath

import "math"

const defaultFloatTol = 1e-9

// Float64AlmostEqual determines if two float64s are equal to within a given
// absolute epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}
