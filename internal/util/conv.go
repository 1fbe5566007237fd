package util

// FloatPtr returns a pointer to a copy of v.
func FloatPtr(v float64) *float64 {
	return &v
}
