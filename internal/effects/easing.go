package effects

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// easeInOutCubic applies smooth easing function
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - pow(-2*t+2, 3)/2
}

// easeOutBack overshoots the target slightly before settling
func easeOutBack(t float64) float64 {
	const c1 = 1.70158
	const c3 = c1 + 1
	return 1 + c3*pow(t-1, 3) + c1*pow(t-1, 2)
}

// pow calculates x^n
func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}
