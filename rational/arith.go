package rational

import "math"

// mul64 reports false when a*b does not fit in an int64 (MinInt64 counts as
// overflow so that negation stays safe).
func mul64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if c/b != a || c == math.MinInt64 || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return c, true
}

func add64(a, b int64) (int64, bool) {
	c := a + b
	if (c > a) != (b > 0) || c == math.MinInt64 {
		return 0, false
	}
	return c, true
}

func cmp64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func abs64(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

// gcd of two non-negative values; gcd(0, b) = b.
func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// Sum adds all values.
func Sum(values ...Rat) Rat {
	total := Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
